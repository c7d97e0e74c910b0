package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/coach-api/internal/api"
	apiMiddleware "github.com/phrazzld/coach-api/internal/api/middleware"
	"github.com/phrazzld/coach-api/internal/config"
	"github.com/phrazzld/coach-api/internal/events"
	"github.com/phrazzld/coach-api/internal/platform/gemini"
	"github.com/phrazzld/coach-api/internal/platform/postgres"
	"github.com/phrazzld/coach-api/internal/ratelimit"
	"github.com/phrazzld/coach-api/internal/service"
	"github.com/phrazzld/coach-api/internal/service/auth"
	"github.com/phrazzld/coach-api/internal/task"
)

// handlers groups the HTTP handlers mounted by setupRouter.
type handlers struct {
	generation *api.GenerationHandler
	chat       *api.ChatHandler
	progress   *api.ProgressHandler
	library    *api.LibraryHandler
	settings   *api.SettingsHandler
}

// application holds the shared dependencies of the server so that they can
// be shut down in order.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	auth     *apiMiddleware.AuthMiddleware
	limiter  *ratelimit.Limiter
	handlers handlers

	taskRunner *task.Runner
}

// newApplication wires stores, the generation pipeline, services and
// handlers. The task runner is created but not started.
func newApplication(
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
	windows ratelimit.WindowStore,
) (*application, error) {
	app := &application{config: cfg, logger: logger, db: db}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	app.auth = apiMiddleware.NewAuthMiddleware(jwtService)
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.limiter, err = ratelimit.New(windows, ratelimit.Config{
		Limit:  cfg.RateLimit.Limit,
		Window: cfg.RateLimit.Window(),
		Expiry: cfg.RateLimit.Expiry(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize rate limiter: %w", err)
	}

	taskStore := postgres.NewPostgresTaskStore(db, logger)
	topicStore := postgres.NewPostgresTopicStore(db, logger)
	lessonStore := postgres.NewPostgresLessonStore(db, logger)
	bookStore := postgres.NewPostgresBookStore(db, logger)
	conversationStore := postgres.NewPostgresConversationStore(db, logger)
	progressStore := postgres.NewPostgresProgressStore(db, logger)
	settingsStore := postgres.NewPostgresSettingsStore(db, logger)

	aiSettings := config.NewFallbackSettings(
		settingsStore,
		config.AISettings(config.NewStaticSettings(cfg.LLM)),
		logger,
	)
	generators := gemini.NewFactory(aiSettings, cfg.LLM, nil, logger.With("component", "llm_generator"))

	jobs, err := task.NewGenerationJobFactory(task.JobDeps{
		DB:         db,
		Generators: generators,
		Topics:     topicStore,
		Lessons:    lessonStore,
		Books:      bookStore,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create job factory: %w", err)
	}

	tracker := task.NewTracker(taskStore, logger)
	runnerConfig := task.DefaultRunnerConfig()
	runnerConfig.WorkerCount = cfg.Task.WorkerCount
	runnerConfig.QueueSize = cfg.Task.QueueSize
	runnerConfig.StuckTaskAge = cfg.Task.StuckTaskAge()
	app.taskRunner = task.NewRunner(tracker, jobs, runnerConfig, logger)

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(events.TypeGenerationRequested, task.NewSubmitEventHandler(app.taskRunner, logger))

	generationService, err := service.NewGenerationService(tracker, emitter, topicStore, lessonStore, bookStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create generation service: %w", err)
	}
	chatService, err := service.NewChatService(generators, conversationStore, progressStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat service: %w", err)
	}
	progressService, err := service.NewProgressService(db, progressStore, lessonStore, conversationStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create progress service: %w", err)
	}
	libraryService, err := service.NewLibraryService(lessonStore, bookStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create library service: %w", err)
	}
	settingsService, err := service.NewSettingsService(settingsStore, aiSettings, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create settings service: %w", err)
	}

	app.handlers = handlers{
		generation: api.NewGenerationHandler(generationService),
		chat:       api.NewChatHandler(chatService),
		progress:   api.NewProgressHandler(progressService),
		library:    api.NewLibraryHandler(libraryService, progressService),
		settings:   api.NewSettingsHandler(settingsService),
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// cleanup stops the workers and closes the database.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}
	app.logger.Info("Application shutdown completed")
}
