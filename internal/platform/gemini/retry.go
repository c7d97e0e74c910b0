package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/phrazzld/coach-api/internal/generation"
	"google.golang.org/genai"
)

// callWithRetry calls the model up to MaxRetries+1 times, backing off
// exponentially with jitter between transient failures. Blocked and
// invalid responses are permanent and return immediately.
func (c *Client) callWithRetry(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	cfg *genai.GenerateContentConfig,
) (string, error) {
	maxRetries := c.opts.MaxRetries

	for attempt := 0; ; attempt++ {
		log := c.logger.With(slog.Int("attempt", attempt+1), slog.Int("max_attempts", maxRetries+1))
		log.DebugContext(ctx, "calling gemini", slog.String("model", model))

		resp, err := c.model.GenerateContent(ctx, model, contents, cfg)
		if err == nil {
			text, rErr := responseText(resp)
			if rErr == nil {
				return text, nil
			}
			log.WarnContext(ctx, "permanent response error, not retrying", slog.String("error", rErr.Error()))
			return "", rErr
		}

		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
		log.ErrorContext(ctx, "gemini call failed", slog.String("error", err.Error()))

		if attempt >= maxRetries {
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				generation.ErrTransientFailure, maxRetries, err)
		}

		delay := backoff(c.opts.BaseDelay, attempt)
		log.InfoContext(ctx, "retrying after delay", slog.Duration("delay", delay))
		if err := sleep(ctx, delay); err != nil {
			log.WarnContext(ctx, "call cancelled during retry delay", slog.String("ctx_err", err.Error()))
			return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
		}
	}
}

// backoff returns base * 2^attempt scaled by a jitter factor in [0.5, 1.0).
func backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	exp := float64(base) * math.Pow(2, float64(attempt))
	return time.Duration(exp * (0.5 + rand.Float64()*0.5))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
