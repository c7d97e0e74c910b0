package mocks

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/store"
)

// ContentStore is an in-memory TopicStore, LessonStore and BookStore. WithTx
// returns the same store, so writes are visible whether or not the
// surrounding transaction commits.
type ContentStore struct {
	// UpdateChapterFn, when set, runs before each chapter content update and
	// can fail it.
	UpdateChapterFn func(id uuid.UUID, content string) error
	CreateLessonErr error
	CreateBookErr   error

	mu       sync.Mutex
	topics   map[uuid.UUID]domain.Topic
	lessons  map[uuid.UUID]domain.Lesson
	books    map[uuid.UUID]domain.Book
	chapters map[uuid.UUID]domain.Chapter
}

// NewContentStore returns an empty ContentStore.
func NewContentStore() *ContentStore {
	return &ContentStore{
		topics:   make(map[uuid.UUID]domain.Topic),
		lessons:  make(map[uuid.UUID]domain.Lesson),
		books:    make(map[uuid.UUID]domain.Book),
		chapters: make(map[uuid.UUID]domain.Chapter),
	}
}

// Topics returns the store as a store.TopicStore.
func (s *ContentStore) Topics() store.TopicStore { return topicView{s} }

// Lessons returns the store as a store.LessonStore.
func (s *ContentStore) Lessons() store.LessonStore { return lessonView{s} }

// Books returns the store as a store.BookStore.
func (s *ContentStore) Books() store.BookStore { return bookView{s} }

// TopicCount returns the number of stored topics.
func (s *ContentStore) TopicCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.topics)
}

type topicView struct{ s *ContentStore }

func (v topicView) GetOrCreate(ctx context.Context, name string, level domain.Level) (*domain.Topic, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, t := range v.s.topics {
		if t.Name == name && t.Level == level {
			t := t
			return &t, nil
		}
	}
	t, err := domain.NewTopic(name, level)
	if err != nil {
		return nil, err
	}
	v.s.topics[t.ID] = *t
	return t, nil
}

func (v topicView) GetByID(ctx context.Context, id uuid.UUID) (*domain.Topic, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	t, ok := v.s.topics[id]
	if !ok {
		return nil, store.ErrTopicNotFound
	}
	return &t, nil
}

func (v topicView) WithTx(*sql.Tx) store.TopicStore { return v }

type lessonView struct{ s *ContentStore }

func (v lessonView) Create(ctx context.Context, l *domain.Lesson) error {
	if v.s.CreateLessonErr != nil {
		return v.s.CreateLessonErr
	}
	if err := l.Validate(); err != nil {
		return err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.lessons[l.ID] = *l
	return nil
}

func (v lessonView) Update(ctx context.Context, l *domain.Lesson) error {
	if err := l.Validate(); err != nil {
		return err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, ok := v.s.lessons[l.ID]; !ok {
		return store.ErrLessonNotFound
	}
	v.s.lessons[l.ID] = *l
	return nil
}

func (v lessonView) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lesson, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	l, ok := v.s.lessons[id]
	if !ok {
		return nil, store.ErrLessonNotFound
	}
	return &l, nil
}

func (v lessonView) List(ctx context.Context, limit, offset int) ([]*domain.Lesson, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	out := make([]*domain.Lesson, 0, len(v.s.lessons))
	for _, l := range v.s.lessons {
		l := l
		out = append(out, &l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return []*domain.Lesson{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (v lessonView) WithTx(*sql.Tx) store.LessonStore { return v }

type bookView struct{ s *ContentStore }

func (v bookView) Create(ctx context.Context, b *domain.Book) error {
	if v.s.CreateBookErr != nil {
		return v.s.CreateBookErr
	}
	if err := b.Validate(); err != nil {
		return err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.putBook(b)
	for _, ch := range b.Chapters {
		v.s.chapters[ch.ID] = *ch
	}
	return nil
}

func (v bookView) Update(ctx context.Context, b *domain.Book) error {
	if err := b.Validate(); err != nil {
		return err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, ok := v.s.books[b.ID]; !ok {
		return store.ErrBookNotFound
	}
	v.s.putBook(b)
	return nil
}

func (v bookView) GetByID(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	b, ok := v.s.books[id]
	if !ok {
		return nil, store.ErrBookNotFound
	}
	b.Chapters = v.s.chaptersOf(id)
	return &b, nil
}

func (v bookView) List(ctx context.Context, publishedOnly bool) ([]*domain.Book, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	out := []*domain.Book{}
	for _, b := range v.s.books {
		if publishedOnly && !b.IsPublished {
			continue
		}
		b := b
		b.Chapters = v.s.chaptersOf(b.ID)
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (v bookView) SetPublished(ctx context.Context, id uuid.UUID, published bool) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	b, ok := v.s.books[id]
	if !ok {
		return store.ErrBookNotFound
	}
	b.IsPublished = published
	b.UpdatedAt = time.Now().UTC()
	v.s.books[id] = b
	return nil
}

func (v bookView) Delete(ctx context.Context, id uuid.UUID) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, ok := v.s.books[id]; !ok {
		return store.ErrBookNotFound
	}
	delete(v.s.books, id)
	v.s.dropChapters(id)
	return nil
}

func (v bookView) ReplaceChapters(ctx context.Context, bookID uuid.UUID, chapters []*domain.Chapter) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, ok := v.s.books[bookID]; !ok {
		return store.ErrBookNotFound
	}
	v.s.dropChapters(bookID)
	for _, ch := range chapters {
		v.s.chapters[ch.ID] = *ch
	}
	return nil
}

func (v bookView) GetChapter(ctx context.Context, id uuid.UUID) (*domain.Chapter, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	ch, ok := v.s.chapters[id]
	if !ok {
		return nil, store.ErrChapterNotFound
	}
	return &ch, nil
}

func (v bookView) UpdateChapterContent(ctx context.Context, id uuid.UUID, content string) error {
	if v.s.UpdateChapterFn != nil {
		if err := v.s.UpdateChapterFn(id, content); err != nil {
			return err
		}
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	ch, ok := v.s.chapters[id]
	if !ok {
		return store.ErrChapterNotFound
	}
	ch.Content = content
	ch.UpdatedAt = time.Now().UTC()
	v.s.chapters[id] = ch
	return nil
}

func (v bookView) WithTx(*sql.Tx) store.BookStore { return v }

// putBook stores b without its chapter slice. Callers hold mu.
func (s *ContentStore) putBook(b *domain.Book) {
	row := *b
	row.Chapters = nil
	s.books[b.ID] = row
}

// chaptersOf returns the book's chapters ordered by Order. Callers hold mu.
func (s *ContentStore) chaptersOf(bookID uuid.UUID) []*domain.Chapter {
	out := []*domain.Chapter{}
	for _, ch := range s.chapters {
		if ch.BookID == bookID {
			ch := ch
			out = append(out, &ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// dropChapters deletes the book's chapters. Callers hold mu.
func (s *ContentStore) dropChapters(bookID uuid.UUID) {
	for id, ch := range s.chapters {
		if ch.BookID == bookID {
			delete(s.chapters, id)
		}
	}
}

var (
	_ store.TopicStore  = topicView{}
	_ store.LessonStore = lessonView{}
	_ store.BookStore   = bookView{}
)
