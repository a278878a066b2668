// Package memory holds in-process test doubles for the repository interfaces,
// with the same semantics as the Postgres implementations.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"carekorea/internal/domain"
)

// Store implements the keyword, post, persona and job repositories over maps.
type Store struct {
	mu       sync.Mutex
	now      func() time.Time
	keywords map[string]*domain.Keyword
	posts    map[string]*domain.Post
	personas []domain.Persona
	batches  map[string]*domain.Batch
	jobs     []*domain.Job
	seq      int
}

func NewStore() *Store {
	return &Store{
		now:      time.Now,
		keywords: make(map[string]*domain.Keyword),
		posts:    make(map[string]*domain.Post),
		batches:  make(map[string]*domain.Batch),
	}
}

// PutKeyword inserts or replaces a keyword. A blank status means pending.
func (s *Store) PutKeyword(kw domain.Keyword) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if kw.Status == "" {
		kw.Status = domain.KeywordStatusPending
	}
	if kw.CreatedAt.IsZero() {
		kw.CreatedAt = s.tick()
	}
	kw.UpdatedAt = kw.CreatedAt
	s.keywords[kw.ID] = &kw
}

// PutPersona registers a persona.
func (s *Store) PutPersona(p domain.Persona) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.personas = append(s.personas, p)
}

// Posts returns a copy of every stored post.
func (s *Store) Posts() []domain.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// SetClock replaces the time source used for timestamps and staleness.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// tick returns a strictly increasing timestamp so ordering by time is stable.
func (s *Store) tick() time.Time {
	s.seq++
	return s.now().Add(time.Duration(s.seq) * time.Microsecond)
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Keyword, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kw, ok := s.keywords[id]
	if !ok {
		return nil, fmt.Errorf("keyword %s: %w", id, domain.ErrNotFound)
	}
	cp := *kw
	return &cp, nil
}

func (s *Store) BeginGeneration(ctx context.Context, id string) (*domain.Keyword, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kw, ok := s.keywords[id]
	if !ok {
		return nil, fmt.Errorf("keyword %s: %w", id, domain.ErrNotFound)
	}
	if kw.Status == domain.KeywordStatusGenerating {
		return nil, fmt.Errorf("keyword %s: %w", id, domain.ErrAlreadyInProgress)
	}
	kw.Status = domain.KeywordStatusGenerating
	kw.UpdatedAt = s.tick()
	cp := *kw
	return &cp, nil
}

func (s *Store) MarkGenerated(ctx context.Context, id, blogPostID string, status domain.KeywordStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kw, ok := s.keywords[id]
	if !ok {
		return fmt.Errorf("keyword %s: %w", id, domain.ErrNotFound)
	}
	kw.Status = status
	kw.BlogPostID = &blogPostID
	kw.ErrorMessage = nil
	kw.FailureCount = 0
	kw.UpdatedAt = s.tick()
	return nil
}

func (s *Store) Rollback(ctx context.Context, id, errMsg string, maxFailures int) (domain.KeywordStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kw, ok := s.keywords[id]
	if !ok {
		return "", fmt.Errorf("keyword %s: %w", id, domain.ErrNotFound)
	}
	if kw.Status != domain.KeywordStatusGenerating {
		return kw.Status, nil
	}
	kw.FailureCount++
	msg := domain.TruncateDiagnostic(errMsg)
	kw.ErrorMessage = &msg
	kw.Status = domain.KeywordStatusPending
	if maxFailures > 0 && kw.FailureCount >= maxFailures {
		kw.Status = domain.KeywordStatusError
	}
	kw.UpdatedAt = s.tick()
	return kw.Status, nil
}

func (s *Store) SetStatus(ctx context.Context, id string, status domain.KeywordStatus) (*domain.Keyword, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kw, ok := s.keywords[id]
	if !ok {
		return nil, fmt.Errorf("keyword %s: %w", id, domain.ErrNotFound)
	}
	kw.Status = status
	if status == domain.KeywordStatusPending {
		kw.ErrorMessage = nil
	}
	kw.UpdatedAt = s.tick()
	cp := *kw
	return &cp, nil
}

func (s *Store) ListPending(ctx context.Context, limit int) ([]domain.Keyword, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	open := make(map[string]bool)
	for _, job := range s.jobs {
		if job.Status == domain.JobStatusQueued || job.Status == domain.JobStatusRunning {
			open[job.KeywordID] = true
		}
	}
	var out []domain.Keyword
	for _, kw := range s.keywords {
		if kw.Status == domain.KeywordStatusPending && !open[kw.ID] {
			out = append(out, *kw)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ResetStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-olderThan)
	var n int64
	for _, kw := range s.keywords {
		if kw.Status == domain.KeywordStatusGenerating && kw.UpdatedAt.Before(cutoff) {
			kw.Status = domain.KeywordStatusPending
			msg := "reset after stale generation"
			kw.ErrorMessage = &msg
			kw.UpdatedAt = s.tick()
			n++
		}
	}
	return n, nil
}

// PostStore adapts Store to domain.PostRepository.
type PostStore struct{ *Store }

func (p PostStore) Insert(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	s := p.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	out := *post
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.Slug == "" {
		out.Slug = out.ID
	}
	for _, existing := range s.posts {
		if existing.Slug == out.Slug {
			out.Slug += "-" + out.ID[:8]
			break
		}
	}
	out.CreatedAt = s.tick()
	s.posts[out.ID] = &out
	cp := out
	return &cp, nil
}

func (p PostStore) FindBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	s := p.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, post := range s.posts {
		if post.Slug == slug {
			cp := *post
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("post %s: %w", slug, domain.ErrNotFound)
}

func (p PostStore) Delete(ctx context.Context, id string) error {
	s := p.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.posts, id)
	return nil
}

// PersonaStore adapts Store to domain.PersonaRepository.
type PersonaStore struct{ *Store }

// FindForLocale prefers a category match, then the least used persona of the locale.
func (p PersonaStore) FindForLocale(ctx context.Context, locale domain.Locale, category string) (*domain.Persona, error) {
	s := p.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *domain.Persona
	for i := range s.personas {
		c := &s.personas[i]
		if c.Locale != locale {
			continue
		}
		if best == nil {
			best = c
			continue
		}
		cMatch, bMatch := c.Specialty == category, best.Specialty == category
		if (cMatch && !bMatch) || (cMatch == bMatch && c.UsageCount < best.UsageCount) {
			best = c
		}
	}
	if best == nil {
		return nil, fmt.Errorf("persona for %s: %w", locale, domain.ErrNotFound)
	}
	cp := *best
	return &cp, nil
}

func (p PersonaStore) IncrementUsage(ctx context.Context, id string) error {
	s := p.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.personas {
		if s.personas[i].ID == id {
			s.personas[i].UsageCount++
			return nil
		}
	}
	return fmt.Errorf("persona %s: %w", id, domain.ErrNotFound)
}

var (
	_ domain.KeywordRepository = (*Store)(nil)
	_ domain.PostRepository    = PostStore{}
	_ domain.PersonaRepository = PersonaStore{}
)
