package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"carekorea/internal/domain"
)

func TestRollbackEscalatesAfterMaxFailures(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s.PutKeyword(domain.Keyword{ID: "k", Text: "lasik", Locale: domain.LocaleEN})

	for i, want := range []domain.KeywordStatus{domain.KeywordStatusPending, domain.KeywordStatusError} {
		if _, err := s.BeginGeneration(ctx, "k"); err != nil {
			t.Fatalf("attempt %d: begin: %v", i, err)
		}
		got, err := s.Rollback(ctx, "k", "llm timeout", 2)
		if err != nil {
			t.Fatalf("attempt %d: rollback: %v", i, err)
		}
		if got != want {
			t.Fatalf("attempt %d: status = %q, want %q", i, got, want)
		}
	}
}

func TestBeginGenerationIsExclusive(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s.PutKeyword(domain.Keyword{ID: "k", Text: "lasik", Locale: domain.LocaleEN})
	if _, err := s.BeginGeneration(ctx, "k"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := s.BeginGeneration(ctx, "k"); !errors.Is(err, domain.ErrAlreadyInProgress) {
		t.Fatalf("second begin = %v", err)
	}
}

func TestInsertPostSuffixesDuplicateSlug(t *testing.T) {
	ctx := context.Background()
	posts := PostStore{NewStore()}
	first, err := posts.Insert(ctx, &domain.Post{Slug: "rejuran-korea"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	second, err := posts.Insert(ctx, &domain.Post{Slug: "rejuran-korea"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if first.Slug != "rejuran-korea" || second.Slug == first.Slug {
		t.Fatalf("slugs = %q, %q", first.Slug, second.Slug)
	}
	found, err := posts.FindBySlug(ctx, second.Slug)
	if err != nil || found.ID != second.ID {
		t.Fatalf("FindBySlug = %v, %v", found, err)
	}
}

func TestDeletePostRemovesOnlyThatPost(t *testing.T) {
	ctx := context.Background()
	posts := PostStore{NewStore()}
	keep, _ := posts.Insert(ctx, &domain.Post{Slug: "keep"})
	drop, _ := posts.Insert(ctx, &domain.Post{Slug: "drop"})
	if err := posts.Delete(ctx, drop.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := posts.Delete(ctx, drop.ID); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	left := posts.Posts()
	if len(left) != 1 || left[0].ID != keep.ID {
		t.Fatalf("posts after delete = %+v", left)
	}
}

func TestFindForLocalePrefersSpecialtyThenUsage(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s.PutPersona(domain.Persona{ID: "busy-derm", Locale: domain.LocaleKO, Specialty: "dermatology", UsageCount: 9})
	s.PutPersona(domain.Persona{ID: "idle", Locale: domain.LocaleKO, Specialty: "dental", UsageCount: 0})
	s.PutPersona(domain.Persona{ID: "en", Locale: domain.LocaleEN, Specialty: "dermatology"})
	personas := PersonaStore{s}

	p, err := personas.FindForLocale(ctx, domain.LocaleKO, "dermatology")
	if err != nil || p.ID != "busy-derm" {
		t.Fatalf("specialty match = %v, %v", p, err)
	}
	p, err = personas.FindForLocale(ctx, domain.LocaleKO, "ophthalmology")
	if err != nil || p.ID != "idle" {
		t.Fatalf("usage fallback = %v, %v", p, err)
	}
	if _, err := personas.FindForLocale(ctx, domain.LocaleJA, ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing locale = %v", err)
	}
}

func TestListPendingSkipsOpenJobs(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s.PutKeyword(domain.Keyword{ID: "queued", Text: "a", Locale: domain.LocaleEN})
	s.PutKeyword(domain.Keyword{ID: "free", Text: "b", Locale: domain.LocaleEN})
	if _, err := (JobStore{s}).CreateBatch(ctx, []string{"queued"}, 0, domain.RunOptions{}); err != nil {
		t.Fatalf("create batch: %v", err)
	}
	pending, err := s.ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "free" {
		t.Fatalf("pending = %+v", pending)
	}
}

func TestFailStaleClosesAbandonedJobsAsPartial(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })
	s.PutKeyword(domain.Keyword{ID: "done", Text: "a", Locale: domain.LocaleEN})
	s.PutKeyword(domain.Keyword{ID: "lost", Text: "b", Locale: domain.LocaleEN})
	jobs := JobStore{s}
	batch, err := jobs.CreateBatch(ctx, []string{"done", "lost"}, 0, domain.RunOptions{})
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}
	first, err := jobs.ClaimNext(ctx, batch.ID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := jobs.Finish(ctx, first.ID, domain.JobOutcome{Succeeded: true}); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if _, err := jobs.ClaimNext(ctx, batch.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}

	if n, _ := jobs.FailStale(ctx, 30*time.Minute); n != 0 {
		t.Fatalf("fresh job failed early: %d", n)
	}
	now = now.Add(time.Hour)
	n, err := jobs.FailStale(ctx, 30*time.Minute)
	if err != nil || n != 1 {
		t.Fatalf("FailStale = %d, %v", n, err)
	}
	got, _ := jobs.GetBatch(ctx, batch.ID)
	if got.Status != domain.BatchStatusPartial || got.Completed != 1 || got.Failed != 1 {
		t.Fatalf("batch = %+v", got)
	}
	if n, _ := jobs.FailStale(ctx, 30*time.Minute); n != 0 {
		t.Fatalf("second pass failed %d jobs again", n)
	}
}
