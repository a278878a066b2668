package prompt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"carekorea/internal/domain"
)

func sampleInput() Input {
	return Input{
		Persona:  domain.DefaultPersona(domain.LocaleEN),
		Keyword:  "rejuran korea",
		Locale:   domain.LocaleEN,
		Category: "dermatology",
		Context: []domain.Snippet{
			{Title: "Skin boosters in Gangnam", Text: "Rejuran uses salmon DNA..."},
		},
		ImageCount: 3,
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	in := sampleInput()
	first := Build(in)
	for i := 0; i < 5; i++ {
		if got := Build(in); got != first {
			t.Fatalf("Build output changed on call %d", i)
		}
	}
}

func TestBuildIncludesInputs(t *testing.T) {
	p := Build(sampleInput())
	for _, want := range []string{
		`Keyword: "rejuran korea"`,
		"Images: 3",
		"Category: dermatology",
		"[IMAGE_PLACEHOLDER_3]",
		"Skin boosters in Gangnam",
	} {
		if !strings.Contains(p.User, want) {
			t.Fatalf("user prompt missing %q:\n%s", want, p.User)
		}
	}
	if !strings.Contains(p.System, "GetCareKorea Editorial Team") || !strings.Contains(p.System, `"faqSchema"`) {
		t.Fatalf("system prompt missing persona or schema:\n%s", p.System)
	}
}

func TestBuildVariesWithLocaleAndImages(t *testing.T) {
	in := sampleInput()
	en := Build(in)
	in.Locale = domain.LocaleZHTW
	if Build(in).User == en.User {
		t.Fatal("locale change did not affect prompt")
	}
	in = sampleInput()
	in.ImageCount = 0
	p := Build(in)
	if strings.Contains(p.User, "IMAGE_PLACEHOLDER") || !strings.Contains(p.User, "Images: 0") {
		t.Fatalf("no-image prompt still plans images:\n%s", p.User)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("한국어", 2); got != "한국..." {
		t.Fatalf("truncateRunes = %q", got)
	}
	if got := truncateRunes("abc", 5); got != "abc" {
		t.Fatalf("truncateRunes = %q", got)
	}
}

type stubPersonas struct {
	persona   *domain.Persona
	err       error
	increment error
	used      []string
}

func (s *stubPersonas) FindForLocale(ctx context.Context, locale domain.Locale, category string) (*domain.Persona, error) {
	return s.persona, s.err
}

func (s *stubPersonas) IncrementUsage(ctx context.Context, id string) error {
	s.used = append(s.used, id)
	return s.increment
}

func TestPersonaSelector(t *testing.T) {
	found := &domain.Persona{ID: "p1", Name: "Dr. Kim", Locale: domain.LocaleKO}
	cases := []struct {
		name     string
		repo     *stubPersonas
		wantName string
	}{
		{"found", &stubPersonas{persona: found}, "Dr. Kim"},
		{"not found", &stubPersonas{err: domain.ErrNotFound}, "GetCareKorea Editorial Team"},
		{"db error", &stubPersonas{err: errors.New("timeout")}, "GetCareKorea Editorial Team"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewPersonaSelector(tc.repo, zerolog.Nop())
			got := s.Select(context.Background(), domain.LocaleKO, "dermatology")
			if got.Name != tc.wantName {
				t.Fatalf("Select = %q, want %q", got.Name, tc.wantName)
			}
			if got.Locale != domain.LocaleKO {
				t.Fatalf("locale = %q", got.Locale)
			}
		})
	}
}

func TestPersonaSelectorRecordUsage(t *testing.T) {
	repo := &stubPersonas{increment: errors.New("boom")}
	s := NewPersonaSelector(repo, zerolog.Nop())
	s.RecordUsage(context.Background(), domain.DefaultPersona(domain.LocaleEN))
	if len(repo.used) != 0 {
		t.Fatal("default persona must not be counted")
	}
	s.RecordUsage(context.Background(), domain.Persona{ID: "p1"})
	if len(repo.used) != 1 || repo.used[0] != "p1" {
		t.Fatalf("unexpected usage calls: %v", repo.used)
	}
}
