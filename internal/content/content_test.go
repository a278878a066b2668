package content

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"carekorea/internal/domain"
	"carekorea/internal/providers/image"
)

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"bare", `{"title":"a"}`, `{"title":"a"}`},
		{"fenced", "```json\n{\"title\":\"a\"}\n```", `{"title":"a"}`},
		{"prose around", `Sure! Here it is: {"title":"a","n":{"x":1}} Hope this helps.`, `{"title":"a","n":{"x":1}}`},
		{"braces in strings", `{"content":"<p>use {curly} \"quotes\"</p>"}`, `{"content":"<p>use {curly} \"quotes\"</p>"}`},
		{"unbalanced prose first", `note {unclosed then {"title":"b"}`, `{"title":"b"}`},
		{"invalid first object", `{not json} {"title":"c"}`, `{"title":"c"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tc.raw)
			if err != nil {
				t.Fatalf("ExtractJSONObject error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
	for _, raw := range []string{"", "plain prose with no object", "{\"title\": \"never closed\""} {
		if _, err := ExtractJSONObject(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestParseAcceptsAliasesAndAlignsPlaceholders(t *testing.T) {
	raw := "```json\n" + `{
	  "title": "Rejuran in Korea",
	  "body": "<h2>Cost</h2><p>[IMAGE_PLACEHOLDER_1]</p><p>again [IMAGE_PLACEHOLDER_1]</p>",
	  "metaDescription": "Guide",
	  "tags": ["rejuran", "Rejuran", " korea "],
	  "faq": [{"question": "Price?", "answer": "Varies"}, {"question": "", "answer": "dropped"}],
	  "images": [
	    {"placeholder": "[IMAGE_PLACEHOLDER_1]", "prompt": "clinic", "alt": "clinic"},
	    {"prompt": "recovery room", "altText": "room"},
	    {"placeholder": "IMAGE_PLACEHOLDER_1", "prompt": "duplicate token"},
	    {"prompt": "   "}
	  ]
	}` + "\n```"
	c, err := Parse(raw, true)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if c.Excerpt != "Guide" || c.MetaTitle != "Rejuran in Korea" {
		t.Fatalf("fallback fields not applied: %+v", c)
	}
	if len(c.Tags) != 2 || len(c.FAQEntries) != 1 {
		t.Fatalf("tags/faq not normalized: %v %v", c.Tags, c.FAQEntries)
	}
	if len(c.Images) != 3 {
		t.Fatalf("expected 3 plans, got %d", len(c.Images))
	}
	seen := map[string]bool{}
	for _, img := range c.Images {
		if seen[img.Placeholder] {
			t.Fatalf("duplicate placeholder %s", img.Placeholder)
		}
		seen[img.Placeholder] = true
		if n := strings.Count(c.BodyHTML, img.Placeholder); n != 1 {
			t.Fatalf("placeholder %s occurs %d times in %q", img.Placeholder, n, c.BodyHTML)
		}
	}
	if c.Images[1].AltText != "room" || c.Images[1].Placeholder != "[IMAGE_PLACEHOLDER_2]" {
		t.Fatalf("unexpected second plan: %+v", c.Images[1])
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name          string
		raw           string
		requireImages bool
	}{
		{"prose", "I cannot help with that.", false},
		{"missing title", `{"content":"<p>x</p>"}`, false},
		{"missing body", `{"title":"x"}`, false},
		{"missing images", `{"title":"x","content":"<p>x</p>"}`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.raw, tc.requireImages)
			if !errors.Is(err, domain.ErrContentParse) || !errors.Is(err, domain.ErrGeneration) {
				t.Fatalf("expected content parse error, got %v", err)
			}
		})
	}
}

func sampleImages() []domain.GeneratedImage {
	return []domain.GeneratedImage{
		{ImagePlan: domain.ImagePlan{Placeholder: "[IMAGE_PLACEHOLDER_1]", AltText: `A "quoted" <alt>`, Caption: "Lobby & desk"}, URL: "https://img.test/1.png?a=1&b=2"},
		{ImagePlan: domain.ImagePlan{Placeholder: "[IMAGE_PLACEHOLDER_3]", AltText: "third [IMAGE_PLACEHOLDER_2]"}, URL: "https://img.test/3.png"},
	}
}

const sampleBody = "<h2>A</h2>[IMAGE_PLACEHOLDER_1]<h2>B</h2>[IMAGE_PLACEHOLDER_2]<p>C</p>[IMAGE_PLACEHOLDER_3]"

func TestInjectImagesIntoHTML(t *testing.T) {
	out := InjectImagesIntoHTML(sampleBody, sampleImages())
	if strings.Count(out, "<figure") != 2 {
		t.Fatalf("expected 2 figures: %s", out)
	}
	if !strings.Contains(out, `alt="A &#34;quoted&#34; &lt;alt&gt;"`) || !strings.Contains(out, "Lobby &amp; desk") {
		t.Fatalf("alt/caption not escaped: %s", out)
	}
	if !strings.Contains(out, "[IMAGE_PLACEHOLDER_2]") {
		t.Fatalf("unmatched placeholder must stay literal: %s", out)
	}
}

func TestInjectionIsIdempotent(t *testing.T) {
	once := InjectImagesIntoHTML(sampleBody, sampleImages())
	if twice := InjectImagesIntoHTML(once, nil); twice != once {
		t.Fatalf("second pass with no images changed html")
	}
	if again := InjectImagesIntoHTML(once, sampleImages()); again != once {
		t.Fatalf("second pass with same images changed html")
	}
}

func TestPlaceholderConservation(t *testing.T) {
	plans := 3
	out := InjectImagesIntoHTML(sampleBody, sampleImages())
	if got, want := CountPlaceholders(out), plans-len(sampleImages()); got != want {
		t.Fatalf("placeholders left = %d, want %d", got, want)
	}
}

func TestUnmatchedImages(t *testing.T) {
	imgs := append(sampleImages(), domain.GeneratedImage{ImagePlan: domain.ImagePlan{Placeholder: "[IMAGE_PLACEHOLDER_9]"}, URL: "u"})
	missing := UnmatchedImages(sampleBody, imgs)
	if len(missing) != 1 || missing[0].Placeholder != "[IMAGE_PLACEHOLDER_9]" {
		t.Fatalf("unexpected unmatched: %+v", missing)
	}
}

func TestSanitizeBodyKeepsPlaceholders(t *testing.T) {
	in := `<h2 onclick="x()">Cost</h2><script>alert(1)</script><p>[IMAGE_PLACEHOLDER_1]</p>`
	out := SanitizeBody(in)
	if strings.Contains(out, "script") || strings.Contains(out, "onclick") {
		t.Fatalf("unsafe markup kept: %s", out)
	}
	if !strings.Contains(out, "[IMAGE_PLACEHOLDER_1]") || !strings.Contains(out, "<h2>Cost</h2>") {
		t.Fatalf("content lost: %s", out)
	}
}

func TestNormalizeBody(t *testing.T) {
	html, err := NormalizeBody("## Recovery\n\nMost patients rest for **two days**.\n\n[IMAGE_PLACEHOLDER_1]")
	if err != nil {
		t.Fatalf("NormalizeBody error: %v", err)
	}
	if !strings.Contains(html, "<h2>Recovery</h2>") || !strings.Contains(html, "<strong>two days</strong>") {
		t.Fatalf("markdown not rendered: %s", html)
	}
	if !strings.Contains(html, "[IMAGE_PLACEHOLDER_1]") {
		t.Fatalf("placeholder lost: %s", html)
	}
	already := "<p>kept</p>"
	if got, _ := NormalizeBody(already); got != already {
		t.Fatalf("html body changed: %s", got)
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		text   string
		locale domain.Locale
		want   string
	}{
		{"Rejuran Korea", domain.LocaleEN, "rejuran-korea"},
		{"  Café  Médical!! ", domain.LocaleEN, "cafe-medical"},
		{"리쥬란 힐러 가격", domain.LocaleKO, "리쥬란-힐러-가격-ko"},
		{"ガイド", domain.LocaleJA, "ガイド-ja"},
		{"!!!", domain.LocaleZHCN, "post-zh_cn"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.text, tc.locale); got != tc.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestQualityScore(t *testing.T) {
	good := &domain.GeneratedContent{
		Title:           "Rejuran in Korea",
		Excerpt:         "Costs and clinics",
		MetaTitle:       "Rejuran Korea",
		MetaDescription: "Guide to rejuran",
		BodyHTML:        `<h2>Cost</h2><p>Prices in Seoul vary.</p><h2>Recovery</h2><figure><img src="u" alt="a"></figure>`,
		FAQEntries:      make([]domain.FAQEntry, 3),
	}
	if got := QualityScore(QualityInput{Content: good, Locale: domain.LocaleEN, ImagesExpected: true}); got != 100 {
		t.Fatalf("good article score = %v", got)
	}

	poor := *good
	poor.BodyHTML = `<h2>Cost</h2><p></p><p> </p>`
	poor.FAQEntries = nil
	got := QualityScore(QualityInput{Content: &poor, Locale: domain.LocaleKO, ImagesExpected: true})
	if got >= 50 {
		t.Fatalf("poor article score too high: %v", got)
	}
}

type fakeGenerator struct {
	fail  map[string]bool
	calls atomic.Int32
	peak  atomic.Int32
	live  atomic.Int32
}

func (f *fakeGenerator) Name() string { return "fake" }

func (f *fakeGenerator) Generate(ctx context.Context, req image.Request) (*image.Result, error) {
	f.calls.Add(1)
	n := f.live.Add(1)
	defer f.live.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.fail[req.Prompt] {
		return nil, &image.Error{Provider: "fake", Reason: "content policy"}
	}
	return &image.Result{URL: "https://img.test/" + req.Prompt, Size: req.Size, Quality: req.Quality, Cost: 0.04}, nil
}

func TestAssemblerPartialFailure(t *testing.T) {
	gen := &fakeGenerator{fail: map[string]bool{"b": true}}
	a, err := NewAssembler(AssemblerOptions{Generator: gen, Concurrency: 2, Defaults: ImageDefaults{Size: "1024x1024"}, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("NewAssembler error: %v", err)
	}
	plans := []domain.ImagePlan{
		{Placeholder: "[IMAGE_PLACEHOLDER_1]", Prompt: "a"},
		{Placeholder: "[IMAGE_PLACEHOLDER_2]", Prompt: "b"},
		{Placeholder: "[IMAGE_PLACEHOLDER_3]", Prompt: "c"},
	}
	batch := a.GenerateImages(context.Background(), plans, "posts/k1")
	if len(batch.Images) != 2 || len(batch.Errors) != 1 {
		t.Fatalf("unexpected batch: %+v", batch)
	}
	if batch.Errors[0].Placeholder != "[IMAGE_PLACEHOLDER_2]" || !strings.Contains(batch.Errors[0].Error, "content policy") {
		t.Fatalf("unexpected failure: %+v", batch.Errors[0])
	}
	if batch.TotalCost != 0.08 {
		t.Fatalf("TotalCost = %v, want only successful images", batch.TotalCost)
	}
	if batch.Images[0].Placeholder != "[IMAGE_PLACEHOLDER_1]" || batch.Images[1].Placeholder != "[IMAGE_PLACEHOLDER_3]" {
		t.Fatalf("images out of plan order: %+v", batch.Images)
	}
	if gen.calls.Load() != 3 || gen.peak.Load() > 2 {
		t.Fatalf("calls=%d peak=%d", gen.calls.Load(), gen.peak.Load())
	}
}

func TestParseRewritesCustomTokens(t *testing.T) {
	raw := `{
	  "title": "Rejuran in Korea",
	  "content": "<h2>Cost</h2><p>{{IMAGE_1}}</p><h2>Clinics</h2><p>IMAGE_PLACEHOLDER_2</p><p>IMAGE_PLACEHOLDER_20 stays</p>",
	  "images": [
	    {"placeholder": "{{IMAGE_1}}", "prompt": "clinic"},
	    {"placeholder": "IMAGE_PLACEHOLDER_2", "prompt": "room"},
	    {"placeholder": "recovery", "prompt": "garden"}
	  ]
	}`
	c, err := Parse(raw, true)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if strings.Contains(c.BodyHTML, "{{IMAGE_1}}") {
		t.Fatalf("custom token left in body: %q", c.BodyHTML)
	}
	if c.Images[0].Placeholder != "[IMAGE_PLACEHOLDER_1]" || c.Images[1].Placeholder != "[IMAGE_PLACEHOLDER_2]" {
		t.Fatalf("unexpected placeholders: %+v", c.Images)
	}
	if !strings.Contains(c.BodyHTML, "<h2>Cost</h2><p>[IMAGE_PLACEHOLDER_1]</p>") {
		t.Fatalf("custom token not rewritten in place: %q", c.BodyHTML)
	}
	if !strings.Contains(c.BodyHTML, "<p>[IMAGE_PLACEHOLDER_2]</p>") {
		t.Fatalf("bare token not bracketed: %q", c.BodyHTML)
	}
	if !strings.Contains(c.BodyHTML, "IMAGE_PLACEHOLDER_20 stays") {
		t.Fatalf("longer token was rewritten: %q", c.BodyHTML)
	}
	if strings.Contains(c.BodyHTML, "[[") {
		t.Fatalf("token bracketed twice: %q", c.BodyHTML)
	}
	if got := CountPlaceholders(c.BodyHTML); got != 3 {
		t.Fatalf("expected 3 placeholders, got %d in %q", got, c.BodyHTML)
	}
}

func TestParseAnchorsMissingTokensInMarkdownBodies(t *testing.T) {
	raw := `{
	  "title": "Recovery",
	  "content": "## Recovery\n\nMost patients rest for **two days**.",
	  "images": [{"prompt": "recovery room"}]
	}`
	c, err := Parse(raw, true)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if looksLikeHTML(c.BodyHTML) {
		t.Fatalf("anchoring made a Markdown body look like HTML: %q", c.BodyHTML)
	}
	html, err := NormalizeBody(c.BodyHTML)
	if err != nil {
		t.Fatalf("NormalizeBody error: %v", err)
	}
	for _, want := range []string{"<h2>Recovery</h2>", "<strong>two days</strong>", "<p>[IMAGE_PLACEHOLDER_1]</p>"} {
		if !strings.Contains(html, want) {
			t.Fatalf("missing %q in %q", want, html)
		}
	}
	if strings.Contains(html, "##") || strings.Contains(html, "**") {
		t.Fatalf("raw Markdown left in %q", html)
	}
}
