package content

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"carekorea/internal/domain"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy

	markdown = goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))
)

func bodyPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.UGCPolicy()
		policy.AllowElements("figure", "figcaption")
		policy.AllowAttrs("class").OnElements("figure", "figcaption", "img", "table")
		policy.AllowAttrs("loading").Matching(bluemonday.SpaceSeparatedTokens).OnElements("img")
	})
	return policy
}

// NormalizeBody renders Markdown bodies to HTML. Bodies that already contain
// block level HTML are returned unchanged.
func NormalizeBody(body string) (string, error) {
	if looksLikeHTML(body) {
		return body, nil
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func looksLikeHTML(body string) bool {
	lower := strings.ToLower(body)
	for _, tag := range []string{"<p", "<h2", "<h3", "<div", "<ul", "<ol", "<table", "<section", "<article"} {
		if strings.Contains(lower, tag) {
			return true
		}
	}
	return false
}

// SanitizeBody strips scripts, handlers and unknown markup. Placeholder tokens are plain text and survive.
func SanitizeBody(body string) string {
	return strings.TrimSpace(bodyPolicy().Sanitize(body))
}

// InjectImagesIntoHTML replaces each image's placeholder token with a figure
// block, once. Tokens without a generated image stay as literal text.
func InjectImagesIntoHTML(body string, images []domain.GeneratedImage) string {
	for _, img := range images {
		if img.Placeholder == "" || img.URL == "" {
			continue
		}
		figure := renderFigure(img)
		if wrapped := "<p>" + img.Placeholder + "</p>"; strings.Contains(body, wrapped) {
			body = strings.Replace(body, wrapped, figure, 1)
			continue
		}
		body = strings.Replace(body, img.Placeholder, figure, 1)
	}
	return body
}

// UnmatchedImages returns the images whose token does not occur in body.
func UnmatchedImages(body string, images []domain.GeneratedImage) []domain.ImageFailure {
	var out []domain.ImageFailure
	for _, img := range images {
		if img.Placeholder == "" || !strings.Contains(body, img.Placeholder) {
			out = append(out, domain.ImageFailure{Placeholder: img.Placeholder, Error: "placeholder not found in body"})
		}
	}
	return out
}

func renderFigure(img domain.GeneratedImage) string {
	alt := scrubTokens(img.AltText)
	caption := scrubTokens(img.Caption)
	var b strings.Builder
	b.WriteString(`<figure class="article-image">`)
	fmt.Fprintf(&b, `<img src="%s" alt="%s" loading="lazy">`, html.EscapeString(img.URL), html.EscapeString(alt))
	if caption != "" {
		fmt.Fprintf(&b, `<figcaption>%s</figcaption>`, html.EscapeString(caption))
	}
	b.WriteString(`</figure>`)
	return b.String()
}

// scrubTokens keeps placeholder tokens out of rendered attributes so injection stays idempotent.
func scrubTokens(s string) string {
	return strings.TrimSpace(placeholderPattern.ReplaceAllString(s, ""))
}

// CountPlaceholders counts literal placeholder tokens left in body.
func CountPlaceholders(body string) int {
	return len(placeholderPattern.FindAllStringIndex(body, -1))
}

// StripPlaceholders removes every placeholder token from body.
func StripPlaceholders(body string) string {
	return placeholderPattern.ReplaceAllString(body, "")
}
