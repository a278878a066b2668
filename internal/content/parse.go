package content

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"carekorea/internal/domain"
)

// PlaceholderToken is the token the prompt asks the model to use for image n.
func PlaceholderToken(n int) string {
	return fmt.Sprintf("[IMAGE_PLACEHOLDER_%d]", n)
}

var placeholderPattern = regexp.MustCompile(`\[IMAGE_PLACEHOLDER_\d+\]`)

type payload struct {
	Title           string         `json:"title"`
	Excerpt         string         `json:"excerpt"`
	Content         string         `json:"content"`
	Body            string         `json:"body"`
	BodyHTML        string         `json:"bodyHtml"`
	MetaTitle       string         `json:"metaTitle"`
	MetaDescription string         `json:"metaDescription"`
	Tags            []string       `json:"tags"`
	FAQSchema       []faqPayload   `json:"faqSchema"`
	FAQ             []faqPayload   `json:"faq"`
	Images          []imagePayload `json:"images"`
	ImagePrompts    []imagePayload `json:"imagePrompts"`
}

type faqPayload struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type imagePayload struct {
	Placeholder string `json:"placeholder"`
	Prompt      string `json:"prompt"`
	Alt         string `json:"alt"`
	AltText     string `json:"altText"`
	Caption     string `json:"caption"`
	Position    string `json:"position"`
}

// Parse extracts and validates the article payload in raw model output.
// All failures wrap domain.ErrContentParse.
func Parse(raw string, requireImages bool) (*domain.GeneratedContent, error) {
	obj, err := ExtractJSONObject(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrContentParse, err)
	}
	var p payload
	if err := json.Unmarshal([]byte(obj), &p); err != nil {
		return nil, fmt.Errorf("%w: decode payload: %w", domain.ErrContentParse, err)
	}

	out := &domain.GeneratedContent{
		Title:           strings.TrimSpace(p.Title),
		Excerpt:         strings.TrimSpace(p.Excerpt),
		BodyHTML:        strings.TrimSpace(coalesce(p.Content, p.Body, p.BodyHTML)),
		MetaTitle:       strings.TrimSpace(p.MetaTitle),
		MetaDescription: strings.TrimSpace(p.MetaDescription),
		Tags:            normalizeTags(p.Tags),
	}
	faqs := p.FAQSchema
	if len(faqs) == 0 {
		faqs = p.FAQ
	}
	for _, f := range faqs {
		q, a := strings.TrimSpace(f.Question), strings.TrimSpace(f.Answer)
		if q != "" && a != "" {
			out.FAQEntries = append(out.FAQEntries, domain.FAQEntry{Question: q, Answer: a})
		}
	}
	images := p.Images
	if len(images) == 0 {
		images = p.ImagePrompts
	}
	for _, img := range images {
		if strings.TrimSpace(img.Prompt) == "" {
			continue
		}
		out.Images = append(out.Images, domain.ImagePlan{
			Placeholder: strings.TrimSpace(img.Placeholder),
			Prompt:      strings.TrimSpace(img.Prompt),
			AltText:     strings.TrimSpace(coalesce(img.Alt, img.AltText)),
			Caption:     strings.TrimSpace(img.Caption),
			Position:    strings.TrimSpace(img.Position),
		})
	}

	var problems []string
	if out.Title == "" {
		problems = append(problems, "title is required")
	}
	if out.BodyHTML == "" {
		problems = append(problems, "content is required")
	}
	if requireImages && len(out.Images) == 0 {
		problems = append(problems, "at least one image prompt is required")
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrContentParse, strings.Join(problems, "; "))
	}

	if out.Excerpt == "" {
		out.Excerpt = out.MetaDescription
	}
	if out.MetaTitle == "" {
		out.MetaTitle = out.Title
	}
	out.BodyHTML, out.Images = alignPlaceholders(out.BodyHTML, out.Images)
	return out, nil
}

// alignPlaceholders gives every plan a canonical token that occurs exactly once
// in body. Custom tokens the model invented ({{IMAGE_1}}, <<img-a>>) are
// rewritten to the canonical form where they appear; plans without a usable
// token take the lowest free number. Tokens absent from the body are anchored
// at its end in the body's own format so Markdown detection still works.
func alignPlaceholders(body string, plans []domain.ImagePlan) (string, []domain.ImagePlan) {
	used := make(map[string]bool, len(plans))
	aliases := make([]string, len(plans))
	claimed := make(map[string]bool, len(plans))
	for i := range plans {
		raw := strings.TrimSpace(plans[i].Placeholder)
		plans[i].Placeholder = ""
		if raw == "" || claimed[raw] {
			continue
		}
		claimed[raw] = true
		tok := canonicalToken(raw)
		switch {
		case tok == "":
			if tokenLike(raw) {
				aliases[i] = raw
			}
		case !used[tok]:
			used[tok] = true
			plans[i].Placeholder = tok
			aliases[i] = strings.Trim(tok, "[]")
		}
	}
	next := 1
	for i := range plans {
		if plans[i].Placeholder != "" {
			continue
		}
		for used[PlaceholderToken(next)] {
			next++
		}
		plans[i].Placeholder = PlaceholderToken(next)
		used[plans[i].Placeholder] = true
	}

	for i, plan := range plans {
		if alias := aliases[i]; alias != "" && !strings.Contains(body, plan.Placeholder) {
			body = aliasPattern(alias).ReplaceAllLiteralString(body, plan.Placeholder)
		}
	}

	markdownBody := !looksLikeHTML(body)
	for _, plan := range plans {
		tok := plan.Placeholder
		switch n := strings.Count(body, tok); {
		case n == 0 && markdownBody:
			body += "\n\n" + tok
		case n == 0:
			body += "\n<p>" + tok + "</p>"
		case n > 1:
			first := strings.Index(body, tok) + len(tok)
			body = body[:first] + strings.ReplaceAll(body[first:], tok, "")
		}
	}
	return body, plans
}

var canonicalName = regexp.MustCompile(`^IMAGE_PLACEHOLDER_\d+$`)

// canonicalToken returns the bracketed form of raw when it names a canonical
// placeholder, with or without brackets, and "" otherwise.
func canonicalToken(raw string) string {
	name := strings.Trim(strings.TrimSpace(raw), "[]")
	if !canonicalName.MatchString(name) {
		return ""
	}
	return "[" + name + "]"
}

// aliasPattern matches alias as a whole token, so IMAGE_1 does not match
// inside IMAGE_10.
func aliasPattern(alias string) *regexp.Regexp {
	expr := regexp.QuoteMeta(alias)
	if isWordByte(alias[0]) {
		expr = `\b` + expr
	}
	if isWordByte(alias[len(alias)-1]) {
		expr += `\b`
	}
	return regexp.MustCompile(expr)
}

// tokenLike rejects plain words, which would also match ordinary prose.
func tokenLike(raw string) bool {
	return strings.IndexFunc(raw, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsSpace(r) }) >= 0
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	var out []string
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
