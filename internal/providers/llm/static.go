package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	staticKeywordLine = regexp.MustCompile(`(?m)^Keyword: (.+)$`)
	staticImagesLine  = regexp.MustCompile(`(?m)^Images: (\d+)$`)
)

// StaticClient returns a canned article without calling any API. It reads the
// Keyword and Images lines of the prompt so the output stays plausible.
type StaticClient struct{}

func NewStaticClient() *StaticClient {
	return &StaticClient{}
}

func (s *StaticClient) Name() string { return ProviderStatic }

func (s *StaticClient) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify(ProviderStatic, err)
	}
	keyword := "medical travel in Korea"
	if m := staticKeywordLine.FindStringSubmatch(req.UserPrompt); m != nil {
		keyword = strings.Trim(strings.TrimSpace(m[1]), `"`)
	}
	images := 0
	if m := staticImagesLine.FindStringSubmatch(req.UserPrompt); m != nil {
		images, _ = strconv.Atoi(m[1])
	}
	title := cases.Title(language.English).String(keyword)

	var body strings.Builder
	fmt.Fprintf(&body, "<p>Planning %s? Here is what international patients should know.</p>", keyword)
	type imagePayload struct {
		Placeholder string `json:"placeholder"`
		Prompt      string `json:"prompt"`
		Alt         string `json:"alt"`
		Caption     string `json:"caption"`
	}
	var plans []imagePayload
	for i := 1; i <= images; i++ {
		token := fmt.Sprintf("[IMAGE_PLACEHOLDER_%d]", i)
		fmt.Fprintf(&body, "<h2>Section %d</h2><p>Details about %s.</p>%s", i, keyword, token)
		plans = append(plans, imagePayload{
			Placeholder: token,
			Prompt:      fmt.Sprintf("Editorial photo illustrating %s in a Seoul clinic, scene %d", keyword, i),
			Alt:         fmt.Sprintf("%s illustration %d", keyword, i),
			Caption:     fmt.Sprintf("%s, part %d", title, i),
		})
	}
	payload := map[string]any{
		"title":           title + ": A Complete Guide",
		"excerpt":         "Costs, clinics and recovery tips for " + keyword + ".",
		"content":         body.String(),
		"metaTitle":       title + " Guide",
		"metaDescription": "Everything international patients need to know about " + keyword + ".",
		"tags":            []string{keyword, "korea", "medical tourism"},
		"faqSchema": []map[string]string{
			{"question": "How much does " + keyword + " cost?", "answer": "Prices vary by clinic."},
			{"question": "How long is recovery?", "answer": "Most patients recover within a week."},
			{"question": "Do clinics have interpreters?", "answer": "Many clinics offer interpreters."},
		},
		"images": plans,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, classify(ProviderStatic, err)
	}
	return &Response{
		Text:     "```json\n" + string(raw) + "\n```",
		Model:    ProviderStatic,
		Provider: ProviderStatic,
	}, nil
}

var _ Client = (*StaticClient)(nil)
