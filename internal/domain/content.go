package domain

import "time"

// FAQEntry is one question/answer pair of the FAQ schema.
type FAQEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ImagePlan describes an image the LLM asked for.
type ImagePlan struct {
	Placeholder string `json:"placeholder"`
	Prompt      string `json:"prompt"`
	AltText     string `json:"alt"`
	Caption     string `json:"caption"`
	Position    string `json:"position,omitempty"`
}

// GeneratedImage is a plan fulfilled by the image generator.
type GeneratedImage struct {
	ImagePlan
	URL           string  `json:"url"`
	RevisedPrompt string  `json:"revised_prompt,omitempty"`
	SizeClass     string  `json:"size"`
	QualityClass  string  `json:"quality"`
	Cost          float64 `json:"cost"`
	LatencyMS     int64   `json:"latency_ms"`
}

// ImageFailure records a plan whose generation failed.
type ImageFailure struct {
	Placeholder string `json:"placeholder"`
	Error       string `json:"error"`
}

// GeneratedContent is the parsed LLM payload plus generated assets.
type GeneratedContent struct {
	Title           string
	Excerpt         string
	BodyHTML        string
	MetaTitle       string
	MetaDescription string
	Tags            []string
	FAQEntries      []FAQEntry
	Images          []ImagePlan
	Generated       []GeneratedImage
	EstimatedCost   float64
}

// PostStatus enumerates post visibility.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// Post is the persisted form of generated content for one locale.
type Post struct {
	ID              string
	Slug            string
	Locale          Locale
	Category        string
	KeywordID       string
	AuthorPersonaID *string
	Title           string
	Excerpt         string
	ContentHTML     string
	MetaTitle       string
	MetaDescription string
	Tags            []string
	FAQ             []FAQEntry
	Images          []GeneratedImage
	Status          PostStatus
	GenerationCost  float64
	QualityScore    *float64
	PublishedAt     *time.Time
	CreatedAt       time.Time
}
