// Package prompt assembles the LLM prompt for one keyword and selects its author persona.
package prompt

import (
	"fmt"
	"strings"

	"carekorea/internal/domain"
)

// Prompt is the system/user pair sent to the LLM.
type Prompt struct {
	System string
	User   string
}

// Input is everything the prompt depends on.
type Input struct {
	Persona    domain.Persona
	Keyword    string
	Locale     domain.Locale
	Category   string
	Context    []domain.Snippet
	ImageCount int
}

const maxSnippetRunes = 600

// responseSchema documents the JSON shape the content parser accepts.
const responseSchema = `{
  "title": string,
  "excerpt": string,
  "content": string (HTML body using <h2>, <h3>, <p>, <ul>, <ol>, <table>),
  "metaTitle": string (max 60 characters),
  "metaDescription": string (max 155 characters),
  "tags": string[],
  "faqSchema": [{"question": string, "answer": string}],
  "images": [{"placeholder": string, "prompt": string, "alt": string, "caption": string, "position": string}]
}`

// Build renders the prompt. Identical inputs always produce identical text.
func Build(in Input) Prompt {
	return Prompt{System: buildSystem(in), User: buildUser(in)}
}

func buildSystem(in Input) string {
	p := in.Persona
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s, writing for GetCareKorea, a medical tourism guide for international patients visiting Korea.\n", coalesce(p.Name, "the GetCareKorea editorial team"))
	if p.Specialty != "" {
		fmt.Fprintf(&sb, "Specialty: %s.\n", p.Specialty)
	}
	if p.Experience != "" {
		fmt.Fprintf(&sb, "Experience: %s.\n", p.Experience)
	}
	if p.Voice != "" {
		fmt.Fprintf(&sb, "Voice: %s.\n", p.Voice)
	}
	if p.Perspective != "" {
		fmt.Fprintf(&sb, "Perspective: %s.\n", p.Perspective)
	}
	if p.Greeting != "" {
		fmt.Fprintf(&sb, "Open the article with a greeting in this style: %q.\n", p.Greeting)
	}
	sb.WriteString("Never invent prices, doctor names or clinical outcomes. Give ranges and tell readers to confirm with the clinic.\n")
	sb.WriteString("Respond with exactly one JSON object and nothing else, matching this schema:\n")
	sb.WriteString(responseSchema)
	sb.WriteByte('\n')
	return sb.String()
}

func buildUser(in Input) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Keyword: %q\n", strings.TrimSpace(in.Keyword))
	fmt.Fprintf(&sb, "Locale: %s (%s)\n", in.Locale, in.Locale.DisplayName())
	fmt.Fprintf(&sb, "Category: %s\n", coalesce(in.Category, "general"))
	fmt.Fprintf(&sb, "Images: %d\n", max(in.ImageCount, 0))

	sb.WriteString("\nLanguage rules:\n")
	for _, rule := range localeRules(in.Locale) {
		fmt.Fprintf(&sb, "- %s\n", rule)
	}

	sb.WriteString("\nStructure:\n")
	sb.WriteString("- 1500 to 2500 words, at least four <h2> sections.\n")
	sb.WriteString("- Cover cost, procedure, recovery, how to choose a clinic and travel logistics where relevant.\n")
	sb.WriteString("- faqSchema holds at least three entries answering real patient questions.\n")
	sb.WriteString("- tags holds three to eight short tags in the target language.\n")
	if in.ImageCount > 0 {
		fmt.Fprintf(&sb, "- Plan exactly %d images. Put each placeholder token, [IMAGE_PLACEHOLDER_1] through [IMAGE_PLACEHOLDER_%d], on its own line in content where the image belongs, and list the same tokens in images.\n", in.ImageCount, in.ImageCount)
		sb.WriteString("- Image prompts are in English, describe a realistic editorial photo, and contain no text, logos or identifiable faces.\n")
	} else {
		sb.WriteString("- Do not plan images. Return an empty images array.\n")
	}

	if len(in.Context) > 0 {
		sb.WriteString("\nReference material from our best performing articles. Reuse facts and tone, never copy sentences:\n")
		for i, s := range in.Context {
			fmt.Fprintf(&sb, "[%d] %s\n%s\n", i+1, coalesce(s.Title, "untitled"), truncateRunes(strings.TrimSpace(s.Text), maxSnippetRunes))
		}
	}
	return sb.String()
}

func localeRules(l domain.Locale) []string {
	common := fmt.Sprintf("Write every field except image prompts in %s.", l.DisplayName())
	switch l {
	case domain.LocaleKO:
		return []string{common, "Use polite 합니다/해요 endings.", "Keep clinic district names in Korean (강남, 압구정)."}
	case domain.LocaleJA:
		return []string{common, "Use です/ます style.", "Show prices in KRW with an approximate JPY amount."}
	case domain.LocaleZHCN:
		return []string{common, "Use Simplified Chinese characters only.", "Show prices in KRW with an approximate CNY amount."}
	case domain.LocaleZHTW:
		return []string{common, "Use Traditional Chinese characters only.", "Show prices in KRW with an approximate TWD amount."}
	case domain.LocaleTH:
		return []string{common, "Use a friendly polite register.", "Show prices in KRW with an approximate THB amount."}
	case domain.LocaleMN:
		return []string{common, "Use Mongolian Cyrillic script.", "Show prices in KRW with an approximate MNT amount."}
	case domain.LocaleRU:
		return []string{common, "Use formal Вы address.", "Show prices in KRW with an approximate RUB amount."}
	default:
		return []string{common, "Use plain American English.", "Show prices in KRW with an approximate USD amount."}
	}
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
