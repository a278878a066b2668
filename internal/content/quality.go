package content

import (
	"math"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"carekorea/internal/domain"
)

// QualityInput is what the heuristic looks at.
type QualityInput struct {
	Content        *domain.GeneratedContent
	Locale         domain.Locale
	ImagesExpected bool
}

// QualityScore rates a finished article from 0 to 100:
// 50 points for required sections, 25 for writing in the locale's script,
// and 25 minus 5 per empty element.
func QualityScore(in QualityInput) float64 {
	c := in.Content
	if c == nil {
		return 0
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(c.BodyHTML))
	if err != nil {
		return 0
	}

	checks := []bool{
		c.Title != "",
		c.Excerpt != "",
		c.MetaTitle != "",
		c.MetaDescription != "",
		doc.Find("h2").Length() >= 2,
		len(c.FAQEntries) >= 3,
	}
	if in.ImagesExpected {
		checks = append(checks, doc.Find("figure img").Length() >= 1)
	}
	passed := 0
	for _, ok := range checks {
		if ok {
			passed++
		}
	}
	sections := 50 * float64(passed) / float64(len(checks))

	empty := 0
	doc.Find("p, h2, h3, li, td, figcaption").Each(func(_ int, s *goquery.Selection) {
		if strings.TrimSpace(s.Text()) == "" && s.Find("img").Length() == 0 {
			empty++
		}
	})
	structure := math.Max(0, 25-5*float64(empty))

	text := c.Title + " " + doc.Text()
	locale := 25 * scriptShare(text, in.Locale)

	return math.Round((sections+structure+locale)*10) / 10
}

// scriptShare is the fraction of letters written in the locale's expected script.
func scriptShare(text string, l domain.Locale) float64 {
	tables := scriptsFor(l)
	letters, matched := 0, 0
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		for _, t := range tables {
			if unicode.Is(t, r) {
				matched++
				break
			}
		}
	}
	if letters == 0 {
		return 0
	}
	share := float64(matched) / float64(letters)
	// Brand names and drug names are Latin in every locale.
	if l != domain.LocaleEN && share >= 0.6 {
		return 1
	}
	return share
}

func scriptsFor(l domain.Locale) []*unicode.RangeTable {
	switch l {
	case domain.LocaleKO:
		return []*unicode.RangeTable{unicode.Hangul, unicode.Han}
	case domain.LocaleJA:
		return []*unicode.RangeTable{unicode.Hiragana, unicode.Katakana, unicode.Han}
	case domain.LocaleZHCN, domain.LocaleZHTW:
		return []*unicode.RangeTable{unicode.Han}
	case domain.LocaleTH:
		return []*unicode.RangeTable{unicode.Thai}
	case domain.LocaleMN, domain.LocaleRU:
		return []*unicode.RangeTable{unicode.Cyrillic}
	default:
		return []*unicode.RangeTable{unicode.Latin}
	}
}
