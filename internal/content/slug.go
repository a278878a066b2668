package content

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"carekorea/internal/domain"
)

const maxSlugRunes = 80

// Slugify builds a URL slug from text, keeping non-Latin letters and
// folding Latin diacritics. The locale is appended so translations never collide.
func Slugify(text string, locale domain.Locale) string {
	var b strings.Builder
	dash := false
	n := 0
	for _, r := range foldLatin(strings.ToLower(norm.NFC.String(text))) {
		if n >= maxSlugRunes {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			n++
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
			n++
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "post"
	}
	if locale != "" && locale != domain.LocaleEN {
		slug += "-" + locale.ColumnSuffix()
	}
	return slug
}

// foldLatin strips diacritics from Latin letters only; kana voicing marks and
// other scripts' combining marks are meaningful and kept.
func foldLatin(s string) string {
	strip := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	var b strings.Builder
	for _, r := range s {
		if r > unicode.MaxASCII && unicode.Is(unicode.Latin, r) {
			if folded, _, err := transform.String(strip, string(r)); err == nil {
				b.WriteString(folded)
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}
