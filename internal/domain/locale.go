package domain

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Locale is a supported content locale tag.
type Locale string

const (
	LocaleEN   Locale = "en"
	LocaleKO   Locale = "ko"
	LocaleJA   Locale = "ja"
	LocaleZHCN Locale = "zh-CN"
	LocaleZHTW Locale = "zh-TW"
	LocaleTH   Locale = "th"
	LocaleMN   Locale = "mn"
	LocaleRU   Locale = "ru"
)

// SupportedLocales lists locales in matcher preference order.
var SupportedLocales = []Locale{LocaleEN, LocaleKO, LocaleJA, LocaleZHCN, LocaleZHTW, LocaleTH, LocaleMN, LocaleRU}

var localeTags = func() []language.Tag {
	tags := make([]language.Tag, len(SupportedLocales))
	for i, l := range SupportedLocales {
		tags[i] = language.MustParse(string(l))
	}
	return tags
}()

var localeMatcher = language.NewMatcher(localeTags)

// ParseLocale normalizes raw (e.g. "zh_cn", "ko-KR", "zh-Hant") to a supported locale.
func ParseLocale(raw string) (Locale, error) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "_", "-"))
	if raw == "" {
		return "", NewValidationError("locale is required")
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return "", NewValidationError(fmt.Sprintf("invalid locale %q", raw))
	}
	_, idx, conf := localeMatcher.Match(tag)
	if conf < language.High {
		return "", NewValidationError(fmt.Sprintf("unsupported locale %q", raw))
	}
	return SupportedLocales[idx], nil
}

// Valid reports whether l is one of SupportedLocales.
func (l Locale) Valid() bool {
	for _, s := range SupportedLocales {
		if s == l {
			return true
		}
	}
	return false
}

// Tag returns the BCP 47 tag for l.
func (l Locale) Tag() language.Tag {
	return language.Make(string(l))
}

// ColumnSuffix is the suffix of locale specific post columns, e.g. title_zh_cn.
func (l Locale) ColumnSuffix() string {
	return strings.ToLower(strings.ReplaceAll(string(l), "-", "_"))
}

// DisplayName is the English name of the locale used in prompts.
func (l Locale) DisplayName() string {
	switch l {
	case LocaleEN:
		return "English"
	case LocaleKO:
		return "Korean"
	case LocaleJA:
		return "Japanese"
	case LocaleZHCN:
		return "Simplified Chinese"
	case LocaleZHTW:
		return "Traditional Chinese"
	case LocaleTH:
		return "Thai"
	case LocaleMN:
		return "Mongolian"
	case LocaleRU:
		return "Russian"
	default:
		return string(l)
	}
}
