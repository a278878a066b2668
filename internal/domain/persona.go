package domain

// Persona describes the author voice used to steer the LLM.
type Persona struct {
	ID          string
	Name        string
	Locale      Locale
	Specialty   string
	Experience  string
	Voice       string
	Greeting    string
	Perspective string
	UsageCount  int
}

// IsDefault reports whether p is a synthesized fallback with no backing row.
func (p *Persona) IsDefault() bool {
	return p.ID == ""
}

// DefaultPersona returns the generic persona used when no row matches.
func DefaultPersona(locale Locale) Persona {
	return Persona{
		Name:        "GetCareKorea Editorial Team",
		Locale:      locale,
		Specialty:   "medical travel in Korea",
		Experience:  "coordinating treatments for international patients in Seoul",
		Voice:       "warm, precise and reassuring",
		Greeting:    defaultGreetings[locale],
		Perspective: "first person plural, speaking as a patient coordinator",
	}
}

var defaultGreetings = map[Locale]string{
	LocaleEN:   "Hello from Seoul!",
	LocaleKO:   "안녕하세요!",
	LocaleJA:   "こんにちは!",
	LocaleZHCN: "大家好!",
	LocaleZHTW: "大家好!",
	LocaleTH:   "สวัสดีค่ะ!",
	LocaleMN:   "Сайн байна уу!",
	LocaleRU:   "Здравствуйте!",
}
