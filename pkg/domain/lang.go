package domain

import (
	"fmt"
	"strings"
)

// Lang is a locale tag understood by the conversation service.
type Lang string

const (
	LangDanish    Lang = "da-DK"
	LangEnglish   Lang = "en-GB"
	LangSpanish   Lang = "es-ES"
	LangFinnish   Lang = "fi-FI"
	LangNorwegian Lang = "nb-NO"
	LangSwedish   Lang = "sv-SE"
)

// DefaultLang is used when a localized value lacks the requested language.
const DefaultLang = LangEnglish

// Langs lists every supported language.
var Langs = []Lang{LangDanish, LangEnglish, LangSpanish, LangFinnish, LangNorwegian, LangSwedish}

// Valid reports whether l is one of the supported languages.
func (l Lang) Valid() bool {
	for _, known := range Langs {
		if l == known {
			return true
		}
	}
	return false
}

// legacyLangs maps the bare language codes of older clients to locale tags.
var legacyLangs = map[string]Lang{
	"da": LangDanish,
	"en": LangEnglish,
	"es": LangSpanish,
	"fi": LangFinnish,
	"nb": LangNorwegian,
	"nn": LangNorwegian,
	"no": LangNorwegian,
	"sv": LangSwedish,
}

// ToLang converts a locale tag or a legacy short code to a Lang.
// Unknown values fall back to DefaultLang.
func ToLang(s string) Lang {
	s = strings.TrimSpace(s)
	if l := Lang(s); l.Valid() {
		return l
	}
	for _, known := range Langs {
		if strings.EqualFold(string(known), s) {
			return known
		}
	}
	if l, ok := legacyLangs[strings.ToLower(s)]; ok {
		return l
	}
	return DefaultLang
}

// LangString is a localized text keyed by language.
type LangString map[Lang]string

// NewLangString creates a LangString holding text for every supported language.
func NewLangString(text string) LangString {
	s := make(LangString, len(Langs))
	for _, l := range Langs {
		s[l] = text
	}
	return s
}

// Value returns the text for lang, falling back to DefaultLang.
func (s LangString) Value(lang Lang) (string, error) {
	if len(s) == 0 {
		return "", fmt.Errorf("%w: empty localized value", ErrNoLangValue)
	}
	if v, ok := s[lang]; ok {
		return v, nil
	}
	if v, ok := s[DefaultLang]; ok {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoLangValue, lang)
}

// String returns the DefaultLang text, or any text when the default is missing.
func (s LangString) String() string {
	if v, err := s.Value(DefaultLang); err == nil {
		return v
	}
	for _, l := range Langs {
		if v, ok := s[l]; ok {
			return v
		}
	}
	return ""
}
