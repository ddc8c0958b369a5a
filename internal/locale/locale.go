package locale

import "strings"

const (
	LanguageCatalan = "ca"
	LanguageEnglish = "en"
)

// Default is the site's primary language. List views fall back to it when
// choosing a representative translation.
const Default = LanguageCatalan

// Languages lists the supported languages in display order.
func Languages() []string {
	return []string{LanguageCatalan, LanguageEnglish}
}

func Normalize(raw string) string {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "ca") {
		return LanguageCatalan
	}
	if strings.HasPrefix(trimmed, "en") {
		return LanguageEnglish
	}
	return ""
}

// Supported reports whether raw normalizes to a known language tag.
func Supported(raw string) bool {
	return Normalize(raw) != ""
}

// FromAcceptLanguage picks the first supported language from an
// Accept-Language header. Tags are matched individually so a region suffix
// like fr-CA never selects Catalan.
func FromAcceptLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := part
		if i := strings.IndexByte(tag, ';'); i >= 0 {
			tag = tag[:i]
		}
		if lang := Normalize(tag); lang != "" {
			return lang
		}
	}
	return ""
}
