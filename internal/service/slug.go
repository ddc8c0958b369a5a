package service

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const slugMaxLength = 60

// GenerateSlug derives a URL slug from a title: lowercased, diacritics folded
// away, runs of non-alphanumerics collapsed to single hyphens, no leading or
// trailing hyphen, capped at 60 characters.
func GenerateSlug(title string) string {
	lowered := strings.ToLower(strings.TrimSpace(title))

	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, lowered)
	if err != nil {
		folded = lowered
	}

	var b strings.Builder
	pendingHyphen := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}

	slug := b.String()
	if len(slug) > slugMaxLength {
		slug = strings.TrimRight(slug[:slugMaxLength], "-")
	}
	return slug
}
