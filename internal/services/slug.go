package services

import (
	"strings"
	"unicode"
)

// Slugify turns a title into a URL-safe slug: lowercase ASCII letters,
// digits, and single hyphens. Anything else collapses into a hyphen
// separator. Used when a game or post is created without an explicit slug.
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) && r < 128, unicode.IsDigit(r) && r < 128:
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
