package artifact

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// maxNameBytes keeps names under common filesystem limits once the extension is added.
const maxNameBytes = 200

// SanitizeFilename turns a record title into a safe file name with ext appended.
// Path separators, whitespace, ':' and '?' become '_'. fallback is used when
// nothing usable remains.
func SanitizeFilename(title, fallback, ext string) string {
	base := sanitize(title)
	if base == "" {
		base = sanitize(fallback)
	}
	if base == "" {
		base = "artifact"
	}
	return base + ext
}

func sanitize(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r == '/', r == '\\', r == ':', r == '?':
			return '_'
		case unicode.IsSpace(r):
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
	if strings.Trim(mapped, "_.") == "" {
		return ""
	}
	return truncateUTF8(mapped, maxNameBytes)
}

func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
