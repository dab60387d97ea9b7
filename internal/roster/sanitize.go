package roster

import (
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

var digraphs = strings.NewReplacer(
	"ß", "ss",
	"ä", "ae",
	"ö", "oe",
	"ü", "ue",
	"Ä", "Ae",
	"Ö", "Oe",
	"Ü", "Ue",
)

// stripDisallowed drops everything but ASCII letters, digits and spaces.
var stripDisallowed = runes.Remove(runes.Predicate(func(r rune) bool {
	return !allowedRune(r)
}))

func allowedRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ':
		return true
	}
	return false
}

// SanitizeReport records which rewrites SanitizeName applied.
type SanitizeReport struct {
	Converted bool `json:"converted,omitempty"`
	Stripped  bool `json:"stripped,omitempty"`
	Truncated bool `json:"truncated,omitempty"`
}

// SanitizeName maps umlauts and ß to ASCII digraphs, removes disallowed
// characters, trims surrounding spaces and caps the result at maxLen bytes.
// The result is pure ASCII, so bytes and characters coincide.
func SanitizeName(raw string, maxLen int) (string, SanitizeReport) {
	var rep SanitizeReport

	converted := digraphs.Replace(raw)
	rep.Converted = converted != raw

	stripped, _, _ := transform.String(stripDisallowed, converted)
	rep.Stripped = stripped != converted

	name := strings.TrimSpace(stripped)
	if maxLen > 0 && len(name) > maxLen {
		name = strings.TrimSpace(name[:maxLen])
		rep.Truncated = true
	}
	return name, rep
}
