// Package notice describes the short-lived validation messages shown next to
// the registration form and renders them in the client's language.
package notice

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/DoyleJ11/team-shuffler-backend/internal/roster"
)

type Kind string

const (
	KindEmptyName    Kind = "empty"
	KindDuplicate    Kind = "duplicate"
	KindCapacity     Kind = "capacity-exceeded"
	KindConverted    Kind = "converted"
	KindInvalidChars Kind = "invalid-characters"
	KindTooLong      Kind = "too-long"
)

type Notice struct {
	Kind  Kind `json:"kind"`
	Limit int  `json:"limit,omitempty"`
}

// Message keys double as the English text.
const (
	msgEmpty     = "Player name cannot be empty"
	msgDuplicate = "This player name already exists"
	msgCapacity  = "Maximum number of active players reached"
	msgConverted = "Special characters (ä, ö, ü, ß) will be automatically converted"
	msgInvalid   = "Only letters, numbers, and spaces are allowed"
	msgTooLong   = "Maximum %d characters allowed"
)

var supported = []language.Tag{language.English, language.German}

var matcher = language.NewMatcher(supported)

func init() {
	for _, key := range []string{msgEmpty, msgDuplicate, msgCapacity, msgConverted, msgInvalid, msgTooLong} {
		_ = message.SetString(language.English, key, key)
	}

	de := language.German
	_ = message.SetString(de, msgEmpty, "Der Spielername darf nicht leer sein")
	_ = message.SetString(de, msgDuplicate, "Dieser Spielername existiert bereits")
	_ = message.SetString(de, msgCapacity, "Maximale Anzahl aktiver Spieler erreicht")
	_ = message.SetString(de, msgConverted, "Sonderzeichen (ä, ö, ü, ß) werden automatisch umgewandelt")
	_ = message.SetString(de, msgInvalid, "Nur Buchstaben, Zahlen und Leerzeichen sind erlaubt")
	_ = message.SetString(de, msgTooLong, "Maximal %d Zeichen erlaubt")
}

// FromRejection maps a refused registration to its notice.
func FromRejection(r roster.Rejection) Notice {
	switch r {
	case roster.RejectDuplicate:
		return Notice{Kind: KindDuplicate}
	case roster.RejectCapacity:
		return Notice{Kind: KindCapacity}
	default:
		return Notice{Kind: KindEmptyName}
	}
}

// Warnings lists what the sanitizer rewrote, in display order.
func Warnings(rep roster.SanitizeReport, maxLen int) []Notice {
	var out []Notice
	if rep.Converted {
		out = append(out, Notice{Kind: KindConverted})
	}
	if rep.Stripped {
		out = append(out, Notice{Kind: KindInvalidChars})
	}
	if rep.Truncated {
		out = append(out, Notice{Kind: KindTooLong, Limit: maxLen})
	}
	return out
}

// Text renders n for tag, falling back to English.
func (n Notice) Text(tag language.Tag) string {
	p := message.NewPrinter(tag)
	switch n.Kind {
	case KindEmptyName:
		return p.Sprintf(msgEmpty)
	case KindDuplicate:
		return p.Sprintf(msgDuplicate)
	case KindCapacity:
		return p.Sprintf(msgCapacity)
	case KindConverted:
		return p.Sprintf(msgConverted)
	case KindInvalidChars:
		return p.Sprintf(msgInvalid)
	case KindTooLong:
		return p.Sprintf(msgTooLong, n.Limit)
	}
	return string(n.Kind)
}

// Match picks the supported language for an Accept-Language header.
func Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return language.English
	}
	return supported[idx]
}
