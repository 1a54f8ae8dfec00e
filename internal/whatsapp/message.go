package whatsapp

import (
	"errors"  // For sentinel errors
	"regexp"  // For placeholder matching
	"strings" // For case folding
)

// DefaultTemplate is sent when a notification carries no message of its own.
const DefaultTemplate = "Dear {{name}}, your room for the wedding has been allocated: {{room}}. We look forward to seeing you!"

// ErrInvalidPhone is returned for numbers that cannot be dialled.
var ErrInvalidPhone = errors.New("invalid phone number")

// Vars are the values substituted into a message template.
type Vars struct {
	Name   string
	Room   string
	Mobile string
	Date   string
	Venue  string
}

// templateVar matches one placeholder, tolerating case and inner spaces
var templateVar = regexp.MustCompile(`(?i)\{\{\s*(name|room|mobile|date|venue)\s*\}\}`)

// Render replaces {{name}}, {{room}}, {{mobile}}, {{date}} and {{venue}},
// case-insensitively. An empty room renders as TBD.
func Render(template string, v Vars) string {
	room := v.Room
	if room == "" {
		room = "TBD" // Guest not allocated yet
	}
	return templateVar.ReplaceAllStringFunc(template, func(m string) string {
		switch strings.ToLower(templateVar.FindStringSubmatch(m)[1]) {
		case "name":
			return v.Name
		case "room":
			return room
		case "mobile":
			return v.Mobile
		case "date":
			return v.Date
		default: // venue
			return v.Venue
		}
	})
}

// NormalizePhone keeps digits only and prefixes countryCode to local
// 10-digit numbers (and 0-prefixed trunk numbers).
func NormalizePhone(raw, countryCode string) (string, error) {
	var b strings.Builder // Strip spaces, dashes and the leading +
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	switch {
	case len(digits) == 10:
		return countryCode + digits, nil // Local number
	case len(digits) == 11 && digits[0] == '0':
		return countryCode + digits[1:], nil // Trunk prefix
	case len(digits) > 10 && len(digits) <= 15:
		return digits, nil // Already international (E.164 max 15)
	}
	return "", ErrInvalidPhone
}
