package utils

import (
	"strings" // Formatting

	"github.com/google/uuid" // Randomness source
)

// ShareCodeLength is the number of characters in a share code
const ShareCodeLength = 8

// NewShareCode returns an uppercase code like "3F9A12BC"
func NewShareCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:ShareCodeLength])
}

// NormalizeShareCode trims and uppercases user input
func NormalizeShareCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
