package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeClassName canonicalizes a detector class label for comparison:
// lowercase, single spaces, no spaces around hyphens, trimmed.
func NormalizeClassName(raw string) string {
	if raw == "" {
		return ""
	}

	s := strings.Join(strings.Fields(strings.ToLower(raw)), " ")
	s = strings.ReplaceAll(s, " - ", "-")
	s = strings.ReplaceAll(s, " -", "-")
	s = strings.ReplaceAll(s, "- ", "-")

	return strings.TrimSpace(s)
}

// Tokenize splits a label into lowercase words on any non-alphanumeric rune.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Humanize turns a raw class label into a display name:
// "xyz-unknown_pathogen" -> "Xyz Unknown Pathogen".
func Humanize(raw string) string {
	s := strings.NewReplacer("_", " ", "-", " ").Replace(raw)
	s = strings.Join(strings.Fields(s), " ")
	return cases.Title(language.Und).String(s)
}
