// Package forms holds small helpers for cleaning submitted form values.
package forms

import (
	"regexp"
	"strings"
)

var nonDigits = regexp.MustCompile(`\D`)

// Digits strips everything but decimal digits from a submitted value. Date
// parts, ages and doses arrive in whatever shape the user typed them; only the
// digits are stored or matched.
func Digits(s string) string {
	if s == "" {
		return s
	}
	return nonDigits.ReplaceAllString(s, "")
}

// Clean trims surrounding whitespace from a submitted value.
func Clean(s string) string {
	return strings.TrimSpace(s)
}
