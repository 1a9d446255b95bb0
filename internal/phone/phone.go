package phone

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// pattern accepts an optional +, an optional parenthesized group, space,
// hyphen or dot separators, 1-4 digit groups and a tail of up to 9 digits.
var pattern = regexp.MustCompile(`^[+]?[(]?[0-9]{1,4}[)]?[-\s.]?[(]?[0-9]{1,4}[)]?[-\s.]?[0-9]{1,9}$`)

var formatting = strings.NewReplacer("(", "", ")", "", "-", "", ".", "")

// Normalize strips whitespace, parentheses, hyphens and dots. The result is
// what gets validated, stored and compared.
func Normalize(raw string) string {
	s := strings.Join(strings.Fields(raw), "")
	return formatting.Replace(s)
}

// IsValid reports whether the normalized form of raw matches the accepted
// phone pattern.
func IsValid(raw string) bool {
	n := Normalize(raw)
	if n == "" {
		return false
	}
	return pattern.MatchString(n)
}

// Key returns the digits of a phone number. Two leads with the same key are
// the same phone for uniqueness purposes.
func Key(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatForDisplay renders a 10-character normalized number as
// (ABC) DEF-GHIJ. Anything else is returned as is.
func FormatForDisplay(normalized string) string {
	if len(normalized) != 10 {
		return normalized
	}
	return "(" + normalized[0:3] + ") " + normalized[3:6] + "-" + normalized[6:]
}

// Region returns the ISO region code for an international (+ prefixed)
// number, or "" when it cannot be determined.
func Region(normalized string) string {
	if !strings.HasPrefix(normalized, "+") {
		return ""
	}

	parsed, err := phonenumbers.Parse(normalized, "ZZ")
	if err != nil {
		return ""
	}

	region := phonenumbers.GetRegionCodeForNumber(parsed)
	if region == "ZZ" {
		return ""
	}
	return region
}
