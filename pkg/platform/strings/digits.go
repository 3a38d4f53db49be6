// Package strings holds small string helpers shared across features.
package strings

// Digits returns s with every non-digit rune stripped. Tax IDs, postal codes
// and phone numbers arrive with punctuation from user input; length rules are
// always applied to the cleaned value.
func Digits(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			out = append(out, r)
		}
	}
	return string(out)
}
