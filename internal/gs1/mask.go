package gs1

import "strings"

// Classification masks. A 9 is a digit slot, anything else is a literal.
const (
	NCMPattern  = "9999.99.99"
	CESTPattern = "99.999.99"
)

// Mask lays the digits of value out along pattern. Non-digit characters of
// value are ignored, literals are only written while digits remain and digits
// beyond the pattern are dropped.
func Mask(value, pattern string) string {
	digits := make([]byte, 0, len(value))
	for i := range len(value) {
		if c := value[i]; c >= '0' && c <= '9' {
			digits = append(digits, c)
		}
	}

	var b strings.Builder
	b.Grow(len(pattern))
	next := 0
	for i := range len(pattern) {
		if next >= len(digits) {
			break
		}
		if pattern[i] == '9' {
			b.WriteByte(digits[next])
			next++
			continue
		}
		b.WriteByte(pattern[i])
	}
	return b.String()
}
