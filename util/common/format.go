package common

import (
	"fmt"
	"strings"
)

// FormatLakh renders rupees in lakh units with two decimals, e.g. ₹1.20L.
func FormatLakh(amount int64) string {
	return fmt.Sprintf("₹%.2fL", float64(amount)/100000)
}

// FormatThousands renders rupees in thousands without decimals, e.g. ₹40K.
func FormatThousands(amount int64) string {
	return fmt.Sprintf("₹%.0fK", float64(amount)/1000)
}

// Initials returns up to two leading letters of a display name.
func Initials(name string) string {
	var b strings.Builder
	for _, part := range strings.Fields(name) {
		if b.Len() >= 2 {
			break
		}
		r := []rune(part)
		b.WriteString(strings.ToUpper(string(r[0])))
	}
	return b.String()
}
