package utils

import (
	"fmt"
	"strconv"
)

// FormatCount renders a line or token count for tree display. Counts of one
// thousand and above are abbreviated to one decimal with a "k" suffix; the
// decimal is truncated, never rounded up, so 1999 renders as "1.9k".
func FormatCount(count int) string {
	if count >= 1000 {
		return fmt.Sprintf("%.1fk", float64(count/100)/10)
	}
	return strconv.Itoa(count)
}
