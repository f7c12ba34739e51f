package utils

import (
	"strings"
	"unicode/utf8"
)

// SanitizeUTF8 decodes data as UTF-8, substituting the Unicode replacement
// character for every invalid byte. Files are never rejected for encoding
// errors; they are repaired and exported.
func SanitizeUTF8(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	var sanitizedBuilder strings.Builder
	sanitizedBuilder.Grow(len(data))
	for len(data) > 0 {
		runeValue, runeSize := utf8.DecodeRune(data)
		if runeValue == utf8.RuneError && runeSize == 1 {
			sanitizedBuilder.WriteRune(utf8.RuneError)
		} else {
			sanitizedBuilder.Write(data[:runeSize])
		}
		data = data[runeSize:]
	}
	return sanitizedBuilder.String()
}

// CountLines reports the number of newline-terminated segments in content, the
// same way a text editor numbers lines. Empty content still counts as one line.
func CountLines(content string) int {
	return strings.Count(content, "\n") + 1
}
