package output

import "strings"

// attributeReplacer rewrites every character that cannot appear literally
// inside a double-quoted attribute value, including the whitespace control
// characters, so attribute values always stay on one line.
var attributeReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"\n", "&#10;",
	"\r", "&#13;",
	"\t", "&#9;",
)

// textReplacer rewrites the markup-significant characters of a text node.
var textReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// EscapeAttribute escapes a value for embedding inside a double-quoted
// attribute.
func EscapeAttribute(value string) string {
	return attributeReplacer.Replace(value)
}

// EscapeText escapes the markup-significant characters of a text node. File
// content is deliberately not passed through this; only the config block is.
func EscapeText(value string) string {
	return textReplacer.Replace(value)
}
