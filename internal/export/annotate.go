package export

import (
	"fmt"
	"strings"

	"github.com/polli-labs/repoexport/internal/utils"
)

// commentTokensByExtension maps a file extension to the single-line comment
// token used for its line-number markers.
var commentTokensByExtension = map[string]string{
	".py":         "#",
	".sh":         "#",
	".rb":         "#",
	".pl":         "#",
	".yaml":       "#",
	".yml":        "#",
	".dockerfile": "#",
	".r":          "#",
	".ps1":        "#",
	".js":         "//",
	".ts":         "//",
	".tsx":        "//",
	".java":       "//",
	".c":          "//",
	".cpp":        "//",
	".h":          "//",
	".hpp":        "//",
	".cs":         "//",
	".go":         "//",
	".rs":         "//",
	".kt":         "//",
	".kts":        "//",
	".scala":      "//",
	".swift":      "//",
	".php":        "//",
	".sql":        "--",
	".lua":        "--",
	".hs":         "--",
	".ada":        "--",
}

// dataFileExtensions lists structured-data formats that never receive
// line-number markers, even when configured for annotation.
var dataFileExtensions = map[string]struct{}{
	".tsv":  {},
	".csv":  {},
	".json": {},
	".xml":  {},
	".yaml": {},
	".yml":  {},
	".toml": {},
}

// Annotator inserts sparse line-number markers into file content so that a
// model reading the export can reference locations in long files.
type Annotator struct {
	Interval     int
	MinimumLines int
	MarkerPrefix string
	Extensions   []string
}

// NewAnnotator constructs an Annotator. Extensions must already be lowercased
// and dot-prefixed.
func NewAnnotator(interval int, minimumLines int, markerPrefix string, extensions []string) *Annotator {
	return &Annotator{
		Interval:     interval,
		MinimumLines: minimumLines,
		MarkerPrefix: markerPrefix,
		Extensions:   extensions,
	}
}

// Annotate returns the content with marker lines inserted before every
// Interval-th line, plus the interval that was applied. It returns the
// content unchanged and interval 0 when the file is a data format, the
// extension is not configured, no comment token is known, or the file is
// shorter than MinimumLines.
func (annotator *Annotator) Annotate(content string, fileExtension string) (string, int) {
	lowerExtension := strings.ToLower(fileExtension)
	if _, isDataFormat := dataFileExtensions[lowerExtension]; isDataFormat {
		return content, 0
	}
	if annotator.Interval <= 0 {
		return content, 0
	}
	if !utils.ContainsString(annotator.Extensions, lowerExtension) {
		return content, 0
	}
	commentToken, hasCommentToken := commentTokensByExtension[lowerExtension]
	if !hasCommentToken {
		return content, 0
	}
	contentLines := splitContentLines(content)
	if len(contentLines) < annotator.MinimumLines {
		return content, 0
	}
	markerPrefix := commentToken + annotator.MarkerPrefix
	annotatedLines := make([]string, 0, len(contentLines)+len(contentLines)/annotator.Interval)
	for lineIndex, lineContent := range contentLines {
		lineNumber := lineIndex + 1
		if lineNumber%annotator.Interval == 0 {
			annotatedLines = append(annotatedLines, fmt.Sprintf("%s%d|", markerPrefix, lineNumber))
		}
		annotatedLines = append(annotatedLines, lineContent)
	}
	return strings.Join(annotatedLines, "\n"), annotator.Interval
}

// splitContentLines splits content into lines, normalizing CRLF and lone CR
// line endings and dropping a single trailing newline. An empty string yields
// no lines.
func splitContentLines(content string) []string {
	if content == "" {
		return nil
	}
	normalizedContent := strings.ReplaceAll(content, "\r\n", "\n")
	normalizedContent = strings.ReplaceAll(normalizedContent, "\r", "\n")
	normalizedContent = strings.TrimSuffix(normalizedContent, "\n")
	return strings.Split(normalizedContent, "\n")
}
