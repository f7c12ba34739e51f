// Package notebook converts Jupyter notebook JSON to Markdown for export.
package notebook

import (
	"encoding/json"
	"fmt"
	"strings"
)

// minimumSupportedFormat is the oldest nbformat major version accepted.
const minimumSupportedFormat = 4

// Converter renders raw notebook JSON as Markdown text.
type Converter interface {
	Convert(notebookContent string) string
}

// MarkdownConverter parses nbformat-4 notebooks, discards cell outputs, and
// renders markdown cells verbatim with code cells as fenced blocks. It never
// fails outward: unparseable input degrades to an error comment followed by
// the original content.
type MarkdownConverter struct{}

// NewMarkdownConverter returns the default notebook converter.
func NewMarkdownConverter() MarkdownConverter {
	return MarkdownConverter{}
}

// Convert renders the notebook as Markdown.
func (MarkdownConverter) Convert(notebookContent string) string {
	document, parseError := parseNotebook(notebookContent)
	if parseError != nil {
		return fmt.Sprintf("<!-- Error converting notebook: %v -->\n%s", parseError, notebookContent)
	}
	return renderMarkdown(document)
}

type notebookDocument struct {
	Cells    []notebookCell   `json:"cells"`
	Metadata notebookMetadata `json:"metadata"`
	NBFormat int              `json:"nbformat"`
}

type notebookCell struct {
	CellType string `json:"cell_type"`
	Source   any    `json:"source"`
}

type notebookMetadata struct {
	Kernelspec struct {
		Language string `json:"language"`
	} `json:"kernelspec"`
	LanguageInfo struct {
		Name string `json:"name"`
	} `json:"language_info"`
}

func parseNotebook(notebookContent string) (notebookDocument, error) {
	var document notebookDocument
	if unmarshalError := json.Unmarshal([]byte(notebookContent), &document); unmarshalError != nil {
		return notebookDocument{}, unmarshalError
	}
	if document.NBFormat != 0 && document.NBFormat < minimumSupportedFormat {
		return notebookDocument{}, fmt.Errorf("unsupported nbformat version %d", document.NBFormat)
	}
	return document, nil
}

func renderMarkdown(document notebookDocument) string {
	codeLanguage := document.Metadata.LanguageInfo.Name
	if codeLanguage == "" {
		codeLanguage = document.Metadata.Kernelspec.Language
	}

	renderedCells := make([]string, 0, len(document.Cells))
	for _, cell := range document.Cells {
		cellSource := joinCellSource(cell.Source)
		switch cell.CellType {
		case "code":
			fencedSource := strings.TrimSuffix(cellSource, "\n")
			renderedCells = append(renderedCells, "```"+codeLanguage+"\n"+fencedSource+"\n```")
		default:
			renderedCells = append(renderedCells, strings.TrimSuffix(cellSource, "\n"))
		}
	}
	return strings.Join(renderedCells, "\n\n")
}

// joinCellSource accepts both nbformat source encodings: a single string or a
// list of line fragments.
func joinCellSource(rawSource any) string {
	switch typedSource := rawSource.(type) {
	case string:
		return typedSource
	case []any:
		var sourceBuilder strings.Builder
		for _, fragment := range typedSource {
			if fragmentText, isString := fragment.(string); isString {
				sourceBuilder.WriteString(fragmentText)
			}
		}
		return sourceBuilder.String()
	default:
		return ""
	}
}
