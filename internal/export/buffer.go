package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/polli-labs/repoexport/internal/config"
	"github.com/polli-labs/repoexport/internal/notebook"
	"github.com/polli-labs/repoexport/internal/pathutil"
	"github.com/polli-labs/repoexport/internal/tokenizer"
	"github.com/polli-labs/repoexport/internal/types"
	"github.com/polli-labs/repoexport/internal/utils"
)

const (
	warningNotAFileFormat        = "Warning: %s is not a file, skipping.\n"
	warningReadFailureFormat     = "Error reading or processing file %s: %v\n"
	warningTokenizeFailureFormat = "Warning: tokenizer failed to encode content for %s: %v\n"

	notebookExtension = ".ipynb"
)

// Buffer accumulates the files selected for export together with their
// per-file, per-extension, and total statistics. Files are recorded in
// insertion order and deduplicated by absolute path.
type Buffer struct {
	repositoryRoot    string
	filter            *Filter
	annotator         *Annotator
	extensionFilter   config.ExtensionFilter
	notebookConverter notebook.Converter
	tokenCounter      tokenizer.Counter
	warningWriter     io.Writer

	selectedFiles           []types.SelectedFile
	indexByAbsolutePath     map[string]int
	statisticsByDisplayPath map[string]types.FileStatistics
	statisticsByExtension   map[string]types.ExtensionStats
	totalLineCount          int
	totalTokenCount         int
}

// NewBuffer constructs an empty Buffer wired to the given collaborators. A nil
// tokenCounter records zero tokens for every file; a nil warningWriter sends
// warnings to stderr.
func NewBuffer(repositoryRoot string, filter *Filter, annotator *Annotator, extensionFilter config.ExtensionFilter, notebookConverter notebook.Converter, tokenCounter tokenizer.Counter, warningWriter io.Writer) *Buffer {
	if warningWriter == nil {
		warningWriter = os.Stderr
	}
	return &Buffer{
		repositoryRoot:          filepath.Clean(repositoryRoot),
		filter:                  filter,
		annotator:               annotator,
		extensionFilter:         extensionFilter,
		notebookConverter:       notebookConverter,
		tokenCounter:            tokenCounter,
		warningWriter:           warningWriter,
		indexByAbsolutePath:     map[string]int{},
		statisticsByDisplayPath: map[string]types.FileStatistics{},
		statisticsByExtension:   map[string]types.ExtensionStats{},
	}
}

// Add evaluates a candidate file against the selection gates in order and,
// when the file qualifies, reads it and records its content and statistics.
// forceInclude bypasses the extension filter only; every other gate still
// applies. Statistics are always computed on the content before annotation.
func (buffer *Buffer) Add(absolutePath string, forceInclude bool) {
	fileInformation, statError := os.Stat(absolutePath)
	if statError != nil || !fileInformation.Mode().IsRegular() {
		fmt.Fprintf(buffer.warningWriter, warningNotAFileFormat, absolutePath)
		return
	}
	displayPath := buffer.displayPathFor(absolutePath)
	if buffer.filter.ShouldExcludeFile(absolutePath, displayPath) {
		return
	}
	fileExtension := strings.ToLower(filepath.Ext(absolutePath))
	if !forceInclude && !buffer.extensionFilter.Admits(fileExtension) {
		return
	}
	normalizedAbsolutePath := filepath.Clean(absolutePath)
	if _, alreadyBuffered := buffer.indexByAbsolutePath[normalizedAbsolutePath]; alreadyBuffered {
		return
	}
	rawContent, readError := os.ReadFile(absolutePath)
	if readError != nil {
		fmt.Fprintf(buffer.warningWriter, warningReadFailureFormat, absolutePath, readError)
		return
	}
	fileContent := utils.SanitizeUTF8(rawContent)
	convertedFromNotebook := false
	if fileExtension == notebookExtension {
		fileContent = buffer.notebookConverter.Convert(fileContent)
		convertedFromNotebook = true
	}

	lineCount := utils.CountLines(fileContent)
	tokenCount := 0
	if buffer.tokenCounter != nil {
		countedTokens, countError := buffer.tokenCounter.CountString(fileContent)
		if countError != nil {
			fmt.Fprintf(buffer.warningWriter, warningTokenizeFailureFormat, displayPath, countError)
		} else {
			tokenCount = countedTokens
		}
	}
	exportContent, annotationInterval := buffer.annotator.Annotate(fileContent, fileExtension)

	buffer.indexByAbsolutePath[normalizedAbsolutePath] = len(buffer.selectedFiles)
	buffer.selectedFiles = append(buffer.selectedFiles, types.SelectedFile{
		DisplayPath:           displayPath,
		AbsolutePath:          normalizedAbsolutePath,
		Content:               exportContent,
		ConvertedFromNotebook: convertedFromNotebook,
		AnnotationInterval:    annotationInterval,
	})
	buffer.statisticsByDisplayPath[displayPath] = types.FileStatistics{LineCount: lineCount, TokenCount: tokenCount}

	extensionKey := fileExtension
	if extensionKey == utils.EmptyString {
		extensionKey = types.NoExtensionKey
	}
	extensionEntry := buffer.statisticsByExtension[extensionKey]
	extensionEntry.FileCount++
	extensionEntry.TotalLines += lineCount
	extensionEntry.TotalTokens += tokenCount
	buffer.statisticsByExtension[extensionKey] = extensionEntry

	buffer.totalLineCount += lineCount
	buffer.totalTokenCount += tokenCount
}

// displayPathFor derives the path recorded in the export document: relative to
// the repository root for files under it, absolute for everything else.
func (buffer *Buffer) displayPathFor(absolutePath string) string {
	normalizedAbsolutePath := filepath.Clean(absolutePath)
	rootPrefix := buffer.repositoryRoot + string(os.PathSeparator)
	if strings.HasPrefix(normalizedAbsolutePath, rootPrefix) {
		relativePath, relativeError := filepath.Rel(buffer.repositoryRoot, normalizedAbsolutePath)
		if relativeError == nil {
			return pathutil.ToSystemPath(relativePath)
		}
	}
	return pathutil.ToSystemPath(normalizedAbsolutePath)
}

// SelectedFiles returns the buffered files in insertion order.
func (buffer *Buffer) SelectedFiles() []types.SelectedFile {
	return buffer.selectedFiles
}

// FileByAbsolutePath returns the buffered file recorded for the absolute path.
func (buffer *Buffer) FileByAbsolutePath(absolutePath string) (types.SelectedFile, bool) {
	fileIndex, isBuffered := buffer.indexByAbsolutePath[filepath.Clean(absolutePath)]
	if !isBuffered {
		return types.SelectedFile{}, false
	}
	return buffer.selectedFiles[fileIndex], true
}

// IsBuffered reports whether the absolute path has already been recorded.
func (buffer *Buffer) IsBuffered(absolutePath string) bool {
	_, isBuffered := buffer.indexByAbsolutePath[filepath.Clean(absolutePath)]
	return isBuffered
}

// StatisticsFor returns the pre-annotation statistics recorded for a display
// path.
func (buffer *Buffer) StatisticsFor(displayPath string) (types.FileStatistics, bool) {
	statistics, isRecorded := buffer.statisticsByDisplayPath[displayPath]
	return statistics, isRecorded
}

// ExtensionStatistics returns the per-extension rollup keyed by lowercase
// extension, with extensionless files under the NoExtensionKey sentinel.
func (buffer *Buffer) ExtensionStatistics() map[string]types.ExtensionStats {
	return buffer.statisticsByExtension
}

// FileCount returns the number of buffered files.
func (buffer *Buffer) FileCount() int {
	return len(buffer.selectedFiles)
}

// TotalLines returns the line total across all buffered files.
func (buffer *Buffer) TotalLines() int {
	return buffer.totalLineCount
}

// TotalTokens returns the token total across all buffered files.
func (buffer *Buffer) TotalTokens() int {
	return buffer.totalTokenCount
}
