// Package types defines the cross-package data structures used by the repoexport CLI.
package types

const (
	// ExtensionAllSentinel is the configuration value admitting every file extension.
	ExtensionAllSentinel = "all"
	// NoExtensionKey labels extension aggregates for files without an extension.
	NoExtensionKey = "._no_extension_"
	// UnlimitedDepth disables depth limiting during traversal and tree rendering.
	UnlimitedDepth = -1
)

// SelectedFile is one file that survived filtering and was read into the buffer.
// Content carries the annotated copy used for serialization; statistics are
// always computed on the pre-annotation text.
type SelectedFile struct {
	DisplayPath           string
	AbsolutePath          string
	Content               string
	ConvertedFromNotebook bool
	AnnotationInterval    int
}

// FileStatistics holds the derived counts for one buffered file.
type FileStatistics struct {
	LineCount  int
	TokenCount int
}

// ExtensionStats accumulates per-extension totals across the whole run.
type ExtensionStats struct {
	FileCount   int
	TotalLines  int
	TotalTokens int
}

// DirectoryAggregate maps a root-relative directory prefix (empty string for
// the root itself) to the summed statistics of every buffered file beneath it.
type DirectoryAggregate map[string]FileStatistics
