package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/polli-labs/repoexport/internal/config"
	"github.com/polli-labs/repoexport/internal/notebook"
	"github.com/polli-labs/repoexport/internal/output"
	"github.com/polli-labs/repoexport/internal/tokenizer"
	"github.com/polli-labs/repoexport/internal/types"
	"github.com/polli-labs/repoexport/internal/utils"
)

const (
	warningMissingTreeRootFormat = "Warning: External directory %s not found or not a directory. Skipping tree generation.\n"

	outputFilePermissions = 0o644
)

// Exporter drives a complete export run over a resolved configuration.
type Exporter struct {
	Configuration     config.ExportConfiguration
	TokenCounter      tokenizer.Counter
	NotebookConverter notebook.Converter
	WarningWriter     io.Writer
}

// Result captures an export run for the caller: the rendered document, where
// it was written, and the statistics the summary reports.
type Result struct {
	Document            string
	OutputFilePath      string
	FileCount           int
	TotalLines          int
	TotalTokens         int
	ExtensionStatistics map[string]types.ExtensionStats
	TokenizerName       string
}

// Run executes the export: scan the top level, traverse the configured and
// additional directories, pull in explicit includes, aggregate statistics,
// render the trees and the document, and write it to the configured output
// file in a single write.
func (exporter *Exporter) Run() (Result, error) {
	configuration := exporter.Configuration
	warningWriter := exporter.WarningWriter
	if warningWriter == nil {
		warningWriter = os.Stderr
	}
	notebookConverter := exporter.NotebookConverter
	if notebookConverter == nil {
		notebookConverter = notebook.NewMarkdownConverter()
	}

	filter := NewFilter(configuration.RepoRoot, configuration.SubdirsToExclude, configuration.FilesToExclude, configuration.AlwaysExcludePatterns)
	annotator := NewAnnotator(configuration.LineNumberInterval, configuration.LineNumberMinLength, configuration.LineNumberPrefix, configuration.AnnotateExtensions)
	buffer := NewBuffer(configuration.RepoRoot, filter, annotator, configuration.IncludedExtensions, notebookConverter, exporter.TokenCounter, warningWriter)
	traverser := NewTraverser(configuration, filter, buffer, warningWriter)

	traverser.ScanTopLevel()
	traverser.TraverseConfiguredDirs()
	traverser.TraverseAdditionalDirs()
	traverser.IncludeExplicitFiles()

	directoryAggregates := ComputeDirectoryAggregates(buffer)
	visibility := NewTreeVisibility(configuration, filter, buffer, directoryAggregates)
	treeRenderer := &output.TreeRenderer{
		DepthLimit:       configuration.Depth,
		DirectoryVisible: visibility.DirectoryVisible,
		FileVisible:      visibility.FileVisible,
		StatsForPath: func(relativePath string, treeRootPath string) (int, int) {
			statistics := StatsForTreePath(buffer, relativePath, treeRootPath)
			return statistics.LineCount, statistics.TokenCount
		},
		WarningWriter: warningWriter,
	}

	treeBlocks := []output.TreeBlock{{
		RootPath: configuration.RepoRoot,
		Rendered: treeRenderer.Render(configuration.RepoRoot),
	}}
	for _, additionalDirectory := range configuration.AdditionalDirsToTraverse {
		directoryInformation, statError := os.Stat(additionalDirectory)
		if statError != nil || !directoryInformation.IsDir() {
			fmt.Fprintf(warningWriter, warningMissingTreeRootFormat, additionalDirectory)
			continue
		}
		treeBlocks = append(treeBlocks, output.TreeBlock{
			RootPath: additionalDirectory,
			Rendered: treeRenderer.Render(additionalDirectory),
		})
	}

	serializer := &output.DocumentSerializer{}
	if configuration.DumpConfig {
		serializer.IncludeConfig = true
		serializer.ConfigLabel = configuration.SourceLabel
		serializer.ConfigJSON = renderConfigJSON(configuration)
	}
	document := serializer.Render(treeBlocks, buffer.SelectedFiles())

	if writeError := os.WriteFile(configuration.OutputFilePath, []byte(document), outputFilePermissions); writeError != nil {
		return Result{}, fmt.Errorf("write export document to %s: %w", configuration.OutputFilePath, writeError)
	}

	tokenizerName := utils.EmptyString
	if exporter.TokenCounter != nil {
		tokenizerName = exporter.TokenCounter.Name()
	}
	return Result{
		Document:            document,
		OutputFilePath:      configuration.OutputFilePath,
		FileCount:           buffer.FileCount(),
		TotalLines:          buffer.TotalLines(),
		TotalTokens:         buffer.TotalTokens(),
		ExtensionStatistics: buffer.ExtensionStatistics(),
		TokenizerName:       tokenizerName,
	}, nil
}

// renderConfigJSON serializes the resolved configuration for the document's
// config block.
func renderConfigJSON(configuration config.ExportConfiguration) string {
	configJSON, marshalError := json.MarshalIndent(configuration, utils.EmptyString, "  ")
	if marshalError != nil {
		return fmt.Sprintf("<!-- Error serializing config: %v -->", marshalError)
	}
	return string(configJSON)
}
