package export_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/polli-labs/repoexport/internal/config"
	"github.com/polli-labs/repoexport/internal/export"
	"github.com/polli-labs/repoexport/internal/types"
)

func baseExportConfiguration(rootDirectory string) config.ExportConfiguration {
	return config.ExportConfiguration{
		RepoRoot:              rootDirectory,
		ExportName:            config.DefaultExportFileName,
		OutputFilePath:        filepath.Join(rootDirectory, config.DefaultExportFileName),
		DirsToTraverse:        []string{"."},
		IncludedExtensions:    admitAllExtensions(),
		AlwaysExcludePatterns: []string{config.DefaultExportFileName},
		Depth:                 types.UnlimitedDepth,
		LineNumberInterval:    config.DefaultLineNumberInterval,
		LineNumberMinLength:   config.DefaultLineNumberMinLength,
		LineNumberPrefix:      config.DefaultLineNumberPrefix,
		AnnotateExtensions:    config.DefaultAnnotateExtensions,
		SourceLabel:           "test_config",
	}
}

func TestRunProducesTaggedDocument(t *testing.T) {
	rootDirectory := t.TempDir()
	writeTestFile(t, filepath.Join(rootDirectory, "README.md"), "hello")
	writeTestFile(t, filepath.Join(rootDirectory, "src", "main.py"), "print(1)\nprint(2)")

	exporter := &export.Exporter{
		Configuration: baseExportConfiguration(rootDirectory),
		TokenCounter:  runeCounter{},
		WarningWriter: &bytes.Buffer{},
	}
	result, runError := exporter.Run()
	if runError != nil {
		t.Fatalf("expected export to succeed, got %v", runError)
	}

	nestedDisplayPath := filepath.Join("src", "main.py")
	expectedDocument := strings.Join([]string{
		"<codebase_context>",
		`  <dirtree root="` + rootDirectory + `">`,
		filepath.Base(rootDirectory) + " (3 lines/22 tokens)",
		"||-- README.md (1/5)",
		"|\\-- src (2/17)",
		"|    \\-- main.py (2/17)",
		"  </dirtree>",
		"  <files>",
		`    <file path="README.md">`,
		"hello",
		"    </file>",
		`    <dir path="src">`,
		`      <file path="` + nestedDisplayPath + `">`,
		"print(1)",
		"print(2)",
		"      </file>",
		"    </dir>",
		"  </files>",
		"</codebase_context>",
	}, "\n")
	if result.Document != expectedDocument {
		t.Fatalf("unexpected document:\n%s\n--- expected ---\n%s", result.Document, expectedDocument)
	}

	writtenDocument, readError := os.ReadFile(result.OutputFilePath)
	if readError != nil {
		t.Fatalf("expected output file, got %v", readError)
	}
	if string(writtenDocument) != expectedDocument {
		t.Fatalf("output file does not match rendered document")
	}

	if result.FileCount != 2 || result.TotalLines != 3 || result.TotalTokens != 22 {
		t.Fatalf("unexpected totals: %d files, %d lines, %d tokens", result.FileCount, result.TotalLines, result.TotalTokens)
	}
	if result.TokenizerName != "rune_count" {
		t.Fatalf("expected tokenizer name rune_count, got %q", result.TokenizerName)
	}
	markdownStatistics := result.ExtensionStatistics[".md"]
	if markdownStatistics.FileCount != 1 || markdownStatistics.TotalLines != 1 {
		t.Fatalf("unexpected .md statistics %+v", markdownStatistics)
	}
}

func TestRunIsDeterministicAcrossRuns(t *testing.T) {
	rootDirectory := t.TempDir()
	writeTestFile(t, filepath.Join(rootDirectory, "a.py"), "first")
	writeTestFile(t, filepath.Join(rootDirectory, "lib", "b.py"), "second")

	exporter := &export.Exporter{
		Configuration: baseExportConfiguration(rootDirectory),
		TokenCounter:  runeCounter{},
		WarningWriter: &bytes.Buffer{},
	}
	firstResult, firstError := exporter.Run()
	if firstError != nil {
		t.Fatalf("first run failed: %v", firstError)
	}
	secondResult, secondError := exporter.Run()
	if secondError != nil {
		t.Fatalf("second run failed: %v", secondError)
	}

	if firstResult.Document != secondResult.Document {
		t.Fatalf("expected identical documents across runs")
	}
	if secondResult.FileCount != firstResult.FileCount {
		t.Fatalf("expected the output file to stay excluded, got %d files then %d", firstResult.FileCount, secondResult.FileCount)
	}
	if strings.Contains(secondResult.Document, config.DefaultExportFileName) {
		t.Fatalf("expected the output file to stay out of the document")
	}
}

func TestRunEmptyRepository(t *testing.T) {
	rootDirectory := t.TempDir()
	exporter := &export.Exporter{
		Configuration: baseExportConfiguration(rootDirectory),
		TokenCounter:  runeCounter{},
		WarningWriter: &bytes.Buffer{},
	}
	result, runError := exporter.Run()
	if runError != nil {
		t.Fatalf("expected export to succeed, got %v", runError)
	}

	expectedDocument := strings.Join([]string{
		"<codebase_context>",
		`  <dirtree root="` + rootDirectory + `">`,
		filepath.Base(rootDirectory) + "\n",
		"  </dirtree>",
		"  <files>",
		"",
		"  </files>",
		"</codebase_context>",
	}, "\n")
	if result.Document != expectedDocument {
		t.Fatalf("unexpected empty document:\n%q", result.Document)
	}
	if result.FileCount != 0 {
		t.Fatalf("expected no files, got %d", result.FileCount)
	}
}

func TestRunDumpConfigEmbedsConfiguration(t *testing.T) {
	rootDirectory := t.TempDir()
	writeTestFile(t, filepath.Join(rootDirectory, "main.py"), "x")

	configuration := baseExportConfiguration(rootDirectory)
	configuration.DumpConfig = true
	exporter := &export.Exporter{
		Configuration: configuration,
		TokenCounter:  runeCounter{},
		WarningWriter: &bytes.Buffer{},
	}
	result, runError := exporter.Run()
	if runError != nil {
		t.Fatalf("expected export to succeed, got %v", runError)
	}

	configOpenTag := `  <config source="test_config">`
	if !strings.Contains(result.Document, configOpenTag) {
		t.Fatalf("expected config block, got:\n%s", result.Document)
	}
	if !strings.Contains(result.Document, `"repo_root"`) {
		t.Fatalf("expected serialized configuration keys in the document")
	}
	configIndex := strings.Index(result.Document, configOpenTag)
	dirtreeIndex := strings.Index(result.Document, "  <dirtree root=")
	if configIndex > dirtreeIndex {
		t.Fatalf("expected the config block before the first dirtree")
	}
}

func TestRunRendersExternalTrees(t *testing.T) {
	rootDirectory := t.TempDir()
	writeTestFile(t, filepath.Join(rootDirectory, "app.py"), "a")
	externalDirectory := t.TempDir()
	externalPath := filepath.Join(externalDirectory, "ext.py")
	writeTestFile(t, externalPath, "x\ny")
	missingDirectory := filepath.Join(externalDirectory, "absent")

	configuration := baseExportConfiguration(rootDirectory)
	configuration.AdditionalDirsToTraverse = []string{externalDirectory, missingDirectory}
	warnings := &bytes.Buffer{}
	exporter := &export.Exporter{
		Configuration: configuration,
		TokenCounter:  runeCounter{},
		WarningWriter: warnings,
	}
	result, runError := exporter.Run()
	if runError != nil {
		t.Fatalf("expected export to succeed, got %v", runError)
	}

	if !strings.Contains(result.Document, `  <dirtree root="`+externalDirectory+`">`) {
		t.Fatalf("expected a dirtree block for the external directory")
	}
	if !strings.Contains(result.Document, filepath.Base(externalDirectory)+" (2 lines/3 tokens)") {
		t.Fatalf("expected the external tree to restart the units flag:\n%s", result.Document)
	}
	if !strings.Contains(result.Document, "    <external_files>") {
		t.Fatalf("expected an external_files section")
	}
	if !strings.Contains(result.Document, `      <file path="`+externalPath+`">`) {
		t.Fatalf("expected the external file element at six-space indent")
	}
	if !strings.Contains(warnings.String(), "not found or not a directory. Skipping tree generation") {
		t.Fatalf("expected a warning for the missing external root, got %q", warnings.String())
	}
	if strings.Contains(result.Document, `  <dirtree root="`+missingDirectory+`">`) {
		t.Fatalf("expected no dirtree block for the missing external root")
	}
}

func TestRunAnnotatesConfiguredExtensions(t *testing.T) {
	rootDirectory := t.TempDir()
	writeTestFile(t, filepath.Join(rootDirectory, "long.py"), "a\nb\nc\nd")

	configuration := baseExportConfiguration(rootDirectory)
	configuration.LineNumberInterval = 2
	configuration.LineNumberMinLength = 1
	exporter := &export.Exporter{
		Configuration: configuration,
		TokenCounter:  runeCounter{},
		WarningWriter: &bytes.Buffer{},
	}
	result, runError := exporter.Run()
	if runError != nil {
		t.Fatalf("expected export to succeed, got %v", runError)
	}

	if !strings.Contains(result.Document, ` line_interval="2"`) {
		t.Fatalf("expected the line_interval attribute on the annotated file")
	}
	if !strings.Contains(result.Document, "#|LN|2|") {
		t.Fatalf("expected line number markers in the exported content")
	}
	if result.TotalLines != 4 {
		t.Fatalf("expected statistics from the original content, got %d lines", result.TotalLines)
	}
}

func TestRunWriteFailureReturnsError(t *testing.T) {
	rootDirectory := t.TempDir()
	writeTestFile(t, filepath.Join(rootDirectory, "main.py"), "x")

	configuration := baseExportConfiguration(rootDirectory)
	configuration.OutputFilePath = filepath.Join(rootDirectory, "missing-dir", "export.txt")
	exporter := &export.Exporter{
		Configuration: configuration,
		TokenCounter:  runeCounter{},
		WarningWriter: &bytes.Buffer{},
	}
	_, runError := exporter.Run()
	if runError == nil {
		t.Fatalf("expected an error when the output directory does not exist")
	}
	if !strings.Contains(runError.Error(), "write export document") {
		t.Fatalf("unexpected error %v", runError)
	}
}
