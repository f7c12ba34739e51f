package export_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/polli-labs/repoexport/internal/config"
	"github.com/polli-labs/repoexport/internal/export"
	"github.com/polli-labs/repoexport/internal/types"
)

func TestComputeDirectoryAggregates(t *testing.T) {
	rootDirectory := t.TempDir()
	writeTestFile(t, filepath.Join(rootDirectory, "a", "one.py"), "1\n2")
	writeTestFile(t, filepath.Join(rootDirectory, "a", "b", "two.py"), "3")
	writeTestFile(t, filepath.Join(rootDirectory, "top.py"), "4")
	externalDirectory := t.TempDir()
	externalPath := filepath.Join(externalDirectory, "ext.py")
	writeTestFile(t, externalPath, "5\n6\n7")

	buffer := newTestBuffer(rootDirectory, runeCounter{}, &bytes.Buffer{})
	buffer.Add(filepath.Join(rootDirectory, "a", "one.py"), false)
	buffer.Add(filepath.Join(rootDirectory, "a", "b", "two.py"), false)
	buffer.Add(filepath.Join(rootDirectory, "top.py"), false)
	buffer.Add(externalPath, false)

	aggregates := export.ComputeDirectoryAggregates(buffer)

	testCases := []struct {
		name          string
		aggregateKey  string
		expectedLines int
	}{
		{name: "repository total", aggregateKey: "", expectedLines: 4},
		{name: "direct and nested files", aggregateKey: "a", expectedLines: 3},
		{name: "nested directory", aggregateKey: filepath.Join("a", "b"), expectedLines: 1},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			statistics, found := aggregates[testCase.aggregateKey]
			if !found {
				t.Fatalf("expected aggregate for %q", testCase.aggregateKey)
			}
			if statistics.LineCount != testCase.expectedLines {
				t.Fatalf("expected %d lines for %q, got %d", testCase.expectedLines, testCase.aggregateKey, statistics.LineCount)
			}
		})
	}
	if _, found := aggregates[externalDirectory]; found {
		t.Fatalf("expected external files to stay out of repository aggregates")
	}
}

func TestAggregatedStatsForDirectory(t *testing.T) {
	rootDirectory := t.TempDir()
	externalDirectory := t.TempDir()
	writeTestFile(t, filepath.Join(externalDirectory, "first.py"), "a\nb")
	writeTestFile(t, filepath.Join(externalDirectory, "sub", "second.py"), "c")

	buffer := newTestBuffer(rootDirectory, runeCounter{}, &bytes.Buffer{})
	buffer.Add(filepath.Join(externalDirectory, "first.py"), false)
	buffer.Add(filepath.Join(externalDirectory, "sub", "second.py"), false)

	statistics := export.AggregatedStatsForDirectory(buffer, externalDirectory)
	if statistics.LineCount != 3 {
		t.Fatalf("expected 3 aggregated lines, got %d", statistics.LineCount)
	}

	subStatistics := export.AggregatedStatsForDirectory(buffer, filepath.Join(externalDirectory, "sub"))
	if subStatistics.LineCount != 1 {
		t.Fatalf("expected 1 aggregated line under sub, got %d", subStatistics.LineCount)
	}

	emptyStatistics := export.AggregatedStatsForDirectory(buffer, rootDirectory)
	if emptyStatistics.LineCount != 0 || emptyStatistics.TokenCount != 0 {
		t.Fatalf("expected zero statistics for directory without buffered files, got %+v", emptyStatistics)
	}
}

func TestStatsForTreePath(t *testing.T) {
	rootDirectory := t.TempDir()
	writeTestFile(t, filepath.Join(rootDirectory, "pkg", "mod.py"), "a\nb\nc")
	writeTestFile(t, filepath.Join(rootDirectory, "pkg", "skip.py"), "d")

	buffer := newTestBuffer(rootDirectory, runeCounter{}, &bytes.Buffer{})
	buffer.Add(filepath.Join(rootDirectory, "pkg", "mod.py"), false)

	fileStatistics := export.StatsForTreePath(buffer, filepath.Join("pkg", "mod.py"), rootDirectory)
	if fileStatistics.LineCount != 3 || fileStatistics.TokenCount != 5 {
		t.Fatalf("expected buffered file statistics 3/5, got %d/%d", fileStatistics.LineCount, fileStatistics.TokenCount)
	}

	directoryStatistics := export.StatsForTreePath(buffer, "pkg", rootDirectory)
	if directoryStatistics.LineCount != 3 {
		t.Fatalf("expected directory aggregate to count only buffered files, got %d", directoryStatistics.LineCount)
	}

	unknownStatistics := export.StatsForTreePath(buffer, filepath.Join("pkg", "skip.py"), rootDirectory)
	if unknownStatistics.LineCount != 0 || unknownStatistics.TokenCount != 0 {
		t.Fatalf("expected zero statistics for unbuffered file, got %d/%d", unknownStatistics.LineCount, unknownStatistics.TokenCount)
	}
}

func TestTreeVisibility(t *testing.T) {
	rootDirectory := t.TempDir()
	writeTestFile(t, filepath.Join(rootDirectory, "src", "app.py"), "print(1)")
	writeTestFile(t, filepath.Join(rootDirectory, "src", "deep", "util.py"), "x")
	writeTestFile(t, filepath.Join(rootDirectory, "empty", "ignored.md"), "m")
	writeTestFile(t, filepath.Join(rootDirectory, "vendor", "dep.py"), "v")

	exportConfiguration := config.ExportConfiguration{
		RepoRoot:           rootDirectory,
		SubdirsToExclude:   []string{"vendor"},
		IncludedExtensions: config.ExtensionFilter{Extensions: []string{".py"}},
		Depth:              types.UnlimitedDepth,
	}
	filter := export.NewFilter(rootDirectory, exportConfiguration.SubdirsToExclude, nil, nil)
	annotator := export.NewAnnotator(0, 0, config.DefaultLineNumberPrefix, nil)
	buffer := export.NewBuffer(rootDirectory, filter, annotator, exportConfiguration.IncludedExtensions, nil, runeCounter{}, &bytes.Buffer{})
	buffer.Add(filepath.Join(rootDirectory, "src", "app.py"), false)
	buffer.Add(filepath.Join(rootDirectory, "src", "deep", "util.py"), false)

	aggregates := export.ComputeDirectoryAggregates(buffer)
	visibility := export.NewTreeVisibility(exportConfiguration, filter, buffer, aggregates)

	testCases := []struct {
		name            string
		directory       string
		expectedVisible bool
	}{
		{name: "directory with direct buffered file", directory: filepath.Join(rootDirectory, "src"), expectedVisible: true},
		{name: "directory with nested buffered content", directory: filepath.Join(rootDirectory, "src", "deep"), expectedVisible: true},
		{name: "directory without buffered content", directory: filepath.Join(rootDirectory, "empty"), expectedVisible: false},
		{name: "excluded directory", directory: filepath.Join(rootDirectory, "vendor"), expectedVisible: false},
		{name: "blacklisted name", directory: filepath.Join(rootDirectory, "__pycache__"), expectedVisible: false},
		{name: "outside the tree root", directory: t.TempDir(), expectedVisible: false},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			visible := visibility.DirectoryVisible(testCase.directory, rootDirectory)
			if visible != testCase.expectedVisible {
				t.Fatalf("expected visibility %v for %s, got %v", testCase.expectedVisible, testCase.directory, visible)
			}
		})
	}

	if !visibility.FileVisible(filepath.Join(rootDirectory, "src", "app.py")) {
		t.Fatalf("expected buffered file to be visible")
	}
	if visibility.FileVisible(filepath.Join(rootDirectory, "empty", "ignored.md")) {
		t.Fatalf("expected unbuffered file to be hidden")
	}
}

func TestTreeVisibilityExhaustiveSkipsExclusionOnly(t *testing.T) {
	rootDirectory := t.TempDir()
	writeTestFile(t, filepath.Join(rootDirectory, "vendor", "dep.py"), "v")
	writeTestFile(t, filepath.Join(rootDirectory, "bare", "note.md"), "n")

	exportConfiguration := config.ExportConfiguration{
		RepoRoot:           rootDirectory,
		SubdirsToExclude:   []string{"vendor"},
		IncludedExtensions: admitAllExtensions(),
		ExhaustiveDirTree:  true,
		Depth:              types.UnlimitedDepth,
	}
	filter := export.NewFilter(rootDirectory, exportConfiguration.SubdirsToExclude, nil, nil)
	annotator := export.NewAnnotator(0, 0, config.DefaultLineNumberPrefix, nil)
	buffer := export.NewBuffer(rootDirectory, filter, annotator, exportConfiguration.IncludedExtensions, nil, runeCounter{}, &bytes.Buffer{})
	buffer.Add(filepath.Join(rootDirectory, "vendor", "dep.py"), true)

	aggregates := export.ComputeDirectoryAggregates(buffer)
	visibility := export.NewTreeVisibility(exportConfiguration, filter, buffer, aggregates)

	if !visibility.DirectoryVisible(filepath.Join(rootDirectory, "vendor"), rootDirectory) {
		t.Fatalf("expected exhaustive mode to show the excluded directory with buffered content")
	}
	if visibility.DirectoryVisible(filepath.Join(rootDirectory, "bare"), rootDirectory) {
		t.Fatalf("expected directory without buffered content to stay hidden even in exhaustive mode")
	}
}

func TestTreeVisibilityDirsForTreeRestriction(t *testing.T) {
	rootDirectory := t.TempDir()
	writeTestFile(t, filepath.Join(rootDirectory, "src", "app.py"), "a")
	writeTestFile(t, filepath.Join(rootDirectory, "docs", "guide.md"), "g")

	exportConfiguration := config.ExportConfiguration{
		RepoRoot:           rootDirectory,
		DirsForTree:        []string{"src"},
		IncludedExtensions: admitAllExtensions(),
		Depth:              types.UnlimitedDepth,
	}
	filter := export.NewFilter(rootDirectory, nil, nil, nil)
	annotator := export.NewAnnotator(0, 0, config.DefaultLineNumberPrefix, nil)
	buffer := export.NewBuffer(rootDirectory, filter, annotator, exportConfiguration.IncludedExtensions, nil, runeCounter{}, &bytes.Buffer{})
	buffer.Add(filepath.Join(rootDirectory, "src", "app.py"), false)
	buffer.Add(filepath.Join(rootDirectory, "docs", "guide.md"), false)

	aggregates := export.ComputeDirectoryAggregates(buffer)
	visibility := export.NewTreeVisibility(exportConfiguration, filter, buffer, aggregates)

	if !visibility.DirectoryVisible(filepath.Join(rootDirectory, "src"), rootDirectory) {
		t.Fatalf("expected listed directory to be visible")
	}
	if visibility.DirectoryVisible(filepath.Join(rootDirectory, "docs"), rootDirectory) {
		t.Fatalf("expected unlisted directory to be hidden")
	}
}
