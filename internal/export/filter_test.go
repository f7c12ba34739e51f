package export_test

import (
	"path/filepath"
	"testing"

	"github.com/polli-labs/repoexport/internal/export"
)

func TestShouldExcludeFileBlacklist(t *testing.T) {
	rootDirectory := t.TempDir()
	filter := export.NewFilter(rootDirectory, nil, nil, nil)

	testCases := []struct {
		name     string
		fileName string
		expected bool
	}{
		{name: "license file", fileName: "LICENSE", expected: true},
		{name: "lock file", fileName: "uv.lock", expected: true},
		{name: "finder metadata", fileName: ".DS_Store", expected: true},
		{name: "regular source file", fileName: "main.py", expected: false},
		{name: "lowercase license not blacklisted", fileName: "license", expected: false},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			absolutePath := filepath.Join(rootDirectory, "sub", testCase.fileName)
			displayPath := filepath.Join("sub", testCase.fileName)
			result := filter.ShouldExcludeFile(absolutePath, displayPath)
			if result != testCase.expected {
				t.Fatalf("expected %v, got %v", testCase.expected, result)
			}
		})
	}
}

func TestShouldExcludeFileAlwaysPatterns(t *testing.T) {
	rootDirectory := t.TempDir()
	filter := export.NewFilter(rootDirectory, nil, nil, []string{"export.txt", "*.log"})

	testCases := []struct {
		name     string
		fileName string
		expected bool
	}{
		{name: "exact pattern match", fileName: "export.txt", expected: true},
		{name: "wildcard extension match", fileName: "debug.log", expected: true},
		{name: "bare extension match", fileName: ".log", expected: true},
		{name: "suffix of plain pattern", fileName: "full_export.txt", expected: true},
		{name: "unrelated file", fileName: "main.go", expected: false},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			absolutePath := filepath.Join(rootDirectory, testCase.fileName)
			result := filter.ShouldExcludeFile(absolutePath, testCase.fileName)
			if result != testCase.expected {
				t.Fatalf("expected %v, got %v", testCase.expected, result)
			}
		})
	}
}

func TestShouldExcludeFileConfiguredPaths(t *testing.T) {
	rootDirectory := t.TempDir()
	filter := export.NewFilter(rootDirectory, nil, []string{"src/secret.py", "notes.md"}, nil)

	testCases := []struct {
		name        string
		displayPath string
		expected    bool
	}{
		{name: "exact display path", displayPath: filepath.Join("src", "secret.py"), expected: true},
		{name: "suffix with separator", displayPath: filepath.Join("vendor", "src", "secret.py"), expected: true},
		{name: "basename entry matches nested file", displayPath: filepath.Join("docs", "notes.md"), expected: true},
		{name: "partial name does not match", displayPath: filepath.Join("src", "nonsecret.py"), expected: false},
		{name: "different file", displayPath: filepath.Join("src", "public.py"), expected: false},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			absolutePath := filepath.Join(rootDirectory, testCase.displayPath)
			result := filter.ShouldExcludeFile(absolutePath, testCase.displayPath)
			if result != testCase.expected {
				t.Fatalf("expected %v, got %v", testCase.expected, result)
			}
		})
	}
}

func TestShouldExcludeDir(t *testing.T) {
	rootDirectory := t.TempDir()
	outsideDirectory := t.TempDir()
	filter := export.NewFilter(rootDirectory, []string{"vendor", "docs/generated"}, nil, nil)

	testCases := []struct {
		name          string
		directoryPath string
		expected      bool
	}{
		{name: "blacklisted name inside root", directoryPath: filepath.Join(rootDirectory, "node_modules"), expected: true},
		{name: "blacklisted name outside root", directoryPath: filepath.Join(outsideDirectory, ".git"), expected: true},
		{name: "configured exclusion", directoryPath: filepath.Join(rootDirectory, "vendor"), expected: true},
		{name: "descendant of configured exclusion", directoryPath: filepath.Join(rootDirectory, "vendor", "pkg"), expected: true},
		{name: "nested configured exclusion", directoryPath: filepath.Join(rootDirectory, "docs", "generated"), expected: true},
		{name: "same name in other location", directoryPath: filepath.Join(rootDirectory, "third_party", "vendor"), expected: false},
		{name: "configured name outside root", directoryPath: filepath.Join(outsideDirectory, "vendor"), expected: false},
		{name: "regular directory", directoryPath: filepath.Join(rootDirectory, "src"), expected: false},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			result := filter.ShouldExcludeDir(testCase.directoryPath)
			if result != testCase.expected {
				t.Fatalf("expected %v, got %v", testCase.expected, result)
			}
		})
	}
}
