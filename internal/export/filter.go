// Package export implements repository traversal, file selection, and
// statistics collection for context export runs.
package export

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/polli-labs/repoexport/internal/pathutil"
	"github.com/polli-labs/repoexport/internal/utils"
)

// blacklistedDirectoryNames are directory basenames that are never traversed
// and never rendered, regardless of configuration.
var blacklistedDirectoryNames = []string{
	"__pycache__",
	".git",
	".venv",
	".vscode",
	"node_modules",
	"build",
	"dist",
}

// blacklistedFileNames are file basenames that are never exported, regardless
// of configuration.
var blacklistedFileNames = []string{
	"uv.lock",
	"LICENSE",
	".DS_Store",
}

// Filter evaluates the layered exclusion rules for files and directories.
type Filter struct {
	RepositoryRoot        string
	SubdirsToExclude      []string
	FilesToExclude        []string
	AlwaysExcludePatterns []string
}

// NewFilter constructs a Filter for the given absolute repository root.
func NewFilter(repositoryRoot string, subdirsToExclude []string, filesToExclude []string, alwaysExcludePatterns []string) *Filter {
	return &Filter{
		RepositoryRoot:        filepath.Clean(repositoryRoot),
		SubdirsToExclude:      subdirsToExclude,
		FilesToExclude:        filesToExclude,
		AlwaysExcludePatterns: alwaysExcludePatterns,
	}
}

// ShouldExcludeFile reports whether the file must be withheld from the export
// buffer. absolutePath is used for basename checks and displayPath for the
// configured files_to_exclude entries.
func (filter *Filter) ShouldExcludeFile(absolutePath string, displayPath string) bool {
	fileName := filepath.Base(absolutePath)
	if utils.ContainsString(blacklistedFileNames, fileName) {
		return true
	}
	for _, excludePattern := range filter.AlwaysExcludePatterns {
		if matchesAlwaysExcludePattern(fileName, excludePattern) {
			return true
		}
	}
	normalizedDisplayPath := pathutil.ToSystemPath(displayPath)
	for _, excludedPath := range filter.FilesToExclude {
		normalizedExcludedPath := pathutil.ToSystemPath(excludedPath)
		if normalizedDisplayPath == normalizedExcludedPath {
			return true
		}
		if strings.HasSuffix(normalizedDisplayPath, string(os.PathSeparator)+normalizedExcludedPath) {
			return true
		}
	}
	return false
}

// matchesAlwaysExcludePattern applies the relaxed always-exclude rule: an
// exact name match, or a suffix match against the pattern with leading
// asterisks stripped, so "*.log" matches any file ending in ".log".
func matchesAlwaysExcludePattern(fileName string, excludePattern string) bool {
	if fileName == excludePattern {
		return true
	}
	return strings.HasSuffix(fileName, strings.TrimLeft(excludePattern, "*"))
}

// ShouldExcludeDir reports whether the directory must be pruned from
// traversal. Blacklisted basenames are excluded everywhere; configured
// subdirs_to_exclude entries are matched against the path relative to the
// repository root, so they only prune inside the repository.
func (filter *Filter) ShouldExcludeDir(absoluteDirectoryPath string) bool {
	normalizedDirectoryPath := filepath.Clean(absoluteDirectoryPath)
	if utils.ContainsString(blacklistedDirectoryNames, filepath.Base(normalizedDirectoryPath)) {
		return true
	}
	pathSeparator := string(os.PathSeparator)
	if !strings.HasPrefix(normalizedDirectoryPath, filter.RepositoryRoot+pathSeparator) {
		return false
	}
	relativeDirectoryPath, relativeError := filepath.Rel(filter.RepositoryRoot, normalizedDirectoryPath)
	if relativeError != nil {
		return false
	}
	relativeDirectoryPath = pathutil.ToSystemPath(relativeDirectoryPath)
	for _, excludedSubdir := range filter.SubdirsToExclude {
		normalizedExcludedSubdir := pathutil.ToSystemPath(excludedSubdir)
		if relativeDirectoryPath == normalizedExcludedSubdir {
			return true
		}
		if strings.HasPrefix(relativeDirectoryPath, normalizedExcludedSubdir+pathSeparator) {
			return true
		}
	}
	return false
}

// IsBlacklistedDirectoryName reports whether the basename falls under the
// hardcoded directory blacklist. The tree renderer uses this to hide
// blacklisted directories even in exhaustive mode.
func IsBlacklistedDirectoryName(directoryName string) bool {
	return utils.ContainsString(blacklistedDirectoryNames, directoryName)
}
