package export

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/polli-labs/repoexport/internal/config"
	"github.com/polli-labs/repoexport/internal/pathutil"
	"github.com/polli-labs/repoexport/internal/types"
	"github.com/polli-labs/repoexport/internal/utils"
)

// ComputeDirectoryAggregates recomputes the per-directory rollups from the
// buffered files. Keys are repository-relative directory paths, with the
// empty string holding the repository-root total; files buffered from
// additional directories carry absolute display paths and are not aggregated
// here. Calling it again after more files are buffered yields a fresh map.
func ComputeDirectoryAggregates(buffer *Buffer) types.DirectoryAggregate {
	aggregates := types.DirectoryAggregate{}
	rootTotals := types.FileStatistics{}
	pathSeparator := string(os.PathSeparator)
	for _, selectedFile := range buffer.SelectedFiles() {
		if filepath.IsAbs(selectedFile.DisplayPath) {
			continue
		}
		statistics, isRecorded := buffer.StatisticsFor(selectedFile.DisplayPath)
		if !isRecorded {
			continue
		}
		pathSegments := strings.Split(selectedFile.DisplayPath, pathSeparator)
		for segmentCount := 1; segmentCount < len(pathSegments); segmentCount++ {
			directoryKey := strings.Join(pathSegments[:segmentCount], pathSeparator)
			aggregateEntry := aggregates[directoryKey]
			aggregateEntry.LineCount += statistics.LineCount
			aggregateEntry.TokenCount += statistics.TokenCount
			aggregates[directoryKey] = aggregateEntry
		}
		rootTotals.LineCount += statistics.LineCount
		rootTotals.TokenCount += statistics.TokenCount
	}
	aggregates[utils.EmptyString] = rootTotals
	return aggregates
}

// AggregatedStatsForDirectory sums the statistics of every buffered file whose
// absolute path sits below the directory. Unlike ComputeDirectoryAggregates
// this also covers directories outside the repository root.
func AggregatedStatsForDirectory(buffer *Buffer, absoluteDirectoryPath string) types.FileStatistics {
	totals := types.FileStatistics{}
	directoryPrefix := filepath.Clean(absoluteDirectoryPath) + string(os.PathSeparator)
	for _, selectedFile := range buffer.SelectedFiles() {
		if !strings.HasPrefix(selectedFile.AbsolutePath, directoryPrefix) {
			continue
		}
		if statistics, isRecorded := buffer.StatisticsFor(selectedFile.DisplayPath); isRecorded {
			totals.LineCount += statistics.LineCount
			totals.TokenCount += statistics.TokenCount
		}
	}
	return totals
}

// StatsForTreePath resolves the statistics shown beside a tree entry. A
// buffered file at the path wins over a directory of the same name;
// directories report the aggregate of the buffered files below them, and
// anything else reports zeros.
func StatsForTreePath(buffer *Buffer, relativePath string, treeRootPath string) types.FileStatistics {
	itemPath := filepath.Clean(filepath.Join(treeRootPath, relativePath))
	if selectedFile, isBuffered := buffer.FileByAbsolutePath(itemPath); isBuffered {
		statistics, _ := buffer.StatisticsFor(selectedFile.DisplayPath)
		return statistics
	}
	if itemInformation, statError := os.Stat(itemPath); statError == nil && itemInformation.IsDir() {
		return AggregatedStatsForDirectory(buffer, itemPath)
	}
	return types.FileStatistics{}
}

// TreeVisibility decides which entries appear in a rendered directory tree.
type TreeVisibility struct {
	configuration config.ExportConfiguration
	filter        *Filter
	buffer        *Buffer
	aggregates    types.DirectoryAggregate
}

// NewTreeVisibility constructs the visibility rules for the resolved
// configuration. aggregates must come from ComputeDirectoryAggregates over
// the same buffer.
func NewTreeVisibility(configuration config.ExportConfiguration, filter *Filter, buffer *Buffer, aggregates types.DirectoryAggregate) *TreeVisibility {
	return &TreeVisibility{
		configuration: configuration,
		filter:        filter,
		buffer:        buffer,
		aggregates:    aggregates,
	}
}

// DirectoryVisible reports whether the directory appears in the tree rooted at
// treeRootPath. Blacklisted names never appear; excluded directories are
// hidden unless exhaustive_dir_tree is set; dirs_for_tree, when configured,
// restricts the tree to the listed subtrees; and directories without any
// exported content are hidden.
func (visibility *TreeVisibility) DirectoryVisible(absoluteDirectoryPath string, treeRootPath string) bool {
	normalizedDirectoryPath := filepath.Clean(absoluteDirectoryPath)
	if !strings.HasPrefix(normalizedDirectoryPath, filepath.Clean(treeRootPath)) {
		return false
	}
	if IsBlacklistedDirectoryName(filepath.Base(normalizedDirectoryPath)) {
		return false
	}
	if !visibility.configuration.ExhaustiveDirTree && visibility.filter.ShouldExcludeDir(normalizedDirectoryPath) {
		return false
	}
	if !visibility.allowedByTreeRestriction(normalizedDirectoryPath, treeRootPath) {
		return false
	}
	if visibility.hasDirectBufferedFile(normalizedDirectoryPath) {
		return true
	}
	aggregated := visibility.directoryStatistics(normalizedDirectoryPath)
	return aggregated.LineCount > 0 || aggregated.TokenCount > 0
}

// FileVisible reports whether the file appears in the tree. Only buffered
// files are shown.
func (visibility *TreeVisibility) FileVisible(absoluteFilePath string) bool {
	return visibility.buffer.IsBuffered(absoluteFilePath)
}

// allowedByTreeRestriction applies the dirs_for_tree list: the tree root
// itself always passes, every other directory must be a listed entry or sit
// below one.
func (visibility *TreeVisibility) allowedByTreeRestriction(normalizedDirectoryPath string, treeRootPath string) bool {
	if len(visibility.configuration.DirsForTree) == 0 {
		return true
	}
	relativePath, relativeError := filepath.Rel(treeRootPath, normalizedDirectoryPath)
	if relativeError != nil {
		return false
	}
	if relativePath == "." {
		return true
	}
	relativePath = pathutil.ToSystemPath(relativePath)
	pathSeparator := string(os.PathSeparator)
	for _, treeDirectory := range visibility.configuration.DirsForTree {
		normalizedTreeDirectory := pathutil.ToSystemPath(treeDirectory)
		if relativePath == normalizedTreeDirectory {
			return true
		}
		if strings.HasPrefix(relativePath, normalizedTreeDirectory+pathSeparator) {
			return true
		}
	}
	return false
}

// directoryStatistics looks up the aggregate for directories under the
// repository root and falls back to an absolute-prefix scan for directories
// outside it.
func (visibility *TreeVisibility) directoryStatistics(normalizedDirectoryPath string) types.FileStatistics {
	rootPath := visibility.configuration.RepoRoot
	if normalizedDirectoryPath == rootPath {
		return visibility.aggregates[utils.EmptyString]
	}
	if strings.HasPrefix(normalizedDirectoryPath, rootPath+string(os.PathSeparator)) {
		if relativePath, relativeError := filepath.Rel(rootPath, normalizedDirectoryPath); relativeError == nil {
			return visibility.aggregates[pathutil.ToSystemPath(relativePath)]
		}
	}
	return AggregatedStatsForDirectory(visibility.buffer, normalizedDirectoryPath)
}

// hasDirectBufferedFile reports whether any buffered file sits immediately in
// the directory.
func (visibility *TreeVisibility) hasDirectBufferedFile(normalizedDirectoryPath string) bool {
	for _, selectedFile := range visibility.buffer.SelectedFiles() {
		if filepath.Dir(selectedFile.AbsolutePath) == normalizedDirectoryPath {
			return true
		}
	}
	return false
}
