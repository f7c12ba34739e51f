package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/polli-labs/repoexport/internal/pathutil"
	"github.com/polli-labs/repoexport/internal/types"
	"github.com/polli-labs/repoexport/internal/utils"
)

const (
	treeConnectorMiddle = "|-- "
	treeConnectorLast   = "\\-- "
	treePaddingMiddle   = "|   "
	treePaddingLast     = "    "
	initialTreePrefix   = "|"

	statsSuffixLongFormat  = " (%s lines/%s tokens)"
	statsSuffixShortFormat = " (%s/%s)"

	warningUnrelatablePathFormat = "Warning: Could not form relative path for %s against %s. Skipping in tree.\n"
)

// TreeRenderer draws the ASCII directory tree for one tree root, showing only
// the entries admitted by the visibility callbacks and suffixing each with its
// line and token statistics.
type TreeRenderer struct {
	DepthLimit       int
	DirectoryVisible func(absoluteDirectoryPath string, treeRootPath string) bool
	FileVisible      func(absoluteFilePath string) bool
	StatsForPath     func(relativePath string, treeRootPath string) (lineCount int, tokenCount int)
	WarningWriter    io.Writer
}

// Render draws the tree rooted at treeRootPath: a root label line carrying the
// root statistics, then the connector-prefixed body. The first suffix with any
// content in a rendered tree spells out the units in full; later suffixes in
// the same tree use the short form. The flag restarts with every Render call.
func (renderer *TreeRenderer) Render(treeRootPath string) string {
	normalizedRootPath := filepath.Clean(treeRootPath)
	rootLabel := filepath.Base(normalizedRootPath)
	if rootLabel == utils.EmptyString {
		rootLabel = normalizedRootPath
	}

	unitsPrinted := false
	rootSuffix := utils.EmptyString
	rootLineCount, rootTokenCount := renderer.StatsForPath(utils.EmptyString, normalizedRootPath)
	if rootLineCount > 0 || rootTokenCount > 0 {
		rootSuffix, unitsPrinted = formatStatsSuffix(rootLineCount, rootTokenCount, unitsPrinted)
	}

	treeBody, _ := renderer.renderDirectory(normalizedRootPath, normalizedRootPath, initialTreePrefix, 0, unitsPrinted)
	return rootLabel + rootSuffix + "\n" + strings.TrimRight(treeBody, " \t\r\n")
}

// renderDirectory lists the visible entries of one directory and recurses into
// its visible subdirectories, threading the units flag through in display
// order.
func (renderer *TreeRenderer) renderDirectory(directoryPath string, treeRootPath string, linePrefix string, currentDepth int, unitsPrinted bool) (string, bool) {
	if renderer.DepthLimit != types.UnlimitedDepth && currentDepth > renderer.DepthLimit {
		return utils.EmptyString, unitsPrinted
	}
	directoryEntries, readError := os.ReadDir(directoryPath)
	if readError != nil {
		return utils.EmptyString, unitsPrinted
	}

	type visibleEntry struct {
		name         string
		absolutePath string
		isDirectory  bool
	}
	visibleEntries := make([]visibleEntry, 0, len(directoryEntries))
	for _, directoryEntry := range directoryEntries {
		entryPath := filepath.Join(directoryPath, directoryEntry.Name())
		entryInformation, statError := os.Stat(entryPath)
		if statError != nil {
			continue
		}
		if entryInformation.IsDir() {
			if renderer.DirectoryVisible(entryPath, treeRootPath) {
				visibleEntries = append(visibleEntries, visibleEntry{name: directoryEntry.Name(), absolutePath: entryPath, isDirectory: true})
			}
			continue
		}
		if entryInformation.Mode().IsRegular() && renderer.FileVisible(entryPath) {
			visibleEntries = append(visibleEntries, visibleEntry{name: directoryEntry.Name(), absolutePath: entryPath, isDirectory: false})
		}
	}

	var treeBuilder strings.Builder
	for entryIndex, entry := range visibleEntries {
		relativePath, relativeError := filepath.Rel(treeRootPath, entry.absolutePath)
		if relativeError != nil {
			fmt.Fprintf(renderer.warningDestination(), warningUnrelatablePathFormat, entry.absolutePath, treeRootPath)
			continue
		}
		lineCount, tokenCount := renderer.StatsForPath(pathutil.ToSystemPath(relativePath), treeRootPath)

		connector := treeConnectorMiddle
		childPadding := treePaddingMiddle
		if entryIndex == len(visibleEntries)-1 {
			connector = treeConnectorLast
			childPadding = treePaddingLast
		}

		statsSuffix := utils.EmptyString
		if lineCount > 0 || tokenCount > 0 || entry.isDirectory {
			statsSuffix, unitsPrinted = formatStatsSuffix(lineCount, tokenCount, unitsPrinted)
		}
		treeBuilder.WriteString(linePrefix + connector + entry.name + statsSuffix + "\n")

		if entry.isDirectory {
			var subtree string
			subtree, unitsPrinted = renderer.renderDirectory(entry.absolutePath, treeRootPath, linePrefix+childPadding, currentDepth+1, unitsPrinted)
			treeBuilder.WriteString(subtree)
		}
	}
	return treeBuilder.String(), unitsPrinted
}

// formatStatsSuffix formats the parenthesized statistics suffix and reports
// the updated units flag. Zero-content suffixes always use the short form and
// never consume the flag.
func formatStatsSuffix(lineCount int, tokenCount int, unitsPrinted bool) (string, bool) {
	lineText := utils.FormatCount(lineCount)
	tokenText := utils.FormatCount(tokenCount)
	if !unitsPrinted && (lineCount > 0 || tokenCount > 0) {
		return fmt.Sprintf(statsSuffixLongFormat, lineText, tokenText), true
	}
	return fmt.Sprintf(statsSuffixShortFormat, lineText, tokenText), unitsPrinted
}

// warningDestination returns the writer for tree warnings, defaulting to
// stderr.
func (renderer *TreeRenderer) warningDestination() io.Writer {
	if renderer.WarningWriter != nil {
		return renderer.WarningWriter
	}
	return os.Stderr
}
