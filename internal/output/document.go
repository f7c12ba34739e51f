// Package output renders the export artifacts: the ASCII directory trees and
// the final tagged context document.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/polli-labs/repoexport/internal/types"
	"github.com/polli-labs/repoexport/internal/utils"
)

const (
	documentOpenTag    = "<codebase_context>"
	documentCloseTag   = "</codebase_context>"
	defaultConfigLabel = "dynamic-config"
)

// TreeBlock pairs a tree root with its rendered tree text.
type TreeBlock struct {
	RootPath string
	Rendered string
}

// DocumentSerializer assembles the final tagged export document.
type DocumentSerializer struct {
	IncludeConfig bool
	ConfigLabel   string
	ConfigJSON    string
}

// Render builds the complete document: the optional config block, one dirtree
// block per tree root, and the files section with repository files nested into
// dir elements and external files listed flat. The parts are joined with
// single newlines; file content is embedded raw and never escaped.
func (serializer *DocumentSerializer) Render(treeBlocks []TreeBlock, selectedFiles []types.SelectedFile) string {
	documentParts := []string{documentOpenTag}

	if serializer.IncludeConfig {
		configLabel := serializer.ConfigLabel
		if configLabel == utils.EmptyString {
			configLabel = defaultConfigLabel
		}
		documentParts = append(documentParts, fmt.Sprintf(`  <config source="%s">`, EscapeAttribute(configLabel)))
		documentParts = append(documentParts, EscapeText(serializer.ConfigJSON))
		documentParts = append(documentParts, "  </config>")
	}

	for _, treeBlock := range treeBlocks {
		documentParts = append(documentParts, fmt.Sprintf(`  <dirtree root="%s">`, EscapeAttribute(treeBlock.RootPath)))
		documentParts = append(documentParts, treeBlock.Rendered)
		documentParts = append(documentParts, "  </dirtree>")
	}

	documentParts = append(documentParts, "  <files>")
	repositoryFiles, externalFiles := splitFilesByOrigin(selectedFiles)
	documentParts = append(documentParts, buildNestedFiles(utils.EmptyString, repositoryFiles, 2))
	if len(externalFiles) > 0 {
		sort.Slice(externalFiles, func(first, second int) bool {
			return externalFiles[first].AbsolutePath < externalFiles[second].AbsolutePath
		})
		documentParts = append(documentParts, "    <external_files>")
		for _, externalFile := range externalFiles {
			documentParts = append(documentParts, fileElementParts("      ", externalFile)...)
		}
		documentParts = append(documentParts, "    </external_files>")
	}
	documentParts = append(documentParts, "  </files>")

	documentParts = append(documentParts, documentCloseTag)
	return strings.Join(documentParts, "\n")
}

// splitFilesByOrigin separates repository files, recognizable by their
// relative display paths, from files gathered outside the repository root,
// which carry absolute display paths.
func splitFilesByOrigin(selectedFiles []types.SelectedFile) ([]types.SelectedFile, []types.SelectedFile) {
	repositoryFiles := make([]types.SelectedFile, 0, len(selectedFiles))
	var externalFiles []types.SelectedFile
	for _, selectedFile := range selectedFiles {
		if filepath.IsAbs(selectedFile.DisplayPath) {
			externalFiles = append(externalFiles, selectedFile)
		} else {
			repositoryFiles = append(repositoryFiles, selectedFile)
		}
	}
	return repositoryFiles, externalFiles
}

// buildNestedFiles renders one directory level of the files section: the file
// elements of this level sorted by display path, then a dir element per
// subdirectory in sorted order, recursing with the subdirectory's full display
// prefix as its path attribute. An empty level renders as an empty string.
func buildNestedFiles(pathPrefix string, levelFiles []types.SelectedFile, indentLevel int) string {
	indent := strings.Repeat("  ", indentLevel)
	pathSeparator := string(os.PathSeparator)

	currentLevelFiles := make([]types.SelectedFile, 0, len(levelFiles))
	filesBySubdir := map[string][]types.SelectedFile{}
	for _, selectedFile := range levelFiles {
		relativeToPrefix := selectedFile.DisplayPath
		if pathPrefix != utils.EmptyString {
			relativeToPrefix = strings.TrimPrefix(relativeToPrefix, pathPrefix+pathSeparator)
		}
		separatorIndex := strings.Index(relativeToPrefix, pathSeparator)
		if separatorIndex < 0 {
			currentLevelFiles = append(currentLevelFiles, selectedFile)
			continue
		}
		subdirKey := relativeToPrefix[:separatorIndex]
		if pathPrefix != utils.EmptyString {
			subdirKey = filepath.Join(pathPrefix, subdirKey)
		}
		filesBySubdir[subdirKey] = append(filesBySubdir[subdirKey], selectedFile)
	}

	sort.Slice(currentLevelFiles, func(first, second int) bool {
		return currentLevelFiles[first].DisplayPath < currentLevelFiles[second].DisplayPath
	})

	var parts []string
	for _, selectedFile := range currentLevelFiles {
		parts = append(parts, fileElementParts(indent, selectedFile)...)
	}
	for _, subdirKey := range sortedSubdirKeys(filesBySubdir) {
		parts = append(parts, fmt.Sprintf(`%s<dir path="%s">`, indent, EscapeAttribute(subdirKey)))
		parts = append(parts, buildNestedFiles(subdirKey, filesBySubdir[subdirKey], indentLevel+1))
		parts = append(parts, indent+"</dir>")
	}
	return strings.Join(parts, "\n")
}

// fileElementParts renders one file element: the open tag with its
// attributes, the raw content as its own part, and the close tag.
func fileElementParts(indent string, selectedFile types.SelectedFile) []string {
	attributes := fmt.Sprintf(` path="%s"`, EscapeAttribute(selectedFile.DisplayPath))
	if selectedFile.ConvertedFromNotebook {
		attributes += ` converted_from_ipynb="true"`
	}
	if selectedFile.AnnotationInterval > 0 {
		attributes += fmt.Sprintf(` line_interval="%d"`, selectedFile.AnnotationInterval)
	}
	return []string{
		indent + "<file" + attributes + ">",
		selectedFile.Content,
		indent + "</file>",
	}
}

func sortedSubdirKeys(filesBySubdir map[string][]types.SelectedFile) []string {
	subdirKeys := make([]string, 0, len(filesBySubdir))
	for subdirKey := range filesBySubdir {
		subdirKeys = append(subdirKeys, subdirKey)
	}
	sort.Strings(subdirKeys)
	return subdirKeys
}
