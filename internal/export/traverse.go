package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/polli-labs/repoexport/internal/config"
	"github.com/polli-labs/repoexport/internal/pathutil"
	"github.com/polli-labs/repoexport/internal/types"
)

const (
	warningMissingTraverseDirFormat   = "Warning: Directory to traverse does not exist or is not a directory: %s\n"
	warningMissingAdditionalDirFormat = "Warning: Additional directory does not exist or is not a directory: %s\n"
	warningDirectoryReadFailureFormat = "Warning: Could not read directory %s: %v\n"
	warningMissingIncludeFileFormat   = "Warning: Specific file to include does not exist: %s\n"
)

// Traverser walks the configured directory roots in deterministic name order
// and feeds every candidate file into the buffer.
type Traverser struct {
	configuration config.ExportConfiguration
	filter        *Filter
	buffer        *Buffer
	warningWriter io.Writer
}

// NewTraverser constructs a Traverser over the resolved configuration. A nil
// warningWriter sends warnings to stderr.
func NewTraverser(configuration config.ExportConfiguration, filter *Filter, buffer *Buffer, warningWriter io.Writer) *Traverser {
	if warningWriter == nil {
		warningWriter = os.Stderr
	}
	return &Traverser{
		configuration: configuration,
		filter:        filter,
		buffer:        buffer,
		warningWriter: warningWriter,
	}
}

// ScanTopLevel buffers the files sitting directly in the repository root,
// honoring the include_top_level_files mode. Subdirectories of the root are
// never entered here.
func (traverser *Traverser) ScanTopLevel() {
	if !traverser.configuration.IncludeTopLevelFiles.ScanEnabled {
		return
	}
	rootPath := traverser.configuration.RepoRoot
	directoryEntries, readError := os.ReadDir(rootPath)
	if readError != nil {
		fmt.Fprintf(traverser.warningWriter, warningDirectoryReadFailureFormat, rootPath, readError)
		return
	}
	for _, directoryEntry := range directoryEntries {
		entryPath := filepath.Join(rootPath, directoryEntry.Name())
		entryInformation, statError := os.Stat(entryPath)
		if statError != nil || !entryInformation.Mode().IsRegular() {
			continue
		}
		if !traverser.configuration.IncludeTopLevelFiles.Admits(directoryEntry.Name()) {
			continue
		}
		traverser.buffer.Add(entryPath, false)
	}
}

// TraverseConfiguredDirs walks every entry of dirs_to_traverse, resolved
// against the repository root.
func (traverser *Traverser) TraverseConfiguredDirs() {
	for _, configuredDirectory := range traverser.configuration.DirsToTraverse {
		startPath := filepath.Join(traverser.configuration.RepoRoot, pathutil.ToSystemPath(configuredDirectory))
		startInformation, statError := os.Stat(startPath)
		if statError != nil || !startInformation.IsDir() {
			fmt.Fprintf(traverser.warningWriter, warningMissingTraverseDirFormat, startPath)
			continue
		}
		traverser.walk(startPath, 0)
	}
}

// TraverseAdditionalDirs walks every entry of additional_dirs_to_traverse.
// The entries are already absolute; files found here keep absolute display
// paths in the export.
func (traverser *Traverser) TraverseAdditionalDirs() {
	for _, additionalDirectory := range traverser.configuration.AdditionalDirsToTraverse {
		startInformation, statError := os.Stat(additionalDirectory)
		if statError != nil || !startInformation.IsDir() {
			fmt.Fprintf(traverser.warningWriter, warningMissingAdditionalDirFormat, additionalDirectory)
			continue
		}
		traverser.walk(additionalDirectory, 0)
	}
}

// IncludeExplicitFiles buffers every files_to_include entry with the
// extension filter bypassed. Relative entries resolve against the repository
// root.
func (traverser *Traverser) IncludeExplicitFiles() {
	for _, configuredFile := range traverser.configuration.FilesToInclude {
		candidatePath := configuredFile
		if !filepath.IsAbs(candidatePath) {
			candidatePath = filepath.Join(traverser.configuration.RepoRoot, candidatePath)
		}
		candidateInformation, statError := os.Stat(candidatePath)
		if statError != nil || !candidateInformation.Mode().IsRegular() {
			fmt.Fprintf(traverser.warningWriter, warningMissingIncludeFileFormat, candidatePath)
			continue
		}
		traverser.buffer.Add(candidatePath, true)
	}
}

// walk recursively descends from directoryPath, buffering files and entering
// subdirectories that survive the exclusion rules. relativeDepth counts
// directory levels below the traversal start; once it reaches the configured
// depth limit, both the files and the subdirectories of the current directory
// are skipped.
func (traverser *Traverser) walk(directoryPath string, relativeDepth int) {
	depthLimit := traverser.configuration.Depth
	if depthLimit != types.UnlimitedDepth && relativeDepth >= depthLimit {
		return
	}
	directoryEntries, readError := os.ReadDir(directoryPath)
	if readError != nil {
		fmt.Fprintf(traverser.warningWriter, warningDirectoryReadFailureFormat, directoryPath, readError)
		return
	}
	for _, directoryEntry := range directoryEntries {
		entryPath := filepath.Join(directoryPath, directoryEntry.Name())
		if directoryEntry.IsDir() {
			if !traverser.filter.ShouldExcludeDir(entryPath) {
				traverser.walk(entryPath, relativeDepth+1)
			}
			continue
		}
		if targetInformation, statError := os.Stat(entryPath); statError == nil && targetInformation.IsDir() {
			// Symlinked directory; listed but never followed.
			continue
		}
		traverser.buffer.Add(entryPath, false)
	}
}
