package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/polli-labs/repoexport/internal/pathutil"
	"github.com/polli-labs/repoexport/internal/types"
	"github.com/polli-labs/repoexport/internal/utils"
)

const (
	warningRelativeAdditionalDirFormat = "Warning: path %q in additional_dirs_to_traverse is relative; resolving against working directory %s\n"
	warningAbsoluteExportNameFormat    = "Warning: export_name %q is absolute; ignoring output_dir\n"
)

// outputDirectoryPermissions is the mode used when creating output locations.
const outputDirectoryPermissions = 0o755

// Resolve normalizes and validates a raw configuration into the fully
// absolute, separator-consistent form required by the exporter. It decodes the
// dynamic fields, applies defaults, rewrites historical path prefixes, makes
// the repository root absolute, computes the output file location (creating
// missing output directories), and appends the output file's basename to the
// always-exclude patterns. Validation failures are fatal for the run.
func Resolve(rawConfiguration RawConfiguration, sourceLabel string) (ExportConfiguration, error) {
	topLevelFiles, topLevelError := decodeTopLevelFiles(rawConfiguration.IncludeTopLevelFiles)
	if topLevelError != nil {
		return ExportConfiguration{}, topLevelError
	}
	extensionFilter, extensionError := decodeExtensionFilter(rawConfiguration.IncludedExtensions)
	if extensionError != nil {
		return ExportConfiguration{}, extensionError
	}

	depth := valueOrDefaultInt(rawConfiguration.Depth, types.UnlimitedDepth)
	if depth < types.UnlimitedDepth {
		return ExportConfiguration{}, fmt.Errorf("depth must be %d (unlimited) or non-negative, got %d", types.UnlimitedDepth, depth)
	}

	if rawConfiguration.RepoRoot == "" {
		return ExportConfiguration{}, fmt.Errorf("repo_root is required")
	}
	rewriteRules := rawConfiguration.PathRewrites
	repoRoot := pathutil.ToSystemPath(pathutil.ApplyRewrites(rawConfiguration.RepoRoot, rewriteRules))
	absoluteRepoRoot, repoRootError := filepath.Abs(repoRoot)
	if repoRootError != nil {
		return ExportConfiguration{}, fmt.Errorf("resolve repo_root %s: %w", repoRoot, repoRootError)
	}
	rootInformation, rootStatError := os.Stat(absoluteRepoRoot)
	if rootStatError != nil {
		return ExportConfiguration{}, fmt.Errorf("repo_root %s does not exist: %w", absoluteRepoRoot, rootStatError)
	}
	if !rootInformation.IsDir() {
		return ExportConfiguration{}, fmt.Errorf("repo_root %s is not a directory", absoluteRepoRoot)
	}

	resolved := ExportConfiguration{
		RepoRoot:              absoluteRepoRoot,
		ExportName:            rawConfiguration.ExportName,
		DirsToTraverse:        normalizePathList(rawConfiguration.DirsToTraverse, rewriteRules),
		IncludeTopLevelFiles:  topLevelFiles,
		IncludedExtensions:    extensionFilter,
		SubdirsToExclude:      normalizePathList(rawConfiguration.SubdirsToExclude, rewriteRules),
		FilesToExclude:        normalizePathList(rawConfiguration.FilesToExclude, rewriteRules),
		FilesToInclude:        normalizePathList(rawConfiguration.FilesToInclude, rewriteRules),
		DirsForTree:           normalizePathList(rawConfiguration.DirsForTree, rewriteRules),
		AlwaysExcludePatterns: rawConfiguration.AlwaysExcludePatterns,
		Depth:                 depth,
		DumpConfig:            rawConfiguration.DumpConfig,
		ExhaustiveDirTree:     rawConfiguration.ExhaustiveDirTree,
		LineNumberInterval:    valueOrDefaultInt(rawConfiguration.LineNumberInterval, DefaultLineNumberInterval),
		LineNumberMinLength:   valueOrDefaultInt(rawConfiguration.LineNumberMinLength, DefaultLineNumberMinLength),
		LineNumberPrefix:      valueOrDefaultString(rawConfiguration.LineNumberPrefix, DefaultLineNumberPrefix),
		PathRewrites:          rewriteRules,
		SourceLabel:           sourceLabel,
	}
	if resolved.ExportName == "" {
		resolved.ExportName = DefaultExportFileName
	}
	if resolved.AlwaysExcludePatterns == nil {
		resolved.AlwaysExcludePatterns = []string{DefaultExportFileName}
	}

	resolved.AnnotateExtensions = normalizeAnnotateExtensions(rawConfiguration.AnnotateExtensions)
	resolved.AdditionalDirsToTraverse = resolveAdditionalDirs(rawConfiguration.AdditionalDirsToTraverse, rewriteRules)

	resolved.OutputDir = resolveOutputDir(rawConfiguration.OutputDir, rewriteRules)

	outputFilePath, outputError := computeOutputFilePath(resolved)
	if outputError != nil {
		return ExportConfiguration{}, outputError
	}
	resolved.OutputFilePath = outputFilePath

	outputFileName := filepath.Base(outputFilePath)
	if !utils.ContainsString(resolved.AlwaysExcludePatterns, outputFileName) {
		resolved.AlwaysExcludePatterns = append(resolved.AlwaysExcludePatterns, outputFileName)
	}

	return resolved, nil
}

// normalizePathList converts each entry to the host separator convention,
// rewriting historical prefixes on absolute entries. URLs pass through as-is.
func normalizePathList(pathEntries []string, rewriteRules []pathutil.RewriteRule) []string {
	if pathEntries == nil {
		return nil
	}
	normalized := make([]string, 0, len(pathEntries))
	for _, pathEntry := range pathEntries {
		if strings.HasPrefix(pathEntry, uniformResourcePrefix) || strings.HasPrefix(pathEntry, secureResourcePrefix) {
			normalized = append(normalized, pathEntry)
			continue
		}
		candidate := pathEntry
		if filepath.IsAbs(pathutil.ToSystemPath(candidate)) {
			candidate = pathutil.ApplyRewrites(candidate, rewriteRules)
		}
		normalized = append(normalized, pathutil.ToSystemPath(candidate))
	}
	return normalized
}

// resolveAdditionalDirs makes every external traversal root absolute. Relative
// entries resolve against the working directory with a warning.
func resolveAdditionalDirs(additionalDirs []string, rewriteRules []pathutil.RewriteRule) []string {
	if len(additionalDirs) == 0 {
		return nil
	}
	resolved := make([]string, 0, len(additionalDirs))
	for _, directoryEntry := range additionalDirs {
		candidate := directoryEntry
		if !filepath.IsAbs(pathutil.ToSystemPath(candidate)) {
			workingDirectory, _ := os.Getwd()
			fmt.Fprintf(os.Stderr, warningRelativeAdditionalDirFormat, directoryEntry, workingDirectory)
			if absoluteCandidate, absoluteError := filepath.Abs(candidate); absoluteError == nil {
				candidate = absoluteCandidate
			}
		}
		candidate = pathutil.ToSystemPath(pathutil.ApplyRewrites(candidate, rewriteRules))
		if absoluteCandidate, absoluteError := filepath.Abs(candidate); absoluteError == nil {
			candidate = absoluteCandidate
		}
		resolved = append(resolved, candidate)
	}
	return resolved
}

// resolveOutputDir normalizes output_dir and makes it absolute against the
// working directory when relative. Empty means "next to the repository root".
func resolveOutputDir(outputDir string, rewriteRules []pathutil.RewriteRule) string {
	if outputDir == "" {
		return ""
	}
	normalized := pathutil.ToSystemPath(pathutil.ApplyRewrites(outputDir, rewriteRules))
	if !filepath.IsAbs(normalized) {
		if absoluteOutputDir, absoluteError := filepath.Abs(normalized); absoluteError == nil {
			normalized = absoluteOutputDir
		}
	}
	return normalized
}

// computeOutputFilePath determines where the export document is written and
// pre-creates the directories that will receive it. An absolute export_name
// wins over output_dir; a relative export_name resolves against output_dir
// when set, else against the repository root.
func computeOutputFilePath(resolved ExportConfiguration) (string, error) {
	exportPath := pathutil.ToSystemPath(resolved.ExportName)

	var outputFilePath string
	switch {
	case filepath.IsAbs(exportPath):
		fmt.Fprintf(os.Stderr, warningAbsoluteExportNameFormat, resolved.ExportName)
		outputFilePath = exportPath
	case resolved.OutputDir != "":
		if makeDirectoryError := os.MkdirAll(resolved.OutputDir, outputDirectoryPermissions); makeDirectoryError != nil {
			return "", fmt.Errorf("create output directory %s: %w", resolved.OutputDir, makeDirectoryError)
		}
		outputFilePath = filepath.Join(resolved.OutputDir, exportPath)
	default:
		outputFilePath = filepath.Join(resolved.RepoRoot, exportPath)
	}

	absoluteOutputPath, absoluteError := filepath.Abs(outputFilePath)
	if absoluteError != nil {
		return "", fmt.Errorf("resolve output path %s: %w", outputFilePath, absoluteError)
	}

	outputFileDirectory := filepath.Dir(absoluteOutputPath)
	if makeDirectoryError := os.MkdirAll(outputFileDirectory, outputDirectoryPermissions); makeDirectoryError != nil {
		return "", fmt.Errorf("create directory for output file %s: %w", absoluteOutputPath, makeDirectoryError)
	}

	return absoluteOutputPath, nil
}

// normalizeAnnotateExtensions lowercases the configured extensions and
// guarantees the leading dot, falling back to the default annotate set.
func normalizeAnnotateExtensions(annotateExtensions []string) []string {
	source := annotateExtensions
	if source == nil {
		source = DefaultAnnotateExtensions
	}
	normalized := make([]string, 0, len(source))
	for _, extension := range source {
		lowered := strings.ToLower(extension)
		if !strings.HasPrefix(lowered, ".") {
			lowered = "." + lowered
		}
		normalized = append(normalized, lowered)
	}
	return normalized
}

func valueOrDefaultInt(value *int, defaultValue int) int {
	if value == nil {
		return defaultValue
	}
	return *value
}

func valueOrDefaultString(value *string, defaultValue string) string {
	if value == nil {
		return defaultValue
	}
	return *value
}
