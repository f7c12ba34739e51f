// Package config loads, resolves, and defaults repoexport run configurations.
package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/polli-labs/repoexport/internal/pathutil"
	"github.com/polli-labs/repoexport/internal/utils"
)

// Sentinel values accepted by the dynamic configuration fields.
const (
	topLevelNoneSentinel  = "none"
	topLevelAllSentinel   = "all"
	extensionAllSentinel  = "all"
	uniformResourcePrefix = "http:"
	secureResourcePrefix  = "https:"
)

// Defaults applied when a configuration omits the corresponding field.
const (
	DefaultExportFileName      = "export.txt"
	DefaultLineNumberInterval  = 25
	DefaultLineNumberMinLength = 150
	DefaultLineNumberPrefix    = "|LN|"
	DefaultDirectoryModeDepth  = 10
)

// DefaultAnnotateExtensions lists the extensions annotated with sparse line
// numbers when a configuration does not supply its own list.
var DefaultAnnotateExtensions = []string{".py", ".js", ".ts", ".tsx", ".java", ".cpp", ".c", ".go", ".rs", ".sh", ".sql"}

// directoryModeExcludePatterns seeds always_exclude_patterns for the
// configuration synthesized when the CLI argument is a directory.
var directoryModeExcludePatterns = []string{
	".DS_Store",
	"*.pyc",
	"*.swp",
	"*.swo",
	"node_modules/",
	"build/",
	"dist/",
	".venv/",
	".git/",
	"__pycache__/",
	".pytest_cache/",
	".mypy_cache/",
	".coverage",
}

// RawConfiguration mirrors the JSON configuration schema. The two dynamic
// fields accept either a sentinel string or a list and are normalized during
// Resolve. Pointer fields distinguish omitted values from explicit zeroes.
type RawConfiguration struct {
	RepoRoot                 string                 `mapstructure:"repo_root"`
	ExportName               string                 `mapstructure:"export_name"`
	DirsToTraverse           []string               `mapstructure:"dirs_to_traverse"`
	IncludeTopLevelFiles     any                    `mapstructure:"include_top_level_files"`
	IncludedExtensions       any                    `mapstructure:"included_extensions"`
	SubdirsToExclude         []string               `mapstructure:"subdirs_to_exclude"`
	FilesToExclude           []string               `mapstructure:"files_to_exclude"`
	FilesToInclude           []string               `mapstructure:"files_to_include"`
	AdditionalDirsToTraverse []string               `mapstructure:"additional_dirs_to_traverse"`
	AlwaysExcludePatterns    []string               `mapstructure:"always_exclude_patterns"`
	DirsForTree              []string               `mapstructure:"dirs_for_tree"`
	OutputDir                string                 `mapstructure:"output_dir"`
	Depth                    *int                   `mapstructure:"depth"`
	DumpConfig               bool                   `mapstructure:"dump_config"`
	ExhaustiveDirTree        bool                   `mapstructure:"exhaustive_dir_tree"`
	LineNumberInterval       *int                   `mapstructure:"line_number_interval"`
	LineNumberMinLength      *int                   `mapstructure:"line_number_min_length"`
	LineNumberPrefix         *string                `mapstructure:"line_number_prefix"`
	AnnotateExtensions       []string               `mapstructure:"annotate_extensions"`
	PathRewrites             []pathutil.RewriteRule `mapstructure:"path_rewrites"`
}

// ExportConfiguration is the fully resolved input to an export run: every path
// absolute and separator-consistent, every dynamic field normalized, and the
// output file location computed. The JSON tags drive the dump_config block.
type ExportConfiguration struct {
	RepoRoot                 string                 `json:"repo_root"`
	ExportName               string                 `json:"export_name"`
	OutputDir                string                 `json:"output_dir,omitempty"`
	OutputFilePath           string                 `json:"output_file"`
	DirsToTraverse           []string               `json:"dirs_to_traverse"`
	IncludeTopLevelFiles     TopLevelFiles          `json:"include_top_level_files"`
	IncludedExtensions       ExtensionFilter        `json:"included_extensions"`
	SubdirsToExclude         []string               `json:"subdirs_to_exclude"`
	FilesToExclude           []string               `json:"files_to_exclude"`
	FilesToInclude           []string               `json:"files_to_include"`
	AdditionalDirsToTraverse []string               `json:"additional_dirs_to_traverse"`
	AlwaysExcludePatterns    []string               `json:"always_exclude_patterns"`
	DirsForTree              []string               `json:"dirs_for_tree"`
	Depth                    int                    `json:"depth"`
	DumpConfig               bool                   `json:"dump_config"`
	ExhaustiveDirTree        bool                   `json:"exhaustive_dir_tree"`
	LineNumberInterval       int                    `json:"line_number_interval"`
	LineNumberMinLength      int                    `json:"line_number_min_length"`
	LineNumberPrefix         string                 `json:"line_number_prefix"`
	AnnotateExtensions       []string               `json:"annotate_extensions"`
	PathRewrites             []pathutil.RewriteRule `json:"path_rewrites,omitempty"`
	SourceLabel              string                 `json:"config_filename"`
}

// TopLevelFiles captures the include_top_level_files setting: the "none"
// sentinel disables the root scan, the "all" sentinel admits every root file,
// and a name list admits exactly the listed entries.
type TopLevelFiles struct {
	ScanEnabled bool
	AllFiles    bool
	Names       []string
}

// Admits reports whether the named root-level file passes the top-level scan.
func (topLevel TopLevelFiles) Admits(fileName string) bool {
	if !topLevel.ScanEnabled {
		return false
	}
	if topLevel.AllFiles {
		return true
	}
	return utils.ContainsString(topLevel.Names, fileName)
}

// MarshalJSON renders the setting in its configuration-file form.
func (topLevel TopLevelFiles) MarshalJSON() ([]byte, error) {
	if !topLevel.ScanEnabled {
		return json.Marshal(topLevelNoneSentinel)
	}
	if topLevel.AllFiles {
		return json.Marshal(topLevelAllSentinel)
	}
	return json.Marshal(topLevel.Names)
}

// ExtensionFilter captures the included_extensions setting: the "all" sentinel
// admits every extension, otherwise only the listed lowercase extensions pass.
type ExtensionFilter struct {
	AllExtensions bool
	Extensions    []string
}

// Admits reports whether a file with the given lowercase extension passes.
func (filter ExtensionFilter) Admits(extension string) bool {
	if filter.AllExtensions {
		return true
	}
	return utils.ContainsString(filter.Extensions, strings.ToLower(extension))
}

// MarshalJSON renders the setting in its configuration-file form.
func (filter ExtensionFilter) MarshalJSON() ([]byte, error) {
	if filter.AllExtensions {
		return json.Marshal(extensionAllSentinel)
	}
	return json.Marshal(filter.Extensions)
}

// DefaultConfiguration synthesizes the configuration used when the CLI
// argument is a directory instead of a configuration file: traverse everything
// under that root, admit all extensions, limit depth, and exclude the usual
// build and cache artifacts. The second return value is the source label.
func DefaultConfiguration(repoRootPath string) (RawConfiguration, string) {
	absoluteRoot := pathutil.ToSystemPath(repoRootPath)
	if !filepath.IsAbs(absoluteRoot) {
		if resolvedRoot, absoluteError := filepath.Abs(absoluteRoot); absoluteError == nil {
			absoluteRoot = resolvedRoot
		}
	}
	repositoryName := filepath.Base(absoluteRoot)
	if repositoryName == "." || repositoryName == string(filepath.Separator) {
		repositoryName = "repo"
	}
	defaultExportName := repositoryName + "_export.txt"

	excludePatterns := append([]string{defaultExportName}, directoryModeExcludePatterns...)

	return RawConfiguration{
		RepoRoot:              absoluteRoot,
		ExportName:            defaultExportName,
		DirsToTraverse:        []string{"."},
		IncludeTopLevelFiles:  topLevelAllSentinel,
		IncludedExtensions:    extensionAllSentinel,
		Depth:                 intPointer(DefaultDirectoryModeDepth),
		AlwaysExcludePatterns: excludePatterns,
		AnnotateExtensions:    append([]string{}, DefaultAnnotateExtensions...),
	}, "default_for_" + repositoryName
}

// decodeTopLevelFiles normalizes the dynamic include_top_level_files value.
func decodeTopLevelFiles(rawValue any) (TopLevelFiles, error) {
	switch typedValue := rawValue.(type) {
	case nil:
		return TopLevelFiles{}, nil
	case string:
		switch typedValue {
		case topLevelNoneSentinel:
			return TopLevelFiles{}, nil
		case topLevelAllSentinel:
			return TopLevelFiles{ScanEnabled: true, AllFiles: true}, nil
		default:
			return TopLevelFiles{}, fmt.Errorf("include_top_level_files must be %q, %q, or a list of file names; got %q", topLevelNoneSentinel, topLevelAllSentinel, typedValue)
		}
	default:
		names, conversionError := toStringSlice(rawValue)
		if conversionError != nil {
			return TopLevelFiles{}, fmt.Errorf("include_top_level_files: %w", conversionError)
		}
		return TopLevelFiles{ScanEnabled: true, Names: names}, nil
	}
}

// decodeExtensionFilter normalizes the dynamic included_extensions value.
// Listed extensions are lowercased for case-insensitive matching.
func decodeExtensionFilter(rawValue any) (ExtensionFilter, error) {
	switch typedValue := rawValue.(type) {
	case nil:
		return ExtensionFilter{Extensions: []string{}}, nil
	case string:
		if typedValue == extensionAllSentinel {
			return ExtensionFilter{AllExtensions: true}, nil
		}
		return ExtensionFilter{}, fmt.Errorf("included_extensions must be %q or a list of extensions; got %q", extensionAllSentinel, typedValue)
	default:
		extensions, conversionError := toStringSlice(rawValue)
		if conversionError != nil {
			return ExtensionFilter{}, fmt.Errorf("included_extensions: %w", conversionError)
		}
		loweredExtensions := make([]string, 0, len(extensions))
		for _, extension := range extensions {
			loweredExtensions = append(loweredExtensions, strings.ToLower(extension))
		}
		return ExtensionFilter{Extensions: loweredExtensions}, nil
	}
}

// toStringSlice converts the loosely decoded JSON array forms into []string.
func toStringSlice(rawValue any) ([]string, error) {
	switch typedValue := rawValue.(type) {
	case []string:
		return append([]string{}, typedValue...), nil
	case []any:
		converted := make([]string, 0, len(typedValue))
		for _, element := range typedValue {
			asString, isString := element.(string)
			if !isString {
				return nil, fmt.Errorf("expected a list of strings, found %T element", element)
			}
			converted = append(converted, asString)
		}
		return converted, nil
	default:
		return nil, fmt.Errorf("expected a list of strings, got %T", rawValue)
	}
}

func intPointer(value int) *int {
	return &value
}
