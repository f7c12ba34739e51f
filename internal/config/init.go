package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// InitTarget identifies where a starter configuration is written.
type InitTarget string

const (
	// InitTargetLocal writes the configuration into the working directory.
	InitTargetLocal InitTarget = "local"
	// InitTargetGlobal writes the configuration into the user configuration directory.
	InitTargetGlobal InitTarget = "global"

	// DefaultConfigFileName names the file written by configuration initialization.
	DefaultConfigFileName = "repoexport.json"

	starterConfigurationTemplate = `{
  "repo_root": ".",
  "export_name": "export.txt",
  "dirs_to_traverse": ["."],
  "include_top_level_files": "all",
  "included_extensions": "all",
  "subdirs_to_exclude": [],
  "files_to_exclude": [],
  "files_to_include": [],
  "additional_dirs_to_traverse": [],
  "always_exclude_patterns": ["export.txt"],
  "depth": -1,
  "dump_config": false,
  "exhaustive_dir_tree": false,
  "line_number_interval": 25,
  "line_number_min_length": 150,
  "line_number_prefix": "|LN|",
  "annotate_extensions": [".py", ".js", ".ts", ".tsx", ".java", ".cpp", ".c", ".go", ".rs", ".sh", ".sql"]
}
`
)

// InitOptions controls how configuration initialization behaves.
type InitOptions struct {
	Target           InitTarget
	Force            bool
	WorkingDirectory string
}

// InitializeConfiguration writes the starter configuration template to the
// requested target and returns the written path. The local target writes
// repoexport.json into the working directory, the global target into
// $HOME/.config/repoexport where Load searches for it. An existing file is
// preserved unless Force is set.
func InitializeConfiguration(options InitOptions) (string, error) {
	target := options.Target
	if target == "" {
		target = InitTargetLocal
	}
	var destinationPath string
	switch target {
	case InitTargetLocal:
		workingDirectory := options.WorkingDirectory
		if workingDirectory == "" {
			currentDirectory, workingDirectoryError := os.Getwd()
			if workingDirectoryError != nil {
				return "", fmt.Errorf("determine working directory for configuration: %w", workingDirectoryError)
			}
			workingDirectory = currentDirectory
		}
		destinationPath = filepath.Join(workingDirectory, DefaultConfigFileName)
	case InitTargetGlobal:
		homeDirectory, homeDirectoryError := os.UserHomeDir()
		if homeDirectoryError != nil {
			return "", fmt.Errorf("resolve home directory for configuration: %w", homeDirectoryError)
		}
		configurationDirectory := filepath.Join(homeDirectory, userConfigDirectoryChain)
		if makeDirectoryError := os.MkdirAll(configurationDirectory, 0o755); makeDirectoryError != nil {
			return "", fmt.Errorf("create configuration directory %s: %w", configurationDirectory, makeDirectoryError)
		}
		destinationPath = filepath.Join(configurationDirectory, DefaultConfigFileName)
	default:
		return "", fmt.Errorf("unsupported init target %q", target)
	}

	if _, statError := os.Stat(destinationPath); statError == nil {
		if !options.Force {
			return "", fmt.Errorf("configuration file already exists at %s", destinationPath)
		}
	} else if !os.IsNotExist(statError) {
		return "", fmt.Errorf("inspect configuration path %s: %w", destinationPath, statError)
	}

	if writeError := os.WriteFile(destinationPath, []byte(starterConfigurationTemplate), 0o600); writeError != nil {
		return "", fmt.Errorf("write configuration to %s: %w", destinationPath, writeError)
	}

	return destinationPath, nil
}
