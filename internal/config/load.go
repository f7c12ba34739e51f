package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/polli-labs/repoexport/internal/pathutil"
	"github.com/polli-labs/repoexport/internal/utils"
)

const (
	configFileExtension      = ".json"
	configSearchDirectory    = "configs"
	userConfigDirectoryChain = ".config/repoexport"
)

// Load locates and decodes the JSON configuration named by configArgument.
// The argument may be an absolute or relative file path; a missing .json
// extension is appended. Candidate locations are tried in order: the literal
// argument, ./configs/<name>, ./<name>, and $HOME/.config/repoexport/<name>.
// The second return value is the source label used in the dump_config block,
// relative to the working directory when possible.
func Load(configArgument string) (RawConfiguration, string, error) {
	candidatePaths := candidateConfigPaths(configArgument)

	loadedPath := ""
	for _, candidatePath := range candidatePaths {
		fileInformation, statError := os.Stat(candidatePath)
		if statError == nil && !fileInformation.IsDir() {
			loadedPath = candidatePath
			break
		}
	}
	if loadedPath == "" {
		return RawConfiguration{}, "", fmt.Errorf("config file %q not found; checked: %s", configArgument, strings.Join(candidatePaths, ", "))
	}

	reader := viper.New()
	reader.SetConfigFile(loadedPath)
	reader.SetConfigType("json")
	if readError := reader.ReadInConfig(); readError != nil {
		return RawConfiguration{}, "", fmt.Errorf("read configuration from %s: %w", loadedPath, readError)
	}
	var rawConfiguration RawConfiguration
	if decodeError := reader.Unmarshal(&rawConfiguration); decodeError != nil {
		return RawConfiguration{}, "", fmt.Errorf("decode configuration from %s: %w", loadedPath, decodeError)
	}

	return rawConfiguration, sourceLabelFor(loadedPath), nil
}

// candidateConfigPaths builds the ordered search chain for a config argument.
func candidateConfigPaths(configArgument string) []string {
	fileName := configArgument
	if !strings.HasSuffix(strings.ToLower(fileName), configFileExtension) {
		fileName += configFileExtension
	}

	var candidates []string
	appendCandidate := func(candidatePath string) {
		normalizedPath := pathutil.ToSystemPath(candidatePath)
		if !utils.ContainsString(candidates, normalizedPath) {
			candidates = append(candidates, normalizedPath)
		}
	}

	appendCandidate(fileName)
	if workingDirectory, workingDirectoryError := os.Getwd(); workingDirectoryError == nil {
		appendCandidate(filepath.Join(workingDirectory, configSearchDirectory, fileName))
		appendCandidate(filepath.Join(workingDirectory, fileName))
	}
	if homeDirectory, homeDirectoryError := os.UserHomeDir(); homeDirectoryError == nil && homeDirectory != "" {
		appendCandidate(filepath.Join(homeDirectory, userConfigDirectoryChain, fileName))
	}

	return candidates
}

// sourceLabelFor prefers a working-directory-relative label for readability,
// falling back to the loaded path itself.
func sourceLabelFor(loadedPath string) string {
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return loadedPath
	}
	relativeLabel, relativeError := filepath.Rel(workingDirectory, loadedPath)
	if relativeError != nil {
		return loadedPath
	}
	return relativeLabel
}
