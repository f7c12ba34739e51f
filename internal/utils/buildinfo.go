package utils

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime/debug"
	"strings"
)

const unknownVersion = "unknown"

// GetApplicationVersion determines the application version. It prefers the Go
// build info embedded by module-aware installs and falls back to git describe
// when running from a source checkout.
func GetApplicationVersion() string {
	buildInfo, buildInfoAvailable := debug.ReadBuildInfo()
	if buildInfoAvailable && buildInfo.Main.Version != "" && buildInfo.Main.Version != "(devel)" {
		return buildInfo.Main.Version
	}

	repositoryRoot, repositoryRootFound := findGitRepositoryRoot(".")
	if repositoryRootFound {
		if described := gitDescribe(repositoryRoot, "--tags", "--exact-match"); described != EmptyString {
			return described
		}
		if described := gitDescribe(repositoryRoot, "--tags", "--long", "--dirty"); described != EmptyString {
			return described
		}
	}

	return unknownVersion
}

// gitDescribe runs git describe in the given directory and returns the trimmed
// output, or an empty string when the command fails.
func gitDescribe(repositoryRoot string, describeArguments ...string) string {
	// #nosec G204
	describeCommand := exec.Command("git", append([]string{"describe"}, describeArguments...)...)
	describeCommand.Dir = repositoryRoot
	describeOutput, describeError := describeCommand.Output()
	if describeError != nil || len(describeOutput) == 0 {
		return EmptyString
	}
	return strings.TrimSpace(string(describeOutput))
}

// findGitRepositoryRoot walks upward from startDirectory until it locates a
// directory containing .git.
func findGitRepositoryRoot(startDirectory string) (string, bool) {
	absoluteStartDirectory, absoluteError := filepath.Abs(startDirectory)
	if absoluteError != nil {
		return EmptyString, false
	}

	currentDirectory := absoluteStartDirectory
	for {
		gitPath := filepath.Join(currentDirectory, GitDirectoryName)
		fileInformation, statError := os.Stat(gitPath)
		if statError == nil && fileInformation.IsDir() {
			return currentDirectory, true
		}

		parentDirectory := filepath.Dir(currentDirectory)
		if parentDirectory == currentDirectory {
			break
		}
		currentDirectory = parentDirectory
	}

	return EmptyString, false
}
