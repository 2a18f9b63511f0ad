// Package utils provides logging, version and filesystem helpers shared by sdmap packages.
package utils

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime/debug"
	"strings"
)

const (
	unknownVersion     = "unknown"
	develVersion       = "(devel)"
	gitDirectoryName   = ".git"
	gitExecutableName  = "git"
	gitNotFoundMessage = ".git directory not found in or above %s"
)

// GetApplicationVersion reports the module version embedded at build time, falling back to
// git describe output when running from a source checkout.
func GetApplicationVersion() string {
	buildInfo, buildInfoAvailable := debug.ReadBuildInfo()
	if buildInfoAvailable && buildInfo.Main.Version != "" && buildInfo.Main.Version != develVersion {
		return buildInfo.Main.Version
	}

	gitDirectoryPath, gitDirectoryError := findGitDirectory(".")
	if gitDirectoryError != nil {
		return unknownVersion
	}
	describeArguments := [][]string{
		{"describe", "--tags", "--exact-match"},
		{"describe", "--tags", "--long", "--dirty"},
	}
	for _, arguments := range describeArguments {
		// #nosec G204
		describeCommand := exec.Command(gitExecutableName, arguments...)
		describeCommand.Dir = gitDirectoryPath
		describeOutput, describeError := describeCommand.Output()
		if describeError == nil && len(describeOutput) > 0 {
			return strings.TrimSpace(string(describeOutput))
		}
	}
	return unknownVersion
}

// findGitDirectory walks upward from startDirectory to the directory holding .git.
func findGitDirectory(startDirectory string) (string, error) {
	absoluteStartDirectory, absoluteError := filepath.Abs(startDirectory)
	if absoluteError != nil {
		return "", fmt.Errorf("failed to get absolute path for %s: %w", startDirectory, absoluteError)
	}
	currentDirectory := absoluteStartDirectory
	for {
		fileInformation, statError := os.Stat(filepath.Join(currentDirectory, gitDirectoryName))
		if statError == nil && fileInformation.IsDir() {
			return currentDirectory, nil
		}
		parentDirectory := filepath.Dir(currentDirectory)
		if parentDirectory == currentDirectory {
			return "", fmt.Errorf(gitNotFoundMessage, absoluteStartDirectory)
		}
		currentDirectory = parentDirectory
	}
}
