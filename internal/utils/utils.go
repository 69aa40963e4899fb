// Package utils contains helpers shared across repoprompt packages.
package utils

import (
	"path/filepath"
	"strings"
)

// Application-wide names.
const (
	// ApplicationName is the binary and configuration namespace.
	ApplicationName = "repoprompt"
	// GlobalConfigDirectoryName is the directory under the user's home holding global configuration.
	GlobalConfigDirectoryName = "." + ApplicationName
	// ConfigFileName is the name of the global configuration file.
	ConfigFileName = "config.yaml"
	// LocalConfigFileName is the name of the per-workspace configuration file.
	LocalConfigFileName = "." + ApplicationName + ".yaml"
	// DefaultTemplatesDirectory is where templates live relative to the workspace.
	// It matches the location used by the Prompt My Repo editor extension.
	DefaultTemplatesDirectory = ".vscode/prompt-my-repo-templates"
)

// Messages used by the entry point.
const (
	// LoggerInitializationFailedMessageFormat reports a logger construction failure.
	LoggerInitializationFailedMessageFormat = "initialize logger: %w"
	// ApplicationExecutionFailedMessage prefixes fatal command errors.
	ApplicationExecutionFailedMessage = "repoprompt failed"
)

// RelativePathOrSelf calculates the slash-separated path of fullPath relative to root.
// Returns the cleaned fullPath if relative calculation fails.
// Returns "." if fullPath and root resolve to the same directory.
func RelativePathOrSelf(fullPath, root string) string {
	cleanPath := filepath.Clean(fullPath)
	absoluteRoot, absoluteError := filepath.Abs(root)
	if absoluteError != nil {
		return cleanPath
	}
	cleanAbsoluteRoot := filepath.Clean(absoluteRoot)
	if cleanPath == cleanAbsoluteRoot {
		return "."
	}
	relativePath, relativeError := filepath.Rel(cleanAbsoluteRoot, cleanPath)
	if relativeError != nil {
		return cleanPath
	}
	return filepath.ToSlash(relativePath)
}

// ResolveAgainst joins a relative path onto base, leaving absolute paths untouched.
func ResolveAgainst(base string, path string) string {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return base
	}
	if filepath.IsAbs(trimmedPath) || base == "" {
		return filepath.Clean(trimmedPath)
	}
	return filepath.Join(base, trimmedPath)
}
