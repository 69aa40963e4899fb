package template

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// PathSpec is a parsed path specification.
type PathSpec struct {
	Raw        string
	Recursive  bool
	Normalized string
}

// ParsePathSpec strips a single trailing recursion marker and the whitespace
// before it. An empty Normalized value denotes the base directory itself.
func ParsePathSpec(rawSpec string) PathSpec {
	trimmedSpec := strings.TrimSpace(rawSpec)
	pathSpec := PathSpec{Raw: trimmedSpec, Normalized: trimmedSpec}
	if strings.HasSuffix(trimmedSpec, recursiveMarker) {
		pathSpec.Recursive = true
		pathSpec.Normalized = strings.TrimSpace(strings.TrimSuffix(trimmedSpec, recursiveMarker))
	}
	return pathSpec
}

// Resolution is the outcome of resolving one PathSpec.
type Resolution struct {
	Spec     PathSpec
	FullPath string
	// Found is false when FullPath does not exist.
	Found bool
	Paths []string
}

// Err returns an error wrapping ErrSpecNotFound when the path was absent, nil otherwise.
func (resolution Resolution) Err() error {
	if resolution.Found {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrSpecNotFound, resolution.FullPath)
}

// Resolve expands rawSpec against baseDirectory into absolute file paths.
// A missing path yields an empty slice and a nil error.
func Resolve(baseDirectory string, rawSpec string) ([]string, error) {
	resolution, resolveError := ResolvePathSpec(baseDirectory, ParsePathSpec(rawSpec))
	if resolveError != nil {
		return nil, resolveError
	}
	return resolution.Paths, nil
}

// ReadDirectoryFunc lists a directory the way os.ReadDir does, sorted by name.
type ReadDirectoryFunc func(directoryPath string) ([]fs.DirEntry, error)

// ResolvePathSpec expands pathSpec against baseDirectory.
//
// A regular file yields itself regardless of the recursion flag. A directory
// yields its regular files, descending depth-first into subdirectories only
// when the spec is recursive. Entries that are neither regular files nor
// directories are skipped. Directory entries are visited in lexical order.
func ResolvePathSpec(baseDirectory string, pathSpec PathSpec) (Resolution, error) {
	return resolvePathSpec(baseDirectory, pathSpec, os.ReadDir)
}

func resolvePathSpec(baseDirectory string, pathSpec PathSpec, readDirectory ReadDirectoryFunc) (Resolution, error) {
	fullPath := filepath.Join(baseDirectory, pathSpec.Normalized)
	resolution := Resolution{Spec: pathSpec, FullPath: fullPath}

	fileInformation, statError := os.Stat(fullPath)
	if statError != nil {
		if isNotFound(statError) {
			return resolution, nil
		}
		return resolution, &ResolveError{Spec: pathSpec.Raw, Path: fullPath, Err: statError}
	}
	resolution.Found = true

	switch {
	case fileInformation.Mode().IsRegular():
		resolution.Paths = []string{fullPath}
	case fileInformation.IsDir():
		var collectedPaths []string
		var collectError error
		if pathSpec.Recursive {
			collectedPaths, collectError = collectFilesRecursively(fullPath, readDirectory)
		} else {
			collectedPaths, collectError = collectDirectoryFiles(fullPath, readDirectory)
		}
		if collectError != nil {
			return resolution, &ResolveError{Spec: pathSpec.Raw, Path: fullPath, Err: collectError}
		}
		resolution.Paths = collectedPaths
	}
	return resolution, nil
}

// collectDirectoryFiles returns the regular files directly inside directoryPath.
func collectDirectoryFiles(directoryPath string, readDirectory ReadDirectoryFunc) ([]string, error) {
	directoryEntries, readDirectoryError := readDirectory(directoryPath)
	if readDirectoryError != nil {
		return nil, readDirectoryError
	}
	var filePaths []string
	for _, directoryEntry := range directoryEntries {
		if directoryEntry.Type().IsRegular() {
			filePaths = append(filePaths, filepath.Join(directoryPath, directoryEntry.Name()))
		}
	}
	return filePaths, nil
}

// collectFilesRecursively returns every regular file below directoryPath.
// Subdirectories are expanded at their position in the listing.
func collectFilesRecursively(directoryPath string, readDirectory ReadDirectoryFunc) ([]string, error) {
	directoryEntries, readDirectoryError := readDirectory(directoryPath)
	if readDirectoryError != nil {
		return nil, readDirectoryError
	}
	var filePaths []string
	for _, directoryEntry := range directoryEntries {
		entryPath := filepath.Join(directoryPath, directoryEntry.Name())
		switch {
		case directoryEntry.IsDir():
			nestedPaths, nestedError := collectFilesRecursively(entryPath, readDirectory)
			if nestedError != nil {
				return nil, nestedError
			}
			filePaths = append(filePaths, nestedPaths...)
		case directoryEntry.Type().IsRegular():
			filePaths = append(filePaths, entryPath)
		}
	}
	return filePaths, nil
}

// isNotFound treats a path component that is a file (ENOTDIR) the same as a missing path.
func isNotFound(statError error) bool {
	return errors.Is(statError, fs.ErrNotExist) || errors.Is(statError, syscall.ENOTDIR)
}
