// Package store keeps repoprompt templates as plain files inside a workspace.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

const (
	// StarterTemplateBody is written into every newly created template.
	StarterTemplateBody = `# Project-specific template for Prompt My Repo
# Include directories or files you want to copy relative to the workspace root.
# Append "*" to a directory for a recursive search (e.g., src*).
# Exclude files or directories by prefixing them with "-" (e.g., -node_modules*).
`

	directoryPermissions = 0o755
	filePermissions      = 0o600
	forbiddenNameRunes   = "/\\:\x00"
	escapingNameRunes    = "/\\\x00"

	errorListFormat    = "list templates in %s: %w"
	errorCreateFormat  = "create template %s: %w"
	errorWriteFormat   = "write template %s: %w"
	errorReadFormat    = "read template %s: %w"
	errorDeleteFormat  = "delete template %s: %w"
	errorRenameFormat  = "rename template %s to %s: %w"
	errorInspectFormat = "inspect template %s: %w"
	errorEnsureFormat  = "create templates directory %s: %w"
)

var (
	// ErrNameConflict reports that a template with the requested name already exists.
	ErrNameConflict = errors.New("template already exists")
	// ErrInvalidName reports an empty name or one containing path separators.
	ErrInvalidName = errors.New("invalid template name")
	// ErrTemplateNotFound reports that no template has the requested name.
	ErrTemplateNotFound = errors.New("template not found")
)

// Template is one stored template file.
type Template struct {
	Name string
	Path string
}

// Content reads the template text from disk.
func (template Template) Content() (string, error) {
	contentBytes, readError := os.ReadFile(template.Path)
	if readError != nil {
		return "", fmt.Errorf(errorReadFormat, template.Name, readError)
	}
	return string(contentBytes), nil
}

// Store manages the template files in one directory.
type Store struct {
	directory string
	logger    *zap.Logger
}

// New returns a Store rooted at directory. A nil logger discards diagnostics.
func New(directory string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{directory: filepath.Clean(directory), logger: logger}
}

// Directory returns the directory holding the templates.
func (store *Store) Directory() string {
	return store.directory
}

// ValidateName reports ErrInvalidName for names that cannot be used as a single file name.
func ValidateName(name string) error {
	trimmedName := strings.TrimSpace(name)
	if trimmedName == "" || trimmedName != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if name == "." || name == ".." || strings.ContainsAny(name, forbiddenNameRunes) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// validateLookupName rejects only names that would address something outside
// the templates directory. Files created by other tools may carry names that
// ValidateName refuses for new templates.
func validateLookupName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, escapingNameRunes) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// List returns the stored templates sorted by name. A missing directory yields no templates.
func (store *Store) List() ([]Template, error) {
	directoryEntries, readDirectoryError := os.ReadDir(store.directory)
	if readDirectoryError != nil {
		if os.IsNotExist(readDirectoryError) {
			return nil, nil
		}
		return nil, fmt.Errorf(errorListFormat, store.directory, readDirectoryError)
	}
	var templates []Template
	for _, directoryEntry := range directoryEntries {
		if directoryEntry.IsDir() {
			continue
		}
		templates = append(templates, store.templateFor(directoryEntry.Name()))
	}
	sort.Slice(templates, func(left, right int) bool {
		return templates[left].Name < templates[right].Name
	})
	return templates, nil
}

// Get returns the template with the given name.
func (store *Store) Get(name string) (Template, error) {
	if validationError := validateLookupName(name); validationError != nil {
		return Template{}, validationError
	}
	template := store.templateFor(name)
	exists, inspectError := fileExists(template.Path)
	if inspectError != nil {
		return Template{}, fmt.Errorf(errorInspectFormat, name, inspectError)
	}
	if !exists {
		return Template{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	return template, nil
}

// Read returns the text of the named template.
func (store *Store) Read(name string) (string, error) {
	template, getError := store.Get(name)
	if getError != nil {
		return "", getError
	}
	return template.Content()
}

// Create writes a new template holding StarterTemplateBody.
func (store *Store) Create(name string) (Template, error) {
	if validationError := ValidateName(name); validationError != nil {
		return Template{}, validationError
	}
	if ensureError := store.ensureDirectory(); ensureError != nil {
		return Template{}, ensureError
	}
	template := store.templateFor(name)
	fileHandle, openError := os.OpenFile(template.Path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePermissions)
	if openError != nil {
		if os.IsExist(openError) {
			return Template{}, fmt.Errorf("%w: %s", ErrNameConflict, name)
		}
		return Template{}, fmt.Errorf(errorCreateFormat, name, openError)
	}
	_, writeError := fileHandle.WriteString(StarterTemplateBody)
	closeError := fileHandle.Close()
	if writeError != nil {
		return Template{}, fmt.Errorf(errorCreateFormat, name, writeError)
	}
	if closeError != nil {
		return Template{}, fmt.Errorf(errorCreateFormat, name, closeError)
	}
	store.logger.Debug("template created", zap.String("name", name), zap.String("path", template.Path))
	return template, nil
}

// Write replaces the text of the named template, creating it when absent.
func (store *Store) Write(name string, content string) (Template, error) {
	if validationError := ValidateName(name); validationError != nil {
		return Template{}, validationError
	}
	if ensureError := store.ensureDirectory(); ensureError != nil {
		return Template{}, ensureError
	}
	template := store.templateFor(name)
	if writeError := os.WriteFile(template.Path, []byte(content), filePermissions); writeError != nil {
		return Template{}, fmt.Errorf(errorWriteFormat, name, writeError)
	}
	return template, nil
}

// Delete removes the named template.
func (store *Store) Delete(name string) error {
	template, getError := store.Get(name)
	if getError != nil {
		return getError
	}
	if removeError := os.Remove(template.Path); removeError != nil {
		return fmt.Errorf(errorDeleteFormat, name, removeError)
	}
	store.logger.Debug("template deleted", zap.String("name", name))
	return nil
}

// Rename moves a template to a new name. The original file is left untouched
// when the new name is invalid or already taken.
func (store *Store) Rename(oldName string, newName string) (Template, error) {
	source, getError := store.Get(oldName)
	if getError != nil {
		return Template{}, getError
	}
	if validationError := ValidateName(newName); validationError != nil {
		return Template{}, validationError
	}
	if oldName == newName {
		return source, nil
	}
	destination := store.templateFor(newName)
	exists, inspectError := fileExists(destination.Path)
	if inspectError != nil {
		return Template{}, fmt.Errorf(errorInspectFormat, newName, inspectError)
	}
	if exists {
		return Template{}, fmt.Errorf("%w: %s", ErrNameConflict, newName)
	}
	if renameError := os.Rename(source.Path, destination.Path); renameError != nil {
		return Template{}, fmt.Errorf(errorRenameFormat, oldName, newName, renameError)
	}
	store.logger.Debug("template renamed", zap.String("from", oldName), zap.String("to", newName))
	return destination, nil
}

func (store *Store) templateFor(name string) Template {
	return Template{Name: name, Path: filepath.Join(store.directory, name)}
}

func (store *Store) ensureDirectory() error {
	if mkdirError := os.MkdirAll(store.directory, directoryPermissions); mkdirError != nil {
		return fmt.Errorf(errorEnsureFormat, store.directory, mkdirError)
	}
	return nil
}

func fileExists(path string) (bool, error) {
	fileInformation, statError := os.Stat(path)
	if statError != nil {
		if os.IsNotExist(statError) {
			return false, nil
		}
		return false, statError
	}
	return !fileInformation.IsDir(), nil
}
