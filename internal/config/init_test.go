package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/temirov/repoprompt/internal/utils"
)

func TestInitializeConfigurationCreatesLocalFile(t *testing.T) {
	workingDirectory := t.TempDir()
	options := InitOptions{WorkingDirectory: workingDirectory, Target: InitTargetLocal}
	path, err := InitializeConfiguration(options)
	if err != nil {
		t.Fatalf("InitializeConfiguration error: %v", err)
	}
	expectedPath := filepath.Join(workingDirectory, utils.LocalConfigFileName)
	if path != expectedPath {
		t.Fatalf("expected path %s, got %s", expectedPath, path)
	}
	content, readErr := os.ReadFile(path)
	if readErr != nil {
		t.Fatalf("read config: %v", readErr)
	}
	for _, fragment := range []string{"templates:", "directory: .vscode/prompt-my-repo-templates", "copy_only: false", "model: gpt-4o"} {
		if !strings.Contains(string(content), fragment) {
			t.Fatalf("configuration missing %q:\n%s", fragment, string(content))
		}
	}
}

func TestInitializedConfigurationRoundTrips(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("USERPROFILE", os.Getenv("HOME"))
	workingDirectory := t.TempDir()
	if _, err := InitializeConfiguration(InitOptions{WorkingDirectory: workingDirectory}); err != nil {
		t.Fatalf("InitializeConfiguration error: %v", err)
	}
	loaded, err := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: workingDirectory})
	if err != nil {
		t.Fatalf("LoadApplicationConfiguration error: %v", err)
	}
	defaults := DefaultApplicationConfiguration()
	if loaded.Templates.Directory != defaults.Templates.Directory {
		t.Fatalf("expected directory %q, got %q", defaults.Templates.Directory, loaded.Templates.Directory)
	}
	if IntValue(loaded.Run.Concurrency, 0) != DefaultConcurrency {
		t.Fatalf("expected concurrency %d", DefaultConcurrency)
	}
	if !BoolValue(loaded.Run.Summary, false) {
		t.Fatalf("expected summary enabled")
	}
	if loaded.Serve.Address != DefaultServeAddress {
		t.Fatalf("expected serve address %q, got %q", DefaultServeAddress, loaded.Serve.Address)
	}
}

func TestInitializeConfigurationHonorsGlobalTarget(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)
	t.Setenv("USERPROFILE", homeDir)
	path, err := InitializeConfiguration(InitOptions{Target: InitTargetGlobal, Force: true})
	if err != nil {
		t.Fatalf("InitializeConfiguration error: %v", err)
	}
	if !strings.HasPrefix(path, homeDir) {
		t.Fatalf("expected configuration under home dir, got %s", path)
	}
	if _, statErr := os.Stat(path); statErr != nil {
		t.Fatalf("expected file to exist at %s: %v", path, statErr)
	}
}

func TestInitializeConfigurationPreventsOverwriteWithoutForce(t *testing.T) {
	workingDirectory := t.TempDir()
	path := filepath.Join(workingDirectory, utils.LocalConfigFileName)
	if err := os.WriteFile(path, []byte("existing"), 0o600); err != nil {
		t.Fatalf("write seed config: %v", err)
	}
	_, err := InitializeConfiguration(InitOptions{WorkingDirectory: workingDirectory, Target: InitTargetLocal, Force: false})
	if err == nil {
		t.Fatalf("expected error when configuration already exists")
	}
	content, _ := os.ReadFile(path)
	if string(content) != "existing" {
		t.Fatalf("existing configuration overwritten")
	}
}
