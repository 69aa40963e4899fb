package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/temirov/repoprompt/internal/utils"
)

type configTestCase struct {
	name              string
	globalContent     string
	localContent      string
	explicitPath      string
	explicitContent   string
	expectDirectory   string
	expectSummary     *bool
	expectTokens      *bool
	expectModel       string
	expectCopy        *bool
	expectConcurrency *int
}

func intPointerForTest(value int) *int {
	return &value
}

func TestLoadApplicationConfigurationMergesSources(t *testing.T) {
	testCases := []configTestCase{
		{
			name:            "local_overrides_global",
			globalContent:   "templates:\n  directory: global/templates\nrun:\n  summary: false\n  copy: true\n",
			localContent:    "templates:\n  directory: local/templates\nrun:\n  copy: false\n  tokens:\n    enabled: true\n    model: custom\n",
			expectDirectory: "local/templates",
			expectSummary:   boolPointer(false),
			expectTokens:    boolPointer(true),
			expectModel:     "custom",
			expectCopy:      boolPointer(false),
		},
		{
			name:              "explicit_path_replaces_local",
			globalContent:     "run:\n  concurrency: 2\n",
			localContent:      "templates:\n  directory: ignored\n",
			explicitPath:      "custom.yaml",
			explicitContent:   "templates:\n  directory: explicit\n",
			expectDirectory:   "explicit",
			expectConcurrency: intPointerForTest(2),
		},
		{
			name:          "global_only",
			globalContent: "run:\n  copy: true\n",
			expectCopy:    boolPointer(true),
		},
		{
			name: "no_files",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			homeDir := t.TempDir()
			workingDir := t.TempDir()
			configDir := filepath.Join(homeDir, utils.GlobalConfigDirectoryName)
			if err := os.MkdirAll(configDir, 0o755); err != nil {
				t.Fatalf("create config dir: %v", err)
			}
			if testCase.globalContent != "" {
				globalPath := filepath.Join(configDir, utils.ConfigFileName)
				if err := os.WriteFile(globalPath, []byte(testCase.globalContent), 0o600); err != nil {
					t.Fatalf("write global config: %v", err)
				}
			}
			if testCase.localContent != "" {
				localPath := filepath.Join(workingDir, utils.LocalConfigFileName)
				if err := os.WriteFile(localPath, []byte(testCase.localContent), 0o600); err != nil {
					t.Fatalf("write local config: %v", err)
				}
			}
			if testCase.explicitPath != "" {
				target := filepath.Join(workingDir, testCase.explicitPath)
				if err := os.WriteFile(target, []byte(testCase.explicitContent), 0o600); err != nil {
					t.Fatalf("write explicit config: %v", err)
				}
			}

			t.Setenv("HOME", homeDir)
			t.Setenv("USERPROFILE", homeDir)

			loadedConfig, err := LoadApplicationConfiguration(LoadOptions{
				WorkingDirectory: workingDir,
				ExplicitFilePath: testCase.explicitPath,
			})
			if err != nil {
				t.Fatalf("LoadApplicationConfiguration error: %v", err)
			}

			if loadedConfig.Templates.Directory != testCase.expectDirectory {
				t.Fatalf("expected directory %q, got %q", testCase.expectDirectory, loadedConfig.Templates.Directory)
			}
			assertBoolPointer(t, "summary", loadedConfig.Run.Summary, testCase.expectSummary)
			assertBoolPointer(t, "tokens", loadedConfig.Run.Tokens.Enabled, testCase.expectTokens)
			assertBoolPointer(t, "copy", loadedConfig.Run.Copy, testCase.expectCopy)
			if loadedConfig.Run.Tokens.Model != testCase.expectModel {
				t.Fatalf("expected model %q, got %q", testCase.expectModel, loadedConfig.Run.Tokens.Model)
			}
			if testCase.expectConcurrency == nil {
				if loadedConfig.Run.Concurrency != nil {
					t.Fatalf("expected no concurrency override")
				}
			} else if loadedConfig.Run.Concurrency == nil || *loadedConfig.Run.Concurrency != *testCase.expectConcurrency {
				t.Fatalf("unexpected concurrency value")
			}
		})
	}
}

func assertBoolPointer(t *testing.T, label string, actual *bool, expected *bool) {
	t.Helper()
	if expected == nil {
		if actual != nil {
			t.Fatalf("expected no %s override, got %t", label, *actual)
		}
		return
	}
	if actual == nil || *actual != *expected {
		t.Fatalf("unexpected %s value", label)
	}
}

func TestLoadApplicationConfigurationRejectsDirectory(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("USERPROFILE", os.Getenv("HOME"))
	workingDir := t.TempDir()
	if err := os.Mkdir(filepath.Join(workingDir, utils.LocalConfigFileName), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: workingDir}); err == nil {
		t.Fatalf("expected error when configuration path is a directory")
	}
}

func TestEffectiveAppliesDefaults(t *testing.T) {
	configuration := ApplicationConfiguration{Run: RunConfiguration{Summary: boolPointer(false)}}
	effective := configuration.Effective()
	if BoolValue(effective.Run.Summary, true) {
		t.Fatalf("expected explicit summary=false to survive defaults")
	}
	if effective.Templates.Directory != utils.DefaultTemplatesDirectory {
		t.Fatalf("expected default templates directory, got %q", effective.Templates.Directory)
	}
	if IntValue(effective.Run.Concurrency, 0) != DefaultConcurrency {
		t.Fatalf("expected default concurrency")
	}
	if effective.Run.Tokens.Model != DefaultTokenModel {
		t.Fatalf("expected default token model, got %q", effective.Run.Tokens.Model)
	}
}

func TestTemplatesDirectoryResolvesAgainstWorkspace(t *testing.T) {
	workspace := t.TempDir()
	configuration := ApplicationConfiguration{}
	expected := filepath.Join(workspace, ".vscode", "prompt-my-repo-templates")
	if actual := configuration.TemplatesDirectory(workspace); actual != expected {
		t.Fatalf("expected %s, got %s", expected, actual)
	}
	absolute := filepath.Join(t.TempDir(), "shared")
	configuration.Templates.Directory = absolute
	if actual := configuration.TemplatesDirectory(workspace); actual != absolute {
		t.Fatalf("expected absolute directory %s, got %s", absolute, actual)
	}
}

func TestRunCopySettingsEnforcesCopyOnlyImpliesCopy(t *testing.T) {
	configuration := RunConfiguration{
		CopyOnly: boolPointer(true),
	}
	settings := configuration.CopySettings()
	if settings.Copy == nil || !*settings.Copy {
		t.Fatalf("expected copy to be enabled when copyOnly is true")
	}
	if settings.CopyOnly == nil || !*settings.CopyOnly {
		t.Fatalf("expected copyOnly to remain true")
	}
}

func TestRunMergePreservesCopyOnlyInvariant(t *testing.T) {
	base := RunConfiguration{Copy: boolPointer(false)}
	override := RunConfiguration{CopyOnly: boolPointer(true)}
	merged := base.merge(override)
	settings := merged.CopySettings()
	if settings.Copy == nil || !*settings.Copy {
		t.Fatalf("expected copy to be enforced when copyOnly is true")
	}
}
