// Package config loads repoprompt configuration from global and workspace files.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/temirov/repoprompt/internal/utils"
)

const (
	// DefaultTokenModel is the tokenizer model used when none is configured.
	DefaultTokenModel = "gpt-4o"
	// DefaultListFormat is the output format of the list command.
	DefaultListFormat = "raw"
	// DefaultServeAddress is the listen address of the HTTP API.
	DefaultServeAddress = "127.0.0.1:0"
	// DefaultConcurrency bounds parallel exclusion resolution.
	DefaultConcurrency = 4
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds command defaults.
type ApplicationConfiguration struct {
	Workspace string                 `mapstructure:"workspace" yaml:"workspace"`
	Templates TemplatesConfiguration `mapstructure:"templates" yaml:"templates"`
	Run       RunConfiguration       `mapstructure:"run" yaml:"run"`
	List      ListConfiguration      `mapstructure:"list" yaml:"list"`
	Serve     ServeConfiguration     `mapstructure:"serve" yaml:"serve"`
}

// TemplatesConfiguration locates the template store.
type TemplatesConfiguration struct {
	Directory string `mapstructure:"directory" yaml:"directory"`
}

// RunConfiguration defines defaults for the run command.
type RunConfiguration struct {
	Copy        *bool              `mapstructure:"copy" yaml:"copy"`
	CopyOnly    *bool              `mapstructure:"copy_only" yaml:"copy_only"`
	Summary     *bool              `mapstructure:"summary" yaml:"summary"`
	Strict      *bool              `mapstructure:"strict" yaml:"strict"`
	Concurrency *int               `mapstructure:"concurrency" yaml:"concurrency"`
	Tokens      TokenConfiguration `mapstructure:"tokens" yaml:"tokens"`
}

// TokenConfiguration controls token counting defaults.
type TokenConfiguration struct {
	Enabled *bool  `mapstructure:"enabled" yaml:"enabled"`
	Model   string `mapstructure:"model" yaml:"model"`
}

// ListConfiguration defines defaults for the list command.
type ListConfiguration struct {
	Format string `mapstructure:"format" yaml:"format"`
}

// ServeConfiguration defines defaults for the serve command.
type ServeConfiguration struct {
	Address string `mapstructure:"address" yaml:"address"`
}

// CopySettings captures clipboard preferences.
type CopySettings struct {
	Copy     *bool
	CopyOnly *bool
}

// DefaultApplicationConfiguration returns the built-in defaults every loaded file overlays.
func DefaultApplicationConfiguration() ApplicationConfiguration {
	return ApplicationConfiguration{
		Templates: TemplatesConfiguration{Directory: utils.DefaultTemplatesDirectory},
		Run: RunConfiguration{
			Copy:        boolPointer(false),
			CopyOnly:    boolPointer(false),
			Summary:     boolPointer(true),
			Strict:      boolPointer(false),
			Concurrency: intPointer(DefaultConcurrency),
			Tokens: TokenConfiguration{
				Enabled: boolPointer(false),
				Model:   DefaultTokenModel,
			},
		},
		List:  ListConfiguration{Format: DefaultListFormat},
		Serve: ServeConfiguration{Address: DefaultServeAddress},
	}
}

// LoadApplicationConfiguration loads configuration from global and local files.
// Values from the local file override the global file; unset values stay nil.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	localConfig, loadErr := loadConfigurationFromPath(localPath)
	if loadErr != nil {
		return ApplicationConfiguration{}, loadErr
	}
	merged = merged.Merge(localConfig)

	return merged, nil
}

// Effective overlays the configuration on top of the built-in defaults.
func (config ApplicationConfiguration) Effective() ApplicationConfiguration {
	return DefaultApplicationConfiguration().Merge(config)
}

// TemplatesDirectory resolves the template store location against workspace.
func (config ApplicationConfiguration) TemplatesDirectory(workspace string) string {
	directory := config.Templates.Directory
	if directory == "" {
		directory = utils.DefaultTemplatesDirectory
	}
	return utils.ResolveAgainst(workspace, filepath.FromSlash(directory))
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) string {
	if explicitPath != "" {
		return utils.ResolveAgainst(workingDirectory, explicitPath)
	}
	return filepath.Join(workingDirectory, utils.LocalConfigFileName)
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	reader.SetConfigType("yaml")
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	if override.Workspace != "" {
		result.Workspace = override.Workspace
	}
	if override.Templates.Directory != "" {
		result.Templates.Directory = override.Templates.Directory
	}
	result.Run = result.Run.merge(override.Run)
	if override.List.Format != "" {
		result.List.Format = override.List.Format
	}
	if override.Serve.Address != "" {
		result.Serve.Address = override.Serve.Address
	}
	return result
}

func (config RunConfiguration) merge(override RunConfiguration) RunConfiguration {
	result := config
	if override.Copy != nil {
		result.Copy = cloneBool(override.Copy)
	}
	if override.CopyOnly != nil {
		result.CopyOnly = cloneBool(override.CopyOnly)
	}
	if override.Summary != nil {
		result.Summary = cloneBool(override.Summary)
	}
	if override.Strict != nil {
		result.Strict = cloneBool(override.Strict)
	}
	if override.Concurrency != nil {
		result.Concurrency = cloneInt(override.Concurrency)
	}
	result.Tokens = result.Tokens.merge(override.Tokens)
	return result
}

// CopySettings returns clipboard preferences; copy_only implies copy.
func (config RunConfiguration) CopySettings() CopySettings {
	settings := CopySettings{Copy: cloneBool(config.Copy), CopyOnly: cloneBool(config.CopyOnly)}
	if settings.CopyOnly != nil && *settings.CopyOnly {
		settings.Copy = boolPointer(true)
	}
	return settings
}

func (config TokenConfiguration) merge(override TokenConfiguration) TokenConfiguration {
	result := config
	if override.Enabled != nil {
		result.Enabled = cloneBool(override.Enabled)
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	return result
}

// BoolValue dereferences value, returning fallback when it is nil.
func BoolValue(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}

// IntValue dereferences value, returning fallback when it is nil.
func IntValue(value *int, fallback int) int {
	if value == nil {
		return fallback
	}
	return *value
}

func boolPointer(value bool) *bool {
	return &value
}

func intPointer(value int) *int {
	return &value
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
