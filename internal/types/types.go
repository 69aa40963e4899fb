// Package types defines the data structures shared by the repoprompt CLI and API.
package types

const (
	FormatRaw  = "raw"
	FormatJSON = "json"
	FormatYAML = "yaml"

	CommandList      = "list"
	CommandAggregate = "aggregate"
	CommandCreate    = "create"
	CommandDelete    = "delete"
	CommandRename    = "rename"
	CommandSave      = "save"
)

// TemplateSummary describes one stored template.
type TemplateSummary struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
}

// AggregateSummary captures totals reported after a template run.
type AggregateSummary struct {
	TotalFiles   int      `json:"totalFiles" yaml:"totalFiles"`
	TotalSize    string   `json:"totalSize" yaml:"totalSize"`
	TotalTokens  int      `json:"totalTokens,omitempty" yaml:"totalTokens,omitempty"`
	Model        string   `json:"model,omitempty" yaml:"model,omitempty"`
	MissingSpecs []string `json:"missingSpecs,omitempty" yaml:"missingSpecs,omitempty"`
	SkippedFiles []string `json:"skippedFiles,omitempty" yaml:"skippedFiles,omitempty"`
}
