// Package output renders template listings and run summaries.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/temirov/repoprompt/internal/types"
)

const (
	indentPrefix = ""
	indentSpacer = "  "

	invalidFormatMessage = "invalid format value '%s'"
	missingSpecFormat    = "Warning: path not found: %s"
	skippedFileFormat    = "Warning: skipped unreadable file: %s"
)

// IsSupportedFormat reports whether format names a known listing format.
func IsSupportedFormat(format string) bool {
	switch format {
	case types.FormatRaw, types.FormatJSON, types.FormatYAML:
		return true
	default:
		return false
	}
}

// RenderTemplateList renders template summaries in the requested format.
// Raw output lists one name per line.
func RenderTemplateList(format string, templates []types.TemplateSummary) (string, error) {
	if templates == nil {
		templates = []types.TemplateSummary{}
	}
	switch format {
	case types.FormatRaw:
		names := make([]string, 0, len(templates))
		for _, template := range templates {
			names = append(names, template.Name)
		}
		return strings.Join(names, "\n"), nil
	case types.FormatJSON:
		encoded, err := json.MarshalIndent(templates, indentPrefix, indentSpacer)
		if err != nil {
			return "", fmt.Errorf("encode template list: %w", err)
		}
		return string(encoded), nil
	case types.FormatYAML:
		var buffer bytes.Buffer
		encoder := yaml.NewEncoder(&buffer)
		encoder.SetIndent(len(indentSpacer))
		if err := encoder.Encode(templates); err != nil {
			return "", fmt.Errorf("encode template list: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return "", fmt.Errorf("encode template list: %w", err)
		}
		return strings.TrimRight(buffer.String(), "\n"), nil
	default:
		return "", fmt.Errorf(invalidFormatMessage, format)
	}
}

// FormatSummaryLine renders the one-line totals of a run.
func FormatSummaryLine(summary *types.AggregateSummary) string {
	if summary == nil {
		summary = &types.AggregateSummary{}
	}
	label := "files"
	if summary.TotalFiles == 1 {
		label = "file"
	}
	extra := ""
	if summary.TotalTokens > 0 {
		extra = fmt.Sprintf(", %d tokens", summary.TotalTokens)
	}
	modelSuffix := ""
	if summary.Model != "" {
		modelSuffix = fmt.Sprintf(" (model: %s)", summary.Model)
	}
	return fmt.Sprintf("Summary: %d %s, %s%s%s", summary.TotalFiles, label, summary.TotalSize, extra, modelSuffix)
}

// SummaryWarnings lists human-readable warnings for missing specs and skipped files.
func SummaryWarnings(summary *types.AggregateSummary) []string {
	if summary == nil {
		return nil
	}
	var warnings []string
	for _, spec := range summary.MissingSpecs {
		warnings = append(warnings, fmt.Sprintf(missingSpecFormat, spec))
	}
	for _, path := range summary.SkippedFiles {
		warnings = append(warnings, fmt.Sprintf(skippedFileFormat, path))
	}
	return warnings
}
