package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/repoprompt/internal/config"
	"github.com/temirov/repoprompt/internal/output"
	"github.com/temirov/repoprompt/internal/services/delivery"
	"github.com/temirov/repoprompt/internal/template"
	"github.com/temirov/repoprompt/internal/tokenizer"
	"github.com/temirov/repoprompt/internal/types"
	"github.com/temirov/repoprompt/internal/utils"
)

const (
	runUse              = "run [name]"
	runAlias            = "r"
	runShortDescription = "aggregate a template into prompt text (" + runAlias + ")"
	runLongDescription  = `Resolve a stored template against the workspace and print the aggregated text.
Use --file to run an ad hoc template file instead ("-" reads standard input).
Use --copy to also place the text on the clipboard and --copy-only to skip standard output.`
	runUsageExample = `  # Aggregate the backend template and copy it to the clipboard
  repoprompt run backend --copy

  # Run a template from standard input and write the result to a file
  printf 'src*\n-src/vendor*\n' | repoprompt run --file - --output prompt.txt`

	templateFileFlagName        = "file"
	copyFlagName                = "copy"
	copyOnlyFlagName            = "copy-only"
	outputFlagName              = "output"
	summaryFlagName             = "summary"
	tokensFlagName              = "tokens"
	modelFlagName               = "model"
	strictFlagName              = "strict"
	templateFileFlagDescription = "read the template from a file instead of the store (\"-\" for stdin)"
	copyFlagDescription         = "copy the aggregated text to the clipboard"
	copyOnlyFlagDescription     = "copy to the clipboard without printing to stdout"
	outputFlagDescription       = "also write the aggregated text to this file"
	summaryFlagDescription      = "print a summary of the aggregated files to stderr"
	tokensFlagDescription       = "include a token count in the summary"
	modelFlagDescription        = "tokenizer model to use for token counting"
	strictFlagDescription       = "fail on unreadable files instead of skipping them"
	standardInputPath           = "-"

	errorTemplateSourceRequired = "a template name or --file is required"
	errorTemplateSourceConflict = "provide a template name or --file, not both"
	errorReadTemplateFileFormat = "read template file %s: %w"
	copiedNotice                = "Copied to clipboard"
	tokenCountWarningMessage    = "token count unavailable"
)

type runOptions struct {
	templateFile string
	copy         bool
	copyOnly     bool
	outputPath   string
	summary      bool
	tokens       bool
	model        string
	strict       bool
}

func newRunCommand(app *application) *cobra.Command {
	var options runOptions

	runCommand := &cobra.Command{
		Use:     runUse,
		Aliases: []string{runAlias},
		Short:   runShortDescription,
		Long:    runLongDescription,
		Example: runUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			return app.runTemplate(command, arguments, options)
		},
	}

	flagSet := runCommand.Flags()
	flagSet.StringVar(&options.templateFile, templateFileFlagName, "", templateFileFlagDescription)
	registerBooleanFlag(flagSet, &options.copy, copyFlagName, false, copyFlagDescription)
	registerBooleanFlag(flagSet, &options.copyOnly, copyOnlyFlagName, false, copyOnlyFlagDescription)
	flagSet.StringVar(&options.outputPath, outputFlagName, "", outputFlagDescription)
	registerBooleanFlag(flagSet, &options.summary, summaryFlagName, true, summaryFlagDescription)
	registerBooleanFlag(flagSet, &options.tokens, tokensFlagName, false, tokensFlagDescription)
	flagSet.StringVar(&options.model, modelFlagName, config.DefaultTokenModel, modelFlagDescription)
	registerBooleanFlag(flagSet, &options.strict, strictFlagName, false, strictFlagDescription)
	return runCommand
}

func (app *application) runTemplate(command *cobra.Command, arguments []string, options runOptions) error {
	templateText, readErr := app.readTemplateText(command, arguments, options.templateFile)
	if readErr != nil {
		return readErr
	}

	flagSet := command.Flags()
	runConfiguration := app.configuration.Run
	copyEnabled := resolveBooleanFlag(flagSet, copyFlagName, options.copy, runConfiguration.Copy)
	copyOnly := resolveBooleanFlag(flagSet, copyOnlyFlagName, options.copyOnly, runConfiguration.CopyOnly)
	copySettings := config.RunConfiguration{Copy: &copyEnabled, CopyOnly: &copyOnly}.CopySettings()
	strict := resolveBooleanFlag(flagSet, strictFlagName, options.strict, runConfiguration.Strict)

	result, summary, aggregateErr := app.aggregate(templateText, strict)
	if aggregateErr != nil {
		return aggregateErr
	}

	if resolveBooleanFlag(flagSet, tokensFlagName, options.tokens, runConfiguration.Tokens.Enabled) {
		model := resolveStringFlag(flagSet, modelFlagName, options.model, runConfiguration.Tokens.Model)
		app.countTokens(result.Text, model, &summary)
	}

	var sinks delivery.Fanout
	if !config.BoolValue(copySettings.CopyOnly, false) {
		sinks = append(sinks, delivery.NewWriterSink(command.OutOrStdout()))
	}
	if options.outputPath != "" {
		absoluteOutputPath, absoluteErr := filepath.Abs(options.outputPath)
		if absoluteErr != nil {
			return fmt.Errorf(absolutePathErrorFormat, options.outputPath, absoluteErr)
		}
		sinks = append(sinks, delivery.NewFileSink(absoluteOutputPath))
	}
	copyToClipboard := config.BoolValue(copySettings.Copy, false)
	if copyToClipboard {
		sinks = append(sinks, app.newClipboard())
	}
	if deliveryErr := sinks.Deliver(result.Text); deliveryErr != nil {
		return deliveryErr
	}
	if copyToClipboard {
		printNotice(command, copiedNotice)
	}

	if resolveBooleanFlag(flagSet, summaryFlagName, options.summary, runConfiguration.Summary) {
		fmt.Fprintln(command.ErrOrStderr(), output.FormatSummaryLine(&summary))
	}
	return nil
}

func (app *application) readTemplateText(command *cobra.Command, arguments []string, templateFile string) (string, error) {
	switch {
	case len(arguments) > 0 && templateFile != "":
		return "", errors.New(errorTemplateSourceConflict)
	case len(arguments) > 0:
		return app.templateStore().Read(arguments[0])
	case templateFile == standardInputPath:
		content, err := io.ReadAll(command.InOrStdin())
		if err != nil {
			return "", fmt.Errorf(errorReadTemplateFileFormat, templateFile, err)
		}
		return string(content), nil
	case templateFile != "":
		content, err := os.ReadFile(templateFile)
		if err != nil {
			return "", fmt.Errorf(errorReadTemplateFileFormat, templateFile, err)
		}
		return string(content), nil
	default:
		return "", errors.New(errorTemplateSourceRequired)
	}
}

// aggregate runs templateText against the workspace and summarizes the outcome.
func (app *application) aggregate(templateText string, strict bool) (template.Result, types.AggregateSummary, error) {
	result, runErr := template.Run(app.workspace, templateText, template.Options{
		Logger:      app.logger,
		StrictReads: strict,
		Concurrency: config.IntValue(app.configuration.Run.Concurrency, config.DefaultConcurrency),
	})
	if runErr != nil {
		return template.Result{}, types.AggregateSummary{}, runErr
	}
	summary := types.AggregateSummary{
		TotalFiles:   len(result.Records),
		TotalSize:    utils.FormatFileSize(result.TotalBytes()),
		MissingSpecs: result.MissingSpecs,
		SkippedFiles: result.SkippedFiles,
	}
	return result, summary, nil
}

// countTokens fills the token fields of summary. Counting failures are logged, not returned.
func (app *application) countTokens(text string, model string, summary *types.AggregateSummary) {
	counter, resolvedModel, counterErr := tokenizer.NewCounter(tokenizer.Config{Model: model})
	if counterErr != nil {
		app.logger.Warn(tokenCountWarningMessage, zap.String("model", model), zap.Error(counterErr))
		return
	}
	counted, countErr := tokenizer.CountString(counter, text)
	if countErr != nil {
		app.logger.Warn(tokenCountWarningMessage, zap.String("model", resolvedModel), zap.Error(countErr))
		return
	}
	if counted.Counted {
		summary.TotalTokens = counted.Tokens
		summary.Model = resolvedModel
	}
}
