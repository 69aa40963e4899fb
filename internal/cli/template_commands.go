package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/repoprompt/internal/output"
	"github.com/temirov/repoprompt/internal/store"
	"github.com/temirov/repoprompt/internal/types"
)

const (
	listUse                = "list"
	listAlias              = "ls"
	listShortDescription   = "list stored templates (" + listAlias + ")"
	createUse              = "create <name>"
	createShortDescription = "create a template with the starter body"
	showUse                = "show <name>"
	showShortDescription   = "print a template"
	editUse                = "edit <name>"
	editShortDescription   = "open a template in $VISUAL or $EDITOR"
	editLongDescription    = `Open a template in the editor named by $VISUAL or $EDITOR.
When neither is set the template path is printed instead.`
	editUsageExample = `  # Edit the backend template, creating it first if needed
  repoprompt edit --create backend`
	deleteUse              = "delete <name>"
	deleteAlias            = "rm"
	deleteShortDescription = "delete a template (" + deleteAlias + ")"
	renameUse              = "rename <old> <new>"
	renameAlias            = "mv"
	renameShortDescription = "rename a template (" + renameAlias + ")"

	createMissingFlagName        = "create"
	createMissingFlagDescription = "create the template when it does not exist"

	visualEnvironmentVariable = "VISUAL"
	editorEnvironmentVariable = "EDITOR"

	invalidFormatMessage    = "invalid format value '%s'"
	noTemplatesNoticeFormat = "No templates in %s"
	deletedNoticeFormat     = "Deleted template %s"
	editorFailedFormat      = "run editor %s: %w"
)

func newListCommand(app *application) *cobra.Command {
	var outputFormat string

	listCommand := &cobra.Command{
		Use:     listUse,
		Aliases: []string{listAlias},
		Short:   listShortDescription,
		Args:    cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			selectedFormat := strings.ToLower(strings.TrimSpace(resolveStringFlag(command.Flags(), formatFlagName, outputFormat, app.configuration.List.Format)))
			if !output.IsSupportedFormat(selectedFormat) {
				return fmt.Errorf(invalidFormatMessage, selectedFormat)
			}
			templateStore := app.templateStore()
			templates, listErr := templateStore.List()
			if listErr != nil {
				return listErr
			}
			rendered, renderErr := output.RenderTemplateList(selectedFormat, summarizeTemplates(templates))
			if renderErr != nil {
				return renderErr
			}
			if rendered != "" {
				fmt.Fprintln(command.OutOrStdout(), rendered)
			}
			if len(templates) == 0 {
				printNotice(command, noTemplatesNoticeFormat, templateStore.Directory())
			}
			return nil
		},
	}
	listCommand.Flags().StringVar(&outputFormat, formatFlagName, types.FormatRaw, formatFlagDescription)
	return listCommand
}

func newCreateCommand(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   createUse,
		Short: createShortDescription,
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			created, createErr := app.templateStore().Create(arguments[0])
			if createErr != nil {
				return createErr
			}
			fmt.Fprintln(command.OutOrStdout(), created.Path)
			return nil
		},
	}
}

func newShowCommand(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   showUse,
		Short: showShortDescription,
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			content, readErr := app.templateStore().Read(arguments[0])
			if readErr != nil {
				return readErr
			}
			fmt.Fprint(command.OutOrStdout(), content)
			return nil
		},
	}
}

func newEditCommand(app *application) *cobra.Command {
	var createMissing bool

	editCommand := &cobra.Command{
		Use:     editUse,
		Short:   editShortDescription,
		Long:    editLongDescription,
		Example: editUsageExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			templateStore := app.templateStore()
			template, getErr := templateStore.Get(arguments[0])
			if errors.Is(getErr, store.ErrTemplateNotFound) && createMissing {
				template, getErr = templateStore.Create(arguments[0])
			}
			if getErr != nil {
				return getErr
			}
			editor := editorCommand()
			if len(editor) == 0 {
				fmt.Fprintln(command.OutOrStdout(), template.Path)
				return nil
			}
			app.logger.Debug("opening editor", zap.Strings("editor", editor), zap.String("path", template.Path))
			return app.runEditor(command, editor, template.Path)
		},
	}
	registerBooleanFlag(editCommand.Flags(), &createMissing, createMissingFlagName, false, createMissingFlagDescription)
	return editCommand
}

func newDeleteCommand(app *application) *cobra.Command {
	return &cobra.Command{
		Use:     deleteUse,
		Aliases: []string{deleteAlias},
		Short:   deleteShortDescription,
		Args:    cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			if deleteErr := app.templateStore().Delete(arguments[0]); deleteErr != nil {
				return deleteErr
			}
			printNotice(command, deletedNoticeFormat, arguments[0])
			return nil
		},
	}
}

func newRenameCommand(app *application) *cobra.Command {
	return &cobra.Command{
		Use:     renameUse,
		Aliases: []string{renameAlias},
		Short:   renameShortDescription,
		Args:    cobra.ExactArgs(2),
		RunE: func(command *cobra.Command, arguments []string) error {
			renamed, renameErr := app.templateStore().Rename(arguments[0], arguments[1])
			if renameErr != nil {
				return renameErr
			}
			fmt.Fprintln(command.OutOrStdout(), renamed.Path)
			return nil
		},
	}
}

func summarizeTemplates(templates []store.Template) []types.TemplateSummary {
	summaries := make([]types.TemplateSummary, 0, len(templates))
	for _, template := range templates {
		summaries = append(summaries, types.TemplateSummary{Name: template.Name, Path: template.Path})
	}
	return summaries
}

// editorCommand splits $VISUAL, falling back to $EDITOR, into program and arguments.
func editorCommand() []string {
	for _, variable := range []string{visualEnvironmentVariable, editorEnvironmentVariable} {
		if fields := strings.Fields(os.Getenv(variable)); len(fields) > 0 {
			return fields
		}
	}
	return nil
}

func runExternalEditor(command *cobra.Command, editor []string, path string) error {
	arguments := append(append([]string{}, editor[1:]...), path)
	editorProcess := exec.CommandContext(command.Context(), editor[0], arguments...)
	editorProcess.Stdin = command.InOrStdin()
	editorProcess.Stdout = command.OutOrStdout()
	editorProcess.Stderr = command.ErrOrStderr()
	if runErr := editorProcess.Run(); runErr != nil {
		return fmt.Errorf(editorFailedFormat, editor[0], runErr)
	}
	return nil
}
