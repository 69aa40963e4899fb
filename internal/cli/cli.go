// Package cli provides the command line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/repoprompt/internal/config"
	"github.com/temirov/repoprompt/internal/services/delivery"
	"github.com/temirov/repoprompt/internal/store"
	"github.com/temirov/repoprompt/internal/utils"
)

const (
	workspaceFlagName        = "workspace"
	workspaceFlagShorthand   = "w"
	configFlagName           = "config"
	verboseFlagName          = "verbose"
	verboseFlagShorthand     = "v"
	formatFlagName           = "format"
	versionTemplate          = "repoprompt version: {{.Version}}\n"
	rootUse                  = "repoprompt"
	rootShortDescription     = "aggregate workspace files into a prompt using templates"
	rootLongDescription      = `repoprompt reads a template of path specifications and concatenates the
matching workspace files into one text block ready to paste into a prompt.

Template lines starting with "#" are comments, lines starting with "-" exclude
paths, and a trailing "*" on a directory makes the search recursive.
Templates live in .vscode/prompt-my-repo-templates inside the workspace.`
	workspaceFlagDescription = "workspace directory templates resolve against (default: configuration, then current directory)"
	configFlagDescription    = "path to a workspace configuration file"
	verboseFlagDescription   = "enable debug logging"
	formatFlagDescription    = "output format (raw, json, yaml)"

	workingDirectoryErrorFormat = "unable to determine working directory: %w"
	absolutePathErrorFormat     = "abs failed for '%s': %w"
)

// Execute runs the repoprompt application.
func Execute() error {
	app := newApplication()
	rootCommand := newRootCommand(app)
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))

	signalContext, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer app.sync()
	return rootCommand.ExecuteContext(signalContext)
}

// application carries the state resolved before a subcommand runs.
type application struct {
	verbose       bool
	workspaceFlag string
	configPath    string

	logger        *zap.Logger
	configuration config.ApplicationConfiguration
	workspace     string

	newLogger    func(verbose bool) (*zap.Logger, error)
	newClipboard func() delivery.Sink
	runEditor    func(command *cobra.Command, editor []string, path string) error
}

func newApplication() *application {
	return &application{
		logger:       zap.NewNop(),
		newLogger:    utils.NewApplicationLogger,
		newClipboard: func() delivery.Sink { return delivery.NewClipboardSink() },
		runEditor:    runExternalEditor,
	}
}

// newRootCommand builds the root Cobra command.
func newRootCommand(app *application) *cobra.Command {
	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		Version:       utils.GetApplicationVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return app.prepare()
		},
	}
	rootCommand.SetVersionTemplate(versionTemplate)
	rootCommand.PersistentFlags().StringVarP(&app.workspaceFlag, workspaceFlagName, workspaceFlagShorthand, "", workspaceFlagDescription)
	rootCommand.PersistentFlags().StringVar(&app.configPath, configFlagName, "", configFlagDescription)
	registerBooleanFlagP(rootCommand.PersistentFlags(), &app.verbose, verboseFlagName, verboseFlagShorthand, false, verboseFlagDescription)
	rootCommand.AddCommand(
		newListCommand(app),
		newCreateCommand(app),
		newShowCommand(app),
		newEditCommand(app),
		newDeleteCommand(app),
		newRenameCommand(app),
		newRunCommand(app),
		newInitCommand(app),
		newServeCommand(app),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// prepare builds the logger, loads configuration and settles the workspace.
// An explicit --workspace wins over the configured workspace, which wins over
// the current directory.
func (app *application) prepare() error {
	logger, loggerErr := app.newLogger(app.verbose)
	if loggerErr != nil {
		return fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerErr)
	}
	app.logger = logger

	workingDirectory, workingDirectoryErr := os.Getwd()
	if workingDirectoryErr != nil {
		return fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryErr)
	}
	baseDirectory := utils.ResolveAgainst(workingDirectory, app.workspaceFlag)

	explicitConfigPath := ""
	if app.configPath != "" {
		explicitConfigPath = utils.ResolveAgainst(workingDirectory, app.configPath)
	}
	loaded, loadErr := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: baseDirectory,
		ExplicitFilePath: explicitConfigPath,
	})
	if loadErr != nil {
		return loadErr
	}
	app.configuration = loaded.Effective()

	workspace := baseDirectory
	if app.workspaceFlag == "" && app.configuration.Workspace != "" {
		workspace = utils.ResolveAgainst(baseDirectory, app.configuration.Workspace)
	}
	absoluteWorkspace, absoluteErr := filepath.Abs(workspace)
	if absoluteErr != nil {
		return fmt.Errorf(absolutePathErrorFormat, workspace, absoluteErr)
	}
	app.workspace = absoluteWorkspace
	app.logger.Debug("workspace resolved",
		zap.String("workspace", app.workspace),
		zap.String("templates", app.configuration.TemplatesDirectory(app.workspace)),
	)
	return nil
}

func (app *application) templateStore() *store.Store {
	return store.New(app.configuration.TemplatesDirectory(app.workspace), app.logger)
}

func (app *application) sync() {
	if app.logger != nil {
		_ = app.logger.Sync()
	}
}
