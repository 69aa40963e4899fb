package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/repoprompt/internal/config"
)

const (
	initUse              = "init"
	initShortDescription = "write a default configuration file"
	initLongDescription  = `Write the default configuration to .repoprompt.yaml in the workspace,
or to ~/.repoprompt/config.yaml with --global.`
	globalFlagName        = "global"
	forceFlagName         = "force"
	globalFlagDescription = "write the global configuration instead of the workspace one"
	forceFlagDescription  = "overwrite an existing configuration file"
)

func newInitCommand(app *application) *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			path, initErr := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: app.workspace,
			})
			if initErr != nil {
				return initErr
			}
			fmt.Fprintln(command.OutOrStdout(), path)
			return nil
		},
	}
	registerBooleanFlag(initCommand.Flags(), &global, globalFlagName, false, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &force, forceFlagName, false, forceFlagDescription)
	return initCommand
}
