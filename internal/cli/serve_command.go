package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/repoprompt/internal/config"
	"github.com/temirov/repoprompt/internal/services/api"
)

const (
	serveUse              = "serve"
	serveShortDescription = "serve template commands over HTTP"
	serveLongDescription  = `Start a local HTTP server exposing the template commands.
GET /capabilities lists the commands; POST /commands/<name> runs one with a JSON body.`
	addressFlagName        = "address"
	addressFlagDescription = "listen address"
	listeningMessageFormat = "repoprompt API listening on http://%s\n"
)

func newServeCommand(app *application) *cobra.Command {
	var address string

	serveCommand := &cobra.Command{
		Use:   serveUse,
		Short: serveShortDescription,
		Long:  serveLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			server := api.NewServer(api.Config{
				Address:      resolveStringFlag(command.Flags(), addressFlagName, address, app.configuration.Serve.Address),
				Capabilities: apiCapabilities(),
				Executors:    app.apiExecutors(),
				Logger:       app.logger,
			})
			return server.Run(command.Context(), func(boundAddress string) {
				fmt.Fprintf(command.OutOrStdout(), listeningMessageFormat, boundAddress)
			})
		},
	}
	serveCommand.Flags().StringVar(&address, addressFlagName, config.DefaultServeAddress, addressFlagDescription)
	return serveCommand
}
