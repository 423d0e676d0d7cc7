package cli

import (
	"github.com/spf13/cobra"

	"streak-service/internal/app"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the gRPC and HTTP servers, Kafka consumers and reminder scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(cmd.Context(), rootOpts.Config)
			if err != nil {
				return err
			}
			return application.Run(cmd.Context())
		},
	}
}
