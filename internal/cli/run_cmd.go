package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/haytac/emote-relay/internal/app"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Starts the emote refresh scheduler and the HTTP API",
		Long:  `This command loads every enabled channel's emote catalogs, refreshes them on schedule, and serves the render, strip and relay API.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if AppCfg == nil {
				return fmt.Errorf("configuration not loaded")
			}

			application, err := app.NewApplication(AppCfg)
			if err != nil {
				log.Error().Err(err).Msg("Failed to initialize application")
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			return application.Run(ctx)
		},
	}
}
