package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/haytac/emote-relay/internal/config"
	"github.com/haytac/emote-relay/internal/database"
	"github.com/haytac/emote-relay/internal/logging"
)

var (
	cfgFile string
	dryRun  bool
	// AppCfg is populated in PersistentPreRunE.
	AppCfg *config.AppConfig
)

// RootCmd is the base command.
var RootCmd = NewRootCmd()

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "emote-relay",
		Short: "Render and relay chat messages with Twitch, 7TV, FFZ and BTTV emotes.",
		Long: `emote-relay keeps per-channel emote tables loaded from the 7TV, FrankerFaceZ and
BetterTTV catalogs, substitutes emotes in chat messages with image markup, and
relays emote-free text to Telegram.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loadedCfg, err := config.LoadConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("error loading config: %w", err)
			}
			AppCfg = loadedCfg
			logging.Setup(AppCfg.Log)
			AppCfg.DryRun = dryRun

			if AppCfg.DatabasePath == "" {
				return fmt.Errorf("database_path is not configured")
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml, $HOME/.emote-relay/config.yaml)")
	root.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "log relayed messages instead of sending them")

	root.AddCommand(NewRunCmd())
	root.AddCommand(NewRenderCmd())
	root.AddCommand(NewChannelCmd())
	root.AddCommand(NewProxyCmd())
	root.AddCommand(NewDbCmd())
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withDB opens the configured database for the duration of fn.
func withDB(fn func(db *database.DB) error) error {
	if AppCfg == nil {
		return fmt.Errorf("configuration not loaded")
	}
	db, err := database.Connect(AppCfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	return fn(db)
}
