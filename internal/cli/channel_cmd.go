package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/haytac/emote-relay/internal/database"
	"github.com/haytac/emote-relay/internal/emote"
)

// NewChannelCmd creates the 'channel' command and its subcommands.
func NewChannelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "channel",
		Short:   "Manage tracked chat channels",
		Aliases: []string{"channels"},
	}

	cmd.AddCommand(newChannelAddCmd())
	cmd.AddCommand(newChannelListCmd())
	cmd.AddCommand(newChannelSizeCmd())
	cmd.AddCommand(newChannelEnableCmd(true))
	cmd.AddCommand(newChannelEnableCmd(false))
	return cmd
}

func newChannelAddCmd() *cobra.Command {
	var (
		userID         string
		size           int
		refreshSeconds int
		proxyID        int64
		chatID         string
		enabled        bool
	)

	addCmd := &cobra.Command{
		Use:   "add <channel_name>",
		Short: "Register a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !emote.Size(size).Valid() {
				return fmt.Errorf("%w: %d", emote.ErrInvalidSize, size)
			}
			c := &database.Channel{
				Name:           args[0],
				PlatformUserID: userID,
				RenderSize:     size,
				RefreshSeconds: refreshSeconds,
				IsEnabled:      enabled,
			}
			if cmd.Flags().Changed("proxy-id") {
				c.ProxyID = &proxyID
			}
			if cmd.Flags().Changed("chat-id") {
				c.TelegramChatID = &chatID
			}

			return withDB(func(db *database.DB) error {
				id, err := database.NewChannelStore(db).CreateChannel(cmd.Context(), c)
				if err != nil {
					return fmt.Errorf("failed to add channel: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Channel '%s' added successfully with ID: %d\n", c.Name, id)
				return nil
			})
		},
	}

	addCmd.Flags().StringVar(&userID, "user-id", "", "platform user id of the channel (required)")
	_ = addCmd.MarkFlagRequired("user-id")
	addCmd.Flags().IntVar(&size, "size", int(emote.DefaultSize), "image size 1-3")
	addCmd.Flags().IntVar(&refreshSeconds, "refresh", 0, "catalog refresh interval in seconds (0 uses emotes.refresh_interval_seconds)")
	addCmd.Flags().Int64Var(&proxyID, "proxy-id", 0, "ID of the proxy used for catalog and Telegram traffic")
	addCmd.Flags().StringVar(&chatID, "chat-id", "", "Telegram chat ID or @channelusername to relay stripped messages to")
	addCmd.Flags().BoolVar(&enabled, "enabled", true, "enable the channel immediately")
	return addCmd
}

func newChannelListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all registered channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(db *database.DB) error {
				channels, err := database.NewChannelStore(db).ListChannels(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to list channels: %w", err)
				}
				out := cmd.OutOrStdout()
				if len(channels) == 0 {
					fmt.Fprintln(out, "No channels configured.")
					return nil
				}
				fmt.Fprintln(out, "Configured Channels:")
				for _, c := range channels {
					status := "enabled"
					if !c.IsEnabled {
						status = "disabled"
					}
					chat := "-"
					if c.TelegramChatID != nil {
						chat = *c.TelegramChatID
					}
					proxyName := "-"
					if c.Proxy != nil {
						proxyName = c.Proxy.Name
					}
					loaded := "never"
					if c.LastLoadedAt != nil {
						loaded = c.LastLoadedAt.Format("2006-01-02 15:04:05")
					}
					fmt.Fprintf(out, "ID: %d, Name: %s, UserID: %s, Size: %d, Refresh: %ds, Chat: %s, Proxy: %s, Loaded: %s, Status: %s\n",
						c.ID, c.Name, c.PlatformUserID, c.RenderSize, c.RefreshSeconds, chat, proxyName, loaded, status)
				}
				return nil
			})
		},
	}
}

func newChannelSizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "size <channel_name> <1-3>",
		Short: "Change a channel's image size",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := strconv.Atoi(args[1])
			if err != nil || !emote.Size(size).Valid() {
				return fmt.Errorf("%w: %s", emote.ErrInvalidSize, args[1])
			}
			return withDB(func(db *database.DB) error {
				store := database.NewChannelStore(db)
				c, err := lookupChannel(cmd, store, args[0])
				if err != nil {
					return err
				}
				if err := store.UpdateRenderSize(cmd.Context(), c.ID, size); err != nil {
					return fmt.Errorf("failed to update size: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Channel '%s' size set to %d.\n", c.Name, size)
				return nil
			})
		},
	}
}

func newChannelEnableCmd(enable bool) *cobra.Command {
	use, short := "enable", "Enable a channel"
	if !enable {
		use, short = "disable", "Disable a channel"
	}
	return &cobra.Command{
		Use:   use + " <channel_name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(db *database.DB) error {
				store := database.NewChannelStore(db)
				c, err := lookupChannel(cmd, store, args[0])
				if err != nil {
					return err
				}
				if err := store.SetEnabled(cmd.Context(), c.ID, enable); err != nil {
					return fmt.Errorf("failed to %s channel: %w", use, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Channel '%s' %sd.\n", c.Name, use)
				return nil
			})
		},
	}
}

func lookupChannel(cmd *cobra.Command, store *database.ChannelStore, name string) (*database.Channel, error) {
	c, err := store.GetChannelByName(cmd.Context(), name)
	if err != nil {
		return nil, fmt.Errorf("failed to get channel %s: %w", name, err)
	}
	if c == nil {
		return nil, fmt.Errorf("channel '%s' not found", name)
	}
	return c, nil
}
