package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/haytac/emote-relay/internal/emote"
	"github.com/haytac/emote-relay/internal/formatter"
	"github.com/haytac/emote-relay/internal/proxy"
)

// catalogEndpoints is swapped in tests.
var catalogEndpoints = emote.DefaultEndpoints

// NewRenderCmd creates the one-shot render command.
func NewRenderCmd() *cobra.Command {
	var (
		userID  string
		channel string
		tags    string
		strip   bool
		size    int
	)

	cmd := &cobra.Command{
		Use:   "render <message>",
		Short: "Load a channel's emote catalogs and render a single message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if AppCfg == nil {
				return fmt.Errorf("configuration not loaded")
			}
			if !cmd.Flags().Changed("size") {
				size = AppCfg.Emotes.DefaultSize
			}

			timeout := AppCfg.Emotes.LoadTimeout()
			if timeout <= 0 {
				timeout = 30 * time.Second
			}
			client, err := proxy.NewHTTPClientFactory(timeout).GetClient(nil)
			if err != nil {
				return fmt.Errorf("building HTTP client: %w", err)
			}
			loader := emote.NewLoader(client)
			loader.Endpoints = catalogEndpoints
			if AppCfg.Emotes.UserAgent != "" {
				loader.UserAgent = AppCfg.Emotes.UserAgent
			}

			sess := emote.NewSession(userID, channel, loader)
			if err := sess.SetSize(emote.Size(size)); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := emote.WaitAll(ctx, sess.Load(ctx)); err != nil {
				log.Warn().Err(err).Msg("Some emote catalogs failed to load, rendering with what is available")
			}

			message := strings.Join(args, " ")
			ranges := emote.ParseEmotesTag(tags)

			var out string
			if strip {
				out = sess.StripAll(message, ranges)
			} else {
				f := formatter.New(formatter.Options{
					ExpandShortcodes: AppCfg.Render.ExpandShortcodes,
					Sanitize:         AppCfg.Render.Sanitize,
				})
				out = f.Format(sess.Render(message, ranges))
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user-id", "", "platform user id of the channel (scopes 7TV and BTTV)")
	cmd.Flags().StringVar(&channel, "channel", "", "channel name (scopes FFZ)")
	cmd.Flags().StringVar(&tags, "tags", "", "IRC emotes tag, e.g. 25:0-4,12-16/1902:6-10")
	cmd.Flags().BoolVar(&strip, "strip", false, "remove emotes instead of rendering them")
	cmd.Flags().IntVar(&size, "size", 2, "image size 1-3 (default from emotes.default_size)")
	_ = cmd.MarkFlagRequired("user-id")
	_ = cmd.MarkFlagRequired("channel")
	return cmd
}
