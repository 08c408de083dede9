package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/haytac/emote-relay/internal/database"
	"github.com/haytac/emote-relay/internal/proxy"
	"github.com/haytac/emote-relay/pkg/interfaces"
)

// NewProxyCmd creates the 'proxy' command and its subcommands.
func NewProxyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "proxy",
		Short:   "Manage proxy configurations",
		Aliases: []string{"proxies"},
	}

	cmd.AddCommand(newProxyAddCmd())
	cmd.AddCommand(newProxyListCmd())
	cmd.AddCommand(newProxyValidateCmd())
	return cmd
}

func newProxyAddCmd() *cobra.Command {
	var (
		username           string
		password           string
		defaultForCatalogs bool
		defaultForTelegram bool
	)

	addCmd := &cobra.Command{
		Use:   "add <name> <type> <address>",
		Short: "Add a new proxy (e.g., proxy add myproxy http 1.2.3.4:8080)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			pType := strings.ToLower(args[1])
			if pType != "http" && pType != "https" && pType != "socks5" {
				return fmt.Errorf("invalid proxy type: %s. Must be http, https, or socks5", pType)
			}

			p := &database.Proxy{
				Name:                 args[0],
				Type:                 pType,
				Address:              args[2],
				IsDefaultForCatalogs: defaultForCatalogs,
				IsDefaultForTelegram: defaultForTelegram,
			}
			if cmd.Flags().Changed("username") {
				p.Username = &username
			}
			if cmd.Flags().Changed("password") {
				p.Password = &password
			}

			return withDB(func(db *database.DB) error {
				id, err := database.NewProxyStore(db).CreateProxy(cmd.Context(), p)
				if err != nil {
					return fmt.Errorf("failed to add proxy: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Proxy '%s' added successfully with ID: %d\n", p.Name, id)
				return nil
			})
		},
	}

	addCmd.Flags().StringVarP(&username, "username", "u", "", "Proxy username")
	addCmd.Flags().StringVarP(&password, "password", "p", "", "Proxy password")
	addCmd.Flags().BoolVar(&defaultForCatalogs, "default-catalogs", false, "Set as default proxy for emote catalog requests")
	addCmd.Flags().BoolVar(&defaultForTelegram, "default-telegram", false, "Set as default proxy for Telegram communication")
	return addCmd
}

func newProxyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configured proxies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(db *database.DB) error {
				proxies, err := database.NewProxyStore(db).ListProxies(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to list proxies: %w", err)
				}
				if len(proxies) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No proxies configured.")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tTYPE\tADDRESS\tAUTH\tDEFAULT FOR")
				for _, p := range proxies {
					auth := "no"
					if p.Username != nil && *p.Username != "" {
						auth = "yes"
					}
					var defaults []string
					if p.IsDefaultForCatalogs {
						defaults = append(defaults, "catalogs")
					}
					if p.IsDefaultForTelegram {
						defaults = append(defaults, "telegram")
					}
					if len(defaults) == 0 {
						defaults = append(defaults, "-")
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Type, p.Address, auth, strings.Join(defaults, ","))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				return nil
			})
		},
	}
}

func newProxyValidateCmd() *cobra.Command {
	var targetURL string

	validateCmd := &cobra.Command{
		Use:   "validate <proxy_id>",
		Short: "Validate connectivity of a configured proxy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proxyID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid proxy ID: %s", args[0])
			}

			return withDB(func(db *database.DB) error {
				p, err := database.NewProxyStore(db).GetProxyByID(cmd.Context(), proxyID)
				if err != nil {
					return fmt.Errorf("failed to get proxy %d: %w", proxyID, err)
				}
				if p == nil {
					return fmt.Errorf("proxy with ID %d not found", proxyID)
				}

				var validator interfaces.ProxyValidator = proxy.NewDefaultProxyValidator(proxy.NewHTTPClientFactory(30 * time.Second))
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Validating proxy %s (ID: %d, Address: %s)...\n", p.Name, p.ID, p.Address)
				if err := validator.Validate(cmd.Context(), p, targetURL); err != nil {
					fmt.Fprintf(out, "Validation failed: %v\n", err)
					return err
				}
				fmt.Fprintln(out, "Proxy validation successful.")
				return nil
			})
		},
	}
	validateCmd.Flags().StringVar(&targetURL, "target-url", "", "URL to test proxy connectivity against (default: fetch and decode the BTTV global emote catalog)")
	return validateCmd
}
