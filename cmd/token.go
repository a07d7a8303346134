package main

import (
	"fmt"
	"time"

	"github.com/deepgram/courier/internal/config"
	"github.com/deepgram/courier/internal/services/oauth"
	"github.com/spf13/cobra"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		clientType string
		scopes     []string
		ttl        time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if err := cfg.Server.Require(); err != nil {
				return err
			}
			token, err := oauth.IssueToken(cfg.Server.JWTSecret, clientType, scopes, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&clientType, "client", "ops", "client type recorded in the token")
	cmd.Flags().StringSliceVar(&scopes, "scope",
		[]string{oauth.ScopeLogsRead, oauth.ScopeChatWrite},
		"scopes to grant (logs:read, logs:write, chat:write)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
