package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckKeyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check-key",
		Short: "Report whether the configured API key is accepted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			svc, err := loadServices(ctx, opts)
			if err != nil {
				return err
			}
			defer svc.Close()

			if !svc.GetClient().CheckKey(ctx) {
				fmt.Fprintln(cmd.OutOrStdout(), errorStyle.Render("API key is invalid"))
				return errors.New("api key rejected")
			}
			fmt.Fprintln(cmd.OutOrStdout(), assistantStyle.Render("API key is valid"))
			return nil
		},
	}
}
