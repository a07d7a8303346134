package main

import (
	"encoding/json"
	"fmt"

	"github.com/deepgram/courier/internal/db"
	"github.com/deepgram/courier/internal/infrastructure/mail"
	"github.com/deepgram/courier/internal/services/history"
	"github.com/deepgram/courier/internal/services/inbox"
	"github.com/spf13/cobra"
)

func newMailCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mail",
		Short: "Answer every unread email once and print a JSON summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			svc, err := loadServices(ctx, opts)
			if err != nil {
				return err
			}
			defer svc.Close()

			cfg := svc.Config()
			if err := cfg.Mail.Require(); err != nil {
				return err
			}
			if err := cfg.Database.Require(); err != nil {
				return err
			}

			gdb, err := db.Connect(cfg.Database)
			if err != nil {
				return err
			}
			if sqlDB, err := gdb.DB(); err == nil {
				defer sqlDB.Close()
			}
			if err := db.AutoMigrate(gdb); err != nil {
				return err
			}
			store, err := history.NewStore(gdb)
			if err != nil {
				return err
			}

			processor := inbox.NewProcessor(
				mail.NewIMAPFetcher(cfg.Mail),
				mail.NewSMTPSender(cfg.Mail),
				store,
				inbox.NewAssistantResponder(svc.GetAssistantManager(), svc.GetOrchestrator()),
				cfg.Database.HistoryLimit,
				cfg.Mail.WrapWidth,
			)
			summary := processor.Process(ctx)

			out, err := json.MarshalIndent(summary, "", "    ")
			if err != nil {
				return fmt.Errorf("encode summary: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if summary.Status != inbox.StatusSuccess {
				return fmt.Errorf("mail batch failed: %s", summary.Message)
			}
			return nil
		},
	}
}
