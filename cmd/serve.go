package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/deepgram/courier/internal/api/v1/handlers"
	"github.com/deepgram/courier/internal/services/oauth"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the response log, ask endpoint and chat websocket over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			svc, err := loadServices(ctx, opts)
			if err != nil {
				return err
			}
			defer svc.Close()

			cfg := svc.Config()
			if err := cfg.Server.Require(); err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			manager := svc.GetAssistantManager()
			assistantID, err := manager.Setup(ctx, "")
			if err != nil {
				return fmt.Errorf("set up assistant: %w", err)
			}
			defer func() {
				tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
				defer cancel()
				manager.Teardown(tctx, assistantID)
			}()

			router := handlers.NewRouter(handlers.Dependencies{
				ResponseLog: svc.GetResponseLog(),
				Asker:       svc.GetOrchestrator().Session(assistantID),
				Connections: svc.GetConnectionManager(),
				Validator:   oauth.NewValidator(cfg.Server.JWTSecret),
				RateLimit:   cfg.Server.RateLimit,
			})

			srv := &http.Server{
				Addr:              addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", addr).Str("assistant", assistantID).Msg("Server starting")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("serve: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			log.Info().Msg("Shutting down server")
			svc.GetConnectionManager().CloseAll()
			sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to server.addr)")
	return cmd
}
