// Command courier answers questions with a short-lived OpenAI assistant,
// interactively, over mail, or over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/deepgram/courier/internal/config"
	"github.com/deepgram/courier/internal/services"
	"github.com/deepgram/courier/pkg/logger"
	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

type rootOptions struct {
	configPath string
	console    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "courier",
		Short:         "Courier - assistant relay for chat, mail and HTTP",
		Long:          "Courier creates an OpenAI assistant per session, answers each message on a fresh thread and cleans every remote resource up afterwards.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.console {
				logger.UseConsole(cmd.ErrOrStderr())
			} else {
				logger.SetOutput(cmd.ErrOrStderr())
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to courier YAML config (environment only when empty)")
	cmd.PersistentFlags().BoolVar(&opts.console, "console", false, "human readable logs instead of JSON")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newChatCmd(opts))
	cmd.AddCommand(newMailCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newCheckKeyCmd(opts))
	cmd.AddCommand(newTokenCmd(opts))
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "courier %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

// loadServices reads the config and builds the shared services. Callers
// own the returned Services and must Close it.
func loadServices(ctx context.Context, opts *rootOptions) (*services.Services, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	svc, err := services.InitializeServices(cfg)
	if err != nil {
		return nil, err
	}
	svc.RecoverAssistants(ctx)
	return svc, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render("Error: "+err.Error()))
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
