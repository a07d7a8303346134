package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/deepgram/courier/internal/services/chat"
	"github.com/spf13/cobra"
)

const teardownTimeout = 30 * time.Second

// asker answers one message against the session's assistant.
type asker interface {
	Ask(ctx context.Context, history []chat.Turn, message string) string
}

func newChatCmd(opts *rootOptions) *cobra.Command {
	var userName string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant from the terminal",
		Long:  "Creates one assistant for the session, answers each line on a fresh thread and deletes the assistant on exit. Type exit to quit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			svc, err := loadServices(ctx, opts)
			if err != nil {
				return err
			}
			defer svc.Close()

			manager := svc.GetAssistantManager()
			assistantID, err := manager.Setup(ctx, userName)
			if err != nil {
				return fmt.Errorf("set up assistant: %w", err)
			}
			defer func() {
				tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
				defer cancel()
				manager.Teardown(tctx, assistantID)
			}()

			return runChat(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), svc.GetOrchestrator().Session(assistantID))
		},
	}
	cmd.Flags().StringVarP(&userName, "name", "n", "", "name the assistant should address you by")
	return cmd
}

// runChat reads one message per line until exit, end of input or ctx is done.
// Successful exchanges are replayed as history on later turns.
func runChat(ctx context.Context, in io.Reader, out io.Writer, a asker) error {
	fmt.Fprintln(out, bannerStyle.Render("courier chat"))
	fmt.Fprintln(out, hintStyle.Render("Type exit to quit."))

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	var history []chat.Turn
	for {
		fmt.Fprint(out, promptStyle.Render("You: "))

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			line = strings.TrimSpace(l)
		}

		if line == "" {
			continue
		}
		if strings.EqualFold(line, "exit") {
			fmt.Fprintln(out, hintStyle.Render("Goodbye."))
			return nil
		}

		answer := a.Ask(ctx, history, line)
		fmt.Fprintln(out, assistantStyle.Render("Assistant: ")+answer)
		if !chat.Failed(answer) {
			history = append(history,
				chat.Turn{Role: "user", Content: line},
				chat.Turn{Role: "assistant", Content: answer},
			)
		}
	}
}
