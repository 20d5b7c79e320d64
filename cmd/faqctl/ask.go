package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/faqdesk/internal/reply"
)

func newAskCmd(a *app) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Ask a question and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg := strings.TrimSpace(strings.Join(args, " "))
			if msg == "" {
				return fmt.Errorf("message is empty")
			}

			start := time.Now()
			payload, err := a.client.Ask(cmd.Context(), msg)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			a.log.Debug("ask complete", elapsed(start), "bytes", len(payload))

			out := cmd.OutOrStdout()
			if raw {
				fmt.Fprintln(out, string(payload))
				return nil
			}
			if reply.IsEmpty(payload) {
				return fmt.Errorf("empty response")
			}

			r := reply.Classify(payload)
			if r.Kind == reply.KindText {
				fmt.Fprintln(out, r.Text)
				return nil
			}
			for i, e := range r.Entries {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "Q: %s\n", e.Question)
				for j, p := range reply.FormatAnswer(e.Answer) {
					if j == 0 {
						fmt.Fprintf(out, "A: %s\n", p)
					} else {
						fmt.Fprintf(out, "   %s\n", p)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the response field as returned")
	return cmd
}
