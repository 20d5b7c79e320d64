package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newIndexCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Save, load or clear the service's vector index",
	}

	run := func(action string, call func(ctx context.Context, args []string) (string, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			msg, err := call(cmd.Context(), args)
			if err != nil {
				return fmt.Errorf("%s index: %w", action, err)
			}
			if msg == "" {
				msg = "ok"
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "save <path>",
			Short: "Persist the index on the service host",
			Args:  cobra.ExactArgs(1),
			RunE: run("save", func(ctx context.Context, args []string) (string, error) {
				return a.client.SaveIndex(ctx, args[0])
			}),
		},
		&cobra.Command{
			Use:   "load <path>",
			Short: "Replace the index with one saved on the service host",
			Args:  cobra.ExactArgs(1),
			RunE: run("load", func(ctx context.Context, args []string) (string, error) {
				return a.client.LoadIndex(ctx, args[0])
			}),
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Drop every indexed document",
			Args:  cobra.NoArgs,
			RunE: run("clear", func(ctx context.Context, _ []string) (string, error) {
				return a.client.ClearIndex(ctx)
			}),
		},
	)
	return cmd
}
