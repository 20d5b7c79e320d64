package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/faqdesk/internal/backend"
	"github.com/dgallion1/faqdesk/internal/document"
)

func (a *app) documentOptions() document.Options {
	return document.Options{
		MaxBytes:          a.cfg.MaxUploadBytes,
		FallbackPdftotext: a.cfg.PDFFallbackPdftotext,
	}
}

func newUploadCmd(a *app) *cobra.Command {
	var dryRun, noPreflight bool
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Add a document to the service's index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			name := filepath.Base(args[0])
			out := cmd.OutOrStdout()

			if !noPreflight {
				sum, err := document.Inspect(name, data, a.documentOptions())
				if err != nil {
					return err
				}
				a.log.Info("document inspected",
					"file", sum.Name,
					"format", sum.Format,
					"sections", sum.Sections,
					"words", sum.Words,
				)
			}
			if dryRun {
				fmt.Fprintf(out, "%s: ok (not uploaded)\n", name)
				return nil
			}

			start := time.Now()
			msg, err := a.client.LoadDocument(cmd.Context(), backend.File{Name: name, Data: data})
			if err != nil {
				return fmt.Errorf("upload %s: %w", name, err)
			}
			a.log.Debug("upload complete", elapsed(start))
			if msg == "" {
				msg = fmt.Sprintf("Document %q loaded successfully!", name)
			}
			fmt.Fprintln(out, msg)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "check the file without uploading")
	cmd.Flags().BoolVar(&noPreflight, "no-preflight", false, "skip the local format and text check")
	return cmd
}

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print what a document upload would contain",
		Args:  cobra.ExactArgs(1),
		// Runs offline.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			sum, err := document.Inspect(filepath.Base(args[0]), data, a.documentOptions())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(sum)
		},
	}
}
