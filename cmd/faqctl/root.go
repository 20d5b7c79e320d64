package main

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/faqdesk/internal/backend"
	"github.com/dgallion1/faqdesk/internal/config"
)

// app carries what every subcommand needs, filled from flags in
// PersistentPreRunE.
type app struct {
	cfg     config.Config
	log     *slog.Logger
	client  *backend.Client
	verbose bool
}

func newRootCmd() *cobra.Command {
	config.LoadDotenv()
	a := &app{cfg: config.Load()}

	root := &cobra.Command{
		Use:           "faqctl",
		Short:         "Ask questions and manage documents on the FAQ service",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := a.cfg.LogLevel
			if a.verbose {
				level = slog.LevelDebug
			}
			a.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			a.client = backend.NewClient(a.cfg.BackendURL, backend.Options{
				APIKey:   a.cfg.BackendAPIKey,
				AskPath:  a.cfg.AskPath,
				LoadPath: a.cfg.LoadPath,
				Timeout:  a.cfg.RequestTimeout,
			})
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.client != nil {
				a.client.Close()
			}
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.cfg.BackendURL, "backend", a.cfg.BackendURL, "service base URL")
	f.StringVar(&a.cfg.BackendAPIKey, "api-key", a.cfg.BackendAPIKey, "bearer token for the service")
	f.DurationVar(&a.cfg.RequestTimeout, "timeout", a.cfg.RequestTimeout, "per-request timeout (0 disables)")
	f.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging on stderr")

	root.AddCommand(
		newAskCmd(a),
		newUploadCmd(a),
		newInspectCmd(a),
		newIndexCmd(a),
	)
	return root
}

// elapsed is logged after each service call.
func elapsed(start time.Time) slog.Attr {
	return slog.Int64("duration_ms", time.Since(start).Milliseconds())
}
