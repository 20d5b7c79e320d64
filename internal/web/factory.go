package web

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgallion1/faqdesk/internal/config"
	"github.com/dgallion1/faqdesk/internal/document"
	"github.com/dgallion1/faqdesk/internal/session"
	"github.com/dgallion1/faqdesk/internal/widget"
)

// NewWidgetFactory returns the session factory for the configured page and
// backend. An operator page is read once and parsed per session so every
// session owns its own tree.
func NewWidgetFactory(cfg config.Config, b widget.Backend, log *slog.Logger) (session.Factory, error) {
	var page []byte
	if cfg.WidgetPage != "" {
		var err error
		page, err = os.ReadFile(cfg.WidgetPage)
		if err != nil {
			return nil, fmt.Errorf("read widget page: %w", err)
		}
		// Fail at startup rather than on the first visitor.
		if _, err := widget.ParseSurface(bytes.NewReader(page)); err != nil {
			return nil, err
		}
	}

	return func(id string) (*widget.Controller, error) {
		surface := widget.NewSurface()
		if page != nil {
			var err error
			if surface, err = widget.ParseSurface(bytes.NewReader(page)); err != nil {
				return nil, err
			}
		}
		sessLog := log.With("session", id)
		opts := widget.Options{Logger: sessLog}
		if cfg.UploadPreflight {
			opts.Preflight = preflight(cfg, sessLog)
		}
		return widget.NewController(surface, b, opts), nil
	}, nil
}

func preflight(cfg config.Config, log *slog.Logger) widget.Preflight {
	opts := document.Options{
		MaxBytes:          cfg.MaxUploadBytes,
		FallbackPdftotext: cfg.PDFFallbackPdftotext,
	}
	return func(name string, data []byte) error {
		sum, err := document.Inspect(name, data, opts)
		if err != nil {
			return err
		}
		log.Info("document inspected",
			"file", sum.Name,
			"format", sum.Format,
			"mime", sum.MIME,
			"sections", sum.Sections,
			"words", sum.Words,
		)
		return nil
	}
}
