package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/faqdesk/internal/backend"
	"github.com/dgallion1/faqdesk/internal/config"
	"github.com/dgallion1/faqdesk/internal/session"
	"github.com/dgallion1/faqdesk/internal/web"
)

func main() {
	config.LoadDotenv()
	cfg := config.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize backend client.
	stats := backend.NewStats(cfg.StatsWindow)
	client := backend.NewClient(cfg.BackendURL, backend.Options{
		APIKey:   cfg.BackendAPIKey,
		AskPath:  cfg.AskPath,
		LoadPath: cfg.LoadPath,
		Timeout:  cfg.RequestTimeout,
		Stats:    stats,
	})

	// Initialize sessions.
	factory, err := web.NewWidgetFactory(cfg, client, log)
	if err != nil {
		log.Error("invalid widget page", "path", cfg.WidgetPage, "error", err)
		os.Exit(1)
	}
	sessions := session.NewStore(cfg.SessionTTL, factory, log)
	sessions.Start(ctx)

	// Initialize HTTP server.
	srv := web.NewServer(sessions, stats, log, cfg)

	// Send and upload answer synchronously, so writes must outlast a
	// backend call.
	writeTimeout := time.Duration(0)
	if cfg.RequestTimeout > 0 {
		writeTimeout = cfg.RequestTimeout + 30*time.Second
	}
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		// Closing the sessions ends open websocket streams.
		sessions.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		client.Close()
	}()

	log.Info("starting faqdesk", "port", cfg.Port, "backend", cfg.BackendURL)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
