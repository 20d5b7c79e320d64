package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Backend connection
	BackendURL    string
	BackendAPIKey string
	AskPath       string
	LoadPath      string

	// Zero disables the per-request timeout.
	RequestTimeout time.Duration

	// Upload limits
	MaxUploadBytes       int64
	UploadPreflight      bool
	PDFFallbackPdftotext bool

	// Widget sessions
	SessionTTL time.Duration
	WidgetPage string

	StatsWindow time.Duration

	LogLevel slog.Level
}

// LoadDotenv reads optional dotenv files. Variables already present in the
// environment win.
func LoadDotenv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{"keys.env", ".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		_ = godotenv.Load(p)
	}
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8095"),

		BackendURL:    strings.TrimRight(envOr("BACKEND_URL", "http://localhost:5000"), "/"),
		BackendAPIKey: os.Getenv("BACKEND_API_KEY"),
		AskPath:       envOr("ASK_PATH", "/ask"),
		LoadPath:      envOr("LOAD_PATH", "/load_faiss"),

		RequestTimeout: envDuration("REQUEST_TIMEOUT", 120*time.Second),

		MaxUploadBytes:       envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB
		UploadPreflight:      envBool("UPLOAD_PREFLIGHT", true),
		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		SessionTTL: envDuration("SESSION_TTL", 1*time.Hour),
		WidgetPage: os.Getenv("WIDGET_PAGE"),

		StatsWindow: envDuration("STATS_WINDOW", 1*time.Hour),

		LogLevel: envLevel("LOG_LEVEL", slog.LevelInfo),
	}

	if cfg.RequestTimeout < 0 {
		cfg.RequestTimeout = 0
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 1 * time.Hour
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}
	if !strings.HasPrefix(cfg.AskPath, "/") {
		cfg.AskPath = "/" + cfg.AskPath
	}
	if !strings.HasPrefix(cfg.LoadPath, "/") {
		cfg.LoadPath = "/" + cfg.LoadPath
	}

	return cfg
}

func (c Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	u, err := url.Parse(c.BackendURL)
	if err != nil {
		return fmt.Errorf("BACKEND_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("BACKEND_URL must be http or https, got %q", u.Scheme)
	}
	if c.WidgetPage != "" {
		if _, err := os.Stat(c.WidgetPage); err != nil {
			return fmt.Errorf("WIDGET_PAGE: %w", err)
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envLevel(key string, fallback slog.Level) slog.Level {
	if v := os.Getenv(key); v != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(v)); err == nil {
			return lvl
		}
	}
	return fallback
}
