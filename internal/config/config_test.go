package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "BACKEND_URL", "ASK_PATH", "LOAD_PATH", "REQUEST_TIMEOUT", "MAX_UPLOAD_BYTES", "SESSION_TTL", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	if cfg.Port != "8095" {
		t.Errorf("expected port 8095, got %q", cfg.Port)
	}
	if cfg.BackendURL != "http://localhost:5000" {
		t.Errorf("unexpected backend url %q", cfg.BackendURL)
	}
	if cfg.AskPath != "/ask" || cfg.LoadPath != "/load_faiss" {
		t.Errorf("unexpected paths %q %q", cfg.AskPath, cfg.LoadPath)
	}
	if cfg.RequestTimeout != 120*time.Second {
		t.Errorf("expected 120s timeout, got %s", cfg.RequestTimeout)
	}
	if cfg.MaxUploadBytes != 52428800 {
		t.Errorf("expected 50MB upload limit, got %d", cfg.MaxUploadBytes)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("expected info level, got %s", cfg.LogLevel)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BACKEND_URL", "https://rag.example.com/")
	t.Setenv("ASK_PATH", "chat")
	t.Setenv("REQUEST_TIMEOUT", "0s")
	t.Setenv("SESSION_TTL", "-5m")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()
	if cfg.BackendURL != "https://rag.example.com" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.BackendURL)
	}
	if cfg.AskPath != "/chat" {
		t.Errorf("expected leading slash added, got %q", cfg.AskPath)
	}
	if cfg.RequestTimeout != 0 {
		t.Errorf("expected timeout disabled, got %s", cfg.RequestTimeout)
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("expected negative ttl clamped to 1h, got %s", cfg.SessionTTL)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("expected debug level, got %s", cfg.LogLevel)
	}
}

func TestValidate_RejectsBadScheme(t *testing.T) {
	cfg := Config{BackendURL: "ftp://files.example.com"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for ftp scheme")
	}
}

func TestValidate_MissingWidgetPage(t *testing.T) {
	cfg := Config{BackendURL: "http://localhost:5000", WidgetPage: filepath.Join(t.TempDir(), "missing.html")}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing widget page")
	}
}

func TestLoadDotenv_DoesNotOverrideEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keys.env")
	if err := os.WriteFile(path, []byte("FAQDESK_TEST_A=from-file\nFAQDESK_TEST_B=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FAQDESK_TEST_A", "from-env")
	t.Setenv("FAQDESK_TEST_B", "")
	os.Unsetenv("FAQDESK_TEST_B")

	LoadDotenv(path, filepath.Join(dir, "absent.env"))

	if got := os.Getenv("FAQDESK_TEST_A"); got != "from-env" {
		t.Errorf("expected env to win, got %q", got)
	}
	if got := os.Getenv("FAQDESK_TEST_B"); got != "from-file" {
		t.Errorf("expected value from file, got %q", got)
	}
	os.Unsetenv("FAQDESK_TEST_B")
}
