package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// --- LoadConfig ---

func TestLoadConfig(t *testing.T) {
	// Helper sets the minimum required env vars for a valid config
	setRequired := func(t *testing.T) {
		t.Helper()
		t.Setenv("DATABASE_URL", "postgres://localhost/bookshelf")
		t.Setenv("GOOGLE_CLIENT_ID", "client-id")
		t.Setenv("GOOGLE_CLIENT_SECRET", "client-secret")
		t.Setenv("GOOGLE_CLIENT_SECRETS_FILE", "")
		t.Setenv("OAUTH_REDIRECT_URL", "")
	}

	t.Run("returns valid config with all required vars", func(t *testing.T) {
		setRequired(t)
		t.Setenv("REDIS_URL", "")

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.DatabaseURL != "postgres://localhost/bookshelf" {
			t.Errorf("DatabaseURL: expected %q, got %q", "postgres://localhost/bookshelf", cfg.DatabaseURL)
		}
		if cfg.RedisURL != "" {
			t.Errorf("RedisURL: expected empty, got %q", cfg.RedisURL)
		}
		if cfg.GoogleClientID != "client-id" || cfg.GoogleClientSecret != "client-secret" {
			t.Errorf("Google credentials: got %q / %q", cfg.GoogleClientID, cfg.GoogleClientSecret)
		}
	})

	t.Run("errors when DATABASE_URL is missing", func(t *testing.T) {
		setRequired(t)
		t.Setenv("DATABASE_URL", "")

		_, err := LoadConfig()
		if err == nil {
			t.Fatal("expected error for missing DATABASE_URL, got nil")
		}
	})

	t.Run("errors when Google credentials are missing", func(t *testing.T) {
		setRequired(t)
		t.Setenv("GOOGLE_CLIENT_SECRET", "")

		_, err := LoadConfig()
		if err == nil {
			t.Fatal("expected error for missing GOOGLE_CLIENT_SECRET, got nil")
		}
	})

	t.Run("defaults PORT and redirect URL", func(t *testing.T) {
		setRequired(t)
		t.Setenv("PORT", "")

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Port != "8000" {
			t.Errorf("Port: expected %q, got %q", "8000", cfg.Port)
		}
		if cfg.OAuthRedirectURL != "http://localhost:8000/oauth2callback" {
			t.Errorf("OAuthRedirectURL: expected default, got %q", cfg.OAuthRedirectURL)
		}
	})

	t.Run("uses custom PORT when set", func(t *testing.T) {
		setRequired(t)
		t.Setenv("PORT", "9090")

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Port != "9090" {
			t.Errorf("Port: expected %q, got %q", "9090", cfg.Port)
		}
		if cfg.OAuthRedirectURL != "http://localhost:9090/oauth2callback" {
			t.Errorf("OAuthRedirectURL: expected port in default, got %q", cfg.OAuthRedirectURL)
		}
	})

	t.Run("reads credentials from client secrets file", func(t *testing.T) {
		setRequired(t)
		t.Setenv("GOOGLE_CLIENT_ID", "")
		t.Setenv("GOOGLE_CLIENT_SECRET", "")

		path := filepath.Join(t.TempDir(), "client_secrets.json")
		body := `{"web":{"client_id":"file-id","client_secret":"file-secret",` +
			`"redirect_uris":["https://books.example.com/oauth2callback"],` +
			`"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token"}}`
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("writing secrets file: %v", err)
		}
		t.Setenv("GOOGLE_CLIENT_SECRETS_FILE", path)

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.GoogleClientID != "file-id" || cfg.GoogleClientSecret != "file-secret" {
			t.Errorf("Google credentials: got %q / %q", cfg.GoogleClientID, cfg.GoogleClientSecret)
		}
		if cfg.OAuthRedirectURL != "https://books.example.com/oauth2callback" {
			t.Errorf("OAuthRedirectURL: expected value from file, got %q", cfg.OAuthRedirectURL)
		}
	})

	t.Run("errors on unreadable client secrets file", func(t *testing.T) {
		setRequired(t)
		t.Setenv("GOOGLE_CLIENT_SECRETS_FILE", filepath.Join(t.TempDir(), "missing.json"))

		if _, err := LoadConfig(); err == nil {
			t.Fatal("expected error for missing secrets file, got nil")
		}
	})

	t.Run("CookieSecure defaults to true when unset", func(t *testing.T) {
		setRequired(t)
		t.Setenv("COOKIE_SECURE", "")

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if !cfg.CookieSecure {
			t.Error("CookieSecure should default to true when COOKIE_SECURE is unset")
		}
	})

	t.Run("CookieSecure is false only when explicitly set to false", func(t *testing.T) {
		setRequired(t)
		t.Setenv("COOKIE_SECURE", "false")

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.CookieSecure {
			t.Error("CookieSecure should be false when COOKIE_SECURE is \"false\"")
		}
	})

	t.Run("CookieSecure stays true for any non-false value", func(t *testing.T) {
		setRequired(t)
		for _, val := range []string{"true", "1", "yes", "FALSE", "typo"} {
			t.Setenv("COOKIE_SECURE", val)

			cfg, err := LoadConfig()
			if err != nil {
				t.Fatalf("LoadConfig failed for %q: %v", val, err)
			}
			if !cfg.CookieSecure {
				t.Errorf("CookieSecure should be true for %q", val)
			}
		}
	})

	t.Run("defaults session, image and rate settings", func(t *testing.T) {
		setRequired(t)
		t.Setenv("SESSION_TTL", "")
		t.Setenv("DEFAULT_BOOK_IMAGE", "")
		t.Setenv("IMAGE_DIR", "")
		t.Setenv("RATE_AUTH_RPS", "")
		t.Setenv("RATE_AUTH_BURST", "")

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.SessionTTL != 24*time.Hour {
			t.Errorf("SessionTTL: expected 24h, got %v", cfg.SessionTTL)
		}
		if cfg.DefaultBookImage != "default_book.jpg" {
			t.Errorf("DefaultBookImage: expected default_book.jpg, got %q", cfg.DefaultBookImage)
		}
		if cfg.ImageDir != "images" {
			t.Errorf("ImageDir: expected images, got %q", cfg.ImageDir)
		}
		if cfg.RateAuthRPS != 1 || cfg.RateAuthBurst != 10 {
			t.Errorf("rate: expected 1/10, got %v/%d", cfg.RateAuthRPS, cfg.RateAuthBurst)
		}
	})
}

// --- env helpers ---

func TestEnvDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"unset uses default", "", time.Hour},
		{"valid value", "90m", 90 * time.Minute},
		{"garbage uses default", "soon", time.Hour},
		{"negative uses default", "-5m", time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			if got := envDuration("TEST_DURATION", time.Hour); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEnvInt(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"unset uses default", "", 10},
		{"valid value", "25", 25},
		{"zero uses default", "0", 10},
		{"garbage uses default", "ten", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_INT", tt.value)
			if got := envInt("TEST_INT", 10); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestEnvFloat(t *testing.T) {
	t.Setenv("TEST_FLOAT", "0.5")
	if got := envFloat("TEST_FLOAT", 1); got != 0.5 {
		t.Errorf("expected 0.5, got %v", got)
	}
	t.Setenv("TEST_FLOAT", "-1")
	if got := envFloat("TEST_FLOAT", 1); got != 1 {
		t.Errorf("negative: expected default 1, got %v", got)
	}
}
