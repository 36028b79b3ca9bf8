// config.go

// Environment variable loading and validation.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Config holds all env configuration vars for bookshelf.
type Config struct {
	DatabaseURL string
	RedisURL    string // empty selects the in-process session backend
	Port        string
	LogLevel    slog.Level

	// Google OAuth client. Either set directly or read from GOOGLE_CLIENT_SECRETS_FILE.
	GoogleClientID     string
	GoogleClientSecret string
	OAuthRedirectURL   string

	// CookieSecure sets the Secure flag on the session cookie.
	// Default true; set COOKIE_SECURE=false for plain-HTTP local development.
	CookieSecure bool

	// SessionTTL bounds the backend record and the cookie max-age. Default 24h.
	SessionTTL time.Duration

	// DefaultBookImage is used when a book form leaves image empty.
	DefaultBookImage string

	// ImageDir holds cover files served at /images/{name}. Default "images".
	ImageDir string

	// Per-IP token bucket on /authorize and /oauth2callback.
	// Defaults: 1 request/s refill, burst of 10.
	RateAuthRPS   float64
	RateAuthBurst int
}

// LoadConfig reads environment variables and returns a validated Config.
// A .env file in the working directory is loaded first if present; real env vars win.
// Returns an error if DATABASE_URL or the Google client credentials are missing.
func LoadConfig() (*Config, error) {
	// Missing .env is the normal production case
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Config{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	cfg.RedisURL = os.Getenv("REDIS_URL")

	// Attempt to get port num, default to 8000
	cfg.Port = os.Getenv("PORT")
	if cfg.Port == "" {
		cfg.Port = "8000"
	}

	// Parse log level, default to info
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		cfg.LogLevel = slog.LevelInfo
	}

	// Secrets file first, explicit vars override individual fields.
	if path := os.Getenv("GOOGLE_CLIENT_SECRETS_FILE"); path != "" {
		oc, err := readClientSecrets(path)
		if err != nil {
			return nil, err
		}
		cfg.GoogleClientID, cfg.GoogleClientSecret = oc.ClientID, oc.ClientSecret
		cfg.OAuthRedirectURL = oc.RedirectURL
	}
	if v := os.Getenv("OAUTH_REDIRECT_URL"); v != "" {
		cfg.OAuthRedirectURL = v
	}
	if cfg.OAuthRedirectURL == "" {
		cfg.OAuthRedirectURL = "http://localhost:" + cfg.Port + "/oauth2callback"
	}
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		cfg.GoogleClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		cfg.GoogleClientSecret = v
	}
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		return nil, fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET (or GOOGLE_CLIENT_SECRETS_FILE) are required")
	}

	cfg.CookieSecure = envBool("COOKIE_SECURE", true)
	cfg.SessionTTL = envDuration("SESSION_TTL", 24*time.Hour)

	cfg.DefaultBookImage = os.Getenv("DEFAULT_BOOK_IMAGE")
	if cfg.DefaultBookImage == "" {
		cfg.DefaultBookImage = "default_book.jpg"
	}
	cfg.ImageDir = os.Getenv("IMAGE_DIR")
	if cfg.ImageDir == "" {
		cfg.ImageDir = "images"
	}

	cfg.RateAuthRPS = envFloat("RATE_AUTH_RPS", 1)
	cfg.RateAuthBurst = envInt("RATE_AUTH_BURST", 10)

	return cfg, nil
}

// readClientSecrets parses a Google client_secrets.json ("web" or "installed").
// The first redirect_uris entry becomes RedirectURL.
func readClientSecrets(path string) (*oauth2.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading GOOGLE_CLIENT_SECRETS_FILE: %w", err)
	}
	oc, err := google.ConfigFromJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing GOOGLE_CLIENT_SECRETS_FILE: %w", err)
	}
	return oc, nil
}

// envInt reads an env var as int, returning def if missing or unparseable.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid env var, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

// envFloat reads an env var as float64, returning def if missing, unparseable or not positive.
func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		slog.Warn("invalid env var, using default", "key", key, "value", v, "default", def)
		return def
	}
	return f
}

// envDuration reads an env var as time.Duration, returning def if missing or unparseable.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid env var, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

// envBool returns false only for an explicit "false"; anything else, including typos, keeps def.
func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "false" {
		return false
	}
	if v == "true" {
		return true
	}
	return def
}
