package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MGallo-Code/bookshelf/internal/catalog"
	"github.com/MGallo-Code/bookshelf/internal/config"
	bsmw "github.com/MGallo-Code/bookshelf/internal/middleware"
	"github.com/MGallo-Code/bookshelf/internal/oauth"
	"github.com/MGallo-Code/bookshelf/internal/session"
	"github.com/MGallo-Code/bookshelf/internal/store"
	"github.com/MGallo-Code/bookshelf/migrations"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// housekeepingInterval is how often idle rate-limit buckets and expired
// in-memory sessions are dropped.
const housekeepingInterval = 5 * time.Minute

func main() {
	// Load config first so we can set log level
	cfg, err := config.LoadConfig()
	if err != nil {
		// Fallback logger before config is available
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}

	// Include source location in log entries at debug level only.
	addSrc := cfg.LogLevel == slog.LevelDebug

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     cfg.LogLevel,
		AddSource: addSrc,
	})))

	// Cancel ctx on SIGINT/SIGTERM; run() shuts down when ctx is done.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run() is a separate func so deferred closes always execute before os.Exit.
	if err := run(ctx, cfg, nil, nil); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

// sessionBackend is what run needs from a session store: the data operations
// plus a health check.
type sessionBackend interface {
	session.Backend
	catalog.HealthChecker
}

// run holds all server logic and returns error instead of calling os.Exit,
// so deferred resource cleanup always runs.
// Shuts down when ctx is cancelled (signal handling is the caller's concern).
// If ready is non-nil, the server's base URL is sent on it once the listener is bound.
// A nil idp means Google, discovered over the network.
func run(ctx context.Context, cfg *config.Config, ready chan<- string, idp catalog.Provider) error {
	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	migrationsFS, err := migrations.FS(db.Driver())
	if err != nil {
		return fmt.Errorf("failed to access embedded migrations: %w", err)
	}
	if err := db.Migrate(ctx, migrationsFS); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Redis when configured, else process memory (single instance only).
	var backend sessionBackend
	var mem *session.MemoryBackend
	if cfg.RedisURL != "" {
		rs, err := store.NewRedisSessionStore(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to set up redis session store: %w", err)
		}
		defer rs.Close()
		backend = rs
	} else {
		slog.Warn("REDIS_URL not set, sessions are kept in process memory")
		mem = session.NewMemoryBackend()
		backend = mem
	}

	secret, err := session.NewSecret()
	if err != nil {
		return fmt.Errorf("failed to generate session secret: %w", err)
	}
	sm, err := session.NewManager(backend, secret, session.Options{TTL: cfg.SessionTTL, Secure: cfg.CookieSecure})
	if err != nil {
		return fmt.Errorf("failed to set up session manager: %w", err)
	}

	if idp == nil {
		gp, err := oauth.NewGoogleProvider(ctx, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthRedirectURL)
		if err != nil {
			return fmt.Errorf("failed to set up google provider: %w", err)
		}
		idp = gp
	}

	pages, err := catalog.NewPages()
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	h := catalog.NewHandler(db, sm, idp, pages, backend, cfg.DefaultBookImage)
	h.ImageDir = cfg.ImageDir

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := bsmw.NewMetrics(reg)
	limiter := bsmw.NewIPLimiter(cfg.RateAuthRPS, cfg.RateAuthBurst)

	// Bind listener; ":0" picks a free port (useful in tests).
	ln, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	server := &http.Server{Handler: buildRouter(h, limiter, metrics, reg)}

	// Housekeeping goroutine; cancelled via cleanupCtx when run() returns.
	cleanupCtx, cancelCleanup := context.WithCancel(ctx)
	defer cancelCleanup()
	go func() {
		ticker := time.NewTicker(housekeepingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				buckets := limiter.Sweep(housekeepingInterval)
				sessions := 0
				if mem != nil {
					sessions = mem.Sweep()
				}
				slog.Debug("housekeeping complete", "rate_buckets_dropped", buckets, "sessions_expired", sessions)
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	// Start server in a goroutine; run() continues past this.
	errCh := make(chan error, 1)
	go func() {
		slog.Info("bookshelf listening", "addr", ln.Addr().String(), "driver", db.Driver(), "provider", idp.Name())
		// Send error only if server stops for a reason other than explicit shutdown.
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Signal readiness to caller (used by tests; nil in production).
	if ready != nil {
		ready <- "http://" + ln.Addr().String()
	}

	// Wait for server error or shutdown signal from ctx.
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	// Stops accepting new conns and waits for in-flight requests, up to 30s.
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// buildRouter wires all routes and middleware.
// Called from run() and from smoke tests.
func buildRouter(h *catalog.Handler, limiter *bsmw.IPLimiter, metrics *bsmw.Metrics, reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	r.Get("/health", h.CheckHealth)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/images/{name}", h.ServeImage)

	// Every page sees the session; identity is bootstrapped here after login.
	r.Group(func(r chi.Router) {
		r.Use(h.LoadVisitor)

		// Login endpoints are rate limited per client IP.
		r.With(limiter.Middleware).Get("/authorize", h.Authorize)
		r.With(limiter.Middleware).Get("/oauth2callback", h.OAuthCallback)
		r.Get("/revoke", h.Revoke)
		r.Get("/clear", h.Clear)

		r.Get("/", h.ShowLibrary)
		r.Get("/library", h.ShowLibrary)
		r.Get("/library.json", h.LibraryJSON)

		// The segment after /library/ is always {id}: a category, user or book id,
		// depending on what follows it.
		r.Get("/library/add_book", h.AddBook)
		r.Post("/library/add_book", h.AddBook)
		r.Get("/library/{id}/books", h.ShowCategory)
		r.Get("/library/{id}/books.json", h.CategoryBooksJSON)
		r.Get("/library/{id}/booksOfUser.json", h.UserBooksJSON)
		r.Get("/library/{id}/edit", h.EditBook)
		r.Post("/library/{id}/edit", h.EditBook)
		r.Get("/library/{id}/delete", h.DeleteBook)
		r.Post("/library/{id}/delete", h.DeleteBook)
		r.Get("/library/{id}/{book_id}", h.ShowBook)
		r.Get("/library/{id}/{book_id}/book.json", h.ShowBookJSON)
	})

	return r
}
