package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
)

// --- IPLimiter ---

func TestIPLimiter_BurstThen429(t *testing.T) {
	l := NewIPLimiter(1, 2)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		r := httptest.NewRequest(http.MethodGet, "/authorize", nil)
		r.RemoteAddr = "203.0.113.7:5555"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("burst: expected two 200s, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("status: expected 429 after burst, got %d", codes[2])
	}
}

func TestIPLimiter_SeparateBucketsPerIP(t *testing.T) {
	l := NewIPLimiter(1, 1)
	if !l.Allow("198.51.100.1") {
		t.Fatal("first request from ip A should pass")
	}
	if !l.Allow("198.51.100.2") {
		t.Error("ip B must not share ip A's bucket")
	}
	if l.Allow("198.51.100.1") {
		t.Error("second immediate request from ip A should be limited")
	}
}

func TestIPLimiter_Sweep(t *testing.T) {
	l := NewIPLimiter(1, 1)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("old")
	now = now.Add(2 * time.Hour)
	l.Allow("fresh")

	if n := l.Sweep(time.Hour); n != 1 {
		t.Errorf("Sweep: expected 1 removed, got %d", n)
	}
	if l.Len() != 1 {
		t.Errorf("Len: expected 1, got %d", l.Len())
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{"192.0.2.1:1234", "192.0.2.1"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"192.0.2.9", "192.0.2.9"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = tt.remote
		if got := clientIP(r); got != tt.want {
			t.Errorf("clientIP(%q): expected %q, got %q", tt.remote, tt.want, got)
		}
	}
}

// --- Metrics ---

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/library/{id}/books", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, path := range []string{"/library/1/books", "/library/2/books", "/nope"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := promtest.ToFloat64(m.requests.WithLabelValues("GET", "/library/{id}/books", "200")); got != 2 {
		t.Errorf("route counter: expected 2, got %v", got)
	}
	if got := promtest.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Errorf("unmatched counter: expected 1, got %v", got)
	}
}
