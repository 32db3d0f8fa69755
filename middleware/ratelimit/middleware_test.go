package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"api-gateway/middleware/ratelimit/application"
	"api-gateway/middleware/ratelimit/domain"
	"api-gateway/middleware/ratelimit/infra"
)

func newTestService(t *testing.T, limit int, period time.Duration) *application.Service {
	t.Helper()
	svc, err := application.NewService(
		domain.Rule{Limit: limit, Period: period},
		infra.NewMemoryStore(),
		application.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_NegaAcimaDoLimite(t *testing.T) {
	h := Middleware(Options{
		Service:             newTestService(t, 2, time.Minute),
		AddRateLimitHeaders: true,
	})(okHandler())

	do := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "http://gw/api", nil)
		r.RemoteAddr = "198.51.100.7:4567"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := do(); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}

	w := do()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if got := w.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("expected remaining 0, got %q", got)
	}
	if got := w.Header().Get("X-RateLimit-Limit"); got != "2" {
		t.Fatalf("expected limit header 2, got %q", got)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After on denial")
	}
}

func TestMiddleware_SemServicoDeixaPassar(t *testing.T) {
	h := Middleware(Options{})(okHandler())

	r := httptest.NewRequest(http.MethodGet, "http://gw/api", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected passthrough without service, got %d", w.Code)
	}
}

func TestMiddleware_RejectStatusCustomizado(t *testing.T) {
	h := Middleware(Options{
		Service:      newTestService(t, 1, time.Minute),
		RejectStatus: http.StatusForbidden,
	})(okHandler())

	do := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "http://gw/api", nil)
		r.RemoteAddr = "198.51.100.7:4567"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	do()
	if w := do(); w.Code != http.StatusForbidden {
		t.Fatalf("expected custom reject status, got %d", w.Code)
	}
}

type memStats struct {
	mu     sync.Mutex
	events []domain.StatsEvent
}

func (m *memStats) Record(_ context.Context, ev domain.StatsEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func TestMiddleware_GravaStats(t *testing.T) {
	stats := &memStats{}
	h := Middleware(Options{
		Service: newTestService(t, 1, time.Minute),
		Stats:   stats,
	})(okHandler())

	for i := 0; i < 2; i++ {
		r := httptest.NewRequest(http.MethodGet, "http://gw/api", nil)
		r.RemoteAddr = "198.51.100.7:4567"
		h.ServeHTTP(httptest.NewRecorder(), r)
	}

	stats.mu.Lock()
	defer stats.mu.Unlock()
	if len(stats.events) != 2 {
		t.Fatalf("expected 2 stats events, got %d", len(stats.events))
	}
	if !stats.events[0].Allowed || stats.events[1].Allowed {
		t.Fatalf("expected [allowed, denied], got %+v", stats.events)
	}
	if stats.events[0].Path != "/api" {
		t.Fatalf("expected path recorded, got %q", stats.events[0].Path)
	}
}
