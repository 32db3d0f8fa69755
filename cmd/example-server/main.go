package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"api-gateway/gateway"
	"api-gateway/middleware/ratelimit/infra"
)

func main() {
	// Exemplo: o gateway embutido no próprio webserver (sem proxy).
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg := gateway.DefaultConfig()
	cfg.RateLimit.DefaultLimit = 5
	cfg.RateLimit.DefaultPeriod = 10 * time.Second

	stats := infra.NewMemoryStatsStore(infra.WithTrackKeys(true))
	gw, err := gateway.New(cfg, gateway.WithLogger(log), gateway.WithStats(stats))
	if err != nil {
		log.Error("gateway", "err", err)
		os.Exit(1)
	}

	gw.RegisterVersion("1", "versão corrente", false)

	mustRegister := func(err error) {
		if err != nil {
			log.Error("registro", "err", err)
			os.Exit(1)
		}
	}
	mustRegister(gw.RegisterService("ping", "/ping", []string{"GET"}, "1",
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("pong\n"))
		})))
	mustRegister(gw.RegisterService("users", "/users/{id}", []string{"GET"}, "1",
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"user":"demo"}`))
		})))
	mustRegister(gw.RegisterService("stats", "/stats", []string{"GET"}, "1",
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			total := stats.Total()
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"allowed":%d,"denied":%d}`, total.Allowed, total.Denied)
		})))
	mustRegister(gw.RegisterRateLimitRule("/v1/users", 2, 10*time.Second))
	mustRegister(gw.ConfigureBreaker("/v1/ping", 0, 0))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	gw.StartJanitor(ctx)

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           gw.Middleware(http.NotFoundHandler()),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("example server ouvindo", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server", "err", err)
		os.Exit(1)
	}
}
