package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"api-gateway/gateway"
	"api-gateway/middleware/ratelimit/infra"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(),
	}))
	slog.SetDefault(log)

	cfg, err := gateway.FromEnv()
	if err != nil {
		log.Error("config inválida", "err", err)
		os.Exit(1)
	}

	upstream := os.Getenv("UPSTREAM_URL")
	if upstream == "" {
		log.Error("UPSTREAM_URL é obrigatório")
		os.Exit(1)
	}
	target, err := url.Parse(upstream)
	if err != nil {
		log.Error("UPSTREAM_URL inválida", "err", err)
		os.Exit(1)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Error("erro no proxy", "err", err, "path", r.URL.Path)
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}

	opts := []gateway.Option{gateway.WithLogger(log)}

	var rdb *redis.Client
	if cfg.RateLimit.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.Redis.Addr,
			Password: cfg.RateLimit.Redis.Password,
			DB:       cfg.RateLimit.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			// o gateway degrada para o contador local sozinho; só avisa
			log.Warn("redis inacessível no boot, contador local até ele voltar", "err", err)
		}
		opts = append(opts, gateway.WithRedis(rdb))

		if getenvBoolDefault("RATE_STATS_ENABLED", false) {
			opts = append(opts, gateway.WithStats(infra.NewRedisStatsStore(rdb)))
		}
	}

	metrics := gateway.NewMetrics()
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		log.Error("registro de métricas falhou", "err", err)
		os.Exit(1)
	}
	opts = append(opts, gateway.WithMetrics(metrics))

	gw, err := gateway.New(cfg, opts...)
	if err != nil {
		log.Error("construção do gateway falhou", "err", err)
		os.Exit(1)
	}

	if file := os.Getenv("GATEWAY_CONFIG_FILE"); file != "" {
		fc, err := gateway.LoadFile(file)
		if err != nil {
			log.Error("carga do arquivo de configuração falhou", "err", err)
			os.Exit(1)
		}
		if err := gw.Apply(fc); err != nil {
			log.Error("aplicação do arquivo de configuração falhou", "err", err)
			os.Exit(1)
		}
		log.Info("configuração declarativa aplicada", "file", file)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	gw.StartJanitor(ctx)

	listenAddr := getenvDefault("LISTEN_ADDR", ":8080")
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           gw.Middleware(proxy),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	adminAddr := getenvDefault("ADMIN_ADDR", ":9090")
	admin := &http.Server{
		Addr:              adminAddr,
		Handler:           adminHandler(gw, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("admin ouvindo", "addr", adminAddr)
		if err := admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("admin server", "err", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = admin.Shutdown(shutdownCtx)
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("gateway ouvindo",
		"addr", listenAddr,
		"upstream", target.String(),
		"version", cfg.Version,
		"rate_limit", cfg.RateLimit.Enabled,
		"redis", cfg.RateLimit.Redis.Enabled,
		"circuit_breaker", cfg.CircuitBreaker.Enabled,
		"versioning", cfg.Versioning.Strategy)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server", "err", err)
		os.Exit(1)
	}
}

// adminHandler expõe métricas prometheus e o snapshot de introspecção.
func adminHandler(gw *gateway.Gateway, reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/gateway/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(gw.Snapshot())
	})
	return mux
}

func logLevel() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "TRUE" || v == "True"
}
