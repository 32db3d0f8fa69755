package gateway

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"api-gateway/middleware/apiversion"
	"api-gateway/middleware/circuitbreaker"
	"api-gateway/middleware/ratelimit"
	"api-gateway/middleware/ratelimit/application"
	"api-gateway/middleware/ratelimit/domain"
	"api-gateway/middleware/ratelimit/infra"
	"api-gateway/middleware/routing"
	"api-gateway/middleware/transform"
)

// Gateway orquestra o pipeline de controle de tráfego:
//
//	versão → rota → rate limit → circuit breaker → transform req →
//	handler → transform resp → record outcome
//
// Os registries (rotas, regras, versões, breakers) pertencem exclusivamente à
// instância; nenhum outro componente os muta diretamente.
type Gateway struct {
	cfg Config
	log *slog.Logger

	routes   *routing.Table
	versions *apiversion.Resolver
	limiter  *application.Service
	breaker  *circuitbreaker.Breaker
	rules    *transform.Registry
	reqTr    *transform.RequestTransformer
	respTr   *transform.ResponseTransformer

	local   *infra.MemoryStore
	rdb     *redis.Client
	stats   domain.StatsStore
	metrics *Metrics
	keyFn   ratelimit.KeyFunc
}

type Option func(*Gateway)

func WithLogger(log *slog.Logger) Option {
	return func(g *Gateway) { g.log = log }
}

// WithRedis injeta o cliente do contador distribuído. Só é usado se
// cfg.RateLimit.Redis.Enabled for true.
func WithRedis(rdb *redis.Client) Option {
	return func(g *Gateway) { g.rdb = rdb }
}

// WithStats habilita a gravação best-effort de estatísticas de admissão.
func WithStats(stats domain.StatsStore) Option {
	return func(g *Gateway) { g.stats = stats }
}

func WithMetrics(m *Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

func New(cfg Config, opts ...Option) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	g := &Gateway{
		cfg: cfg,
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}

	g.routes = routing.NewTable()
	g.rules = transform.NewRegistry()
	g.local = infra.NewMemoryStore()

	if cfg.Versioning.Enabled {
		resolver, err := apiversion.NewResolver(
			apiversion.Strategy(cfg.Versioning.Strategy),
			cfg.Versioning.DefaultVersion,
			apiversion.WithHeaderName(cfg.Versioning.HeaderName),
			apiversion.WithQueryParam(cfg.Versioning.QueryParam),
			apiversion.WithLogger(g.log),
		)
		if err != nil {
			return nil, err
		}
		g.versions = resolver
	}

	if cfg.RateLimit.Enabled {
		svcOpts := []application.Option{application.WithLogger(g.log)}
		if cfg.RateLimit.Redis.Enabled && g.rdb != nil {
			store := infra.NewRedisStore(g.rdb,
				infra.WithRedisPrefix(cfg.RateLimit.Redis.Prefix),
				infra.WithRedisTimeout(cfg.RateLimit.Redis.Timeout),
			)
			svcOpts = append(svcOpts, application.WithDistributedStore(store))
		}
		limiter, err := application.NewService(domain.Rule{
			Limit:  cfg.RateLimit.DefaultLimit,
			Period: cfg.RateLimit.DefaultPeriod,
		}, g.local, svcOpts...)
		if err != nil {
			return nil, err
		}
		g.limiter = limiter
	}

	if cfg.CircuitBreaker.Enabled {
		g.breaker = circuitbreaker.New(circuitbreaker.WithLogger(g.log))
	}

	g.reqTr = transform.NewRequestTransformer(g.rules)
	g.respTr = transform.NewResponseTransformer(cfg.Version,
		transform.WithSecurityHeaders(cfg.Security.Headers),
		transform.WithExtraHeaders(cfg.Security.ExtraHeaders),
		transform.WithCORS(cfg.CORS),
	)
	g.keyFn = ratelimit.DefaultKeyFunc(cfg.RateLimit.KeyHeader, cfg.RateLimit.TrustXForwardedFor)

	return g, nil
}

// ---- registro (tempo de configuração) ----

// RegisterService registra uma rota para um serviço de backend. Sob a
// estratégia url_path o pattern ganha o prefixo /v{version}; o endpoint é
// anotado no registro de versões. Handler nil usa o handler default do
// pipeline (next).
func (g *Gateway) RegisterService(service, pattern string, methods []string, version string, handler http.Handler) error {
	p := pattern
	if g.versions != nil && version != "" {
		p = g.versions.VersionedPrefix(pattern, version)
		g.versions.RegisterEndpoint(version, p)
	}
	_, err := g.routes.Register(routing.Route{
		Pattern: p,
		Methods: methods,
		Service: service,
		Version: version,
		Handler: handler,
	})
	if err != nil {
		return fmt.Errorf("gateway: registro de %s falhou: %w", service, err)
	}
	g.log.Info("rota registrada", "service", service, "pattern", p, "version", version)
	return nil
}

// RegisterVersion registra uma versão de API suportada.
func (g *Gateway) RegisterVersion(id, description string, deprecated bool) {
	if g.versions == nil {
		g.log.Warn("versionamento desabilitado, versão ignorada", "version", id)
		return
	}
	g.versions.RegisterVersion(id, description, deprecated)
}

// RegisterRateLimitRule registra uma regra de janela fixa por prefixo.
func (g *Gateway) RegisterRateLimitRule(pathPrefix string, limit int, period time.Duration) error {
	if g.limiter == nil {
		return nil
	}
	return g.limiter.RegisterRule(domain.Rule{PathPrefix: pathPrefix, Limit: limit, Period: period})
}

// ConfigureBreaker registra o circuit breaker de um path. Zeros usam os
// defaults da configuração.
func (g *Gateway) ConfigureBreaker(path string, failureThreshold int, recoveryTime time.Duration) error {
	if g.breaker == nil {
		return nil
	}
	if failureThreshold == 0 {
		failureThreshold = g.cfg.CircuitBreaker.DefaultFailureThreshold
	}
	if recoveryTime == 0 {
		recoveryTime = g.cfg.CircuitBreaker.DefaultRecoveryTime
	}
	return g.breaker.Configure(circuitbreaker.Config{
		Path:             path,
		FailureThreshold: failureThreshold,
		RecoveryTime:     recoveryTime,
	})
}

func (g *Gateway) RegisterHeaderTransformation(path, header, value string) {
	g.rules.RegisterHeader(path, header, value)
}

func (g *Gateway) RegisterProtocolTransformation(path, source, target string) {
	g.rules.RegisterProtocol(path, source, target)
}

func (g *Gateway) RegisterTransformation(path string, rule transform.Rule) {
	g.rules.Register(path, rule)
}

// StartJanitor inicia a limpeza periódica das janelas locais de rate limit.
func (g *Gateway) StartJanitor(ctx infra.DoneContext) {
	g.local.StartJanitor(ctx)
}

// ---- pipeline (tempo de requisição) ----

// Middleware devolve o pipeline completo do gateway envolvendo `next` (o
// handler de serviço default, tipicamente um reverse proxy).
func (g *Gateway) Middleware(next http.Handler) http.Handler {
	pipeline := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.cfg.Security.SSLRedirect && r.TLS == nil &&
			!strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
			u := *r.URL
			u.Scheme = "https"
			u.Host = r.Host
			http.Redirect(w, r, u.String(), http.StatusMovedPermanently)
			return
		}

		path := r.URL.Path
		rw := newResponseInterceptor(w, g.respTr, path)

		version := ""
		if g.versions != nil {
			version = g.versions.Extract(path, r.Header, r.URL.Query())
			if g.versions.IsDeprecated(version) {
				rw.Header().Set("Deprecation", "true")
			}
		}

		// rota não encontrada é resultado normal, não erro de gateway
		route := g.routes.Resolve(path)
		if route == nil {
			g.countRejection("not_found")
			rw.WriteHeader(http.StatusNotFound)
			return
		}
		if !route.Allows(r.Method) {
			g.countRejection("method_not_allowed")
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if g.metrics != nil {
			g.metrics.RequestsTotal.WithLabelValues(route.Service).Inc()
		}

		if g.limiter != nil {
			key := g.keyFn(r)
			dec := g.limiter.CheckLimit(r.Context(), key, path)
			ratelimit.SetDecisionHeaders(rw.Header(), dec)
			g.recordStats(r, key, dec.Allowed)
			if g.metrics != nil {
				result := "allowed"
				if !dec.Allowed {
					result = "denied"
				}
				g.metrics.RateLimitDecisions.WithLabelValues(result).Inc()
			}
			if !dec.Allowed {
				retry := int(time.Until(dec.ResetAt).Seconds())
				if retry < 0 {
					retry = 0
				}
				rw.Header().Set("Retry-After", fmt.Sprintf("%d", retry))
				g.countRejection("rate_limited")
				rw.WriteHeader(http.StatusTooManyRequests)
				return
			}
		}

		if g.breaker != nil && !g.breaker.IsAvailable(path) {
			g.countRejection("circuit_open")
			rw.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		g.reqTr.Apply(r)

		if g.cfg.Security.MaskSensitiveData {
			g.log.Debug("request encaminhada",
				"method", r.Method,
				"path", path,
				"version", version,
				"trace_id", r.Header.Get(transform.HeaderTraceID),
				"headers", transform.MaskHeaders(r.Header))
		}

		h := next
		if route.Handler != nil {
			h = route.Handler
		}
		h.ServeHTTP(rw, r)
		rw.finish()

		// exatamente um outcome por chamada admitida, depois que ela conclui —
		// mesmo se o contexto do cliente já tiver sido cancelado
		if g.breaker != nil {
			if rw.Status() >= 500 {
				g.breaker.RecordFailure(path)
			} else {
				g.breaker.RecordSuccess(path)
			}
		}
	})

	if g.cfg.Concurrency.Max > 0 {
		return ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
			Max:            g.cfg.Concurrency.Max,
			AcquireTimeout: g.cfg.Concurrency.AcquireTimeout,
		})(pipeline)
	}
	return pipeline
}

func (g *Gateway) countRejection(reason string) {
	if g.metrics != nil {
		g.metrics.Rejections.WithLabelValues(reason).Inc()
	}
}

func (g *Gateway) recordStats(r *http.Request, key string, allowed bool) {
	if g.stats == nil {
		return
	}
	_ = g.stats.Record(r.Context(), domain.StatsEvent{
		Key:     domain.Key(key),
		Allowed: allowed,
		Method:  r.Method,
		Path:    r.URL.Path,
		At:      time.Now(),
	})
}
