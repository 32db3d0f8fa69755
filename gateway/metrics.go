package gateway

import (
	"github.com/prometheus/client_golang/prometheus"

	"api-gateway/middleware/apiversion"
	"api-gateway/middleware/circuitbreaker"
	"api-gateway/middleware/ratelimit/domain"
	"api-gateway/middleware/routing"
)

// Metrics agrega os contadores prometheus do gateway.
type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	RateLimitDecisions *prometheus.CounterVec
	Rejections         *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "requests",
				Name:      "total",
				Help:      "Requests que entraram no pipeline, por serviço resolvido",
			},
			[]string{"service"},
		),
		RateLimitDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "ratelimit",
				Name:      "decisions_total",
				Help:      "Decisões de admissão do rate limiter",
			},
			[]string{"result"},
		),
		Rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "requests",
				Name:      "rejected_total",
				Help:      "Requests rejeitadas antes do backend, por motivo",
			},
			[]string{"reason"},
		),
	}
}

// Register registra todos os coletores no Registerer informado.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.RequestsTotal,
		m.RateLimitDecisions,
		m.Rejections,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot é a superfície read-only de introspecção do gateway: configuração
// efetiva de rate limit e clientes ativos, breakers por path, tabela de rotas
// com hits e registro de versões com endpoints.
type Snapshot struct {
	RateLimit      RateLimitSnapshot            `json:"rateLimit"`
	CircuitBreaker []circuitbreaker.PathMetrics `json:"circuitBreaker"`
	Routes         []routing.RouteInfo          `json:"routes"`
	Versions       []apiversion.VersionInfo     `json:"versions"`
}

type RateLimitSnapshot struct {
	Enabled       bool          `json:"enabled"`
	DefaultRule   domain.Rule   `json:"defaultRule"`
	Rules         []domain.Rule `json:"rules"`
	ActiveClients int           `json:"activeClients"`
}

// Snapshot coleta a visão corrente sem mutar nenhum contador.
func (g *Gateway) Snapshot() Snapshot {
	snap := Snapshot{
		Routes: g.routes.Routes(),
	}
	if g.limiter != nil {
		snap.RateLimit = RateLimitSnapshot{
			Enabled:       true,
			DefaultRule:   g.limiter.DefaultRule(),
			Rules:         g.limiter.Rules(),
			ActiveClients: g.local.ActiveKeys(),
		}
	}
	if g.breaker != nil {
		snap.CircuitBreaker = g.breaker.Metrics()
	}
	if g.versions != nil {
		snap.Versions = g.versions.Versions()
	}
	return snap
}
