package application

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"api-gateway/middleware/ratelimit/domain"

	"golang.org/x/time/rate"
)

// Service concentra a regra de aplicação do rate limit.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma Decision.
//
// Backend: se um store distribuído estiver configurado, a checagem tenta ele
// primeiro; qualquer erro degrada para o store local NAQUELA checagem (logado
// com throttle, nunca propagado ao chamador). É uma troca deliberada de
// consistência por disponibilidade: sob falha parcial do Redis, cada
// instância do gateway aplica o limite de forma independente.
type Service struct {
	mu    sync.RWMutex
	rules []domain.Rule

	def         domain.Rule
	distributed domain.CounterStore
	local       domain.CounterStore

	log      *slog.Logger
	degraded rate.Sometimes
}

type Option func(*Service)

// WithDistributedStore habilita o backend distribuído (Redis).
func WithDistributedStore(store domain.CounterStore) Option {
	return func(s *Service) { s.distributed = store }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// NewService cria o serviço com a regra default (aplicada quando nenhum
// prefixo casa) e o store local de fallback.
func NewService(def domain.Rule, local domain.CounterStore, opts ...Option) (*Service, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	s := &Service{
		def:      def,
		local:    local,
		log:      slog.Default(),
		degraded: rate.Sometimes{Interval: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RegisterRule registra uma regra por prefixo de path. Regras malformadas são
// rejeitadas aqui, em tempo de configuração.
func (s *Service) RegisterRule(r domain.Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.rules = append(s.rules, r)
	s.mu.Unlock()
	return nil
}

// RuleFor resolve a regra aplicável: scan na ordem de registro, a primeira
// cujo prefixo casa vence; sem match, vale a regra default.
func (s *Service) RuleFor(path string) domain.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rules {
		if hasPrefix(path, r.PathPrefix) {
			return r
		}
	}
	return s.def
}

// Rules retorna um snapshot das regras registradas (introspecção).
func (s *Service) Rules() []domain.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// DefaultRule retorna a regra default.
func (s *Service) DefaultRule() domain.Rule { return s.def }

// CheckLimit decide a admissão para (clientKey, path). O escopo do contador é
// por cliente E por endpoint: key = clientKey + ":" + path.
func (s *Service) CheckLimit(ctx context.Context, clientKey, path string) domain.Decision {
	rule := s.RuleFor(path)
	key := domain.Key(clientKey + ":" + path)

	if s.distributed != nil {
		count, resetAt, err := s.distributed.Incr(ctx, key, rule.Limit, rule.Period)
		if err == nil {
			return decide(rule, count, resetAt)
		}
		s.degraded.Do(func() {
			s.log.Warn("contador distribuído indisponível, usando fallback local",
				"err", err)
		})
	}

	count, resetAt, _ := s.local.Incr(ctx, key, rule.Limit, rule.Period)
	return decide(rule, count, resetAt)
}

func decide(rule domain.Rule, count int, resetAt time.Time) domain.Decision {
	remaining := rule.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	return domain.Decision{
		Allowed:   count <= rule.Limit,
		Limit:     rule.Limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}

func hasPrefix(path, prefix string) bool {
	return prefix != "" && strings.HasPrefix(path, prefix)
}
