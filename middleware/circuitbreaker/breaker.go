package circuitbreaker

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// State é o estado da FSM de um path.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	}
	return "UNKNOWN"
}

// Config é a configuração imutável do breaker de um path.
type Config struct {
	Path             string
	FailureThreshold int
	RecoveryTime     time.Duration
}

var (
	ErrInvalidThreshold = errors.New("circuitbreaker: failure threshold deve ser > 0")
	ErrInvalidRecovery  = errors.New("circuitbreaker: recovery time deve ser > 0")
)

func (c Config) validate() error {
	if c.FailureThreshold <= 0 {
		return ErrInvalidThreshold
	}
	if c.RecoveryTime <= 0 {
		return ErrInvalidRecovery
	}
	return nil
}

// entry é o único registro mutável por path. Todas as transições acontecem
// dentro do lock da entry — uma seção crítica por path, não um lock global.
type entry struct {
	mu            sync.Mutex
	cfg           Config
	state         State
	failureCount  int
	successCount  int
	lastFailureAt time.Time
}

// Breaker mantém uma FSM CLOSED/OPEN/HALF_OPEN independente por path.
//
// Paths sem configuração registrada são sempre disponíveis (default-allow).
// O breaker é agnóstico quanto ao que conta como falha: quem chama decide
// (status não-2xx, timeout, erro de conexão) e reporta exatamente um outcome
// por chamada admitida, depois que ela conclui.
type Breaker struct {
	mu      sync.RWMutex
	entries map[string]*entry

	now func() time.Time
	log *slog.Logger
}

type Option func(*Breaker)

// WithNow injeta o relógio (testes).
func WithNow(now func() time.Time) Option {
	return func(b *Breaker) { b.now = now }
}

func WithLogger(log *slog.Logger) Option {
	return func(b *Breaker) { b.log = log }
}

func New(opts ...Option) *Breaker {
	b := &Breaker{
		entries: make(map[string]*entry),
		now:     time.Now,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Configure registra (ou substitui) o breaker de um path. Valores
// não-positivos são erro de configuração, rejeitado aqui e nunca no caminho
// da requisição.
func (b *Breaker) Configure(cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	b.mu.Lock()
	b.entries[cfg.Path] = &entry{cfg: cfg, state: StateClosed}
	b.mu.Unlock()
	return nil
}

func (b *Breaker) entryFor(path string) *entry {
	b.mu.RLock()
	e := b.entries[path]
	b.mu.RUnlock()
	return e
}

// IsAvailable informa se chamadas ao path estão admitidas.
//
// Efeito colateral: quando o circuito está OPEN e a janela de recuperação já
// passou, a própria checagem transiciona para HALF_OPEN e admite a chamada
// como probe. A transição acontece dentro do lock da entry, então só a
// primeira goroutine que observa a janela vencida muda o estado; as demais já
// encontram HALF_OPEN.
func (b *Breaker) IsAvailable(path string) bool {
	e := b.entryFor(path)
	if e == nil {
		return true
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if b.now().Sub(e.lastFailureAt) >= e.cfg.RecoveryTime {
			e.state = StateHalfOpen
			b.log.Info("circuito em teste de recuperação",
				"path", path, "state", e.state.String())
			return true
		}
		return false
	}
	return true
}

// RecordSuccess reporta o sucesso de uma chamada concluída.
func (b *Breaker) RecordSuccess(path string) {
	e := b.entryFor(path)
	if e == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.successCount++
	if e.state == StateHalfOpen {
		e.failureCount = 0
		e.state = StateClosed
		b.log.Info("circuito fechado após probe com sucesso", "path", path)
	}
}

// RecordFailure reporta a falha de uma chamada concluída.
func (b *Breaker) RecordFailure(path string) {
	e := b.entryFor(path)
	if e == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.failureCount++
	e.lastFailureAt = b.now()

	switch e.state {
	case StateClosed:
		if e.failureCount >= e.cfg.FailureThreshold {
			e.state = StateOpen
			b.log.Warn("circuito aberto por excesso de falhas",
				"path", path, "failures", e.failureCount,
				"threshold", e.cfg.FailureThreshold)
		}
	case StateHalfOpen:
		// probe falhou: reabre imediatamente; a próxima tentativa de
		// recuperação conta a partir desta falha
		e.state = StateOpen
		b.log.Warn("probe falhou, circuito reaberto", "path", path)
	}
}

// StateOf expõe o estado corrente (introspecção/testes). ok=false quando o
// path não tem breaker configurado.
func (b *Breaker) StateOf(path string) (State, bool) {
	e := b.entryFor(path)
	if e == nil {
		return StateClosed, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, true
}

// PathMetrics é a visão read-only de um path para observabilidade.
type PathMetrics struct {
	Path             string
	State            string
	FailureCount     int
	SuccessCount     int
	FailureThreshold int
	RecoveryTime     time.Duration
}

// Metrics retorna um snapshot de todos os paths configurados.
func (b *Breaker) Metrics() []PathMetrics {
	b.mu.RLock()
	entries := make([]*entry, 0, len(b.entries))
	for _, e := range b.entries {
		entries = append(entries, e)
	}
	b.mu.RUnlock()

	out := make([]PathMetrics, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, PathMetrics{
			Path:             e.cfg.Path,
			State:            e.state.String(),
			FailureCount:     e.failureCount,
			SuccessCount:     e.successCount,
			FailureThreshold: e.cfg.FailureThreshold,
			RecoveryTime:     e.cfg.RecoveryTime,
		})
		e.mu.Unlock()
	}
	return out
}
