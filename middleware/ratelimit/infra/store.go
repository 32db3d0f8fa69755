package infra

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"api-gateway/middleware/ratelimit/domain"
)

const numShards = 64

// MemoryStore é a implementação local de janela fixa, usada como fallback
// quando o store distribuído está indisponível (ou como único backend em
// modo standalone).
//
// O estado é particionado em shards com um mutex cada, para que chaves
// diferentes não disputem o mesmo lock. Janelas vencidas são removidas pelo
// janitor (StartJanitor) para manter o mapa limitado mesmo com muitos
// clientes distintos.
type MemoryStore struct {
	shards       [numShards]storeShard
	now          func() time.Time
	cleanupEvery time.Duration
}

type storeShard struct {
	mu      sync.Mutex
	windows map[domain.Key]*window
}

type window struct {
	count   int
	resetAt time.Time
}

type MemoryStoreOption func(*MemoryStore)

// WithNow injeta o relógio (testes).
func WithNow(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) { s.now = now }
}

func WithCleanupEvery(d time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) { s.cleanupEvery = d }
}

func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		now:          time.Now,
		cleanupEvery: 2 * time.Minute,
	}
	for i := range s.shards {
		s.shards[i].windows = make(map[domain.Key]*window)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Incr implementa domain.CounterStore.
//
// Se a janela venceu (now > resetAt), ela é zerada antes de avaliar. O
// incremento só acontece se o count pré-incremento estava abaixo do limite:
// a janela admite exatamente `limit` requests e a (limit+1)-ésima é negada
// sem inflar o contador. Para sinalizar a negação, o count observado
// retornado é limit+1.
func (s *MemoryStore) Incr(_ context.Context, key domain.Key, limit int, period time.Duration) (int, time.Time, error) {
	now := s.now()
	sh := s.shard(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	w, ok := sh.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(period)}
		sh.windows[key] = w
	}

	if w.count < limit {
		w.count++
		return w.count, w.resetAt, nil
	}
	return w.count + 1, w.resetAt, nil
}

func (s *MemoryStore) shard(key domain.Key) *storeShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &s.shards[h.Sum32()%numShards]
}

// ActiveKeys conta as janelas ainda vigentes (métrica de clientes ativos).
func (s *MemoryStore) ActiveKeys() int {
	now := s.now()
	total := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for _, w := range sh.windows {
			if !now.After(w.resetAt) {
				total++
			}
		}
		sh.mu.Unlock()
	}
	return total
}

// Cleanup remove janelas já vencidas.
func (s *MemoryStore) Cleanup() {
	now := s.now()
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for k, w := range sh.windows {
			if now.After(w.resetAt) {
				delete(sh.windows, k)
			}
		}
		sh.mu.Unlock()
	}
}

// StartJanitor inicia uma goroutine que remove janelas vencidas periodicamente.
// Pare cancelando o contexto.
func (s *MemoryStore) StartJanitor(ctx DoneContext) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}

// DoneContext é o mínimo necessário para aceitar context.Context sem importar context aqui.
// (Permite reuso em libs sem acoplar.)
type DoneContext interface {
	Done() <-chan struct{}
}
