package infra

import (
	"context"
	"strings"
	"time"

	"api-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStore implementa domain.CounterStore sobre um Redis compartilhado
// entre instâncias do gateway.
//
// A receita é INCR + EXPIRE condicional + TTL: o INCR é atômico no servidor,
// então não há locking do lado do cliente. Toda chamada é limitada por um
// timeout curto — se o Redis falhar ou demorar, o chamador degrada para o
// contador local daquela checagem (uma vez, sem retry).
type RedisStore struct {
	rdb     *redis.Client
	prefix  string
	timeout time.Duration
	now     func() time.Time
}

type RedisStoreOption func(*RedisStore)

func WithRedisPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) { s.prefix = strings.Trim(prefix, ":") }
}

func WithRedisTimeout(d time.Duration) RedisStoreOption {
	return func(s *RedisStore) { s.timeout = d }
}

func WithRedisNow(now func() time.Time) RedisStoreOption {
	return func(s *RedisStore) { s.now = now }
}

func NewRedisStore(rdb *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		rdb:     rdb,
		prefix:  "ratelimit:counter",
		timeout: 250 * time.Millisecond,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Incr implementa domain.CounterStore.
func (s *RedisStore) Incr(ctx context.Context, key domain.Key, limit int, period time.Duration) (int, time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	k := s.prefix + ":" + string(key)

	count, err := s.rdb.Incr(ctx, k).Result()
	if err != nil {
		return 0, time.Time{}, err
	}
	if count == 1 {
		// primeira request da janela define a expiração
		if err := s.rdb.Expire(ctx, k, period).Err(); err != nil {
			return 0, time.Time{}, err
		}
	}

	ttl, err := s.rdb.TTL(ctx, k).Result()
	if err != nil {
		return 0, time.Time{}, err
	}
	if ttl < 0 {
		// chave sem TTL (EXPIRE perdido numa janela anterior); trata como
		// janela recém-aberta para não negar para sempre
		ttl = period
	}

	return int(count), s.now().Add(ttl), nil
}
