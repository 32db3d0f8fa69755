package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"context"
	"errors"
	"time"
)

type Key string

// Rule é uma regra de janela fixa associada a um prefixo de path.
//
// A resolução entre regras é por scan na ordem de registro: a PRIMEIRA regra
// registrada cujo PathPrefix é prefixo do path vence (não é longest-match).
// Essa semântica é proposital e está fixada por teste na camada application.
type Rule struct {
	PathPrefix string
	Limit      int
	Period     time.Duration
}

var (
	ErrInvalidLimit  = errors.New("ratelimit: limit deve ser > 0")
	ErrInvalidPeriod = errors.New("ratelimit: period deve ser > 0")
)

// Validate rejeita regras malformadas no momento do registro.
// Erro de configuração nunca chega ao caminho da requisição.
func (r Rule) Validate() error {
	if r.Limit <= 0 {
		return ErrInvalidLimit
	}
	if r.Period <= 0 {
		return ErrInvalidPeriod
	}
	return nil
}

// Decision é o resultado de uma checagem de admissão.
//
// Quando bloqueado, Limit/Remaining/ResetAt carregam o suficiente para o
// chamador montar uma resposta 429 com os headers padrão de rate limit.
// Negar não é erro: é um resultado normal do domínio.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// CounterStore incrementa o contador de janela fixa de uma chave.
//
// Contrato: count é o valor observado por ESTA tentativa (count > limit
// significa negado) e resetAt é o fim da janela corrente. A implementação
// deve ser atômica por chave: duas goroutines checando a mesma chave nunca
// podem observar o mesmo count.
//
// Implementações: janela em memória (infra.MemoryStore) e Redis com
// INCR/EXPIRE/TTL (infra.RedisStore).
type CounterStore interface {
	Incr(ctx context.Context, key Key, limit int, period time.Duration) (count int, resetAt time.Time, err error)
}
