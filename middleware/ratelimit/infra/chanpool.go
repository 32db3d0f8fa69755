package infra

import (
	"context"

	"api-gateway/middleware/ratelimit/domain"
)

// chanPool é um semáforo de capacidade fixa sobre um channel bufferizado.
// Aquisição e liberação custam um send/receive; não há mutex nem contagem
// separada para ficar fora de sincronia.
type chanPool struct {
	sem chan struct{}
}

// NewChanPool cria um pool com `max` vagas.
func NewChanPool(max int) domain.SlotPool {
	return &chanPool{sem: make(chan struct{}, max)}
}

// Acquire bloqueia até conseguir uma vaga ou o contexto cancelar.
func (p *chanPool) Acquire(ctx context.Context) (func(), bool) {
	select {
	case p.sem <- struct{}{}:
		return func() { <-p.sem }, true
	case <-ctx.Done():
		return nil, false
	}
}
