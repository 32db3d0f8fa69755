// Package circuitbreaker implementa um circuit breaker por path.
//
// Cada path configurado tem uma FSM independente:
//
//	CLOSED ──(failures >= threshold)──► OPEN
//	OPEN ──(recovery time decorrido, na checagem)──► HALF_OPEN
//	HALF_OPEN ──(sucesso)──► CLOSED
//	HALF_OPEN ──(falha)──► OPEN
//
// A transição OPEN→HALF_OPEN acontece como efeito colateral de IsAvailable,
// não via timer em background. Paths sem configuração são sempre disponíveis.
package circuitbreaker
