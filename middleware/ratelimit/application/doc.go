// Package application contém os casos de uso (regras de aplicação) para rate limit
// e limite de concorrência.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.CheckLimit(ctx, clientKey, path) retorna uma Decision
// (allow/deny + limit/remaining/reset), escolhendo entre o contador
// distribuído e o fallback local.
package application
