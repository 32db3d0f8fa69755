// Package transform aplica mutações de request/response na borda do gateway.
//
// Duas fases:
//
//   - default (sempre): timestamp do gateway e trace-id na request; header de
//     versão, security headers, CORS e envelope de erro JSON na response.
//     Masking de headers sensíveis é oferecido como cópia para logging
//     (MaskHeaders) — o valor vivo segue para o backend.
//   - por path: regras registradas no Registry (headers aditivos e sinalização
//     de adaptação de protocolo), casadas pelo path exato da request.
//
// Regras malformadas são uma preocupação de configuração: o registro é o
// único lugar onde entram, e a aplicação em si é reescrita pura de headers.
package transform
