// Package apiversion resolve a versão de API de uma requisição.
//
// Quatro estratégias, uma ativa por vez (definida na construção):
//
//   - url_path:     /v2/clientes           → "2"
//   - query_param:  ?version=2             → "2"
//   - header:       X-API-Version: 2       → "2"
//   - content_type: application/vnd.api.v2+json → "2"
//
// Falha de extração cai na versão default. O pacote também mantém o registro
// de versões suportadas (descrição, deprecated, endpoints por versão).
package apiversion
