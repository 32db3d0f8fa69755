// Package ratelimit fornece adapters HTTP (net/http) para controle de admissão:
// rate limit de janela fixa por (cliente, path) e limite de concorrência.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (decisão allow/deny com fallback, acquire/timeout)
//   - infra: implementações concretas (janela fixa em memória, Redis, semáforo)
//   - ratelimit (este pacote): middlewares HTTP + extração de chave + tradução
//     para status/headers (429, X-RateLimit-*, Retry-After)
//
// Fluxo:
//
//  1. Extrai a chave do cliente (IP/header/XFF)
//  2. Chama a camada application: escopo do contador é clientKey + ":" + path
//  3. Se bloqueado, responde 429 com X-RateLimit-Limit/Remaining/Reset
//  4. Se permitido, chama o próximo handler
//
// A resolução de regras é por PRIMEIRO prefixo registrado que casa, não por
// longest-match. É a semântica histórica do sistema; mudar silenciosamente
// quebraria configurações que dependem da ordem de registro.
package ratelimit
