// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - MemoryStore: janela fixa por chave em memória, com shards de mutex e janitor
//   - RedisStore: contador distribuído via INCR/EXPIRE/TTL (go-redis)
//   - RedisStatsStore/MemoryStatsStore: estatísticas de admissão
//   - ChanPool: semáforo simples para limite de concorrência
package infra
