// Package infra contém implementações concretas dos contratos do pacote domain.
//
//   - MemoryHistory: histórico em memória protegido por mutex
//   - MemoryStats / RedisStats: contadores por rota e recusas (RedisStats usa go-redis)
//   - LimiterStore: token bucket por cliente/rota usando golang.org/x/time/rate
package infra
