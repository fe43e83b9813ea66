// Package days expõe o days-api via net/http.
//
// Visão geral (camadas):
//
//   - domain: datas, histórico e contratos (sem dependência de net/http)
//   - application: casos de uso (validação, janela do histórico, admissão)
//   - infra: histórico em memória, estatísticas (memória/Redis), token bucket, semáforo
//   - days (este pacote): handlers JSON, middlewares e tradução de erros para status
//
// Fluxo de uma requisição:
//
//  1. Request id e access log
//  2. Limite de concorrência (503) e rate limit por cliente (429)
//  3. Validação e cálculo na camada application
//  4. Registro no histórico (+ estatísticas best-effort)
//  5. Resposta JSON; erros de entrada viram 400 com {"error": "..."}
package days
