// Package application contém os casos de uso do days-api.
//
// Depende apenas do pacote domain e não conhece net/http:
//   - DateService: valida valores crus e aplica a aritmética de datas
//   - HistoryService: janela de leitura, registro com relógio injetado e observers
//   - Admission/Slots: decisão de rate limit e aquisição de vaga com timeout
package application
