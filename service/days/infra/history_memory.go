package infra

import (
	"sync"

	"days-api/service/days/domain"
)

// MemoryHistory guarda o histórico em um slice que só cresce.
// Não há limite de tamanho; Clear é a única forma de liberar memória.
type MemoryHistory struct {
	mu   sync.Mutex
	recs []domain.HistoryRecord
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{}
}

func (h *MemoryHistory) Append(rec domain.HistoryRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recs = append(h.recs, rec)
}

// Recent devolve uma cópia dos primeiros min(n, Len()) registros, na ordem de
// inserção. n <= 0 devolve slice vazio.
func (h *MemoryHistory) Recent(n int) []domain.HistoryRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n > len(h.recs) {
		n = len(h.recs)
	}
	if n < 0 {
		n = 0
	}
	out := make([]domain.HistoryRecord, n)
	copy(out, h.recs[:n])
	return out
}

// Clear esvazia o histórico mantendo a capacidade alocada.
func (h *MemoryHistory) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	clear(h.recs)
	h.recs = h.recs[:0]
}

func (h *MemoryHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.recs)
}
