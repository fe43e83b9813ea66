package infra

import (
	"context"
	"maps"
	"sync"

	"days-api/service/days/domain"
)

// Snapshot é a fotografia dos contadores de MemoryStats.
type Snapshot struct {
	Total    int64            `json:"total"`
	ByRoute  map[string]int64 `json:"byRoute"`
	ByMethod map[string]int64 `json:"byMethod"`
	// Denied conta recusas do controle de admissão por motivo.
	Denied map[string]int64 `json:"denied"`
	// DeniedByRoute conta recusas por rota.
	DeniedByRoute map[string]int64 `json:"deniedByRoute"`
}

// MemoryStats conta registros do histórico por rota e método.
//
// Diferente do histórico, não zera no DELETE /history: conta tudo desde o start.
type MemoryStats struct {
	mu       sync.Mutex
	total    int64
	byRoute  map[string]int64
	byMethod map[string]int64

	denied        map[string]int64
	deniedByRoute map[string]int64
}

func NewMemoryStats() *MemoryStats {
	return &MemoryStats{
		byRoute:  make(map[string]int64),
		byMethod: make(map[string]int64),

		denied:        make(map[string]int64),
		deniedByRoute: make(map[string]int64),
	}
}

func (s *MemoryStats) Observe(_ context.Context, rec domain.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.byRoute[string(rec.Route)]++
	s.byMethod[rec.Method]++
	return nil
}

// ObserveDenial implementa domain.DenialObserver. Recusas não contam em Total.
func (s *MemoryStats) ObserveDenial(_ context.Context, d domain.Denial) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.denied[string(d.Reason)]++
	s.deniedByRoute[string(d.Route)]++
	return nil
}

func (s *MemoryStats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		Total:         s.total,
		ByRoute:       maps.Clone(s.byRoute),
		ByMethod:      maps.Clone(s.byMethod),
		Denied:        maps.Clone(s.denied),
		DeniedByRoute: maps.Clone(s.deniedByRoute),
	}
}
