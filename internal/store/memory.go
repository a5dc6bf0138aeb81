// Package store keeps recent upstream health-probe results in memory.
// It never holds weather or risk data.
package store

import (
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when no probe has run yet for an upstream.
	ErrNotFound = errors.New("no probe results for upstream")
)

// ProbeResult is the outcome of one liveness check against an upstream.
type ProbeResult struct {
	Upstream  string        `json:"upstream"`
	OK        bool          `json:"ok"`
	Error     string        `json:"error,omitempty"`
	Latency   time.Duration `json:"-"`
	LatencyMS int64         `json:"latency_ms"`
	CheckedAt time.Time     `json:"checked_at"`
}

// ProbeHistory holds a time-ordered list of results for one upstream.
type ProbeHistory struct {
	Results []ProbeResult
}

// MemoryStore is a concurrency-safe in-memory probe history.
type MemoryStore struct {
	mu sync.RWMutex

	// key: upstream name
	data map[string]*ProbeHistory

	maxHistory int // max results per upstream; <= 0 means unlimited
}

// NewMemoryStore creates a new MemoryStore keeping at most maxHistory results per upstream.
func NewMemoryStore(maxHistory int) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*ProbeHistory),
		maxHistory: maxHistory,
	}
}

// Save appends a result and enforces retention.
func (s *MemoryStore) Save(result ProbeResult) {
	result.LatencyMS = result.Latency.Milliseconds()

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[result.Upstream]
	if !ok {
		history = &ProbeHistory{}
		s.data[result.Upstream] = history
	}

	history.Results = append(history.Results, result)

	if s.maxHistory > 0 && len(history.Results) > s.maxHistory {
		over := len(history.Results) - s.maxHistory
		history.Results = history.Results[over:]
	}
}

// Latest returns the most recent result for an upstream.
func (s *MemoryStore) Latest(upstream string) (ProbeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[upstream]
	if !ok || len(history.Results) == 0 {
		return ProbeResult{}, ErrNotFound
	}
	return history.Results[len(history.Results)-1], nil
}

// History returns a copy of all retained results for an upstream, oldest first.
func (s *MemoryStore) History(upstream string) ([]ProbeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[upstream]
	if !ok || len(history.Results) == 0 {
		return nil, ErrNotFound
	}
	out := make([]ProbeResult, len(history.Results))
	copy(out, history.Results)
	return out, nil
}

// LatestAll returns the most recent result per upstream, sorted by upstream name.
func (s *MemoryStore) LatestAll() []ProbeResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ProbeResult, 0, len(s.data))
	for _, history := range s.data {
		if len(history.Results) > 0 {
			out = append(out, history.Results[len(history.Results)-1])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Upstream < out[j].Upstream })
	return out
}
