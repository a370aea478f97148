package audit

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"procur/internal/types"
)

// MemorySink receives finalized negotiation memories for persistence.
type MemorySink interface {
	WriteMemory(ctx context.Context, m types.NegotiationMemory) error
}

// memoryShard is the per-(request, vendor) memory record with its own lock.
type memoryShard struct {
	mu  sync.Mutex
	mem types.NegotiationMemory
}

// MemoryStore holds structured candidate/decision memory keyed by
// (request, vendor), append-only during a run.
type MemoryStore struct {
	mu     sync.RWMutex
	shards map[trailKey]*memoryShard
	sink   MemorySink
}

// NewMemoryStore creates a memory store. sink may be nil.
func NewMemoryStore(sink MemorySink) *MemoryStore {
	return &MemoryStore{shards: make(map[trailKey]*memoryShard), sink: sink}
}

func (m *MemoryStore) shard(requestID, vendorID string) *memoryShard {
	k := trailKey{requestID, vendorID}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shards[k]
	if !ok {
		s = &memoryShard{mem: types.NegotiationMemory{RequestID: requestID, VendorID: vendorID}}
		m.shards[k] = s
	}
	return s
}

// Start registers the scenario tags for a negotiation.
func (m *MemoryStore) Start(requestID, vendorID string, tags []string) {
	s := m.shard(requestID, vendorID)
	s.mu.Lock()
	s.mem.ScenarioTags = append([]string(nil), tags...)
	s.mu.Unlock()
}

// RecordRound appends a round memory.
func (m *MemoryStore) RecordRound(rm types.RoundMemory) {
	s := m.shard(rm.RequestID, rm.VendorID)
	s.mu.Lock()
	s.mem.Rounds = append(s.mem.Rounds, rm)
	s.mu.Unlock()
}

// Finalize sets the outcome and savings and flushes to the sink.
func (m *MemoryStore) Finalize(ctx context.Context, requestID, vendorID, outcome string, savings float64) error {
	s := m.shard(requestID, vendorID)
	s.mu.Lock()
	s.mem.Outcome = outcome
	s.mem.Savings = savings
	snapshot := s.mem
	s.mu.Unlock()

	if m.sink != nil {
		if err := m.sink.WriteMemory(ctx, snapshot); err != nil {
			return fmt.Errorf("memory sink: %w", err)
		}
	}
	return nil
}

// Get returns a copy of the memory for one vendor.
func (m *MemoryStore) Get(requestID, vendorID string) (types.NegotiationMemory, bool) {
	m.mu.RLock()
	s, ok := m.shards[trailKey{requestID, vendorID}]
	m.mu.RUnlock()
	if !ok {
		return types.NegotiationMemory{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mem, true
}

// ExportByRequest returns all memories for a request, sorted by vendor id.
func (m *MemoryStore) ExportByRequest(requestID string) []types.NegotiationMemory {
	m.mu.RLock()
	var out []types.NegotiationMemory
	for k, s := range m.shards {
		if k.requestID != requestID {
			continue
		}
		s.mu.Lock()
		out = append(out, s.mem)
		s.mu.Unlock()
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].VendorID < out[j].VendorID })
	return out
}

// All returns every memory in the store (used to seed retrieval between runs).
func (m *MemoryStore) All() []types.NegotiationMemory {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []types.NegotiationMemory
	for _, s := range m.shards {
		s.mu.Lock()
		out = append(out, s.mem)
		s.mu.Unlock()
	}
	return out
}
