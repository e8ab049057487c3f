// Package store is the in-memory saga record repository behind sagastore and
// its HTTP surface.
package store

import (
	"sync"

	"github.com/google/uuid"
)

// SagaRequest is the configuration a client submits for a saga.
type SagaRequest struct {
	Target    string   `json:"target"`
	TargetID  string   `json:"target_id"`
	TargetRef []string `json:"target_ref"`
	Timeout   *string  `json:"timeout"`
	InOrder   *bool    `json:"in_order"`
}

type Saga struct {
	ID uuid.UUID `json:"id"`
}

// Record pairs a stored saga with the configuration it was created from.
type Record struct {
	Saga   Saga        `json:"saga"`
	Config SagaRequest `json:"config"`
}

// Store keeps records in insertion order. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	records map[uuid.UUID]SagaRequest
	order   []uuid.UUID
}

func New() *Store {
	return &Store{records: make(map[uuid.UUID]SagaRequest)}
}

// Insert stores req under a new random (v4) UUID and returns it.
func (s *Store) Insert(req SagaRequest) uuid.UUID {
	id := uuid.New()
	req.TargetRef = append([]string(nil), req.TargetRef...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = req
	s.order = append(s.order, id)
	return id
}

// ListAll returns a copy of every record, oldest first.
func (s *Store) ListAll() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.order))
	for _, id := range s.order {
		cfg := s.records[id]
		cfg.TargetRef = append([]string(nil), cfg.TargetRef...)
		out = append(out, Record{Saga: Saga{ID: id}, Config: cfg})
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
