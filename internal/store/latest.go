package store

import (
	"sync"

	"github.com/rzzdr/options-risk-engine/pkg/models"
	"github.com/rzzdr/options-risk-engine/pkg/utils/errors"
)

// LatestStore keeps the most recent cycle result for the API to serve.
// Results are replaced wholesale, never mutated in place.
type LatestStore struct {
	result *models.CycleResult
	mu     sync.RWMutex
}

// NewLatestStore creates an empty latest-result store
func NewLatestStore() *LatestStore {
	return &LatestStore{}
}

// Set replaces the stored cycle result
func (s *LatestStore) Set(res *models.CycleResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = res
}

// Get returns the latest cycle result
func (s *LatestStore) Get() (*models.CycleResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.result == nil {
		return nil, errors.NotFound("no cycle has completed yet")
	}
	return s.result, nil
}
