package store

import (
	"math"
	"sync"

	"github.com/rzzdr/options-risk-engine/pkg/utils/errors"
	"github.com/rzzdr/options-risk-engine/pkg/utils/logger"
)

// BetaStore holds runtime beta-coefficient overrides. It is populated
// out-of-band (HTTP) and read by the snapshot loop; the engine itself only
// ever sees an immutable copy per cycle.
type BetaStore struct {
	overrides map[string]float64
	mu        sync.RWMutex
	log       *logger.Logger
}

// NewBetaStore creates an empty beta-override store
func NewBetaStore() *BetaStore {
	return &BetaStore{
		overrides: make(map[string]float64),
		log:       logger.GetLogger("store.betas"),
	}
}

// Set stores an override for a symbol
func (s *BetaStore) Set(symbol string, beta float64) error {
	if symbol == "" {
		return errors.InvalidArgument("symbol cannot be empty")
	}
	if math.IsNaN(beta) || math.IsInf(beta, 0) {
		return errors.InvalidArgument("beta must be finite")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.overrides[symbol] = beta
	s.log.Infof("Beta override set: %s = %.3f", symbol, beta)
	return nil
}

// Get returns the override for a symbol
func (s *BetaStore) Get(symbol string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	beta, ok := s.overrides[symbol]
	if !ok {
		return 0, errors.NotFound("no beta override for " + symbol)
	}
	return beta, nil
}

// Delete removes the override for a symbol
func (s *BetaStore) Delete(symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.overrides[symbol]; !ok {
		return errors.NotFound("no beta override for " + symbol)
	}
	delete(s.overrides, symbol)
	return nil
}

// Snapshot returns a copy of all overrides for one engine cycle
func (s *BetaStore) Snapshot() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.overrides) == 0 {
		return nil
	}
	out := make(map[string]float64, len(s.overrides))
	for k, v := range s.overrides {
		out[k] = v
	}
	return out
}
