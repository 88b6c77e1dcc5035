package sink

import (
	"context"

	"github.com/rzzdr/options-risk-engine/pkg/models"
	"github.com/rzzdr/options-risk-engine/pkg/utils/logger"
)

// Sink receives the records of one completed cycle. The engine only produces
// results; where they go (file, message stream, websocket clients) is
// entirely the sink's business.
type Sink interface {
	Name() string
	Emit(ctx context.Context, res *models.CycleResult) error
	Close() error
}

// Multi fans one cycle result out to several sinks. A failing sink is logged
// and skipped so that one slow or broken destination never loses the cycle
// for the others.
type Multi struct {
	sinks []Sink
	log   *logger.Logger

	// OnError, when set, is invoked with the name of every sink whose
	// emission failed.
	OnError func(name string)
}

// NewMulti creates a fanout over the given sinks
func NewMulti(sinks ...Sink) *Multi {
	return &Multi{
		sinks: sinks,
		log:   logger.GetLogger("sink.multi"),
	}
}

// Name identifies the fanout itself
func (m *Multi) Name() string {
	return "multi"
}

// Emit forwards the result to every sink, returning the first error seen
func (m *Multi) Emit(ctx context.Context, res *models.CycleResult) error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Emit(ctx, res); err != nil {
			m.log.Errorf("Sink %s emit failed: %v", s.Name(), err)
			if m.OnError != nil {
				m.OnError(s.Name())
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Close closes all sinks
func (m *Multi) Close() error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
