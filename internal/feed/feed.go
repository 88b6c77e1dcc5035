package feed

import (
	"context"

	"github.com/rzzdr/options-risk-engine/pkg/models"
)

// Source supplies one coherent position/quote snapshot per engine cycle.
// The brokerage gateway publishing these snapshots lives outside this
// repository; the engine only requires that each snapshot was captured
// within a bounded time window.
type Source interface {
	// Next blocks until a snapshot is available or the context is canceled
	Next(ctx context.Context) (*models.Snapshot, error)
	Close() error
}
