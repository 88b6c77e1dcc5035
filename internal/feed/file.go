package feed

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/rzzdr/options-risk-engine/pkg/models"
	"github.com/rzzdr/options-risk-engine/pkg/utils/errors"
	"github.com/rzzdr/options-risk-engine/pkg/utils/logger"
)

// FileSource re-reads a snapshot JSON file on every call. Useful for dry
// runs and replaying a captured snapshot against the engine; edits to the
// file show up on the next cycle.
type FileSource struct {
	path string
	log  *logger.Logger
}

// NewFile creates a file-backed snapshot source
func NewFile(path string) (*FileSource, error) {
	if path == "" {
		return nil, errors.InvalidArgument("file source requires a path")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "snapshot file %s not readable", path)
	}
	return &FileSource{
		path: path,
		log:  logger.GetLogger("feed.file").With("path", path),
	}, nil
}

// Next loads the snapshot from disk, stamping it with the current time when
// the file carries none
func (s *FileSource) Next(ctx context.Context) (*models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read snapshot file")
	}
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrap(err, "failed to decode snapshot file")
	}
	if snap.Time.IsZero() {
		snap.Time = time.Now().UTC()
	}
	return &snap, nil
}

// Close is a no-op for file sources
func (s *FileSource) Close() error {
	return nil
}
