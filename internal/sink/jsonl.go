package sink

import (
	"bufio"
	"context"
	"os"
	"path/filepath"

	"github.com/rzzdr/options-risk-engine/pkg/models"
	"github.com/rzzdr/options-risk-engine/pkg/utils/errors"
	"github.com/rzzdr/options-risk-engine/pkg/utils/logger"
)

// JSONLSink appends one JSON record per line to a file, flushed once per
// cycle so a reader tailing the file sees whole cycles.
type JSONLSink struct {
	file *os.File
	w    *bufio.Writer
	log  *logger.Logger
}

// NewJSONL opens (or creates) the output file in append mode
func NewJSONL(path string) (*JSONLSink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "failed to create output directory for %s", path)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open output file %s", path)
	}
	return &JSONLSink{
		file: f,
		w:    bufio.NewWriter(f),
		log:  logger.GetLogger("sink.jsonl").With("path", path),
	}, nil
}

// Name identifies this sink
func (s *JSONLSink) Name() string {
	return "jsonl"
}

// Emit writes all records of a cycle and flushes
func (s *JSONLSink) Emit(_ context.Context, res *models.CycleResult) error {
	records, err := Encode(res)
	if err != nil {
		return errors.Wrap(err, "failed to encode cycle records")
	}
	for _, rec := range records {
		if _, err := s.w.Write(rec.Data); err != nil {
			return errors.Wrap(err, "failed to write record")
		}
		if err := s.w.WriteByte('\n'); err != nil {
			return errors.Wrap(err, "failed to write record")
		}
	}
	return s.w.Flush()
}

// Close flushes and closes the file
func (s *JSONLSink) Close() error {
	if err := s.w.Flush(); err != nil {
		s.log.Errorf("Flush on close failed: %v", err)
	}
	return s.file.Close()
}
