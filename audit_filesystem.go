package runlocker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FilesystemAuditSink appends one JSON line per event to a file named after
// the lock name, under baseDir. Writes are serialized per name via a
// StripedLocks instance rather than one global mutex, so writers to
// different lock names contend only when their names hash to the same
// stripe.
type FilesystemAuditSink struct {
	baseDir string
	locks   *StripedLocks
}

// NewFilesystemAuditSink creates a sink rooted at baseDir, creating it if
// necessary.
func NewFilesystemAuditSink(baseDir string) (*FilesystemAuditSink, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("runlocker: create audit dir: %w", err)
	}
	return &FilesystemAuditSink{
		baseDir: baseDir,
		locks:   NewStripedLocks(32),
	}, nil
}

func (s *FilesystemAuditSink) pathFor(lockName string) string {
	return filepath.Join(s.baseDir, lockName+".jsonl")
}

func (s *FilesystemAuditSink) Record(ctx context.Context, event AuditEvent) error {
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("runlocker: marshal audit event: %w", err)
	}
	line = append(line, '\n')

	unlock := s.locks.Lock(event.LockName)
	defer unlock()

	f, err := os.OpenFile(s.pathFor(event.LockName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("runlocker: open audit file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("runlocker: write audit event: %w", err)
	}
	return nil
}

func (s *FilesystemAuditSink) Close() error { return nil }
