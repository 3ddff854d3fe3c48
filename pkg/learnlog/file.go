package learnlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/daviddao/reslot/pkg/model"
)

// FileName is the JSON file FileLog keeps inside its directory.
const FileName = "conflict_learnings.json"

// FileLog stores the resolution log as a single JSON array. Writes replace
// the file atomically (temp file + rename). It is safe for concurrent use
// within one process.
type FileLog struct {
	mu   sync.Mutex
	path string
}

// NewFileLog returns a log stored at dir/conflict_learnings.json. The
// directory is created on first write.
func NewFileLog(dir string) *FileLog {
	return &FileLog{path: filepath.Join(dir, FileName)}
}

// Path returns the backing file path.
func (f *FileLog) Path() string { return f.path }

// LoadContext summarizes the owner's last patterns. A missing file is not
// an error; a malformed one is.
func (f *FileLog) LoadContext(ctx context.Context, ownerID string) (string, error) {
	entries, err := f.read()
	if err != nil {
		return NoHistory, err
	}
	return Summarize(ForOwner(entries, ownerID)), nil
}

// Record appends e and rewrites the file with the newest Retention entries.
// An unreadable or malformed existing file is replaced.
func (f *FileLog) Record(ctx context.Context, e model.LogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.readLocked()
	if err != nil {
		entries = nil
	}
	entries = trim(append(entries, e))

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode resolution log: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".learnings-*.json")
	if err != nil {
		return fmt.Errorf("write resolution log: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write resolution log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write resolution log: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace resolution log: %w", err)
	}
	return nil
}

// Statistics tallies the owner's entries in the file.
func (f *FileLog) Statistics(ctx context.Context, ownerID string) (model.Statistics, error) {
	entries, err := f.read()
	if err != nil {
		return model.NewStatistics(), err
	}
	return Tally(ForOwner(entries, ownerID)), nil
}

func (f *FileLog) read() ([]model.LogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readLocked()
}

func (f *FileLog) readLocked() ([]model.LogEntry, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read resolution log: %w", err)
	}
	var entries []model.LogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode resolution log %s: %w", f.path, err)
	}
	return entries, nil
}

var _ Log = (*FileLog)(nil)
