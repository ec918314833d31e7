package bus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jaspy-nexus/jaspy-nexus/internal/logging"
)

// RotationConfig bounds how large a FileRecorder's log is allowed to grow
// before it rotates the file aside. Adapted from the teacher's audit-log
// rotation (pkg/audit.RotationConfig) — same policy, applied here to
// state-change events instead of CLI audit entries.
type RotationConfig struct {
	MaxSize    int64 // bytes; 0 disables rotation
	MaxBackups int
}

// FileRecorder appends every published Event as a JSON line to a file, with
// optional size-based rotation. It is meant to be composed with RedisBus via
// Fanout so operators get a durable local trail of events alongside the live
// pub/sub feed — the in-memory IMDS itself keeps none (§1 Non-goals).
type FileRecorder struct {
	path     string
	rotation RotationConfig

	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewFileRecorder opens (creating if needed) path for append and returns a
// ready FileRecorder.
func NewFileRecorder(path string, rotation RotationConfig) (*FileRecorder, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating event log directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}

	return &FileRecorder{
		path:     path,
		rotation: rotation,
		file:     file,
		enc:      json.NewEncoder(file),
	}, nil
}

type recordedEvent struct {
	Event
	RecordedAt time.Time `json:"recorded_at"`
}

// Publish appends event as a JSON line, rotating first if the file has
// grown past MaxSize. Write failures are logged and swallowed, consistent
// with the bus's fire-and-forget contract.
func (r *FileRecorder) Publish(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rotation.MaxSize > 0 {
		if info, err := r.file.Stat(); err == nil && info.Size() >= r.rotation.MaxSize {
			if err := r.rotate(); err != nil {
				logging.WithComponent("bus").WithError(err).Warn("failed to rotate event log, dropping")
				return
			}
		}
	}

	if err := r.enc.Encode(recordedEvent{Event: event, RecordedAt: time.Now()}); err != nil {
		logging.WithComponent("bus").WithError(err).Warn("failed to write event, dropping")
	}
}

func (r *FileRecorder) rotate() error {
	if err := r.file.Close(); err != nil {
		return err
	}

	for i := r.rotation.MaxBackups - 1; i >= 1; i-- {
		oldPath := fmt.Sprintf("%s.%d", r.path, i)
		newPath := fmt.Sprintf("%s.%d", r.path, i+1)
		if _, err := os.Stat(oldPath); err == nil {
			_ = os.Rename(oldPath, newPath)
		}
	}
	if r.rotation.MaxBackups > 0 {
		_ = os.Rename(r.path, r.path+".1")
	}

	file, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	r.file = file
	r.enc = json.NewEncoder(file)
	return nil
}

// Close closes the underlying file.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}
