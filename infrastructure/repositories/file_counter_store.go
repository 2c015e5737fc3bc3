package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"nhbrcforms/domain/apperrors"
	"nhbrcforms/domain/contracts"
)

// counterFile is the on-disk layout of the file backend.
type counterFile struct {
	LastReferenceNumber *int64 `json:"lastReferenceNumber"`
}

// FileCounterStore keeps the reference counter in a small JSON file that is
// replaced atomically on every save.
type FileCounterStore struct {
	path string
	mu   sync.Mutex
}

// NewFileCounterStore creates a counter store writing to path.
func NewFileCounterStore(path string) contracts.CounterStore {
	return &FileCounterStore{path: path}
}

func (s *FileCounterStore) Load(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, apperrors.ErrCounterStateMissing
	}
	if err != nil {
		return 0, fmt.Errorf("read counter file: %w", err)
	}

	var state counterFile
	if err := json.Unmarshal(data, &state); err != nil {
		return 0, &CorruptStateError{Source: s.path, Reason: "invalid JSON", Err: err}
	}
	if state.LastReferenceNumber == nil {
		return 0, &CorruptStateError{Source: s.path, Reason: "lastReferenceNumber missing"}
	}
	if *state.LastReferenceNumber < 0 {
		return 0, &CorruptStateError{Source: s.path, Reason: fmt.Sprintf("negative value %d", *state.LastReferenceNumber)}
	}
	return *state.LastReferenceNumber, nil
}

func (s *FileCounterStore) Save(ctx context.Context, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(counterFile{LastReferenceNumber: &value}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode counter: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".reference-counter-*")
	if err != nil {
		return fmt.Errorf("create counter temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write counter temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync counter temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close counter temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace counter file: %w", err)
	}
	return nil
}
