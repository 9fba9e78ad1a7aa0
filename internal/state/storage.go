package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"sync"

	"workcal/internal/fsutil"
)

// Storage is the key/value persistence boundary. Values are JSON documents.
type Storage interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
}

// BatchStorage writes several keys as one unit: either all of them are
// stored or none is.
type BatchStorage interface {
	Storage
	SetMany(values map[string][]byte) error
}

// MemoryStorage keeps values in memory.
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string][]byte)}
}

func (m *MemoryStorage) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStorage) SetMany(values map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range values {
		m.values[k] = append([]byte(nil), v...)
	}
	return nil
}

// FileStorage keeps every key in one JSON object file.
//
// Writes go to a temp file in the same directory which is then renamed
// over the target, so the file is never left half-written. The file is
// created with 0600 permissions.
type FileStorage struct {
	mu     sync.Mutex
	path   string
	values map[string]json.RawMessage
}

// OpenFileStorage loads path, creating the parent directory if needed. A
// missing file is treated as empty storage.
func OpenFileStorage(path string) (*FileStorage, error) {
	if path == "" {
		return nil, errors.New("storage path is empty")
	}
	fsto := &FileStorage{path: path, values: make(map[string]json.RawMessage)}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fsto, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return fsto, nil
	}
	if err := json.Unmarshal(data, &fsto.values); err != nil {
		return nil, fmt.Errorf("storage %s: %w", path, err)
	}
	return fsto, nil
}

func (f *FileStorage) Path() string { return f.path }

func (f *FileStorage) Get(key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *FileStorage) Set(key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("storage: value for %q is not valid JSON", key)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	next := maps.Clone(f.values)
	next[key] = append(json.RawMessage(nil), value...)
	if err := writeAtomic(f.path, next); err != nil {
		return err
	}
	f.values = next
	return nil
}

// SetMany stores every value with a single file write.
func (f *FileStorage) SetMany(values map[string][]byte) error {
	for key, value := range values {
		if !json.Valid(value) {
			return fmt.Errorf("storage: value for %q is not valid JSON", key)
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	next := maps.Clone(f.values)
	for key, value := range values {
		next[key] = append(json.RawMessage(nil), value...)
	}
	if err := writeAtomic(f.path, next); err != nil {
		return err
	}
	f.values = next
	return nil
}

func writeAtomic(path string, values map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, data, 0o600)
}
