// Package store is the persistent store adapter: one serialized JSON blob per
// logical key, no cross-key transactions. Reads of missing or corrupt data
// degrade to empty values; writes are full-snapshot overwrites.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Storage keys, one per independently persisted blob.
const (
	KeyChallenges       = "challenges"
	KeyParticipants     = "participants"
	KeyCheckins         = "checkins"
	KeyProfile          = "profile"
	KeyPendingSyncQueue = "pending-sync-queue"
	KeyThemeMode        = "theme-mode"
	KeyChallengeOrder   = "challenge-display-order"
	KeyBadgeDefinitions = "badge-definitions"
	KeyEarnedBadges     = "earned-badges"
	KeyLastSync         = "last-sync-timestamp"
)

// KV is the device-local key/value storage boundary. Implementations only
// guarantee single-key atomicity.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Remove(key string) error
}

// FileKV stores each key as one file under a directory. Writes go through a
// temp file and a rename so a crashed write never leaves a half-written blob.
type FileKV struct {
	dir string
	mu  sync.Mutex
}

func NewFileKV(dir string) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &FileKV{dir: dir}, nil
}

func (f *FileKV) path(key string) string {
	return filepath.Join(f.dir, strings.ReplaceAll(key, string(os.PathSeparator), "_")+".json")
}

func (f *FileKV) Get(key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return data, true, nil
}

func (f *FileKV) Set(key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	target := f.path(key)
	tmp, err := os.CreateTemp(f.dir, "."+key+"-*")
	if err != nil {
		return fmt.Errorf("failed to stage %q: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to flush %q: %w", key, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to commit %q: %w", key, err)
	}
	return nil
}

func (f *FileKV) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %q: %w", key, err)
	}
	return nil
}

// MemoryKV is a goroutine-safe in-memory KV used by tests.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *MemoryKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	return nil
}

func (m *MemoryKV) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
