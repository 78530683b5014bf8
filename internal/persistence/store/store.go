// Package store defines the persistence port the host saves through and its
// file and in-memory implementations.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"idlekingdom.dev/internal/persistence/snapshot"
	"idlekingdom.dev/internal/sim/game"
)

// ErrNotFound means no save exists yet.
var ErrNotFound = errors.New("store: no save")

type Port interface {
	Load(ctx context.Context) (game.State, error)
	Save(ctx context.Context, s game.State) error
}

// FileStore keeps one zstd-compressed snapshot on disk.
type FileStore struct {
	Path     string
	Defaults snapshot.Defaults
}

func NewFileStore(path string, d snapshot.Defaults) *FileStore {
	return &FileStore{Path: path, Defaults: d}
}

func (f *FileStore) Load(ctx context.Context) (game.State, error) {
	if err := ctx.Err(); err != nil {
		return game.State{}, err
	}
	s, _, err := snapshot.LoadState(f.Path, f.Defaults)
	if errors.Is(err, os.ErrNotExist) {
		return game.State{}, ErrNotFound
	}
	if err != nil {
		return game.State{}, fmt.Errorf("%s: %w", f.Path, err)
	}
	return s, nil
}

func (f *FileStore) Save(ctx context.Context, s game.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return snapshot.SaveState(f.Path, s)
}

// MemoryStore holds the encoded payload in memory. FailSaves makes Save
// return an error, for exercising the host's failure path.
type MemoryStore struct {
	Defaults snapshot.Defaults

	mu        sync.Mutex
	payload   []byte
	saves     int
	failSaves bool
}

func NewMemoryStore(d snapshot.Defaults) *MemoryStore { return &MemoryStore{Defaults: d} }

func (m *MemoryStore) FailSaves(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSaves = fail
}

func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Payload returns the last stored payload, or nil.
func (m *MemoryStore) Payload() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.payload...)
}

// Put stores a raw payload as if it had been saved.
func (m *MemoryStore) Put(payload []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payload = append([]byte(nil), payload...)
}

func (m *MemoryStore) Load(ctx context.Context) (game.State, error) {
	m.mu.Lock()
	payload := m.payload
	m.mu.Unlock()
	if payload == nil {
		return game.State{}, ErrNotFound
	}
	s, _, err := snapshot.Decode(payload, m.Defaults)
	return s, err
}

func (m *MemoryStore) Save(ctx context.Context, s game.State) error {
	payload, err := snapshot.Encode(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSaves {
		return errors.New("store: save failed")
	}
	m.payload = payload
	m.saves++
	return nil
}
