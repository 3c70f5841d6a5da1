package bstore

import (
	"bytes"
	"encoding/gob"
	"sync"

	"github.com/docker/docker/pkg/locker"
	"github.com/pierrec/lz4"
	"github.com/strata-data/strata"
	serrors "github.com/strata-data/strata/errors"
)

func init() {
	// Row values travel through gob as interface{}
	gob.Register(int(0))
	gob.Register(int64(0))
	gob.Register(float64(0))
	gob.Register("")
	gob.Register(false)
}

// Config configures a Store
type Config struct {
	MaxUncompressed int // snapshots kept uncompressed; older ones are lz4-compressed in place
}

// Store retains the output Blocks of materialized snapshots between executions.
// Retrieval follows move semantics: a consumable snapshot is removed from the
// Store the moment it is handed to a descendant materialization.
type Store struct {
	config    *Config
	slocks    *locker.Locker
	mu        sync.Mutex
	snapshots map[string]*snapshot
	recent    []string // uncompressed snapshot ids, oldest first
}

type snapshot struct {
	blocks     []strata.Block
	compressed []byte
	consumable bool
}

// CreateStore produces an empty Store
func CreateStore(config *Config) *Store {
	if config == nil {
		config = &Config{}
	}
	if config.MaxUncompressed <= 0 {
		config.MaxUncompressed = 8
	}
	return &Store{
		config:    config,
		slocks:    locker.New(),
		snapshots: make(map[string]*snapshot),
	}
}

// Put retains blocks under the given snapshot id. Consumable snapshots are
// removed on Take; non-consumable ones (directly-supplied source data) persist
// until released.
func (s *Store) Put(id string, blocks []strata.Block, consumable bool) {
	s.slocks.Lock(id)
	defer s.slocks.Unlock(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[id] = &snapshot{blocks: blocks, consumable: consumable}
	s.recent = append(s.recent, id)
	s.compressOldestLocked()
}

// Take returns the blocks retained under id, consuming them if the snapshot is
// consumable. Returns NoSuchSnapshotError if the snapshot was never stored, was
// released, or has already been moved to another materialization.
func (s *Store) Take(id string) ([]strata.Block, error) {
	s.slocks.Lock(id)
	defer s.slocks.Unlock(id)
	s.mu.Lock()
	snap, ok := s.snapshots[id]
	if !ok {
		s.mu.Unlock()
		return nil, serrors.NoSuchSnapshotError{ID: id}
	}
	if snap.consumable {
		delete(s.snapshots, id)
		s.removeRecentLocked(id)
	}
	s.mu.Unlock()
	if snap.compressed != nil {
		return decompressBlocks(snap.compressed)
	}
	return snap.blocks, nil
}

// Has returns true iff a snapshot is currently retained under id
func (s *Store) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.snapshots[id]
	return ok
}

// NumRetained returns the number of snapshots currently retained
func (s *Store) NumRetained() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshots)
}

// Release drops the snapshot retained under id, if any
func (s *Store) Release(id string) {
	s.slocks.Lock(id)
	defer s.slocks.Unlock(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, id)
	s.removeRecentLocked(id)
}

func (s *Store) removeRecentLocked(id string) {
	for i, rid := range s.recent {
		if rid == id {
			s.recent = append(s.recent[:i], s.recent[i+1:]...)
			return
		}
	}
}

// compressOldestLocked compresses surplus uncompressed snapshots, oldest first.
// Callers must hold s.mu.
func (s *Store) compressOldestLocked() {
	for len(s.recent) > s.config.MaxUncompressed {
		id := s.recent[0]
		s.recent = s.recent[1:]
		snap, ok := s.snapshots[id]
		if !ok || snap.compressed != nil {
			continue
		}
		data, err := compressBlocks(snap.blocks)
		if err != nil {
			// keep the uncompressed copy rather than lose data
			continue
		}
		snap.compressed = data
		snap.blocks = nil
	}
}

func compressBlocks(blocks []strata.Block) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if err := gob.NewEncoder(zw).Encode(blocks); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressBlocks(data []byte) ([]strata.Block, error) {
	zr := lz4.NewReader(bytes.NewReader(data))
	var blocks []strata.Block
	if err := gob.NewDecoder(zr).Decode(&blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}
