package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/vjranagit/gridmapper/pkg/types"
)

// ErrNotFound is returned by Store.Get for an unknown key
var ErrNotFound = errors.New("storage: snapshot not found")

// Store keeps parsed import results between runs so unchanged sources are
// not parsed again.
type Store interface {
	// Get returns the snapshot stored under key, or ErrNotFound
	Get(ctx context.Context, key string) (*types.RawGrid, error)

	// Put stores a snapshot under key
	Put(ctx context.Context, key string, raw *types.RawGrid) error

	// Delete drops the snapshot under key
	Delete(ctx context.Context, key string) error

	// Close closes the storage
	Close() error
}

// Config holds storage configuration
type Config struct {
	Path             string
	RetentionDays    int
	CompressionLevel int
}

// DefaultConfig returns default storage configuration
func DefaultConfig() *Config {
	return &Config{
		Path:             "./data",
		RetentionDays:    30,
		CompressionLevel: 3,
	}
}

// badgerStore implements Store using BadgerDB
type badgerStore struct {
	cfg        *Config
	db         *badger.DB
	compressor *Compressor
	mu         sync.RWMutex
}

// NewStore opens (or creates) the snapshot store under cfg.Path
func NewStore(cfg *Config) (Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	opts := badger.DefaultOptions(filepath.Join(cfg.Path, "snapshots"))
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	compressor, err := NewCompressor(cfg.CompressionLevel)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create compressor: %w", err)
	}

	return &badgerStore{
		cfg:        cfg,
		db:         db,
		compressor: compressor,
	}, nil
}

// snapshotPayload is the stored form of a raw grid. Cell values are
// flattened row by row; RowLengths restores ragged rows exactly.
type snapshotPayload struct {
	RowCount         int
	ColCount         int
	RowLengths       []int
	RowHeaders       []string
	ColumnHeaders    []string
	HasRowHeaders    bool
	HasColumnHeaders bool
	CompressedValues []byte
	StoredAt         time.Time
}

// Put implements Store.Put
func (s *badgerStore) Put(ctx context.Context, key string, raw *types.RawGrid) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	payload := snapshotPayload{
		RowCount:         raw.RowCount,
		ColCount:         raw.ColCount,
		RowLengths:       make([]int, len(raw.Data)),
		RowHeaders:       raw.RowHeaders,
		ColumnHeaders:    raw.ColumnHeaders,
		HasRowHeaders:    raw.RowHeaders != nil,
		HasColumnHeaders: raw.ColumnHeaders != nil,
		StoredAt:         time.Now(),
	}

	total := 0
	for i, row := range raw.Data {
		payload.RowLengths[i] = len(row)
		total += len(row)
	}
	flat := make([]float64, 0, total)
	for _, row := range raw.Data {
		flat = append(flat, row...)
	}

	compressed, err := s.compressor.CompressValues(flat)
	if err != nil {
		return fmt.Errorf("failed to compress values: %w", err)
	}
	payload.CompressedValues = compressed

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	entry := badger.NewEntry(snapshotKey(key), payloadBytes)
	if s.cfg.RetentionDays > 0 {
		entry = entry.WithTTL(time.Duration(s.cfg.RetentionDays) * 24 * time.Hour)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(entry)
	})
}

// Get implements Store.Get
func (s *badgerStore) Get(ctx context.Context, key string) (*types.RawGrid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var payloadBytes []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey(key))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			payloadBytes = append([]byte{}, val...)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var payload snapshotPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	total := 0
	for _, n := range payload.RowLengths {
		total += n
	}
	flat, err := s.compressor.DecompressValues(payload.CompressedValues, total)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress values: %w", err)
	}

	raw := &types.RawGrid{
		RowCount: payload.RowCount,
		ColCount: payload.ColCount,
		Data:     make([][]float64, len(payload.RowLengths)),
	}
	offset := 0
	for i, n := range payload.RowLengths {
		raw.Data[i] = flat[offset : offset+n : offset+n]
		offset += n
	}
	if payload.HasRowHeaders {
		raw.RowHeaders = append([]string{}, payload.RowHeaders...)
	}
	if payload.HasColumnHeaders {
		raw.ColumnHeaders = append([]string{}, payload.ColumnHeaders...)
	}

	return raw, nil
}

// Delete implements Store.Delete
func (s *badgerStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(snapshotKey(key))
	})
}

// Close implements Store.Close
func (s *badgerStore) Close() error {
	s.compressor.Close()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func snapshotKey(key string) []byte {
	return []byte("snapshot/" + key)
}
