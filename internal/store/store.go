// Package store persists scan snapshots. Each saved Index gets a uuid
// and a metadata record in badger; the entry payload is JSON, zstd
// compressed past a size threshold. Loads are served from an LRU cache
// when possible.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"treetool/internal/tree"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

const (
	metaPrefix = "meta:"
	dataPrefix = "data:"

	// Payloads below this stay uncompressed.
	compressMin = 1024

	defaultCacheSize = 16
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Snapshot describes one saved Index.
type Snapshot struct {
	ID        string    `json:"id"`
	Root      string    `json:"root"`
	CreatedAt time.Time `json:"created_at"`
	Files     int       `json:"files"`
	TotalSize int64     `json:"total_size"`
}

// Store is a snapshot database handle.
type Store struct {
	db     *badger.DB
	cache  *lru.Cache[string, tree.Index]
	enc    *zstd.Encoder
	dec    *zstd.Decoder
	logger *zap.Logger
}

// Open opens (or creates) the snapshot database in dir.
func Open(dir string, logger *zap.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot db: %w", err)
	}
	return NewWithDB(db, logger)
}

// NewWithDB wraps an already opened badger instance. The store takes
// ownership and closes it on Close.
func NewWithDB(db *badger.DB, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cache, err := lru.New[string, tree.Index](defaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating snapshot cache: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("creating encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("creating decoder: %w", err)
	}

	return &Store{db: db, cache: cache, enc: enc, dec: dec, logger: logger}, nil
}

func (s *Store) Close() error {
	s.enc.Close()
	s.dec.Close()
	return s.db.Close()
}

// Save persists idx as a new snapshot of root and returns its metadata.
func (s *Store) Save(root string, idx tree.Index) (*Snapshot, error) {
	snap := &Snapshot{
		ID:        uuid.New().String(),
		Root:      root,
		CreatedAt: time.Now().UTC(),
		Files:     len(idx),
		TotalSize: idx.TotalSize(),
	}

	meta, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshaling snapshot metadata: %w", err)
	}
	payload, err := json.Marshal(idx)
	if err != nil {
		return nil, fmt.Errorf("marshaling snapshot entries: %w", err)
	}
	if len(payload) >= compressMin {
		payload = s.enc.EncodeAll(payload, nil)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(metaPrefix+snap.ID), meta); err != nil {
			return err
		}
		return txn.Set([]byte(dataPrefix+snap.ID), payload)
	})
	if err != nil {
		return nil, fmt.Errorf("storing snapshot %s: %w", snap.ID, err)
	}

	s.cache.Add(snap.ID, idx)
	s.logger.Info("snapshot saved",
		zap.String("id", snap.ID),
		zap.String("root", root),
		zap.Int("files", snap.Files))
	return snap, nil
}

// Load returns the Index of the snapshot with the given id.
func (s *Store) Load(id string) (tree.Index, error) {
	if idx, ok := s.cache.Get(id); ok {
		return idx, nil
	}

	var payload []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(dataPrefix + id))
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("loading snapshot %s: %w", id, err)
	}

	if len(payload) > len(zstdMagic) && bytes.Equal(payload[:len(zstdMagic)], zstdMagic) {
		payload, err = s.dec.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("decompressing snapshot %s: %w", id, err)
		}
	}

	var idx tree.Index
	if err := json.Unmarshal(payload, &idx); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot %s: %w", id, err)
	}

	s.cache.Add(id, idx)
	return idx, nil
}

// Get returns the metadata of one snapshot.
func (s *Store) Get(id string) (*Snapshot, error) {
	var snap Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metaPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snap)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("reading snapshot %s: %w", id, err)
	}
	return &snap, nil
}

// List returns metadata for every saved snapshot, oldest first.
func (s *Store) List() ([]Snapshot, error) {
	var snaps []Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(metaPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var snap Snapshot
				if err := json.Unmarshal(val, &snap); err != nil {
					return err
				}
				snaps = append(snaps, snap)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].CreatedAt.Before(snaps[j].CreatedAt)
	})
	return snaps, nil
}

// Delete removes a snapshot and its payload.
func (s *Store) Delete(id string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(metaPrefix + id)); err != nil {
			return err
		}
		return txn.Delete([]byte(dataPrefix + id))
	})
	if err != nil {
		return fmt.Errorf("deleting snapshot %s: %w", id, err)
	}

	s.cache.Remove(id)
	s.logger.Info("snapshot deleted", zap.String("id", id))
	return nil
}
