// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package ml

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// ErrModelNotStored is returned by Store.Load for a type never saved.
var ErrModelNotStored = errors.New("model not stored")

const modelKeyPrefix = "model:"

// Store persists fitted models across restarts.
type Store interface {
	Save(ctx context.Context, m *Model) error
	Load(ctx context.Context, typ ModelType) (*Model, error)
	LoadAll(ctx context.Context) ([]*Model, error)
	Close() error
}

// BadgerStore keeps one JSON document per model type in BadgerDB.
type BadgerStore struct {
	db     *badger.DB
	ownsDB bool
}

// OpenBadgerStore opens (or creates) a store under dir. An empty dir keeps
// everything in memory.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open model store %q: %w", dir, err)
	}
	return &BadgerStore{db: db, ownsDB: true}, nil
}

// NewBadgerStore wraps an already open database. Close leaves it open.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Save replaces the stored model of m.Type.
func (s *BadgerStore) Save(ctx context.Context, m *Model) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal %s model: %w", m.Type, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(modelKeyPrefix+string(m.Type)), data); err != nil {
			return fmt.Errorf("set %s model: %w", m.Type, err)
		}
		return nil
	})
}

// Load returns the stored model of typ or ErrModelNotStored.
func (s *BadgerStore) Load(ctx context.Context, typ ModelType) (*Model, error) {
	var m Model
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(modelKeyPrefix + string(typ)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrModelNotStored
		}
		if err != nil {
			return fmt.Errorf("get %s model: %w", typ, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &m)
		})
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadAll returns every stored model in key order.
func (s *BadgerStore) LoadAll(ctx context.Context) ([]*Model, error) {
	var out []*Model
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(modelKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var m Model
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &m)
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, &m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close closes the database if the store opened it.
func (s *BadgerStore) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}
