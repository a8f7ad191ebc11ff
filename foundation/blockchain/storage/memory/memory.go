// Package memory implements the ability to read and write ledger state to
// memory using a map of buckets.
package memory

import (
	"bytes"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
)

// ErrClosed is returned when the storage is used after Close.
var ErrClosed = errors.New("memory storage is closed")

type bucket map[string][]byte

// Memory represents the storage implementation for keeping ledger state in
// memory. Every Update works on a copy of the buckets that replaces the
// current state only when the function succeeds. This implements the
// database.Storage interface.
type Memory struct {
	mu      sync.RWMutex
	buckets map[string]bucket
	closed  bool
}

// New constructs a Memory value for use.
func New() *Memory {
	buckets := make(map[string]bucket)
	for _, name := range database.Buckets {
		buckets[string(name)] = make(bucket)
	}

	return &Memory{buckets: buckets}
}

// Close marks the storage as closed. The data is dropped.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.buckets = nil

	return nil
}

// View executes fn against the current state. Writes are rejected.
func (m *Memory) View(fn func(tx database.StorageTx) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return errors.Join(database.ErrStorageUnavailable, ErrClosed)
	}

	return fn(&memoryTx{buckets: m.buckets})
}

// Update executes fn against a copy of the current state and commits the
// copy if fn returns nil.
func (m *Memory) Update(fn func(tx database.StorageTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errors.Join(database.ErrStorageUnavailable, ErrClosed)
	}

	working := make(map[string]bucket, len(m.buckets))
	for name, b := range m.buckets {
		working[name] = maps.Clone(b)
	}

	if err := fn(&memoryTx{buckets: working, writable: true}); err != nil {
		return err
	}

	m.buckets = working

	return nil
}

// =============================================================================

// memoryTx represents a scoped transaction over a set of buckets. This
// implements the database.StorageTx interface.
type memoryTx struct {
	buckets  map[string]bucket
	writable bool
}

var errReadOnly = errors.New("write inside a read only transaction")

// Get returns a copy of the value stored under key or nil.
func (tx *memoryTx) Get(name []byte, key []byte) []byte {
	b, exists := tx.buckets[string(name)]
	if !exists {
		return nil
	}

	v, exists := b[string(key)]
	if !exists {
		return nil
	}

	return bytes.Clone(v)
}

// Put stores a copy of the value under key.
func (tx *memoryTx) Put(name []byte, key []byte, value []byte) error {
	if !tx.writable {
		return errReadOnly
	}

	b, exists := tx.buckets[string(name)]
	if !exists {
		b = make(bucket)
		tx.buckets[string(name)] = b
	}

	b[string(key)] = bytes.Clone(value)

	return nil
}

// Delete removes the key from the bucket.
func (tx *memoryTx) Delete(name []byte, key []byte) error {
	if !tx.writable {
		return errReadOnly
	}

	delete(tx.buckets[string(name)], string(key))

	return nil
}

// ForEach walks the bucket in ascending key order.
func (tx *memoryTx) ForEach(name []byte, fn func(key []byte, value []byte) error) error {
	b := tx.buckets[string(name)]

	for _, k := range slices.Sorted(maps.Keys(b)) {
		if err := fn([]byte(k), bytes.Clone(b[k])); err != nil {
			return err
		}
	}

	return nil
}

// Clear removes every key from the bucket.
func (tx *memoryTx) Clear(name []byte) error {
	if !tx.writable {
		return errReadOnly
	}

	tx.buckets[string(name)] = make(bucket)

	return nil
}
