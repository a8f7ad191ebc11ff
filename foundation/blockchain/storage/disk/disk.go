// Package disk implements the ability to read and write ledger state to a
// single bbolt file on disk.
package disk

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"go.etcd.io/bbolt"
)

// Disk represents the storage implementation for keeping ledger state in a
// bbolt database. This implements the database.Storage interface.
type Disk struct {
	db *bbolt.DB
}

// New opens or creates the bbolt database at dbPath. The parent directory is
// created if it does not exist. The timeout bounds how long to wait for the
// file lock held by another process.
func New(dbPath string, timeout time.Duration) (*Disk, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("%w: create directory: %w", database.ErrStorageUnavailable, err)
	}

	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", database.ErrStorageUnavailable, dbPath, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range database.Buckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", database.ErrStorageUnavailable, err)
	}

	return &Disk{db: db}, nil
}

// Close closes the underlying database file.
func (d *Disk) Close() error {
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("%w: close: %w", database.ErrStorageUnavailable, err)
	}

	return nil
}

// View executes fn inside a read only bbolt transaction.
func (d *Disk) View(fn func(tx database.StorageTx) error) error {
	var fnErr error
	err := d.db.View(func(btx *bbolt.Tx) error {
		fnErr = fn(&diskTx{tx: btx})
		return fnErr
	})

	return d.result(fnErr, err)
}

// Update executes fn inside a read write bbolt transaction. The transaction
// is committed only if fn returns nil.
func (d *Disk) Update(fn func(tx database.StorageTx) error) error {
	var fnErr error
	err := d.db.Update(func(btx *bbolt.Tx) error {
		fnErr = fn(&diskTx{tx: btx})
		return fnErr
	})

	return d.result(fnErr, err)
}

// result returns errors produced by the caller unchanged and marks failures
// of bbolt itself as storage errors.
func (d *Disk) result(fnErr error, err error) error {
	if fnErr != nil {
		return fnErr
	}

	if err != nil {
		return fmt.Errorf("%w: %w", database.ErrStorageUnavailable, err)
	}

	return nil
}

// =============================================================================

// diskTx adapts a bbolt transaction. This implements the database.StorageTx
// interface.
type diskTx struct {
	tx *bbolt.Tx
}

// Get returns a copy of the value since bbolt memory is only valid for the
// life of the transaction.
func (d *diskTx) Get(name []byte, key []byte) []byte {
	b := d.tx.Bucket(name)
	if b == nil {
		return nil
	}

	v := b.Get(key)
	if v == nil {
		return nil
	}

	return bytes.Clone(v)
}

// Put stores the value under key, creating the bucket when needed.
func (d *diskTx) Put(name []byte, key []byte, value []byte) error {
	b, err := d.tx.CreateBucketIfNotExists(name)
	if err != nil {
		return fmt.Errorf("%w: bucket %q: %w", database.ErrStorageUnavailable, name, err)
	}

	if err := b.Put(key, value); err != nil {
		return fmt.Errorf("%w: put %q: %w", database.ErrStorageUnavailable, name, err)
	}

	return nil
}

// Delete removes the key from the bucket.
func (d *diskTx) Delete(name []byte, key []byte) error {
	b := d.tx.Bucket(name)
	if b == nil {
		return nil
	}

	if err := b.Delete(key); err != nil {
		return fmt.Errorf("%w: delete %q: %w", database.ErrStorageUnavailable, name, err)
	}

	return nil
}

// ForEach walks the bucket in ascending key order.
func (d *diskTx) ForEach(name []byte, fn func(key []byte, value []byte) error) error {
	b := d.tx.Bucket(name)
	if b == nil {
		return nil
	}

	return b.ForEach(func(k, v []byte) error {
		return fn(bytes.Clone(k), bytes.Clone(v))
	})
}

// Clear drops and recreates the bucket.
func (d *diskTx) Clear(name []byte) error {
	if d.tx.Bucket(name) != nil {
		if err := d.tx.DeleteBucket(name); err != nil {
			return fmt.Errorf("%w: clear %q: %w", database.ErrStorageUnavailable, name, err)
		}
	}

	if _, err := d.tx.CreateBucket(name); err != nil {
		return fmt.Errorf("%w: clear %q: %w", database.ErrStorageUnavailable, name, err)
	}

	return nil
}
