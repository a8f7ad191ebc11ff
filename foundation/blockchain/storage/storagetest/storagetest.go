// Package storagetest provides the behavior every database.Storage
// implementation must satisfy so each implementation can run the same tests.
package storagetest

import (
	"errors"
	"testing"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run executes the storage contract against values produced by newStorage.
func Run(t *testing.T, newStorage func(t *testing.T) database.Storage) {
	t.Run("put-get", func(t *testing.T) { putGet(t, newStorage(t)) })
	t.Run("rollback", func(t *testing.T) { rollback(t, newStorage(t)) })
	t.Run("ordered", func(t *testing.T) { ordered(t, newStorage(t)) })
	t.Run("delete-clear", func(t *testing.T) { deleteClear(t, newStorage(t)) })
	t.Run("value-copies", func(t *testing.T) { valueCopies(t, newStorage(t)) })
}

func putGet(t *testing.T, s database.Storage) {
	err := s.Update(func(tx database.StorageTx) error {
		return tx.Put(database.BucketMeta, database.KeyHead, []byte("head"))
	})
	require.NoError(t, err)

	var got []byte
	err = s.View(func(tx database.StorageTx) error {
		got = tx.Get(database.BucketMeta, database.KeyHead)
		assert.Nil(t, tx.Get(database.BucketMeta, []byte("missing")))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("head"), got)
}

func rollback(t *testing.T, s database.Storage) {
	errAbort := errors.New("abort")

	err := s.Update(func(tx database.StorageTx) error {
		if err := tx.Put(database.BucketBlocks, []byte("a"), []byte("1")); err != nil {
			return err
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	err = s.View(func(tx database.StorageTx) error {
		assert.Nil(t, tx.Get(database.BucketBlocks, []byte("a")), "write of a failed update must not be visible")
		return nil
	})
	require.NoError(t, err)
}

func ordered(t *testing.T, s database.Storage) {
	err := s.Update(func(tx database.StorageTx) error {
		for _, k := range []string{"c", "a", "d", "b"} {
			if err := tx.Put(database.BucketChainstate, []byte(k), []byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	var keys []string
	err = s.View(func(tx database.StorageTx) error {
		return tx.ForEach(database.BucketChainstate, func(k, v []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, keys)
}

func deleteClear(t *testing.T, s database.Storage) {
	err := s.Update(func(tx database.StorageTx) error {
		for _, k := range []string{"a", "b", "c"} {
			if err := tx.Put(database.BucketChainstate, []byte(k), []byte(k)); err != nil {
				return err
			}
		}
		return tx.Delete(database.BucketChainstate, []byte("b"))
	})
	require.NoError(t, err)

	count := func() int {
		var n int
		err := s.View(func(tx database.StorageTx) error {
			return tx.ForEach(database.BucketChainstate, func(k, v []byte) error {
				n++
				return nil
			})
		})
		require.NoError(t, err)
		return n
	}
	assert.Equal(t, 2, count())

	err = s.Update(func(tx database.StorageTx) error {
		return tx.Clear(database.BucketChainstate)
	})
	require.NoError(t, err)
	assert.Equal(t, 0, count())
}

func valueCopies(t *testing.T, s database.Storage) {
	value := []byte("value")
	err := s.Update(func(tx database.StorageTx) error {
		return tx.Put(database.BucketBlocks, []byte("k"), value)
	})
	require.NoError(t, err)

	value[0] = 'X'

	err = s.View(func(tx database.StorageTx) error {
		got := tx.Get(database.BucketBlocks, []byte("k"))
		assert.Equal(t, []byte("value"), got)
		got[0] = 'Y'
		assert.Equal(t, []byte("value"), tx.Get(database.BucketBlocks, []byte("k")))
		return nil
	})
	require.NoError(t, err)
}
