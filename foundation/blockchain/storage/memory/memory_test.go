package memory_test

import (
	"testing"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/storage/memory"
	"github.com/ardanlabs/utxochain/foundation/blockchain/storage/storagetest"
	"github.com/stretchr/testify/require"
)

func TestMemory_Contract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) database.Storage {
		m := memory.New()
		t.Cleanup(func() { m.Close() })
		return m
	})
}

func TestMemory_Closed(t *testing.T) {
	m := memory.New()
	require.NoError(t, m.Close())

	err := m.View(func(tx database.StorageTx) error { return nil })
	require.ErrorIs(t, err, database.ErrStorageUnavailable)

	err = m.Update(func(tx database.StorageTx) error { return nil })
	require.ErrorIs(t, err, database.ErrStorageUnavailable)
}

func TestMemory_ViewIsReadOnly(t *testing.T) {
	m := memory.New()
	t.Cleanup(func() { m.Close() })

	err := m.View(func(tx database.StorageTx) error {
		return tx.Put(database.BucketMeta, database.KeyHead, []byte("x"))
	})
	require.Error(t, err)
}
