package disk_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/storage/disk"
	"github.com/ardanlabs/utxochain/foundation/blockchain/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempDisk(t *testing.T, path string) *disk.Disk {
	t.Helper()

	d, err := disk.New(path, time.Second)
	require.NoError(t, err)

	return d
}

func TestDisk_Contract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) database.Storage {
		d := tempDisk(t, filepath.Join(t.TempDir(), "chain.db"))
		t.Cleanup(func() { d.Close() })
		return d
	})
}

func TestDisk_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "chain.db")

	d := tempDisk(t, path)
	err := d.Update(func(tx database.StorageTx) error {
		return tx.Put(database.BucketMeta, database.KeyHead, []byte("head"))
	})
	require.NoError(t, err)
	require.NoError(t, d.Close())

	d = tempDisk(t, path)
	t.Cleanup(func() { d.Close() })

	err = d.View(func(tx database.StorageTx) error {
		assert.Equal(t, []byte("head"), tx.Get(database.BucketMeta, database.KeyHead))
		return nil
	})
	require.NoError(t, err)
}

func TestDisk_Locked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chain.db")

	d := tempDisk(t, path)
	t.Cleanup(func() { d.Close() })

	_, err := disk.New(path, 50*time.Millisecond)
	require.ErrorIs(t, err, database.ErrStorageUnavailable)
}
