package wallet_test

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWallets_CreateFind(t *testing.T) {
	w, err := wallet.New(filepath.Join(t.TempDir(), "wallets"))
	require.NoError(t, err)

	addr, err := w.Create()
	require.NoError(t, err)
	assert.True(t, addr.IsAddress())

	key, err := w.Find(addr)
	require.NoError(t, err)
	assert.Equal(t, addr, database.PublicKeyToAddress(key.PublicKey))
}

func TestWallets_Addresses(t *testing.T) {
	folder := t.TempDir()

	w, err := wallet.New(folder)
	require.NoError(t, err)

	a1, err := w.Create()
	require.NoError(t, err)
	a2, err := w.Create()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(folder, "notes.txt"), []byte("x"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "bogus.ecdsa"), []byte("x"), 0600))

	addrs, err := w.Addresses()
	require.NoError(t, err)
	assert.ElementsMatch(t, []database.Address{a1, a2}, addrs)
	assert.True(t, slices.IsSorted(addrs))
}

func TestWallets_FindErrors(t *testing.T) {
	w, err := wallet.New(t.TempDir())
	require.NoError(t, err)

	_, err = w.Find("not-an-address")
	require.ErrorIs(t, err, database.ErrInvalidAddress)

	other, err := wallet.New(t.TempDir())
	require.NoError(t, err)
	addr, err := other.Create()
	require.NoError(t, err)

	_, err = w.Find(addr)
	require.ErrorIs(t, err, wallet.ErrNotFound)
}
