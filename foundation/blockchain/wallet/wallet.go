// Package wallet maintains the key pairs of the ledger users. Each key is
// kept in its own file named after the address it controls.
package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrNotFound is returned when no key file exists for an address.
var ErrNotFound = errors.New("wallet not found")

const keyExt = ".ecdsa"

// Wallets represents a folder of key files.
type Wallets struct {
	folder string
}

// New constructs a wallet store over the folder, creating it if needed.
func New(folder string) (*Wallets, error) {
	if err := os.MkdirAll(folder, 0700); err != nil {
		return nil, fmt.Errorf("create wallet folder: %w", err)
	}

	return &Wallets{folder: folder}, nil
}

// Create generates a new key pair, stores the private key and returns the
// address it controls.
func (w *Wallets) Create() (database.Address, error) {
	privateKey, err := signature.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}

	address := database.PublicKeyToAddress(privateKey.PublicKey)
	if err := crypto.SaveECDSA(w.path(address), privateKey); err != nil {
		return "", fmt.Errorf("save key: %w", err)
	}

	return address, nil
}

// Find loads the private key controlling the address.
func (w *Wallets) Find(address database.Address) (*ecdsa.PrivateKey, error) {
	if !address.IsAddress() {
		return nil, fmt.Errorf("%w: %q", database.ErrInvalidAddress, address)
	}

	privateKey, err := crypto.LoadECDSA(w.path(address))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, address)
		}
		return nil, fmt.Errorf("load key %s: %w", address, err)
	}

	if got := database.PublicKeyToAddress(privateKey.PublicKey); got != address {
		return nil, fmt.Errorf("key file for %s holds the key of %s", address, got)
	}

	return privateKey, nil
}

// Addresses returns the addresses of every stored key in sorted order.
func (w *Wallets) Addresses() ([]database.Address, error) {
	var addresses []database.Address

	fn := func(fileName string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if d.IsDir() {
			if fileName != w.folder {
				return filepath.SkipDir
			}
			return nil
		}

		if filepath.Ext(fileName) != keyExt {
			return nil
		}

		address := database.Address(strings.TrimSuffix(filepath.Base(fileName), keyExt))
		if address.IsAddress() {
			addresses = append(addresses, address)
		}

		return nil
	}

	if err := filepath.WalkDir(w.folder, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	slices.Sort(addresses)

	return addresses, nil
}

func (w *Wallets) path(address database.Address) string {
	return filepath.Join(w.folder, string(address)+keyExt)
}
