// Package database handles all the lower level support for maintaining the
// blockchain in storage: the transaction and block model, proof of work and
// the persistence of blocks and the chain head.
package database

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
)

// WriteHook is executed inside the scoped transaction that writes a block so
// derived state can be committed atomically with it.
type WriteHook func(tx StorageTx, block Block) error

// Database manages the blocks and the chain head kept in storage.
type Database struct {
	storage   Storage
	evHandler func(v string, args ...any)
}

// New constructs a database over the specified storage.
func New(storage Storage, evHandler func(v string, args ...any)) *Database {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	return &Database{
		storage:   storage,
		evHandler: ev,
	}
}

// Storage returns the underlying storage for packages that keep derived
// state next to the blocks.
func (db *Database) Storage() Storage {
	return db.storage
}

// Close closes the underlying storage.
func (db *Database) Close() error {
	return db.storage.Close()
}

// HasChain reports whether a chain head has been recorded.
func (db *Database) HasChain() (bool, error) {
	_, err := db.LatestHash()
	switch {
	case errors.Is(err, ErrNoChain):
		return false, nil
	case err != nil:
		return false, err
	}

	return true, nil
}

// LatestHash returns the hash of the head of the chain.
func (db *Database) LatestHash() (string, error) {
	var head string
	err := db.storage.View(func(tx StorageTx) error {
		head = string(tx.Get(BucketMeta, KeyHead))
		return nil
	})
	if err != nil {
		return "", err
	}

	if head == "" {
		return "", ErrNoChain
	}

	return head, nil
}

// Write validates the mined block and appends it on top of the current head.
// The block, the new head and the work of every hook are committed in one
// scoped transaction.
func (db *Database) Write(block Block, hooks ...WriteHook) error {
	if err := block.ValidateBlock(db.evHandler); err != nil {
		return err
	}

	data, err := json.Marshal(NewBlockData(block))
	if err != nil {
		return fmt.Errorf("marshal block: %w", err)
	}

	db.evHandler("database: Write: blk[%s]: prevBlk[%s]", block.Hash(), block.Header.PrevBlockHash)

	return db.storage.Update(func(tx StorageTx) error {
		head := string(tx.Get(BucketMeta, KeyHead))
		if head == "" {
			head = signature.ZeroHash
		}

		if block.Header.PrevBlockHash != head {
			return fmt.Errorf("%w: parent block hash doesn't match the head, got %s, exp %s", ErrInvalidBlock, block.Header.PrevBlockHash, head)
		}

		if err := tx.Put(BucketBlocks, []byte(block.Hash()), data); err != nil {
			return err
		}

		if err := tx.Put(BucketMeta, KeyHead, []byte(block.Hash())); err != nil {
			return err
		}

		for _, hook := range hooks {
			if err := hook(tx, block); err != nil {
				return err
			}
		}

		return nil
	})
}

// GetBlock locates the block by its hash.
func (db *Database) GetBlock(hash string) (Block, error) {
	var data []byte
	err := db.storage.View(func(tx StorageTx) error {
		data = tx.Get(BucketBlocks, []byte(hash))
		return nil
	})
	if err != nil {
		return Block{}, err
	}

	if data == nil {
		return Block{}, fmt.Errorf("block %s: %w", hash, ErrNotFound)
	}

	var bd BlockData
	if err := json.Unmarshal(data, &bd); err != nil {
		return Block{}, fmt.Errorf("%w: decode block %s: %w", ErrInvalidBlock, hash, err)
	}

	return ToBlock(bd)
}

// ForEach returns an iterator to walk through all the blocks starting with
// the head and following the previous block hashes back to genesis.
func (db *Database) ForEach() *BlockIterator {
	head, err := db.LatestHash()
	if errors.Is(err, ErrNoChain) {
		head, err = signature.ZeroHash, nil
	}

	bi := BlockIterator{
		db:      db,
		current: head,
		err:     err,
		done:    err == nil && head == signature.ZeroHash,
	}

	return &bi
}

// FindTransaction walks the chain from the head and returns the first
// transaction with the specified id.
func (db *Database) FindTransaction(id string) (Tx, error) {
	iter := db.ForEach()
	for !iter.Done() {
		block, err := iter.Next()
		if err != nil {
			return Tx{}, err
		}

		for _, tx := range block.Transactions() {
			if tx.ID == id {
				return tx, nil
			}
		}
	}

	return Tx{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
}

// =============================================================================

// BlockIterator lazily walks the chain from the head back to genesis. It is
// a one-shot sequence and blocks are read from storage one at a time.
type BlockIterator struct {
	db      *Database
	current string
	err     error
	done    bool
}

// Next reads the block the iterator is positioned on and steps to its
// parent. ErrEndOfChain is returned once the genesis block has been read.
func (bi *BlockIterator) Next() (Block, error) {
	if bi.err != nil {
		bi.done = true
		return Block{}, bi.err
	}

	if bi.done {
		return Block{}, ErrEndOfChain
	}

	block, err := bi.db.GetBlock(bi.current)
	if err != nil {
		bi.done = true
		return Block{}, err
	}

	bi.current = block.Header.PrevBlockHash
	if bi.current == signature.ZeroHash {
		bi.done = true
	}

	return block, nil
}

// Done returns the end of chain value.
func (bi *BlockIterator) Done() bool {
	return bi.done
}
