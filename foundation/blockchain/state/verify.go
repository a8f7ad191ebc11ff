package state

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
	"github.com/ardanlabs/utxochain/foundation/blockchain/utxo"
)

// ErrIndexOutOfSync is returned by VerifyChain when the persisted unspent
// output index differs from a replay of the chain.
var ErrIndexOutOfSync = errors.New("unspent output index does not match the chain, reindex required")

// VerifyChain walks the chain from the head checking the proof of work,
// merkle root and linkage of every block and the signatures of every
// transaction. It finishes by comparing the unspent output index with a
// replay of the chain. The number of blocks checked is returned.
func (s *State) VerifyChain() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expHash, err := s.db.LatestHash()
	if err != nil {
		return 0, err
	}

	var count int
	var last database.Block

	iter := s.db.ForEach()
	for !iter.Done() {
		block, err := iter.Next()
		if err != nil {
			return count, err
		}
		count++

		s.evHandler("state: VerifyChain: blk[%s]", block.Hash())

		if block.Hash() != expHash {
			return count, fmt.Errorf("%w: stored under %s but hashes to %s", database.ErrInvalidBlock, expHash, block.Hash())
		}

		if err := block.ValidateBlock(s.evHandler); err != nil {
			return count, err
		}

		if err := s.verifyTransactions(block); err != nil {
			return count, fmt.Errorf("blk[%s]: %w", block.Hash(), err)
		}

		expHash = block.Header.PrevBlockHash
		last = block
	}

	if last.Header.PrevBlockHash != signature.ZeroHash {
		return count, fmt.Errorf("%w: chain does not end at the genesis sentinel", database.ErrInvalidBlock)
	}

	persisted, err := s.utxo.Outputs()
	if err != nil {
		return count, err
	}

	scanned, err := utxo.Scan(s.db)
	if err != nil {
		return count, err
	}

	if !reflect.DeepEqual(persisted, scanned) {
		return count, ErrIndexOutOfSync
	}

	return count, nil
}

// verifyTransactions checks the transactions of a block already on the chain.
func (s *State) verifyTransactions(block database.Block) error {
	var coinbases int

	for _, tx := range block.Transactions() {
		if tx.IsCoinbase() {
			coinbases++
			if coinbases > 1 {
				return fmt.Errorf("%w: %w", database.ErrInvalidTransaction, database.ErrMultipleCoinbase)
			}
		}

		prevTxs := make(map[string]database.Tx)
		if !tx.IsCoinbase() {
			var err error
			if prevTxs, err = s.resolvePrevTxs(tx); err != nil {
				return err
			}
		}

		if err := tx.Validate(prevTxs); err != nil {
			return err
		}
	}

	if block.IsGenesis() && (len(block.Transactions()) != 1 || coinbases != 1) {
		return fmt.Errorf("%w: genesis block must hold exactly one coinbase transaction", database.ErrInvalidBlock)
	}

	return nil
}
