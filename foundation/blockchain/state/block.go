package state

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/utxo"
)

// AppendBlock validates the transactions, mines a block holding them on top
// of the current head and appends it. The block and the changes to the
// unspent output index are committed together. When validation or mining
// fails nothing is persisted.
func (s *State) AppendBlock(trans []database.Tx) (database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendBlock(trans)
}

// =============================================================================

func (s *State) appendBlock(trans []database.Tx) (database.Block, error) {
	if len(trans) == 0 {
		return database.Block{}, database.ErrNoTransactions
	}

	head, err := s.db.LatestHash()
	if err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: AppendBlock: validate: txs[%d]", len(trans))

	if err := s.validateTransactions(trans); err != nil {
		s.evHandler("state: AppendBlock: REJECTED: %s", err)
		return database.Block{}, err
	}

	block, err := database.NewBlock(trans, head)
	if err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: AppendBlock: MINING: prevBlk[%s]", head)

	block, err = database.POW(block, s.evHandler)
	if err != nil {
		s.evHandler("state: AppendBlock: MINING: DROPPED: %s", err)
		return database.Block{}, err
	}

	s.evHandler("state: AppendBlock: MINING: SOLVED: nonce[%d] hash[%s]", block.Header.Nonce, block.Hash())

	if err := s.db.Write(block, s.utxo.WriteHook()); err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: AppendBlock: appended: blk[%s]", block.Hash())

	return block, nil
}

// validateTransactions checks the candidate set holds at most one coinbase
// minting exactly the subsidy,
// every other transaction verifies against the chain and every output it
// spends is unspent and spent only once in the set.
func (s *State) validateTransactions(trans []database.Tx) error {
	var coinbases int
	spent := make(map[utxo.OutPoint]bool)

	for _, tx := range trans {
		if tx.IsCoinbase() {
			coinbases++
			if coinbases > 1 {
				return fmt.Errorf("%w: %w", database.ErrInvalidTransaction, database.ErrMultipleCoinbase)
			}

			if err := tx.Validate(nil); err != nil {
				return err
			}

			if len(tx.Outputs) != 1 || tx.Outputs[0].Value != database.Subsidy {
				return fmt.Errorf("%w: %s: coinbase must mint exactly the subsidy of %d", database.ErrInvalidTransaction, tx.ID, database.Subsidy)
			}
			continue
		}

		prevTxs, err := s.resolvePrevTxs(tx)
		if err != nil {
			return err
		}

		if err := tx.Validate(prevTxs); err != nil {
			return err
		}

		for _, in := range tx.Inputs {
			op := utxo.OutPoint{TxID: in.TxID, Index: in.OutIndex}

			if spent[op] {
				return fmt.Errorf("%w: %s: output %s spent twice in the block", database.ErrInvalidTransaction, tx.ID, op)
			}
			spent[op] = true

			_, found, err := s.utxo.Lookup(op)
			if err != nil {
				return err
			}

			if !found {
				return fmt.Errorf("%w: %s: output %s is already spent", database.ErrInvalidTransaction, tx.ID, op)
			}
		}
	}

	return nil
}

// resolvePrevTxs finds every transaction referenced by the inputs.
func (s *State) resolvePrevTxs(tx database.Tx) (map[string]database.Tx, error) {
	prevTxs := make(map[string]database.Tx)

	for _, in := range tx.Inputs {
		if _, exists := prevTxs[in.TxID]; exists {
			continue
		}

		prevTx, err := s.db.FindTransaction(in.TxID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s: referenced transaction %s not on chain", database.ErrInvalidTransaction, tx.ID, in.TxID)
			}
			return nil, err
		}

		prevTxs[in.TxID] = prevTx
	}

	return prevTxs, nil
}
