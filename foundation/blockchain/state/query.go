package state

import (
	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/utxo"
)

// Blocks returns a lazy one-shot sequence over the chain, most recent block
// first, ending with the genesis block.
func (s *State) Blocks() *database.BlockIterator {
	return s.db.ForEach()
}

// QueryBlocks reads the whole chain, most recent block first.
func (s *State) QueryBlocks() ([]database.Block, error) {
	var blocks []database.Block

	iter := s.db.ForEach()
	for !iter.Done() {
		block, err := iter.Next()
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	return blocks, nil
}

// QueryLatestHash returns the hash of the head of the chain.
func (s *State) QueryLatestHash() (string, error) {
	return s.db.LatestHash()
}

// QueryTransaction scans the chain for the transaction with the specified id.
func (s *State) QueryTransaction(id string) (database.Tx, error) {
	return s.db.FindTransaction(id)
}

// QueryBalance returns the sum of the unspent outputs locked to the address.
func (s *State) QueryBalance(address database.Address) (uint64, error) {
	pkh, err := address.PubKeyHash()
	if err != nil {
		return 0, err
	}

	return s.utxo.BalanceOf(pkh)
}

// QuerySpendable returns the outputs that would be selected to pay amount
// from the address and their total.
func (s *State) QuerySpendable(address database.Address, amount uint64) (uint64, []utxo.OutPoint, error) {
	pkh, err := address.PubKeyHash()
	if err != nil {
		return 0, nil, err
	}

	return s.utxo.SpendableOutputs(pkh, amount)
}

// Reindex rebuilds the unspent output index from the chain and returns the
// number of transactions holding unspent outputs.
func (s *State) Reindex() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.LatestHash(); err != nil {
		return 0, err
	}

	if err := s.utxo.Reindex(); err != nil {
		return 0, err
	}

	return s.utxo.CountTransactions()
}
