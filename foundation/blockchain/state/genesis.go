package state

import (
	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
)

// CreateGenesis mines the first block of a new chain paying the subsidy to
// the specified address. The block and the unspent output index built from
// it are committed together.
func (s *State) CreateGenesis(to database.Address) (database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.db.HasChain()
	if err != nil {
		return database.Block{}, err
	}

	if exists {
		return database.Block{}, database.ErrChainExists
	}

	coinbase, err := database.NewCoinbaseTx(to)
	if err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: CreateGenesis: started: to[%s]", to)

	block, err := database.NewGenesisBlock(coinbase)
	if err != nil {
		return database.Block{}, err
	}

	block, err = database.POW(block, s.evHandler)
	if err != nil {
		s.evHandler("state: CreateGenesis: ERROR: %s", err)
		return database.Block{}, err
	}

	if err := s.db.Write(block, s.utxo.GenesisHook()); err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: CreateGenesis: completed: blk[%s]", block.Hash())

	return block, nil
}
