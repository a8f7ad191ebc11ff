// Package state is the core API for the ledger and implements all the
// business rules and processing. It owns the chain database and the unspent
// output index and is the only package that mutates persisted state.
package state

import (
	"sync"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/utxo"
)

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// =============================================================================

// Config represents the configuration required to start the ledger.
type Config struct {
	Storage      database.Storage
	MinerAddress database.Address
	EvHandler    EventHandler
}

// State manages the ledger. All writes are serialized by the mutex so only
// one block is ever built, mined and appended at a time.
type State struct {
	mu sync.Mutex

	minerAddress database.Address
	evHandler    EventHandler

	db   *database.Database
	utxo *utxo.Set
}

// New constructs a ledger over the specified storage. The storage may be
// empty, in which case CreateGenesis must be called before anything else.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	// An empty miner address means the sender of a transfer collects the
	// coinbase reward of the block holding it.
	if cfg.MinerAddress != "" {
		if _, err := database.ToAddress(string(cfg.MinerAddress)); err != nil {
			return nil, err
		}
	}

	db := database.New(cfg.Storage, ev)

	state := State{
		minerAddress: cfg.MinerAddress,
		evHandler:    ev,
		db:           db,
		utxo:         utxo.New(db, ev),
	}

	return &state, nil
}

// Shutdown cleanly brings the ledger down by closing the storage.
func (s *State) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: shutdown: closing storage")

	return s.db.Close()
}

// HasChain reports whether a genesis block has been written.
func (s *State) HasChain() (bool, error) {
	return s.db.HasChain()
}

// MinerAddress returns the configured coinbase beneficiary for transfers.
func (s *State) MinerAddress() database.Address {
	return s.minerAddress
}
