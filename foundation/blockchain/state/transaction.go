package state

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
)

// BuildTransfer constructs and signs a transaction moving amount from the
// owner of the private key to the specified address. Nothing is persisted.
func (s *State) BuildTransfer(privateKey *ecdsa.PrivateKey, to database.Address, amount uint64) (database.Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.buildTransfer(privateKey, to, amount)
}

// Transfer builds the transaction, mines it into a new block together with a
// coinbase transaction rewarding the miner and appends the block. The miner
// is the configured miner address or the sender when none is configured.
func (s *State) Transfer(privateKey *ecdsa.PrivateKey, to database.Address, amount uint64) (database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.buildTransfer(privateKey, to, amount)
	if err != nil {
		return database.Block{}, err
	}

	miner := s.minerAddress
	if miner == "" {
		miner = database.PublicKeyToAddress(privateKey.PublicKey)
	}

	coinbase, err := database.NewCoinbaseTx(miner)
	if err != nil {
		return database.Block{}, err
	}

	return s.appendBlock([]database.Tx{coinbase, tx})
}

// =============================================================================

func (s *State) buildTransfer(privateKey *ecdsa.PrivateKey, to database.Address, amount uint64) (database.Tx, error) {
	if amount == 0 {
		return database.Tx{}, fmt.Errorf("%w: amount must be greater than zero", database.ErrInvalidTransaction)
	}

	from := database.PublicKeyToAddress(privateKey.PublicKey)

	fromPKH, err := from.PubKeyHash()
	if err != nil {
		return database.Tx{}, err
	}

	toPKH, err := to.PubKeyHash()
	if err != nil {
		return database.Tx{}, err
	}

	accumulated, outPoints, err := s.utxo.SpendableOutputs(fromPKH, amount)
	if err != nil {
		return database.Tx{}, err
	}

	if accumulated < amount {
		return database.Tx{}, fmt.Errorf("%w: %s: balance %d, needed %d", database.ErrInsufficientFunds, from, accumulated, amount)
	}

	s.evHandler("state: BuildTransfer: from[%s] to[%s] amount[%d] inputs[%d]", from, to, amount, len(outPoints))

	prevTxs := make(map[string]database.Tx)
	inputs := make([]database.TxInput, 0, len(outPoints))
	for _, op := range outPoints {
		if _, exists := prevTxs[op.TxID]; !exists {
			prevTx, err := s.db.FindTransaction(op.TxID)
			if err != nil {
				return database.Tx{}, fmt.Errorf("%w: resolve %s: %w", database.ErrInvalidTransaction, op, err)
			}
			prevTxs[op.TxID] = prevTx
		}

		inputs = append(inputs, database.TxInput{TxID: op.TxID, OutIndex: op.Index})
	}

	outputs := []database.TxOutput{
		{Value: amount, PubKeyHash: toPKH},
	}

	// A zero value change output is never created.
	if accumulated > amount {
		outputs = append(outputs, database.TxOutput{Value: accumulated - amount, PubKeyHash: fromPKH})
	}

	tx := database.NewTx(inputs, outputs)

	return tx.Sign(privateKey, prevTxs)
}
