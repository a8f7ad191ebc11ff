// Package utxo maintains the index of unspent transaction outputs. The index
// is derived from the chain and kept in the chainstate bucket next to the
// blocks so it can be rebuilt at any time or maintained one block at a time.
package utxo

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
)

// Output is an unspent output together with its position in the transaction
// that created it.
type Output struct {
	Index  int               `json:"index"`
	Output database.TxOutput `json:"output"`
}

// OutPoint identifies a single output on the chain.
type OutPoint struct {
	TxID  string `json:"txid"`
	Index int    `json:"vout"`
}

// String implements the fmt.Stringer interface for logging.
func (op OutPoint) String() string {
	return fmt.Sprintf("%s:%d", op.TxID, op.Index)
}

// Index maps a transaction id to its outputs that remain unspent.
type Index map[string][]Output

// =============================================================================

// Set provides access to the unspent output index of a chain.
type Set struct {
	db        *database.Database
	evHandler func(v string, args ...any)
}

// New constructs a set over the chain held by the database.
func New(db *database.Database, evHandler func(v string, args ...any)) *Set {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	return &Set{
		db:        db,
		evHandler: ev,
	}
}

// Reindex replays the whole chain and replaces the persisted index with the
// result in one scoped transaction.
func (s *Set) Reindex() error {
	s.evHandler("utxo: Reindex: started")

	idx, err := Scan(s.db)
	if err != nil {
		return err
	}

	err = s.db.Storage().Update(func(tx database.StorageTx) error {
		if err := tx.Clear(database.BucketChainstate); err != nil {
			return err
		}

		for txID, outs := range idx {
			if err := putOutputs(tx, txID, outs); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.evHandler("utxo: Reindex: completed: txs[%d]", len(idx))

	return nil
}

// Update applies a single appended block to the persisted index.
func (s *Set) Update(block database.Block) error {
	return s.db.Storage().Update(func(tx database.StorageTx) error {
		return s.apply(tx, block)
	})
}

// WriteHook returns the function that applies a block to the index inside the
// same scoped transaction that writes the block.
func (s *Set) WriteHook() database.WriteHook {
	return s.apply
}

// GenesisHook returns the function that replaces the index with the outputs
// of a genesis block inside the same scoped transaction that writes it.
func (s *Set) GenesisHook() database.WriteHook {
	f := func(tx database.StorageTx, block database.Block) error {
		if err := tx.Clear(database.BucketChainstate); err != nil {
			return err
		}

		return s.apply(tx, block)
	}

	return f
}

// SpendableOutputs walks the index in ascending transaction id order and
// selects outputs locked to the public key hash until their total reaches
// amount. The accumulated total is returned with the selected outputs. The
// caller decides whether the total is enough.
func (s *Set) SpendableOutputs(pubKeyHash []byte, amount uint64) (uint64, []OutPoint, error) {
	var accumulated uint64
	var selected []OutPoint
	var sumErr error

	err := s.forEach(func(txID string, outs []Output) bool {
		for _, out := range outs {
			if accumulated >= amount {
				return false
			}

			if out.Output.IsLockedWith(pubKeyHash) {
				if accumulated, sumErr = database.AddValues(accumulated, out.Output.Value); sumErr != nil {
					return false
				}
				selected = append(selected, OutPoint{TxID: txID, Index: out.Index})
			}
		}

		return accumulated < amount
	})
	if err != nil {
		return 0, nil, err
	}

	if sumErr != nil {
		return 0, nil, fmt.Errorf("spendable outputs: %w", sumErr)
	}

	return accumulated, selected, nil
}

// BalanceOf sums every unspent output locked to the public key hash.
func (s *Set) BalanceOf(pubKeyHash []byte) (uint64, error) {
	var balance uint64
	var sumErr error

	err := s.forEach(func(txID string, outs []Output) bool {
		for _, out := range outs {
			if out.Output.IsLockedWith(pubKeyHash) {
				if balance, sumErr = database.AddValues(balance, out.Output.Value); sumErr != nil {
					return false
				}
			}
		}
		return true
	})
	if err != nil {
		return 0, err
	}

	if sumErr != nil {
		return 0, fmt.Errorf("balance: %w", sumErr)
	}

	return balance, nil
}

// Lookup returns the unspent output at the specified position. The boolean
// is false when the output was spent or never existed.
func (s *Set) Lookup(op OutPoint) (database.TxOutput, bool, error) {
	var out database.TxOutput
	var found bool

	err := s.db.Storage().View(func(tx database.StorageTx) error {
		outs, err := getOutputs(tx, op.TxID)
		if err != nil {
			return err
		}

		if i := slices.IndexFunc(outs, func(o Output) bool { return o.Index == op.Index }); i >= 0 {
			out, found = outs[i].Output, true
		}

		return nil
	})
	if err != nil {
		return database.TxOutput{}, false, err
	}

	return out, found, nil
}

// Outputs returns a copy of the whole persisted index.
func (s *Set) Outputs() (Index, error) {
	idx := make(Index)

	err := s.forEach(func(txID string, outs []Output) bool {
		idx[txID] = outs
		return true
	})
	if err != nil {
		return nil, err
	}

	return idx, nil
}

// CountTransactions returns the number of transactions with at least one
// unspent output.
func (s *Set) CountTransactions() (int, error) {
	var count int

	err := s.db.Storage().View(func(tx database.StorageTx) error {
		return tx.ForEach(database.BucketChainstate, func(k, v []byte) error {
			count++
			return nil
		})
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}

// =============================================================================

// apply removes the outputs spent by the block and stores the outputs it
// creates. An input referencing an output missing from the index fails the
// whole scoped transaction.
func (s *Set) apply(tx database.StorageTx, block database.Block) error {
	for _, trn := range block.Transactions() {
		if !trn.IsCoinbase() {
			for _, in := range trn.Inputs {
				outs, err := getOutputs(tx, in.TxID)
				if err != nil {
					return err
				}

				i := slices.IndexFunc(outs, func(o Output) bool { return o.Index == in.OutIndex })
				if i < 0 {
					return fmt.Errorf("%w: %s spends %s:%d which is not unspent", database.ErrInvalidTransaction, trn.ID, in.TxID, in.OutIndex)
				}
				outs = slices.Delete(outs, i, i+1)

				if len(outs) == 0 {
					if err := tx.Delete(database.BucketChainstate, []byte(in.TxID)); err != nil {
						return err
					}
					continue
				}

				if err := putOutputs(tx, in.TxID, outs); err != nil {
					return err
				}
			}
		}

		if len(trn.Outputs) == 0 {
			continue
		}

		outs := make([]Output, len(trn.Outputs))
		for i, out := range trn.Outputs {
			outs[i] = Output{Index: i, Output: out}
		}

		if err := putOutputs(tx, trn.ID, outs); err != nil {
			return err
		}
	}

	s.evHandler("utxo: Update: blk[%s]: txs[%d]", block.Hash(), len(block.Transactions()))

	return nil
}

// errStop ends a walk over the index early.
var errStop = errors.New("stop")

// forEach walks the persisted index in ascending transaction id order until
// fn returns false.
func (s *Set) forEach(fn func(txID string, outs []Output) bool) error {
	err := s.db.Storage().View(func(tx database.StorageTx) error {
		return tx.ForEach(database.BucketChainstate, func(k, v []byte) error {
			var outs []Output
			if err := json.Unmarshal(v, &outs); err != nil {
				return fmt.Errorf("decode chainstate %s: %w", k, err)
			}

			if !fn(string(k), outs) {
				return errStop
			}

			return nil
		})
	})
	if errors.Is(err, errStop) {
		return nil
	}

	return err
}

func getOutputs(tx database.StorageTx, txID string) ([]Output, error) {
	data := tx.Get(database.BucketChainstate, []byte(txID))
	if data == nil {
		return nil, nil
	}

	var outs []Output
	if err := json.Unmarshal(data, &outs); err != nil {
		return nil, fmt.Errorf("decode chainstate %s: %w", txID, err)
	}

	return outs, nil
}

func putOutputs(tx database.StorageTx, txID string, outs []Output) error {
	data, err := json.Marshal(outs)
	if err != nil {
		return fmt.Errorf("encode chainstate %s: %w", txID, err)
	}

	return tx.Put(database.BucketChainstate, []byte(txID), data)
}
