package utxo

import (
	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
)

// Scan replays the chain held by the database and returns every output that
// no input on the chain references. The walk runs from the head back to
// genesis so a spending input is always seen before the output it spends.
func Scan(db *database.Database) (Index, error) {
	idx := make(Index)
	spent := make(map[string]map[int]bool)

	iter := db.ForEach()
	for !iter.Done() {
		block, err := iter.Next()
		if err != nil {
			return nil, err
		}

		trans := block.Transactions()
		for i := len(trans) - 1; i >= 0; i-- {
			tx := trans[i]

			for outIdx, out := range tx.Outputs {
				if spent[tx.ID][outIdx] {
					continue
				}
				idx[tx.ID] = append(idx[tx.ID], Output{Index: outIdx, Output: out})
			}

			if tx.IsCoinbase() {
				continue
			}

			for _, in := range tx.Inputs {
				if spent[in.TxID] == nil {
					spent[in.TxID] = make(map[int]bool)
				}
				spent[in.TxID][in.OutIndex] = true
			}
		}
	}

	return idx, nil
}
