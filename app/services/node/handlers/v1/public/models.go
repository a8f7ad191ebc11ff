package public

import "github.com/ardanlabs/utxochain/foundation/blockchain/database"

type block struct {
	Hash          string        `json:"hash"`
	PrevBlockHash string        `json:"prev_block_hash"`
	TimeStamp     int64         `json:"timestamp"`
	TargetBits    uint          `json:"target_bits"`
	Nonce         uint32        `json:"nonce"`
	TransRoot     string        `json:"trans_root"`
	Trans         []database.Tx `json:"trans"`
}

func toBlock(blk database.Block) block {
	return block{
		Hash:          blk.Hash(),
		PrevBlockHash: blk.Header.PrevBlockHash,
		TimeStamp:     blk.Header.TimeStamp,
		TargetBits:    blk.Header.TargetBits,
		Nonce:         blk.Header.Nonce,
		TransRoot:     blk.Header.TransRoot,
		Trans:         blk.Transactions(),
	}
}

type balance struct {
	Address database.Address `json:"address"`
	Balance uint64           `json:"balance"`
}

type balances struct {
	LatestBlock string    `json:"latest_block"`
	Balances    []balance `json:"balances"`
}

// Transfer is what a client sends to move value between addresses. The
// sender must be an address held in the node's wallet folder.
type Transfer struct {
	From   string `json:"from" validate:"required"`
	To     string `json:"to" validate:"required"`
	Amount uint64 `json:"amount" validate:"required,gt=0"`
}

type transferResult struct {
	TxID  string `json:"txid"`
	Block block  `json:"block"`
}
