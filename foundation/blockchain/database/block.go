package database

import (
	"fmt"
	"time"

	"github.com/ardanlabs/utxochain/foundation/blockchain/merkle"
	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
)

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	PrevBlockHash string `json:"prev_block_hash"` // Hash of the previous block in the chain, ZeroHash for genesis.
	TimeStamp     int64  `json:"timestamp"`       // Unix seconds the block was created.
	TargetBits    uint   `json:"target_bits"`     // Number of leading zero bits the hash must have.
	Nonce         uint32 `json:"nonce"`           // Value identified to solve the hash solution.
	TransRoot     string `json:"trans_root"`      // Merkle root of the transaction ids in this block.
}

// Block represents a group of transactions batched together. A block only
// has a hash once proof of work has been performed on it.
type Block struct {
	Header BlockHeader
	Trans  *merkle.Tree[Tx]
	hash   string
}

// NewBlock constructs an unmined block on top of the specified block hash.
// The ordered transaction set can't be empty.
func NewBlock(trans []Tx, prevBlockHash string) (Block, error) {
	if len(trans) == 0 {
		return Block{}, ErrNoTransactions
	}

	tree, err := merkle.NewTree(trans)
	if err != nil {
		return Block{}, fmt.Errorf("%w: %w", ErrInvalidBlock, err)
	}

	nb := Block{
		Header: BlockHeader{
			PrevBlockHash: prevBlockHash,
			TimeStamp:     time.Now().UTC().Unix(),
			TargetBits:    TargetBits,
			TransRoot:     tree.RootHex(),
		},
		Trans: tree,
	}

	return nb, nil
}

// NewGenesisBlock constructs the unmined first block of a chain holding
// only the coinbase transaction.
func NewGenesisBlock(coinbase Tx) (Block, error) {
	if !coinbase.IsCoinbase() {
		return Block{}, ErrTxNotCoinbase
	}

	return NewBlock([]Tx{coinbase}, signature.ZeroHash)
}

// Hash returns the proof of work hash for the block. An unmined block has
// an empty hash.
func (b Block) Hash() string {
	return b.hash
}

// IsMined reports whether proof of work has been performed on the block.
func (b Block) IsMined() bool {
	return b.hash != ""
}

// IsGenesis reports whether the block is the first block of a chain.
func (b Block) IsGenesis() bool {
	return b.Header.PrevBlockHash == signature.ZeroHash
}

// MerkleRoot recomputes the merkle root from the ordered transaction set.
func (b Block) MerkleRoot() string {
	if b.Trans == nil {
		return ""
	}

	return b.Trans.RootHex()
}

// Transactions returns the ordered transaction set of the block.
func (b Block) Transactions() []Tx {
	if b.Trans == nil {
		return nil
	}

	return b.Trans.Values()
}

// ValidateBlock checks the block could have been produced by this ledger:
// it has been mined at the fixed target, the stored hash reproduces from the
// header and the merkle root matches the transactions.
func (b Block) ValidateBlock(evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: validate: blk[%s]: check: block has been mined", b.hash)

	if !b.IsMined() {
		return fmt.Errorf("%w: block has not been mined", ErrInvalidBlock)
	}

	evHandler("database: ValidateBlock: validate: blk[%s]: check: target bits", b.hash)

	if b.Header.TargetBits != TargetBits {
		return fmt.Errorf("%w: target bits %d, exp %d", ErrInvalidBlock, b.Header.TargetBits, TargetBits)
	}

	evHandler("database: ValidateBlock: validate: blk[%s]: check: block hash has been solved", b.hash)

	pow := NewProofOfWork(b)
	if hash := pow.hashFor(b.Header.Nonce); hash != b.hash {
		return fmt.Errorf("%w: hash does not reproduce, got %s, exp %s", ErrInvalidBlock, hash, b.hash)
	}

	if !pow.isHashSolved(b.hash) {
		return fmt.Errorf("%w: %s does not meet the target", ErrInvalidBlock, b.hash)
	}

	evHandler("database: ValidateBlock: validate: blk[%s]: check: merkle root does match transactions", b.hash)

	if root := b.MerkleRoot(); b.Header.TransRoot != root {
		return fmt.Errorf("%w: merkle root does not match transactions, got %s, exp %s", ErrInvalidBlock, root, b.Header.TransRoot)
	}

	return nil
}

// =============================================================================

// BlockData represents what is written to the blocks bucket.
type BlockData struct {
	Hash   string      `json:"hash"`
	Header BlockHeader `json:"block"`
	Trans  []Tx        `json:"trans"`
}

// NewBlockData constructs the value to serialize to storage.
func NewBlockData(block Block) BlockData {
	bd := BlockData{
		Hash:   block.Hash(),
		Header: block.Header,
		Trans:  block.Transactions(),
	}

	return bd
}

// ToBlock converts a BlockData into a Block.
func ToBlock(bd BlockData) (Block, error) {
	tree, err := merkle.NewTree(bd.Trans)
	if err != nil {
		return Block{}, fmt.Errorf("%w: %w", ErrInvalidBlock, err)
	}

	nb := Block{
		Header: bd.Header,
		Trans:  tree,
		hash:   bd.Hash,
	}

	return nb, nil
}
