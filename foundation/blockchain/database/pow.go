package database

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
)

// TargetBits is the static difficulty of the ledger. A block hash must be
// numerically less than 2^(256-TargetBits).
const TargetBits = 16

// ProofOfWork performs the mining of a single block.
type ProofOfWork struct {
	block    Block
	target   *big.Int
	maxNonce uint64
}

// NewProofOfWork constructs the mining state for the block using the target
// bits stored in its header.
func NewProofOfWork(block Block) *ProofOfWork {
	target := big.NewInt(1)
	target.Lsh(target, 256-block.Header.TargetBits)

	pow := ProofOfWork{
		block:    block,
		target:   target,
		maxNonce: math.MaxUint32,
	}

	return &pow
}

// Run searches nonces in ascending order starting at zero and returns the
// first nonce that solves the block with its hash. ErrMiningExhausted is
// returned when the nonce range is used up.
func (pow *ProofOfWork) Run(evHandler func(v string, args ...any)) (uint32, string, error) {
	evHandler("database: POW: MINING: started: prevBlk[%s]", pow.block.Header.PrevBlockHash)

	for _, tx := range pow.block.Transactions() {
		evHandler("database: POW: MINING: tx[%s]", tx)
	}

	for nonce := uint64(0); nonce <= pow.maxNonce; nonce++ {
		if nonce > 0 && nonce%1_000_000 == 0 {
			evHandler("database: POW: MINING: attempts[%d]", nonce)
		}

		hash := pow.hashFor(uint32(nonce))
		if !pow.isHashSolved(hash) {
			continue
		}

		evHandler("database: POW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: nonce[%d]", pow.block.Header.PrevBlockHash, hash, nonce)

		return uint32(nonce), hash, nil
	}

	evHandler("database: POW: MINING: EXHAUSTED: prevBlk[%s]", pow.block.Header.PrevBlockHash)

	return 0, "", ErrMiningExhausted
}

// Validate reports whether the nonce and hash stored on the block solve it.
func (pow *ProofOfWork) Validate() bool {
	hash := pow.hashFor(pow.block.Header.Nonce)
	return hash == pow.block.hash && pow.isHashSolved(hash)
}

// hashFor hashes the header data of the block for the specified nonce.
func (pow *ProofOfWork) hashFor(nonce uint32) string {
	return signature.HashBytes(pow.prepareData(nonce))
}

// prepareData concatenates the previous hash, the merkle root and the hex
// forms of the timestamp, target bits and nonce.
func (pow *ProofOfWork) prepareData(nonce uint32) []byte {
	h := pow.block.Header

	var b strings.Builder
	b.WriteString(h.PrevBlockHash)
	b.WriteString(h.TransRoot)
	b.WriteString(strconv.FormatInt(h.TimeStamp, 16))
	b.WriteString(strconv.FormatUint(uint64(h.TargetBits), 16))
	b.WriteString(strconv.FormatUint(uint64(nonce), 16))

	return []byte(b.String())
}

// isHashSolved checks the hash, read as a big endian number, is below
// the target.
func (pow *ProofOfWork) isHashSolved(hash string) bool {
	var n big.Int
	if _, ok := n.SetString(hash, 16); !ok {
		return false
	}

	return n.Cmp(pow.target) < 0
}

// =============================================================================

// POW performs the proof of work on the block and returns it mined.
func POW(block Block, evHandler func(v string, args ...any)) (Block, error) {
	if block.Trans == nil {
		return Block{}, ErrNoTransactions
	}

	nonce, hash, err := NewProofOfWork(block).Run(evHandler)
	if err != nil {
		return Block{}, err
	}

	block.Header.Nonce = nonce
	block.hash = hash

	return block, nil
}

// String implements the fmt.Stringer interface for logging.
func (pow *ProofOfWork) String() string {
	return fmt.Sprintf("target[%064x]", pow.target)
}
