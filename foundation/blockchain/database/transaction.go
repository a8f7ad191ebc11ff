package database

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/bits"

	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
)

// Unit is the number of the smallest currency unit in one coin.
const Unit uint64 = 100_000_000

// Subsidy is the value minted by a coinbase transaction.
const Subsidy uint64 = 50 * Unit

// coinbaseIndex is the output index sentinel of a coinbase input.
const coinbaseIndex = -1

// =============================================================================

// TxInput references one output of a prior transaction. A coinbase input
// references nothing and carries an unsigned data payload instead.
type TxInput struct {
	TxID      string        `json:"txid,omitempty"`       // Id of the transaction holding the referenced output.
	OutIndex  int           `json:"vout"`                 // Index of the output in that transaction, -1 for coinbase.
	Signature hexutil.Bytes `json:"signature,omitempty"`  // [R|S] signature authorizing the spend.
	PublicKey hexutil.Bytes `json:"public_key,omitempty"` // Raw public key of the spender.
	Data      string        `json:"data,omitempty"`       // Unsigned payload, only used by coinbase inputs.
}

// IsCoinbase reports whether the input has the coinbase shape.
func (in TxInput) IsCoinbase() bool {
	return in.OutIndex == coinbaseIndex && in.TxID == ""
}

// UsesKey reports whether the public key stored on the input hashes to the
// specified public key hash.
func (in TxInput) UsesKey(pubKeyHash []byte) bool {
	return bytes.Equal(signature.PublicKeyHash(in.PublicKey), pubKeyHash)
}

// =============================================================================

// TxOutput represents value locked to the owner of a public key hash.
type TxOutput struct {
	Value      uint64        `json:"value"`
	PubKeyHash hexutil.Bytes `json:"pubkey_hash"`
}

// NewTxOutput constructs an output of the specified value locked to the
// address.
func NewTxOutput(value uint64, to Address) (TxOutput, error) {
	pkh, err := to.PubKeyHash()
	if err != nil {
		return TxOutput{}, err
	}

	return TxOutput{Value: value, PubKeyHash: pkh}, nil
}

// IsLockedWith reports whether the output can be unlocked by the owner of
// the public key hash.
func (out TxOutput) IsLockedWith(pubKeyHash []byte) bool {
	return bytes.Equal(out.PubKeyHash, pubKeyHash)
}

// =============================================================================

// Tx represents a transfer of value from a set of prior outputs to a set of
// new outputs.
type Tx struct {
	ID      string     `json:"id"`
	Inputs  []TxInput  `json:"inputs"`
	Outputs []TxOutput `json:"outputs"`
}

// NewTx constructs a transaction and assigns its id.
func NewTx(inputs []TxInput, outputs []TxOutput) Tx {
	tx := Tx{
		Inputs:  inputs,
		Outputs: outputs,
	}
	tx.SetID()

	return tx
}

// NewCoinbaseTx constructs the value creating transaction of a block paying
// the subsidy to the specified address. The input payload embeds a uuid so
// two coinbase transactions to the same address never share an id.
func NewCoinbaseTx(to Address) (Tx, error) {
	out, err := NewTxOutput(Subsidy, to)
	if err != nil {
		return Tx{}, err
	}

	in := TxInput{
		OutIndex: coinbaseIndex,
		Data:     fmt.Sprintf("Reward to %s - %s", to, uuid.NewString()),
	}

	return NewTx([]TxInput{in}, []TxOutput{out}), nil
}

// SetID computes the id of the transaction as the content hash of its
// inputs and outputs. Signing and verification call this on a trimmed copy
// whose inputs have been altered, which changes the id of that copy.
func (tx *Tx) SetID() {
	tx.ID = tx.contentHash()
}

// IsCoinbase reports whether the transaction is a coinbase transaction.
func (tx Tx) IsCoinbase() bool {
	return len(tx.Inputs) == 1 && tx.Inputs[0].IsCoinbase()
}

// TrimmedCopy returns a separately allocated copy of the transaction where
// every input has its signature and public key cleared. This is the view
// that gets signed.
func (tx Tx) TrimmedCopy() Tx {
	inputs := make([]TxInput, len(tx.Inputs))
	for i, in := range tx.Inputs {
		inputs[i] = TxInput{
			TxID:     in.TxID,
			OutIndex: in.OutIndex,
			Data:     in.Data,
		}
	}

	outputs := make([]TxOutput, len(tx.Outputs))
	for i, out := range tx.Outputs {
		outputs[i] = TxOutput{
			Value:      out.Value,
			PubKeyHash: bytes.Clone(out.PubKeyHash),
		}
	}

	return Tx{
		ID:      tx.ID,
		Inputs:  inputs,
		Outputs: outputs,
	}
}

// Sign produces a copy of the transaction with every input signed by the
// private key. The prevTxs map must hold every transaction referenced by the
// inputs keyed by id. Coinbase transactions are returned unchanged.
func (tx Tx) Sign(privateKey *ecdsa.PrivateKey, prevTxs map[string]Tx) (Tx, error) {
	if tx.IsCoinbase() {
		return tx, nil
	}

	publicKey := signature.PublicKeyBytes(privateKey.PublicKey)
	pubKeyHash := signature.PublicKeyHash(publicKey)

	signed := tx.TrimmedCopy()
	for i := range signed.Inputs {
		prevOut, err := referencedOutput(signed.Inputs[i], prevTxs)
		if err != nil {
			return Tx{}, err
		}

		if !prevOut.IsLockedWith(pubKeyHash) {
			return Tx{}, fmt.Errorf("%w: input %d: output %s:%d is not owned by the signing key", ErrInvalidTransaction, i, signed.Inputs[i].TxID, signed.Inputs[i].OutIndex)
		}

		digest, err := tx.signingDigest(i, prevOut)
		if err != nil {
			return Tx{}, err
		}

		sig, err := signature.Sign(digest, privateKey)
		if err != nil {
			return Tx{}, fmt.Errorf("signing input %d: %w", i, err)
		}

		signed.Inputs[i].Signature = sig
		signed.Inputs[i].PublicKey = bytes.Clone(publicKey)
	}

	return signed, nil
}

// Validate checks the transaction is well formed and every input carries a
// valid signature from the owner of the output it spends. The transaction
// itself is never modified. All failures wrap ErrInvalidTransaction.
func (tx Tx) Validate(prevTxs map[string]Tx) error {
	if tx.ID != tx.TrimmedCopy().contentHash() {
		return fmt.Errorf("%w: id %s does not match content", ErrInvalidTransaction, tx.ID)
	}

	if tx.IsCoinbase() {
		return nil
	}

	if len(tx.Inputs) == 0 {
		return fmt.Errorf("%w: %s: no inputs", ErrInvalidTransaction, tx.ID)
	}

	var totalIn, totalOut uint64
	for i, in := range tx.Inputs {
		if in.IsCoinbase() {
			return fmt.Errorf("%w: %s: input %d has the coinbase shape", ErrInvalidTransaction, tx.ID, i)
		}

		prevOut, err := referencedOutput(in, prevTxs)
		if err != nil {
			return err
		}

		if !in.UsesKey(prevOut.PubKeyHash) {
			return fmt.Errorf("%w: %s: input %d public key does not own the referenced output", ErrInvalidTransaction, tx.ID, i)
		}

		digest, err := tx.signingDigest(i, prevOut)
		if err != nil {
			return err
		}

		if !signature.Verify(in.Signature, in.PublicKey, digest) {
			return fmt.Errorf("%w: %s: input %d signature does not verify", ErrInvalidTransaction, tx.ID, i)
		}

		if totalIn, err = AddValues(totalIn, prevOut.Value); err != nil {
			return fmt.Errorf("%w: %s: inputs: %w", ErrInvalidTransaction, tx.ID, err)
		}
	}

	for i, out := range tx.Outputs {
		var err error
		if totalOut, err = AddValues(totalOut, out.Value); err != nil {
			return fmt.Errorf("%w: %s: output %d: %w", ErrInvalidTransaction, tx.ID, i, err)
		}
	}

	if totalOut > totalIn {
		return fmt.Errorf("%w: %s: outputs %d exceed inputs %d", ErrInvalidTransaction, tx.ID, totalOut, totalIn)
	}

	return nil
}

// AddValues returns a + b or ErrValueOverflow when the sum does not fit in
// 64 bits.
func AddValues(a uint64, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrValueOverflow
	}
	return sum, nil
}

// Verify reports whether Validate succeeds.
func (tx Tx) Verify(prevTxs map[string]Tx) bool {
	return tx.Validate(prevTxs) == nil
}

// Hash implements the merkle Hashable interface by providing the raw bytes
// of the transaction id.
func (tx Tx) Hash() ([]byte, error) {
	return hex.DecodeString(tx.ID)
}

// Equals implements the merkle Hashable interface. Two transactions with
// the same id are the same.
func (tx Tx) Equals(otherTx Tx) bool {
	return tx.ID == otherTx.ID
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	if tx.IsCoinbase() {
		return fmt.Sprintf("%s:coinbase", tx.ID)
	}

	return fmt.Sprintf("%s:in[%d]:out[%d]", tx.ID, len(tx.Inputs), len(tx.Outputs))
}

// =============================================================================

// contentHash hashes the canonical serialization of inputs and outputs.
func (tx Tx) contentHash() string {
	content := struct {
		Inputs  []TxInput  `json:"inputs"`
		Outputs []TxOutput `json:"outputs"`
	}{
		Inputs:  tx.Inputs,
		Outputs: tx.Outputs,
	}

	return signature.Hash(content)
}

// signingDigest builds the payload signed for input i. A fresh trimmed copy
// gets the lock of the referenced output placed in the public key field of
// input i and the id recomputed over that view.
func (tx Tx) signingDigest(i int, prevOut TxOutput) ([]byte, error) {
	view := tx.TrimmedCopy()
	view.Inputs[i].PublicKey = bytes.Clone(prevOut.PubKeyHash)
	view.SetID()

	return hex.DecodeString(view.ID)
}

// referencedOutput resolves the output an input spends.
func referencedOutput(in TxInput, prevTxs map[string]Tx) (TxOutput, error) {
	prevTx, exists := prevTxs[in.TxID]
	if !exists || prevTx.ID != in.TxID {
		return TxOutput{}, fmt.Errorf("%w: referenced transaction %q not found", ErrInvalidTransaction, in.TxID)
	}

	if in.OutIndex < 0 || in.OutIndex >= len(prevTx.Outputs) {
		return TxOutput{}, fmt.Errorf("%w: referenced output %s:%d does not exist", ErrInvalidTransaction, in.TxID, in.OutIndex)
	}

	return prevTx.Outputs[in.OutIndex], nil
}
