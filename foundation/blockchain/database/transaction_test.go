package database_test

import (
	"crypto/ecdsa"
	"errors"
	"math"
	"testing"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	pkHexKeyA = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	pkHexKeyB = "aed31b6b5a5ba2a5a2b8b7a0a1d0d3e2a54a5d4b5ff6b1e0eb1d6d3f1b2c7a9e"
)

func mustKey(t *testing.T, hexKey string) *ecdsa.PrivateKey {
	t.Helper()

	pk, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to load the private key: %v", failed, err)
	}

	return pk
}

// spendFixture produces a coinbase paying A and an unsigned transaction
// spending it: 30 coins to B and the change back to A.
func spendFixture(t *testing.T) (*ecdsa.PrivateKey, *ecdsa.PrivateKey, database.Tx, database.Tx) {
	t.Helper()

	keyA := mustKey(t, pkHexKeyA)
	keyB := mustKey(t, pkHexKeyB)

	addrA := database.PublicKeyToAddress(keyA.PublicKey)
	addrB := database.PublicKeyToAddress(keyB.PublicKey)

	coinbase, err := database.NewCoinbaseTx(addrA)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to create a coinbase transaction: %v", failed, err)
	}

	toB, err := database.NewTxOutput(30*database.Unit, addrB)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to create an output: %v", failed, err)
	}

	change, err := database.NewTxOutput(20*database.Unit, addrA)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to create an output: %v", failed, err)
	}

	in := database.TxInput{TxID: coinbase.ID, OutIndex: 0}
	tx := database.NewTx([]database.TxInput{in}, []database.TxOutput{toB, change})

	return keyA, keyB, coinbase, tx
}

// =============================================================================

func Test_Coinbase(t *testing.T) {
	t.Log("Given the need to mint new value with a coinbase transaction.")
	{
		addr := database.PublicKeyToAddress(mustKey(t, pkHexKeyA).PublicKey)

		tx1, err := database.NewCoinbaseTx(addr)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to create a coinbase transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to create a coinbase transaction.", success)

		if !tx1.IsCoinbase() {
			t.Fatalf("\t%s\tShould be recognized as a coinbase transaction.", failed)
		}
		t.Logf("\t%s\tShould be recognized as a coinbase transaction.", success)

		if len(tx1.Outputs) != 1 || tx1.Outputs[0].Value != database.Subsidy {
			t.Fatalf("\t%s\tShould pay exactly the subsidy: %+v", failed, tx1.Outputs)
		}
		t.Logf("\t%s\tShould pay exactly the subsidy.", success)

		pkh, _ := addr.PubKeyHash()
		if !tx1.Outputs[0].IsLockedWith(pkh) {
			t.Fatalf("\t%s\tShould lock the output to the address.", failed)
		}
		t.Logf("\t%s\tShould lock the output to the address.", success)

		if !tx1.Verify(nil) {
			t.Fatalf("\t%s\tShould verify without any referenced transactions.", failed)
		}
		t.Logf("\t%s\tShould verify without any referenced transactions.", success)

		tx2, err := database.NewCoinbaseTx(addr)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to create a second coinbase transaction: %v", failed, err)
		}

		if tx1.ID == tx2.ID {
			t.Fatalf("\t%s\tShould get distinct ids for two rewards to the same address.", failed)
		}
		t.Logf("\t%s\tShould get distinct ids for two rewards to the same address.", success)

		if _, err := database.NewCoinbaseTx("not-an-address"); err == nil {
			t.Fatalf("\t%s\tShould not pay to an invalid address.", failed)
		}
		t.Logf("\t%s\tShould not pay to an invalid address.", success)
	}
}

func Test_SignVerify(t *testing.T) {
	t.Log("Given the need to sign and verify a spending transaction.")
	{
		keyA, _, coinbase, tx := spendFixture(t)
		prevTxs := map[string]database.Tx{coinbase.ID: coinbase}

		signed, err := tx.Sign(keyA, prevTxs)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to sign the transaction.", success)

		if len(signed.Inputs[0].Signature) != signature.SignatureLength {
			t.Fatalf("\t%s\tShould get a %d byte signature, got %d.", failed, signature.SignatureLength, len(signed.Inputs[0].Signature))
		}
		t.Logf("\t%s\tShould get a %d byte signature.", success, signature.SignatureLength)

		if signed.ID != tx.ID {
			t.Fatalf("\t%s\tShould keep the id when signing.", failed)
		}
		t.Logf("\t%s\tShould keep the id when signing.", success)

		if tx.Inputs[0].Signature != nil || tx.Inputs[0].PublicKey != nil {
			t.Fatalf("\t%s\tShould not modify the unsigned transaction.", failed)
		}
		t.Logf("\t%s\tShould not modify the unsigned transaction.", success)

		if err := signed.Validate(prevTxs); err != nil {
			t.Fatalf("\t%s\tShould verify the signed transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould verify the signed transaction.", success)

		if tx.Verify(prevTxs) {
			t.Fatalf("\t%s\tShould not verify the unsigned transaction.", failed)
		}
		t.Logf("\t%s\tShould not verify the unsigned transaction.", success)

		if signed.Verify(map[string]database.Tx{}) {
			t.Fatalf("\t%s\tShould not verify when the referenced transaction is unknown.", failed)
		}
		t.Logf("\t%s\tShould not verify when the referenced transaction is unknown.", success)
	}
}

func Test_Tampering(t *testing.T) {
	keyA, keyB, coinbase, tx := spendFixture(t)
	prevTxs := map[string]database.Tx{coinbase.ID: coinbase}

	signed, err := tx.Sign(keyA, prevTxs)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to sign the transaction: %v", failed, err)
	}

	tt := []struct {
		name   string
		tamper func(tx database.Tx) database.Tx
	}{
		{
			name: "signature-bit",
			tamper: func(tx database.Tx) database.Tx {
				tx = tx.TrimmedCopy()
				tx.Inputs[0] = signed.Inputs[0]
				sig := append([]byte{}, tx.Inputs[0].Signature...)
				sig[10] ^= 0x01
				tx.Inputs[0].Signature = sig
				return tx
			},
		},
		{
			name: "output-value",
			tamper: func(tx database.Tx) database.Tx {
				tx = copySigned(tx)
				tx.Outputs[0].Value++
				tx.SetID()
				return tx
			},
		},
		{
			name: "output-value-keep-id",
			tamper: func(tx database.Tx) database.Tx {
				tx = copySigned(tx)
				tx.Outputs[0].Value--
				return tx
			},
		},
		{
			name: "output-lock",
			tamper: func(tx database.Tx) database.Tx {
				tx = copySigned(tx)
				tx.Outputs[0].PubKeyHash = signature.PublicKeyHash(signature.PublicKeyBytes(keyA.PublicKey))
				tx.SetID()
				return tx
			},
		},
		{
			name: "public-key",
			tamper: func(tx database.Tx) database.Tx {
				tx = copySigned(tx)
				tx.Inputs[0].PublicKey = signature.PublicKeyBytes(keyB.PublicKey)
				return tx
			},
		},
		{
			name: "key-substitution",
			tamper: func(tx database.Tx) database.Tx {
				tx = copySigned(tx)

				view := tx.TrimmedCopy()
				view.Inputs[0].PublicKey = coinbase.Outputs[0].PubKeyHash
				view.SetID()

				digest, _ := (database.Tx{ID: view.ID}).Hash()
				sig, _ := signature.Sign(digest, keyB)

				tx.Inputs[0].Signature = sig
				tx.Inputs[0].PublicKey = signature.PublicKeyBytes(keyB.PublicKey)
				return tx
			},
		},
		{
			name: "overspend",
			tamper: func(tx database.Tx) database.Tx {
				tx = tx.TrimmedCopy()
				tx.Outputs[0].Value = database.Subsidy
				tx.SetID()
				tx, _ = tx.Sign(keyA, prevTxs)
				return tx
			},
		},
		{
			name: "output-overflow",
			tamper: func(tx database.Tx) database.Tx {
				tx = tx.TrimmedCopy()
				tx.Outputs[0].Value = math.MaxUint64
				tx.Outputs[1].Value = database.Subsidy + 1
				tx.SetID()
				tx, _ = tx.Sign(keyA, prevTxs)
				return tx
			},
		},
	}

	t.Log("Given the need to reject tampered transactions.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				bad := tst.tamper(signed)

				if bad.Verify(prevTxs) {
					t.Fatalf("\t%s\tTest %d:\tShould not verify the tampered transaction.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould not verify the tampered transaction.", success, testID)

				if !signed.Verify(prevTxs) {
					t.Fatalf("\t%s\tTest %d:\tShould still verify the original transaction.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould still verify the original transaction.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_ValueOverflow(t *testing.T) {
	keyA, _, coinbase, tx := spendFixture(t)
	prevTxs := map[string]database.Tx{coinbase.ID: coinbase}

	t.Log("Given the need to conserve value when output sums wrap around.")
	{
		tx.Outputs[0].Value = math.MaxUint64
		tx.Outputs[1].Value = database.Subsidy + 1
		tx.SetID()

		signed, err := tx.Sign(keyA, prevTxs)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to sign the transaction.", success)

		err = signed.Validate(prevTxs)
		if !errors.Is(err, database.ErrInvalidTransaction) || !errors.Is(err, database.ErrValueOverflow) {
			t.Fatalf("\t%s\tShould reject outputs whose sum overflows, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould reject outputs whose sum overflows.", success)

		if sum, err := database.AddValues(math.MaxUint64-1, 1); err != nil || sum != math.MaxUint64 {
			t.Fatalf("\t%s\tShould add values up to the maximum, got %d: %v.", failed, sum, err)
		}
		t.Logf("\t%s\tShould add values up to the maximum.", success)

		if _, err := database.AddValues(math.MaxUint64, 1); !errors.Is(err, database.ErrValueOverflow) {
			t.Fatalf("\t%s\tShould report an overflowing sum, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould report an overflowing sum.", success)
	}
}

func Test_SignWrongKey(t *testing.T) {
	t.Log("Given the need to refuse signing outputs owned by another key.")
	{
		_, keyB, coinbase, tx := spendFixture(t)
		prevTxs := map[string]database.Tx{coinbase.ID: coinbase}

		if _, err := tx.Sign(keyB, prevTxs); err == nil {
			t.Fatalf("\t%s\tShould not sign with a key that doesn't own the output.", failed)
		}
		t.Logf("\t%s\tShould not sign with a key that doesn't own the output.", success)
	}
}

func Test_TrimmedCopy(t *testing.T) {
	t.Log("Given the need for a trimmed copy to be independent of the original.")
	{
		keyA, _, coinbase, tx := spendFixture(t)

		signed, err := tx.Sign(keyA, map[string]database.Tx{coinbase.ID: coinbase})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the transaction: %v", failed, err)
		}

		trimmed := signed.TrimmedCopy()
		if trimmed.Inputs[0].Signature != nil || trimmed.Inputs[0].PublicKey != nil {
			t.Fatalf("\t%s\tShould clear the signature and public key.", failed)
		}
		t.Logf("\t%s\tShould clear the signature and public key.", success)

		trimmed.Inputs[0].TxID = "changed"
		trimmed.Outputs[0].PubKeyHash[0] ^= 0xff

		if signed.Inputs[0].TxID != coinbase.ID || !signed.Verify(map[string]database.Tx{coinbase.ID: coinbase}) {
			t.Fatalf("\t%s\tShould not share memory with the original.", failed)
		}
		t.Logf("\t%s\tShould not share memory with the original.", success)
	}
}

// copySigned returns a deep copy of a signed transaction.
func copySigned(tx database.Tx) database.Tx {
	cp := tx.TrimmedCopy()
	for i := range tx.Inputs {
		cp.Inputs[i].Signature = append([]byte{}, tx.Inputs[i].Signature...)
		cp.Inputs[i].PublicKey = append([]byte{}, tx.Inputs[i].PublicKey...)
	}

	return cp
}
