package database

import (
	"errors"
	"strings"
	"testing"

	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func noopEv(v string, args ...any) {}

func fixedBlock(t *testing.T, timeStamp int64) Block {
	t.Helper()

	addr := PubKeyHashToAddress(make([]byte, pubKeyHashLength))
	coinbase, err := NewCoinbaseTx(addr)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to create a coinbase transaction: %v", failed, err)
	}

	b, err := NewGenesisBlock(coinbase)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to create a block: %v", failed, err)
	}
	b.Header.TimeStamp = timeStamp

	return b
}

func Test_POWFirstNonce(t *testing.T) {
	t.Log("Given the need to mine a block with the first solving nonce.")
	{
		b := fixedBlock(t, 1_700_000_000)

		mined, err := POW(b, noopEv)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine the block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to mine the block.", success)

		if !strings.HasPrefix(mined.Hash(), "0000") {
			t.Fatalf("\t%s\tShould get a hash with 16 leading zero bits: %s", failed, mined.Hash())
		}
		t.Logf("\t%s\tShould get a hash with 16 leading zero bits.", success)

		pow := NewProofOfWork(mined)
		if !pow.Validate() {
			t.Fatalf("\t%s\tShould reproduce the hash from the header.", failed)
		}
		t.Logf("\t%s\tShould reproduce the hash from the header.", success)

		for nonce := uint32(0); nonce < mined.Header.Nonce; nonce++ {
			if pow.isHashSolved(pow.hashFor(nonce)) {
				t.Fatalf("\t%s\tShould not find a smaller solving nonce, %d solves.", failed, nonce)
			}
		}
		t.Logf("\t%s\tShould have found the smallest solving nonce %d.", success, mined.Header.Nonce)

		if err := mined.ValidateBlock(noopEv); err != nil {
			t.Fatalf("\t%s\tShould validate the mined block: %v", failed, err)
		}
		t.Logf("\t%s\tShould validate the mined block.", success)

		if b.IsMined() || b.Hash() != "" {
			t.Fatalf("\t%s\tShould leave the candidate block unmined.", failed)
		}
		t.Logf("\t%s\tShould leave the candidate block unmined.", success)
	}
}

func Test_POWExhausted(t *testing.T) {
	t.Log("Given the need to stop mining when the nonce range is used up.")
	{
		var pow *ProofOfWork
		for ts := int64(1_700_000_000); ; ts++ {
			pow = NewProofOfWork(fixedBlock(t, ts))
			if !pow.isHashSolved(pow.hashFor(0)) {
				break
			}
		}
		pow.maxNonce = 0

		_, _, err := pow.Run(noopEv)
		if !errors.Is(err, ErrMiningExhausted) {
			t.Fatalf("\t%s\tShould get ErrMiningExhausted, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould get ErrMiningExhausted.", success)
	}
}

func Test_PrepareData(t *testing.T) {
	t.Log("Given the need to hash the header in a fixed layout.")
	{
		b := Block{
			Header: BlockHeader{
				PrevBlockHash: signature.ZeroHash,
				TimeStamp:     255,
				TargetBits:    TargetBits,
				TransRoot:     "ab",
			},
		}

		got := string(NewProofOfWork(b).prepareData(4096))
		exp := signature.ZeroHash + "ab" + "ff" + "10" + "1000"
		if got != exp {
			t.Logf("\t\tgot: %s", got)
			t.Logf("\t\texp: %s", exp)
			t.Fatalf("\t%s\tShould concatenate the hex encoded header fields.", failed)
		}
		t.Logf("\t%s\tShould concatenate the hex encoded header fields.", success)
	}
}

func Test_ValidateBlock(t *testing.T) {
	t.Log("Given the need to reject blocks that were not properly mined.")
	{
		b := fixedBlock(t, 1_700_000_000)

		if err := b.ValidateBlock(noopEv); !errors.Is(err, ErrInvalidBlock) {
			t.Fatalf("\t%s\tShould reject an unmined block, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould reject an unmined block.", success)

		mined, err := POW(b, noopEv)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine the block: %v", failed, err)
		}

		forged := mined
		forged.Header.TimeStamp++
		if err := forged.ValidateBlock(noopEv); !errors.Is(err, ErrInvalidBlock) {
			t.Fatalf("\t%s\tShould reject a block whose header changed after mining, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould reject a block whose header changed after mining.", success)

		forged = mined
		forged.Header.TransRoot = signature.ZeroHash
		if err := forged.ValidateBlock(noopEv); !errors.Is(err, ErrInvalidBlock) {
			t.Fatalf("\t%s\tShould reject a block whose merkle root was replaced, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould reject a block whose merkle root was replaced.", success)
	}
}
