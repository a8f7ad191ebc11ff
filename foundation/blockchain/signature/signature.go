// Package signature provides the hashing and signing primitives the ledger
// relies on: content hashing, public key hashing for addresses and ECDSA
// signing and verification over the secp256k1 curve.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/ripemd160"
)

// ZeroHash represents a hash code of zeros. It is used as the previous hash
// of the genesis block and terminates a walk of the chain.
const ZeroHash string = "0000000000000000000000000000000000000000000000000000000000000000"

// SignatureLength is the length of a signature produced by Sign in the
// [R|S] format.
const SignatureLength = crypto.SignatureLength - 1

// =============================================================================

// Hash returns a unique hex encoded sha256 string for the value based on its
// JSON representation.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	return HashBytes(data)
}

// HashBytes returns the hex encoded sha256 digest of the data.
func HashBytes(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Hash160 returns RIPEMD160(SHA256(data)). This is the 160 bit digest used
// to lock outputs and derive addresses.
func Hash160(data []byte) []byte {
	sha := sha256.Sum256(data)

	h := ripemd160.New()
	h.Write(sha[:])

	return h.Sum(nil)
}

// =============================================================================

// GenerateKey produces a new private key on the secp256k1 curve.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return crypto.GenerateKey()
}

// PublicKeyBytes returns the uncompressed encoding of the public key.
func PublicKeyBytes(pk ecdsa.PublicKey) []byte {
	return crypto.FromECDSAPub(&pk)
}

// PublicKeyHash returns the hash of the encoded public key used to lock
// transaction outputs.
func PublicKeyHash(publicKey []byte) []byte {
	return Hash160(publicKey)
}

// Sign uses the specified private key to sign the 32 byte digest. The
// signature is returned in the 64 byte [R|S] format.
func Sign(digest []byte, privateKey *ecdsa.PrivateKey) ([]byte, error) {
	if len(digest) != crypto.DigestLength {
		return nil, errors.New("digest must be 32 bytes")
	}

	sig, err := crypto.Sign(digest, privateKey)
	if err != nil {
		return nil, err
	}

	// Make sure the public key recovered from the signature is the one
	// that belongs to the private key.
	publicKey, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return nil, err
	}

	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), digest, rs) {
		return nil, errors.New("invalid signature")
	}

	return rs, nil
}

// Verify reports whether the signature over the digest was produced by the
// private key belonging to the encoded public key. Malformed input of any
// kind results in false.
func Verify(sig []byte, publicKey []byte, digest []byte) bool {
	if len(sig) != SignatureLength || len(digest) != crypto.DigestLength {
		return false
	}

	if _, err := crypto.UnmarshalPubkey(publicKey); err != nil {
		return false
	}

	return crypto.VerifySignature(publicKey, digest, sig)
}
