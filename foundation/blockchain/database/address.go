package database

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
	"github.com/btcsuite/btcd/btcutil/base58"
)

// AddressVersion is the version byte prefixed to the public key hash before
// the address is encoded.
const AddressVersion byte = 0x00

// pubKeyHashLength is the size of a RIPEMD160 public key hash.
const pubKeyHashLength = 20

// Address represents the human readable form of a public key hash. It is
// base58 encoded as version | public key hash | checksum where the checksum
// is the first 4 bytes of the double sha256 of version | public key hash.
type Address string

// ToAddress validates the string is a properly formatted address.
func ToAddress(s string) (Address, error) {
	a := Address(s)
	if _, err := a.PubKeyHash(); err != nil {
		return "", err
	}

	return a, nil
}

// PubKeyHashToAddress encodes the public key hash as an address.
func PubKeyHashToAddress(pubKeyHash []byte) Address {
	return Address(base58.CheckEncode(pubKeyHash, AddressVersion))
}

// PublicKeyToAddress converts the public key to an address.
func PublicKeyToAddress(pk ecdsa.PublicKey) Address {
	pkh := signature.PublicKeyHash(signature.PublicKeyBytes(pk))
	return PubKeyHashToAddress(pkh)
}

// PubKeyHash decodes the address, checks the version and checksum and
// returns the public key hash with the checksum bytes stripped.
func (a Address) PubKeyHash() ([]byte, error) {
	pkh, version, err := base58.CheckDecode(string(a))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %s", ErrInvalidAddress, a, err)
	}

	if version != AddressVersion {
		return nil, fmt.Errorf("%w: %q: unknown version %d", ErrInvalidAddress, a, version)
	}

	if len(pkh) != pubKeyHashLength {
		return nil, fmt.Errorf("%w: %q: public key hash is %d bytes", ErrInvalidAddress, a, len(pkh))
	}

	return pkh, nil
}

// IsAddress reports whether the underlying data is a valid address.
func (a Address) IsAddress() bool {
	_, err := a.PubKeyHash()
	return err == nil
}

// String implements the fmt.Stringer interface.
func (a Address) String() string {
	return string(a)
}
