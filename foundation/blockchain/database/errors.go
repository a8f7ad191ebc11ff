package database

import "errors"

// Set of errors a caller of the ledger can act on. All of them are
// recoverable at the ledger boundary.
var (
	// ErrMiningExhausted is returned when no nonce in the 32 bit range
	// solves the block. The candidate block is discarded.
	ErrMiningExhausted = errors.New("mining exhausted: no valid nonce in range")

	// ErrInvalidTransaction is returned when a transaction fails signature
	// verification or references an output that can't be resolved.
	ErrInvalidTransaction = errors.New("invalid transaction")

	// ErrInsufficientFunds is returned when the spendable outputs of the
	// sender don't cover the requested amount.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrStorageUnavailable is returned when the persistent store can't
	// complete a scoped transaction.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Set of errors for lookups and chain lifecycle.
var (
	ErrNotFound         = errors.New("not found")
	ErrNoTransactions   = errors.New("block must contain at least one transaction")
	ErrInvalidAddress   = errors.New("invalid address")
	ErrInvalidBlock     = errors.New("invalid block")
	ErrChainExists      = errors.New("blockchain already exists")
	ErrNoChain          = errors.New("no blockchain found, create one first")
	ErrEndOfChain       = errors.New("end of chain")
	ErrTxNotCoinbase    = errors.New("transaction is not a coinbase transaction")
	ErrMultipleCoinbase = errors.New("block contains more than one coinbase transaction")
	ErrValueOverflow    = errors.New("value sum overflows 64 bits")
)
