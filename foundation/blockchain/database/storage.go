package database

// Set of buckets and keys used in the persistent store.
var (
	BucketMeta       = []byte("meta")
	BucketBlocks     = []byte("blocks")
	BucketChainstate = []byte("chainstate")

	// KeyHead holds the hash of the latest block in the chain.
	KeyHead = []byte("l")
)

// Buckets lists every bucket the ledger writes to. Storage implementations
// create them on open.
var Buckets = [][]byte{BucketMeta, BucketBlocks, BucketChainstate}

// Storage interface represents the behavior required to be implemented by any
// package providing persistence for the ledger. Every logical operation runs
// inside a scoped transaction: Update commits only if fn returns nil and
// releases the transaction on every exit path.
type Storage interface {
	View(fn func(tx StorageTx) error) error
	Update(fn func(tx StorageTx) error) error
	Close() error
}

// StorageTx represents the operations available inside a scoped transaction.
// Get returns nil when the key does not exist. ForEach walks the keys of a
// bucket in ascending byte order.
type StorageTx interface {
	Get(bucket []byte, key []byte) []byte
	Put(bucket []byte, key []byte, value []byte) error
	Delete(bucket []byte, key []byte) error
	ForEach(bucket []byte, fn func(key []byte, value []byte) error) error
	Clear(bucket []byte) error
}
