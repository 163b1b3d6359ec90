// Package ledger defines the read-only query surface the bootstrap service
// consumes plus a concrete store the block processor
// writes through. Two implementations are provided: an in-memory ledger for
// tests, and a store backed by tendermint/tm-db for a real on-disk node,
// both grounded on internal/store/store.go's key-encoding idiom
// (github.com/google/orderedcode over a dbm.DB).
package ledger

import (
	"github.com/gonano/nanogo/internal/chain"
)

// AccountInfo is the denormalized per-account record the design requires
// account_info_by_hash responses to report.
type AccountInfo struct {
	Account              chain.Account
	Open                 chain.Hash
	Head                 chain.Hash
	RepresentativeBlock  chain.Hash
	Balance              uint64
	BlockCount           uint64
	ConfirmationHeight   uint64
	ConfirmationFrontier chain.Hash
}

// Tx is an opaque read-only transaction handle, matching the Ledger
// collaborator interface's "read-only transaction factory".
type Tx interface {
	Discard()
}

// Ledger is the narrow, read-only interface the bootstrap service is
// written against. Everything else - block application,
// confirmation height advancement - is the block processor's concern,
// reached only by narrow feedback (the batch_processed event stream), never
// a direct write call from bootstrap.
type Ledger interface {
	NewReadTx() Tx

	// BlockGet returns the block stored at hash, under "any" status (it may
	// be unconfirmed).
	BlockGet(tx Tx, hash chain.Hash) (*chain.Block, bool)

	// AccountGet returns the denormalized account record, under "any"
	// status.
	AccountGet(tx Tx, account chain.Account) (AccountInfo, bool)

	// BlockSuccessor returns the hash of the block whose Previous field is
	// hash, if the ledger has one.
	BlockSuccessor(tx Tx, hash chain.Hash) (chain.Hash, bool)

	// ConfirmedBlockExists reports whether hash names a block under
	// "confirmed" status - used by the cleanup thread's sync_dependencies
	// sweep to decide whether a blocking entry's dependency has arrived.
	ConfirmedBlockExists(tx Tx, hash chain.Hash) bool

	AccountCount() uint64
	BlockCount() uint64

	// AccountsFrom returns up to limit account ids in ascending order
	// starting at or after start, for C4's database-scan cursor.
	AccountsFrom(tx Tx, start chain.Account, limit int) []chain.Account
}

// Writable is the write-through surface the block processor uses. It is
// kept separate from Ledger because the design treats the ledger as read-only
// from the bootstrap service's point of view: only the block processor
// ever calls Apply.
type Writable interface {
	Ledger

	// Apply persists block, confirming it immediately when confirm is
	// true, and reports whether the block was new.
	Apply(block *chain.Block, confirm bool) bool

	// AccountExists reports whether account already has an open block,
	// used when deciding whether an open block without a previous is a
	// fork.
	AccountExists(account chain.Account) bool
}
