// Package chain defines the account-chain domain types shared by the
// ledger, block processor and bootstrap packages: accounts, block hashes,
// and the universal block used by the block-lattice.
//
// Plain structs with a Hash() method per value, no runtime polymorphism
// beyond a tagged kind.
package chain

import (
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// HashSize is the width, in bytes, of an account id, a block hash, and a
// public key. Nano-style chains use a single 256-bit digest for all three.
const HashSize = 32

// Hash is a 256-bit digest: an account id, a block hash, or a link field.
type Hash [HashSize]byte

// ZeroHash is the reserved "no value" hash used for genesis previous links
// and absent dependencies.
var ZeroHash Hash

// IsZero reports whether h is the reserved zero value.
func (h Hash) IsZero() bool { return h == ZeroHash }

// String renders the hash as upper-case hex, matching the wire encoding.
func (h Hash) String() string { return strings.ToUpper(hex.EncodeToString(h[:])) }

// Less gives Hash a total order, used by the frontier scan's account-id
// space partitioning and by any sorted index keyed on hash.
func (h Hash) Less(o Hash) bool {
	for i := range h {
		if h[i] != o[i] {
			return h[i] < o[i]
		}
	}
	return false
}

// Next returns h+1 treating h as a big-endian 256-bit integer, wrapping to
// ZeroHash on overflow. Used by cursor-based scans that walk the account-id
// space exclusive of the last-seen id.
func (h Hash) Next() Hash {
	out := h
	for i := len(out) - 1; i >= 0; i-- {
		out[i]++
		if out[i] != 0 {
			return out
		}
	}
	return ZeroHash
}

// HashFromBytes parses a fixed-width hash, erroring on any other length.
func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashSize {
		return h, errors.New("chain: wrong hash length")
	}
	copy(h[:], b)
	return h, nil
}

// Account is an account id: the blake2b digest of its ed25519 public key.
// It is represented identically to Hash so that account ids and block
// hashes can share one index type in the ledger and in the bootstrap tag
// table.
type Account = Hash

// BlockType distinguishes the block variants carried over the wire. The
// spec only requires chain continuity across arbitrary blocks; the type
// itself doesn't change bootstrap behavior.
type BlockType uint8

const (
	BlockUnknown BlockType = iota
	BlockSend
	BlockReceive
	BlockOpen
	BlockChange
	BlockState
)

// Block is the universal block record. Every account chain is a singly
// linked list of Blocks via Previous; Source/Link names the counterpart
// block for receives.
type Block struct {
	Type           BlockType
	Account        Account
	Previous       Hash // zero for the first (open) block of a chain
	Representative Account
	Balance        uint64
	Link           Hash // send destination, receive source, or epoch marker
	Signature      [64]byte
	Work           uint64

	hash   Hash
	hashed bool
}

// Hash returns the block's content hash, computing and caching it on first
// use. The digest covers every field that participates in the signature.
func (b *Block) Hash() Hash {
	if b.hashed {
		return b.hash
	}
	h, _ := blake2b.New256(nil)
	h.Write([]byte{byte(b.Type)})
	h.Write(b.Account[:])
	h.Write(b.Previous[:])
	h.Write(b.Representative[:])
	var balBuf [8]byte
	putUint64(balBuf[:], b.Balance)
	h.Write(balBuf[:])
	h.Write(b.Link[:])
	sum := h.Sum(nil)
	copy(b.hash[:], sum)
	b.hashed = true
	return b.hash
}

// Source reports the hash of the send block a receive/open block's Link
// field names as the source of funds, used by C8 to diagnose gap_source
// conditions.
func (b *Block) Source() Hash {
	return b.Link
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (56 - 8*i))
	}
}
