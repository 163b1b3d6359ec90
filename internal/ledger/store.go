package ledger

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/google/orderedcode"
	dbm "github.com/tendermint/tm-db"

	"github.com/gonano/nanogo/internal/chain"
)

// Store is a tm-db-backed Ledger. Keys are composite-encoded with
// google/orderedcode so that account and block-hash prefixes sort
// contiguously, letting AccountsFrom walk accounts in ascending order with
// a plain range iterator - the same trick internal/store/store.go uses to
// keep block metas ordered by height.
//
// The store can be assumed to contain all blocks it has been told to
// Apply; like the classic BlockStore, methods panic on deserialization
// errors, since that indicates on-disk corruption rather than a
// recoverable condition.
type Store struct {
	db dbm.DB

	mu          sync.Mutex
	accountCount uint64
	blockCount  uint64
}

const (
	prefixBlock        int64 = 1
	prefixAccount      int64 = 2
	prefixSuccessor    int64 = 3
	prefixConfirmed    int64 = 4
	prefixAccountIndex int64 = 5
)

// NewStore returns a Store backed by db, recomputing its counters from
// whatever is already present.
func NewStore(db dbm.DB) *Store {
	s := &Store{db: db}
	s.accountCount = s.countPrefix(prefixAccountIndex)
	s.blockCount = s.countPrefix(prefixBlock)
	return s
}

func (s *Store) countPrefix(prefix int64) uint64 {
	start, _ := orderedcode.Append(nil, prefix)
	end, _ := orderedcode.Append(nil, prefix+1)
	iter, err := s.db.Iterator(start, end)
	if err != nil {
		panic(err)
	}
	defer iter.Close()

	var n uint64
	for ; iter.Valid(); iter.Next() {
		n++
	}
	return n
}

type dbTx struct{}

func (dbTx) Discard() {}

func (s *Store) NewReadTx() Tx { return dbTx{} }

func blockKey(hash chain.Hash) []byte {
	key, err := orderedcode.Append(nil, prefixBlock, string(hash[:]))
	if err != nil {
		panic(err)
	}
	return key
}

func accountKey(account chain.Account) []byte {
	key, err := orderedcode.Append(nil, prefixAccount, string(account[:]))
	if err != nil {
		panic(err)
	}
	return key
}

func accountIndexKey(account chain.Account) []byte {
	key, err := orderedcode.Append(nil, prefixAccountIndex, string(account[:]))
	if err != nil {
		panic(err)
	}
	return key
}

func successorKey(hash chain.Hash) []byte {
	key, err := orderedcode.Append(nil, prefixSuccessor, string(hash[:]))
	if err != nil {
		panic(err)
	}
	return key
}

func confirmedKey(hash chain.Hash) []byte {
	key, err := orderedcode.Append(nil, prefixConfirmed, string(hash[:]))
	if err != nil {
		panic(err)
	}
	return key
}

// BlockGet loads and decodes the block at hash, or (nil, false) if absent.
func (s *Store) BlockGet(_ Tx, hash chain.Hash) (*chain.Block, bool) {
	bz, err := s.db.Get(blockKey(hash))
	if err != nil {
		panic(err)
	}
	if len(bz) == 0 {
		return nil, false
	}
	block, err := decodeBlock(bz)
	if err != nil {
		panic(fmt.Errorf("ledger: decode block %s: %w", hash, err))
	}
	return block, true
}

func (s *Store) AccountGet(_ Tx, account chain.Account) (AccountInfo, bool) {
	bz, err := s.db.Get(accountKey(account))
	if err != nil {
		panic(err)
	}
	if len(bz) == 0 {
		return AccountInfo{}, false
	}
	return decodeAccountInfo(bz), true
}

func (s *Store) BlockSuccessor(_ Tx, hash chain.Hash) (chain.Hash, bool) {
	bz, err := s.db.Get(successorKey(hash))
	if err != nil {
		panic(err)
	}
	if len(bz) == 0 {
		return chain.Hash{}, false
	}
	h, err := chain.HashFromBytes(bz)
	if err != nil {
		panic(err)
	}
	return h, true
}

func (s *Store) ConfirmedBlockExists(_ Tx, hash chain.Hash) bool {
	bz, err := s.db.Get(confirmedKey(hash))
	if err != nil {
		panic(err)
	}
	return len(bz) != 0
}

// AccountExists reports whether account has an account record at all.
func (s *Store) AccountExists(account chain.Account) bool {
	bz, err := s.db.Get(accountKey(account))
	if err != nil {
		panic(err)
	}
	return len(bz) != 0
}

func (s *Store) AccountCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accountCount
}

func (s *Store) BlockCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blockCount
}

// AccountsFrom range-scans the account index, which is keyed purely by
// account id (no payload beyond presence), ascending from start.
func (s *Store) AccountsFrom(_ Tx, start chain.Account, limit int) []chain.Account {
	startKey := accountIndexKey(start)
	end, _ := orderedcode.Append(nil, prefixAccountIndex+1)

	iter, err := s.db.Iterator(startKey, end)
	if err != nil {
		panic(err)
	}
	defer iter.Close()

	out := make([]chain.Account, 0, limit)
	for ; iter.Valid() && len(out) < limit; iter.Next() {
		var prefix int64
		var raw string
		if _, err := orderedcode.Parse(string(iter.Key()), &prefix, &raw); err != nil {
			panic(err)
		}
		a, err := chain.HashFromBytes([]byte(raw))
		if err != nil {
			panic(err)
		}
		out = append(out, a)
	}
	return out
}

// Apply persists block, updates the owning account's denormalized record,
// and records the previous->hash successor edge, inside one batch.
func (s *Store) Apply(block *chain.Block, confirm bool) bool {
	hash := block.Hash()
	if bz, err := s.db.Get(blockKey(hash)); err != nil {
		panic(err)
	} else if len(bz) != 0 {
		return false
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	isNewAccount := false
	infoBz, err := s.db.Get(accountKey(block.Account))
	if err != nil {
		panic(err)
	}
	var info AccountInfo
	if len(infoBz) == 0 {
		isNewAccount = true
		info.Account = block.Account
		info.Open = hash
	} else {
		info = decodeAccountInfo(infoBz)
	}
	info.Head = hash
	info.Balance = block.Balance
	info.BlockCount++
	if confirm {
		info.ConfirmationHeight = info.BlockCount
		info.ConfirmationFrontier = hash
	}

	if err := batch.Set(blockKey(hash), encodeBlock(block)); err != nil {
		panic(err)
	}
	if err := batch.Set(accountKey(block.Account), encodeAccountInfo(info)); err != nil {
		panic(err)
	}
	if isNewAccount {
		if err := batch.Set(accountIndexKey(block.Account), []byte{1}); err != nil {
			panic(err)
		}
	}
	if !block.Previous.IsZero() {
		if err := batch.Set(successorKey(block.Previous), hash[:]); err != nil {
			panic(err)
		}
	}
	if confirm {
		if err := batch.Set(confirmedKey(hash), []byte{1}); err != nil {
			panic(err)
		}
	}
	if err := batch.Write(); err != nil {
		panic(err)
	}

	s.mu.Lock()
	s.blockCount++
	if isNewAccount {
		s.accountCount++
	}
	s.mu.Unlock()
	return true
}

// --- encoding ---
//
// Blocks and account records are fixed-layout binary blobs (no protobuf):
// the wire messages in the design are few and fixed, so a generated
// marshaller buys nothing a few binary.Write calls don't already give us.

func encodeBlock(b *chain.Block) []byte {
	buf := make([]byte, 0, 1+32*4+8+8+64)
	buf = append(buf, byte(b.Type))
	buf = append(buf, b.Account[:]...)
	buf = append(buf, b.Previous[:]...)
	buf = append(buf, b.Representative[:]...)
	buf = append(buf, b.Link[:]...)
	buf = binary.BigEndian.AppendUint64(buf, b.Balance)
	buf = binary.BigEndian.AppendUint64(buf, b.Work)
	buf = append(buf, b.Signature[:]...)
	return buf
}

func decodeBlock(bz []byte) (*chain.Block, error) {
	const fixed = 1 + 32*4 + 8 + 8 + 64
	if len(bz) != fixed {
		return nil, fmt.Errorf("bad block encoding length %d", len(bz))
	}
	b := &chain.Block{Type: chain.BlockType(bz[0])}
	off := 1
	copy(b.Account[:], bz[off:off+32])
	off += 32
	copy(b.Previous[:], bz[off:off+32])
	off += 32
	copy(b.Representative[:], bz[off:off+32])
	off += 32
	copy(b.Link[:], bz[off:off+32])
	off += 32
	b.Balance = binary.BigEndian.Uint64(bz[off : off+8])
	off += 8
	b.Work = binary.BigEndian.Uint64(bz[off : off+8])
	off += 8
	copy(b.Signature[:], bz[off:off+64])
	return b, nil
}

func encodeAccountInfo(i AccountInfo) []byte {
	buf := make([]byte, 0, 32*3+8*3)
	buf = append(buf, i.Open[:]...)
	buf = append(buf, i.Head[:]...)
	buf = append(buf, i.ConfirmationFrontier[:]...)
	buf = binary.BigEndian.AppendUint64(buf, i.Balance)
	buf = binary.BigEndian.AppendUint64(buf, i.BlockCount)
	buf = binary.BigEndian.AppendUint64(buf, i.ConfirmationHeight)
	return buf
}

func decodeAccountInfo(bz []byte) AccountInfo {
	var i AccountInfo
	off := 0
	copy(i.Open[:], bz[off:off+32])
	off += 32
	copy(i.Head[:], bz[off:off+32])
	off += 32
	copy(i.ConfirmationFrontier[:], bz[off:off+32])
	off += 32
	i.Balance = binary.BigEndian.Uint64(bz[off : off+8])
	off += 8
	i.BlockCount = binary.BigEndian.Uint64(bz[off : off+8])
	off += 8
	i.ConfirmationHeight = binary.BigEndian.Uint64(bz[off : off+8])
	return i
}
