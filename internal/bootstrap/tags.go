package bootstrap

import (
	"sync/atomic"
	"time"

	"github.com/gonano/nanogo/internal/chain"
	"github.com/gonano/nanogo/internal/p2p"
)

// Tag is C6's in-flight request descriptor.
type Tag struct {
	ID      uint64
	Type    RequestType
	Source  Source
	Start   chain.Hash
	Account chain.Account
	Hash    chain.Hash
	Count   uint32
	Cutoff  time.Time
	Created time.Time

	Channel p2p.ChannelID

	// HeadIndex names the originating FrontierScan head for
	// RequestFrontiers tags, so the response can be routed back to
	// FrontierScan.Process.
	HeadIndex int
}

type accountSourceKey struct {
	account chain.Account
	source  Source
}

type hashSourceKey struct {
	hash   chain.Hash
	source Source
}

// Tags is C6: the single in-flight-request registry, multi-indexed by id,
// account, hash, and insertion order. Every public method assumes the
// caller holds the service's shared mutex.
type Tags struct {
	nextID uint64

	byID          map[uint64]*Tag
	byAccountSrc  map[accountSourceKey]map[uint64]struct{}
	byHashSrc     map[hashSourceKey]map[uint64]struct{}
	insertOrder   []uint64 // FIFO; cutoff is created monotonically, so the
	                       // head of this queue is always the next to expire.
}

// NewTags returns an empty tag table.
func NewTags() *Tags {
	return &Tags{
		byID:         make(map[uint64]*Tag),
		byAccountSrc: make(map[accountSourceKey]map[uint64]struct{}),
		byHashSrc:    make(map[hashSourceKey]map[uint64]struct{}),
	}
}

// NewID allocates a fresh tag id, unique for the lifetime of this table.
func (t *Tags) NewID() uint64 { return atomic.AddUint64(&t.nextID, 1) }

// Insert adds tag to every index. The caller must have populated tag.ID via
// NewID first; the design's invariant 1 (no two tags share an id) is the
// caller's responsibility to uphold by always using NewID.
func (t *Tags) Insert(tag *Tag) {
	t.byID[tag.ID] = tag
	indexAdd(t.byAccountSrc, accountSourceKey{tag.Account, tag.Source}, tag.ID)
	indexAdd(t.byHashSrc, hashSourceKey{tag.Hash, tag.Source}, tag.ID)
	t.insertOrder = append(t.insertOrder, tag.ID)
}

func indexAdd[K comparable](idx map[K]map[uint64]struct{}, key K, id uint64) {
	set, ok := idx[key]
	if !ok {
		set = make(map[uint64]struct{})
		idx[key] = set
	}
	set[id] = struct{}{}
}

// EraseByID removes tag id from every index, returning it if present.
func (t *Tags) EraseByID(id uint64) (*Tag, bool) {
	tag, ok := t.byID[id]
	if !ok {
		return nil, false
	}
	delete(t.byID, id)
	removeFrom(t.byAccountSrc, accountSourceKey{tag.Account, tag.Source}, id)
	removeFrom(t.byHashSrc, hashSourceKey{tag.Hash, tag.Source}, id)
	return tag, true
}

func removeFrom[K comparable](idx map[K]map[uint64]struct{}, key K, id uint64) {
	set, ok := idx[key]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(idx, key)
	}
}

// CountByAccount reports how many tags are currently in flight for account
// from source, used to avoid asking the same account twice from the same
// producer thread.
func (t *Tags) CountByAccount(account chain.Account, source Source) int {
	return len(t.byAccountSrc[accountSourceKey{account, source}])
}

// CountByHash is CountByAccount's hash-keyed counterpart, used by the
// dependencies thread to avoid re-requesting a hash already in flight.
func (t *Tags) CountByHash(hash chain.Hash, source Source) int {
	return len(t.byHashSrc[hashSourceKey{hash, source}])
}

// Expire pops every tag from the head of the insertion-order queue whose
// cutoff is at or before now, stopping at the first tag still live. It is
// O(k) in the number of expired tags.
func (t *Tags) Expire(now time.Time) []*Tag {
	var expired []*Tag
	i := 0
	for ; i < len(t.insertOrder); i++ {
		id := t.insertOrder[i]
		tag, ok := t.byID[id]
		if !ok {
			// already erased via EraseByID (a response beat the timeout);
			// drop the stale queue entry and keep scanning.
			continue
		}
		if tag.Cutoff.After(now) {
			break
		}
		t.EraseByID(id)
		expired = append(expired, tag)
	}
	t.insertOrder = t.insertOrder[i:]
	return expired
}

// Len reports how many tags are currently in flight, for container_info.
func (t *Tags) Len() int { return len(t.byID) }
