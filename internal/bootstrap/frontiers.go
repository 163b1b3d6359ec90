package bootstrap

import (
	"math/big"
	"time"

	"github.com/gonano/nanogo/internal/chain"
)

// headStatus is a frontier-scan head's small state machine.
// responded/candidate-verified collapse into the caller verifying the
// payload synchronously inside Process, so only idle/requested are
// tracked explicitly: a head that isn't idle has an outstanding request.
type headStatus uint8

const (
	headIdle headStatus = iota
	headRequested
)

type frontierHead struct {
	index int

	rangeStart chain.Account
	rangeEnd   chain.Account // exclusive upper bound; zero means "end of space"

	position    chain.Account
	status      headStatus
	retries     int
	lastAdvance time.Time
}

// FrontierScanConfig holds C5's sizing knobs.
type FrontierScanConfig struct {
	HeadParallelism int
	MaxRetries      int
}

// FrontierScan is C5: a fixed number of heads partitioning the 256-bit
// account-id space into equal ranges, each independently scanning forward
// through frontier responses to discover accounts the local database has
// never heard of. Every public method assumes the caller holds the
// service's shared mutex.
type FrontierScan struct {
	cfg   FrontierScanConfig
	heads []*frontierHead
	now   func() time.Time
}

// NewFrontierScan partitions the account-id space into cfg.HeadParallelism
// equal ranges, one head each.
func NewFrontierScan(cfg FrontierScanConfig) *FrontierScan {
	if cfg.HeadParallelism < 1 {
		cfg.HeadParallelism = 1
	}
	fs := &FrontierScan{cfg: cfg, now: time.Now}
	fs.heads = partitionHeads(cfg.HeadParallelism)
	return fs
}

func partitionHeads(n int) []*frontierHead {
	space := new(big.Int).Lsh(big.NewInt(1), chain.HashSize*8)
	step := new(big.Int).Div(space, big.NewInt(int64(n)))

	heads := make([]*frontierHead, n)
	cursor := big.NewInt(0)
	for i := 0; i < n; i++ {
		start := bigIntToHash(cursor)
		var end chain.Account
		if i == n-1 {
			end = chain.ZeroHash // sentinel: end of space
		} else {
			next := new(big.Int).Add(cursor, step)
			end = bigIntToHash(next)
		}
		heads[i] = &frontierHead{index: i, rangeStart: start, rangeEnd: end, position: start}
		cursor.Add(cursor, step)
	}
	return heads
}

func bigIntToHash(v *big.Int) chain.Hash {
	var h chain.Hash
	b := v.Bytes()
	copy(h[chain.HashSize-len(b):], b)
	return h
}

// Next returns the start account of the least-recently-advanced idle head,
// along with its index (passed back into Process). Reports false if every
// head currently has an outstanding request.
func (f *FrontierScan) Next() (headIndex int, start chain.Account, ok bool) {
	var best *frontierHead
	for _, h := range f.heads {
		if h.status != headIdle {
			continue
		}
		if best == nil || h.lastAdvance.Before(best.lastAdvance) {
			best = h
		}
	}
	if best == nil {
		return 0, chain.Account{}, false
	}
	best.status = headRequested
	return best.index, best.position, true
}

// Process hands a frontiers response back to the head that requested it.
// entries must already have passed verify's "strictly increasing by account
// id, starting at or after the request's start" check; Process additionally
// confirms every entry falls within the head's partition, since a
// misbehaving peer could otherwise smuggle another head's range in. It
// returns the entries accepted as new candidates (the whole slice, on
// success) and advances the head's position past the last one.
//
// On an empty or invalid response, it increments the head's retry counter
// and resets its position to the range start once MaxRetries is reached.
func (f *FrontierScan) Process(headIndex int, entries []FrontierEntry) ([]FrontierEntry, bool) {
	if headIndex < 0 || headIndex >= len(f.heads) {
		return nil, false
	}
	h := f.heads[headIndex]
	h.status = headIdle

	if len(entries) == 0 || !f.inRange(h, entries) {
		h.retries++
		if h.retries >= f.cfg.MaxRetries {
			h.position = h.rangeStart
			h.retries = 0
		}
		return nil, false
	}

	h.position = entries[len(entries)-1].Account.Next()
	h.lastAdvance = f.now()
	h.retries = 0
	return entries, true
}

func (f *FrontierScan) inRange(h *frontierHead, entries []FrontierEntry) bool {
	for _, e := range entries {
		if e.Account.Less(h.rangeStart) {
			return false
		}
		if !h.rangeEnd.IsZero() && !e.Account.Less(h.rangeEnd) {
			return false
		}
	}
	return true
}

// HeadCount reports how many heads are configured, for container_info.
func (f *FrontierScan) HeadCount() int { return len(f.heads) }
