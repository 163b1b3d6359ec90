// Package bootstrap implements the account-chain bootstrap service: the
// peer-scored, rate-limited pull pipeline that drives a node from an
// arbitrary state to parity with the network by pulling missing blocks,
// discovering unknown accounts, verifying returned chains, and feeding the
// local block processor.
//
// Its shape (priority-driven request scheduling, a tag/request table, peer
// fairness, a dedicated timeout sweep) generalizes a blockchain catch-up
// reactor/pool from one height-ordered chain to many independent account
// chains.
package bootstrap

import (
	"time"

	"github.com/mroth/weightedrand"

	"github.com/gonano/nanogo/internal/chain"
)

// priorityWeightScale converts a float priority into an integer
// weightedrand.Choice weight without collapsing the (1.0, P_max) range to a
// handful of buckets.
const priorityWeightScale = 1000

type accountEntry struct {
	account   chain.Account
	priority  float64
	fails     uint32
	timestamp time.Time
}

type blockingEntry struct {
	account    chain.Account
	dependency chain.Hash
}

// AccountSetsConfig is C3's policy knobs.
type AccountSetsConfig struct {
	PriorityInitial  float64
	PriorityIncrease float64
	PriorityDecrease float64
	PriorityMax      float64 // ceiling a single account's priority saturates at
	PriorityCutoff   float64 // erase threshold
	MaxFails         uint32

	Cooldown time.Duration

	PriorityCapacity int // max number of priority-set entries
	BlockingCapacity int // max number of blocking-set entries
}

// Accounts is C3: the priority queue of accounts to pull, plus the blocking
// set of accounts stalled on a missing dependency. Every public method
// assumes the caller holds the service's shared mutex; Accounts
// itself does no locking.
type Accounts struct {
	cfg AccountSetsConfig

	priority map[chain.Account]*accountEntry
	blocking map[chain.Account]*blockingEntry

	now func() time.Time
}

// NewAccounts returns an empty Accounts set.
func NewAccounts(cfg AccountSetsConfig) *Accounts {
	return &Accounts{
		cfg:      cfg,
		priority: make(map[chain.Account]*accountEntry),
		blocking: make(map[chain.Account]*blockingEntry),
		now:      time.Now,
	}
}

// PriorityUp inserts account at PriorityInitial if absent, or multiplies its
// existing priority by PriorityIncrease, capped at PriorityMax. An account
// already in the blocking set is left alone: the design's invariant 2 requires
// an account be in at most one of {priority, blocking}.
func (a *Accounts) PriorityUp(account chain.Account) {
	if _, blocked := a.blocking[account]; blocked {
		return
	}
	if e, ok := a.priority[account]; ok {
		e.priority *= a.cfg.PriorityIncrease
		if e.priority > a.cfg.PriorityMax {
			e.priority = a.cfg.PriorityMax
		}
		return
	}
	a.insertPriority(account, a.cfg.PriorityInitial)
}

// PriorityDown multiplies account's priority by PriorityDecrease, erasing
// it if the result falls below PriorityCutoff, and increments fails;
// reaching MaxFails also erases regardless of the decayed priority. A
// no-op if account isn't currently in the priority set.
func (a *Accounts) PriorityDown(account chain.Account) {
	e, ok := a.priority[account]
	if !ok {
		return
	}
	e.priority *= a.cfg.PriorityDecrease
	e.fails++
	if e.priority < a.cfg.PriorityCutoff || e.fails >= a.cfg.MaxFails {
		delete(a.priority, account)
	}
}

// PrioritySet force-inserts account at value if absent; a no-op if already
// present (in either set).
func (a *Accounts) PrioritySet(account chain.Account, value float64) {
	if _, ok := a.priority[account]; ok {
		return
	}
	if _, ok := a.blocking[account]; ok {
		return
	}
	a.insertPriority(account, value)
}

func (a *Accounts) insertPriority(account chain.Account, priority float64) {
	if priority > a.cfg.PriorityMax {
		priority = a.cfg.PriorityMax
	}
	if len(a.priority) >= a.cfg.PriorityCapacity {
		a.evictLowestPriority()
	}
	a.priority[account] = &accountEntry{
		account:   account,
		priority:  priority,
		timestamp: a.now(),
	}
}

func (a *Accounts) evictLowestPriority() {
	var victim *accountEntry
	for _, e := range a.priority {
		if victim == nil ||
			e.priority < victim.priority ||
			(e.priority == victim.priority && e.timestamp.Before(victim.timestamp)) {
			victim = e
		}
	}
	if victim != nil {
		delete(a.priority, victim.account)
	}
}

// Block moves account into the blocking set, remembering dependency as the
// hash it is stalled on. Removes it from the priority set first.
func (a *Accounts) Block(account chain.Account, dependency chain.Hash) {
	delete(a.priority, account)
	if len(a.blocking) >= a.cfg.BlockingCapacity {
		a.evictOldestBlocking()
	}
	a.blocking[account] = &blockingEntry{account: account, dependency: dependency}
}

func (a *Accounts) evictOldestBlocking() {
	for account := range a.blocking {
		delete(a.blocking, account)
		return
	}
}

// Unblock moves account back into the priority set, iff hash is zero or
// matches the remembered dependency. Reports whether it unblocked anything.
func (a *Accounts) Unblock(account chain.Account, hash chain.Hash) bool {
	e, ok := a.blocking[account]
	if !ok {
		return false
	}
	if !hash.IsZero() && hash != e.dependency {
		return false
	}
	delete(a.blocking, account)
	a.insertPriority(account, a.cfg.PriorityInitial)
	return true
}

// UnblockByDependency unblocks every account in the blocking set waiting on
// exactly dependency, used by the inspector when a new block's hash turns
// out to be the dependency some other account was stalled on. Reports how
// many accounts were unblocked.
func (a *Accounts) UnblockByDependency(dependency chain.Hash) int {
	var unblocked []chain.Account
	for account, e := range a.blocking {
		if e.dependency == dependency {
			unblocked = append(unblocked, account)
		}
	}
	for _, account := range unblocked {
		delete(a.blocking, account)
		a.insertPriority(account, a.cfg.PriorityInitial)
	}
	return len(unblocked)
}

// IsBlocking reports whether account is currently in the blocking set and,
// if so, what dependency it's waiting on.
func (a *Accounts) IsBlocking(account chain.Account) (chain.Hash, bool) {
	e, ok := a.blocking[account]
	if !ok {
		return chain.Hash{}, false
	}
	return e.dependency, true
}

// NextPriority weighted-randomly picks an account whose cooldown has
// elapsed and that filter accepts, reporting its priority and fail count.
// filter is used by the service loop to exclude accounts already in flight
// from the same source.
func (a *Accounts) NextPriority(filter func(chain.Account) bool) (chain.Account, float64, uint32, bool) {
	now := a.now()
	choices := make([]weightedrand.Choice, 0, len(a.priority))
	for _, e := range a.priority {
		if now.Before(e.timestamp.Add(a.cfg.Cooldown)) {
			continue
		}
		if filter != nil && !filter(e.account) {
			continue
		}
		choices = append(choices, weightedrand.Choice{
			Item:   e,
			Weight: weightFromPriority(e.priority),
		})
	}
	if len(choices) == 0 {
		return chain.Account{}, 0, 0, false
	}
	chooser, err := weightedrand.NewChooser(choices...)
	if err != nil {
		return chain.Account{}, 0, 0, false
	}
	picked := chooser.Pick().(*accountEntry)
	picked.timestamp = now
	return picked.account, picked.priority, picked.fails, true
}

// NextBlocking weighted-randomly picks a blocking entry's dependency hash.
// Every entry in the blocking set carries equal weight: the design only
// weights the priority set by priority, and blocking entries have no
// priority field to weight by.
func (a *Accounts) NextBlocking() (chain.Hash, bool) {
	if len(a.blocking) == 0 {
		return chain.Hash{}, false
	}
	choices := make([]weightedrand.Choice, 0, len(a.blocking))
	for _, e := range a.blocking {
		choices = append(choices, weightedrand.Choice{Item: e, Weight: 1})
	}
	chooser, err := weightedrand.NewChooser(choices...)
	if err != nil {
		return chain.Hash{}, false
	}
	picked := chooser.Pick().(*blockingEntry)
	return picked.dependency, true
}

// weightFromPriority maps a priority in [1.0, PriorityMax] onto a positive
// integer weight proportional to it, satisfying the design's requirement
// that selection weight be any monotonically increasing function of
// priority.
func weightFromPriority(priority float64) uint {
	w := uint(priority * priorityWeightScale)
	if w == 0 {
		w = 1
	}
	return w
}

// PriorityLen and BlockingLen report current set sizes, for container_info
// and metrics.
func (a *Accounts) PriorityLen() int { return len(a.priority) }
func (a *Accounts) BlockingLen() int { return len(a.blocking) }

// SyncDependencies re-promotes every blocking entry whose dependency
// confirmed reports as now present in the ledger, used by the cleanup
// thread's periodic sync_dependencies sweep. Reports how many were
// unblocked.
func (a *Accounts) SyncDependencies(confirmed func(chain.Hash) bool) int {
	var ready []chain.Account
	for account, e := range a.blocking {
		if confirmed(e.dependency) {
			ready = append(ready, account)
		}
	}
	for _, account := range ready {
		delete(a.blocking, account)
		a.insertPriority(account, a.cfg.PriorityInitial)
	}
	return len(ready)
}

// Decay applies age-based upkeep during the cleanup tick: the design
// describes this as part of C3 "sync (age decay)". Accounts whose cooldown
// has long elapsed are left as-is (cooldown only gates selection, it does
// not itself decay priority); this hook exists so the cleanup thread has a
// single call representing "C3 sync" even though, with a pull-based
// cooldown model, there is nothing to mutate on a healthy account between
// ticks.
func (a *Accounts) Decay() {}
