package bootstrap

import (
	"context"
	"sync"

	"github.com/gonano/nanogo/internal/blockprocessor"
)

// Inspector is C8's block-processor callback half: for every (block,
// status) pair the processor reports, it updates C3's priority/blocking
// sets. It owns no goroutine of its own (Run executes on the caller's
// goroutine), and every mutation it makes to accounts must happen with the
// service's shared mutex held - Inspect takes that lock itself so callers
// never need to.
type Inspector struct {
	mu       *sync.Mutex
	accounts *Accounts
}

// NewInspector returns an Inspector that serializes its account-set
// mutations through mu, the same mutex the service loop's producer threads
// hold while touching C3.
func NewInspector(mu *sync.Mutex, accounts *Accounts) *Inspector {
	return &Inspector{mu: mu, accounts: accounts}
}

// Run drains results until ctx is canceled or the channel closes (the
// block processor closing it on OnStop). Per the design, inspector
// callbacks from the block processor are serialized by that component, so
// Run processing them one at a time here preserves that ordering.
func (ins *Inspector) Run(ctx context.Context, results <-chan blockprocessor.Result) {
	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-results:
			if !ok {
				return
			}
			ins.Inspect(r)
		}
	}
}

// Inspect applies one result to the account sets, per the design's
// inspector table.
func (ins *Inspector) Inspect(r blockprocessor.Result) {
	ins.mu.Lock()
	defer ins.mu.Unlock()

	account := r.Block.Account
	switch r.Status {
	case blockprocessor.StatusProgress:
		ins.accounts.PriorityUp(account)
		ins.accounts.UnblockByDependency(r.Block.Hash())
	case blockprocessor.StatusGapSource:
		ins.accounts.Block(account, r.Block.Source())
	case blockprocessor.StatusGapPrevious:
		ins.accounts.Block(account, r.Block.Previous)
	case blockprocessor.StatusOld, blockprocessor.StatusFork:
		ins.accounts.PriorityDown(account)
	}
}
