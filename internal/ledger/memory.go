package ledger

import (
	"sort"
	"sync"

	"github.com/gonano/nanogo/internal/chain"
)

// Memory is an in-memory Ledger used by tests and by simulated peers in
// the bootstrap test suite. It also exposes Apply, called by the block
// processor's write-through path, and is safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	blocks   map[chain.Hash]*chain.Block
	accounts map[chain.Account]AccountInfo
	confirmed map[chain.Hash]bool
}

// NewMemory returns an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{
		blocks:    make(map[chain.Hash]*chain.Block),
		accounts:  make(map[chain.Account]AccountInfo),
		confirmed: make(map[chain.Hash]bool),
	}
}

type memTx struct{}

func (memTx) Discard() {}

func (m *Memory) NewReadTx() Tx { return memTx{} }

func (m *Memory) BlockGet(_ Tx, hash chain.Hash) (*chain.Block, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blocks[hash]
	return b, ok
}

func (m *Memory) AccountGet(_ Tx, account chain.Account) (AccountInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.accounts[account]
	return info, ok
}

func (m *Memory) BlockSuccessor(_ Tx, hash chain.Hash) (chain.Hash, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for h, b := range m.blocks {
		if b.Previous == hash {
			return h, true
		}
	}
	return chain.Hash{}, false
}

func (m *Memory) ConfirmedBlockExists(_ Tx, hash chain.Hash) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.confirmed[hash]
}

func (m *Memory) AccountCount() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.accounts))
}

func (m *Memory) BlockCount() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.blocks))
}

func (m *Memory) AccountsFrom(_ Tx, start chain.Account, limit int) []chain.Account {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]chain.Account, 0, len(m.accounts))
	for a := range m.accounts {
		ids = append(ids, a)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })

	out := make([]chain.Account, 0, limit)
	for _, a := range ids {
		if !a.Less(start) {
			out = append(out, a)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// Apply writes block into the ledger and updates the owning account's
// denormalized head/balance/block-count, marking it confirmed at once when
// confirm is true (this in-memory ledger does not model a later
// confirmation step). It reports whether the block was new.
func (m *Memory) Apply(block *chain.Block, confirm bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	hash := block.Hash()
	if _, exists := m.blocks[hash]; exists {
		return false
	}
	m.blocks[hash] = block
	if confirm {
		m.confirmed[hash] = true
	}

	info := m.accounts[block.Account]
	info.Account = block.Account
	if block.Previous.IsZero() {
		info.Open = hash
	}
	info.Head = hash
	info.Balance = block.Balance
	info.BlockCount++
	if confirm {
		info.ConfirmationHeight = info.BlockCount
		info.ConfirmationFrontier = hash
	}
	m.accounts[block.Account] = info
	return true
}

// AccountExists reports whether account has any block, used by the block
// processor when deciding whether an open block is a fork.
func (m *Memory) AccountExists(account chain.Account) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.accounts[account]
	return ok
}
