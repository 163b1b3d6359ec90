package bootstrap_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gonano/nanogo/internal/blockprocessor"
	"github.com/gonano/nanogo/internal/bootstrap"
	"github.com/gonano/nanogo/internal/chain"
)

func TestInspectorProgressRaisesPriority(t *testing.T) {
	var mu sync.Mutex
	accounts := bootstrap.NewAccounts(testAccountSetsConfig())
	ins := bootstrap.NewInspector(&mu, accounts)

	block := &chain.Block{Account: acct(1)}
	ins.Inspect(blockprocessor.Result{Block: block, Status: blockprocessor.StatusProgress})

	_, priority, _, ok := accounts.NextPriority(nil)
	require.True(t, ok)
	require.Equal(t, testAccountSetsConfig().PriorityInitial, priority)
}

func TestInspectorProgressUnblocksDependents(t *testing.T) {
	var mu sync.Mutex
	accounts := bootstrap.NewAccounts(testAccountSetsConfig())
	ins := bootstrap.NewInspector(&mu, accounts)

	waiter := acct(2)
	producer := acct(1)
	producerBlock := &chain.Block{Account: producer, Balance: 1}
	accounts.Block(waiter, producerBlock.Hash())

	ins.Inspect(blockprocessor.Result{Block: producerBlock, Status: blockprocessor.StatusProgress})

	_, ok := accounts.IsBlocking(waiter)
	require.False(t, ok, "waiter must be unblocked once its dependency lands")
}

func TestInspectorGapSourceBlocksOnSource(t *testing.T) {
	var mu sync.Mutex
	accounts := bootstrap.NewAccounts(testAccountSetsConfig())
	ins := bootstrap.NewInspector(&mu, accounts)

	source := acct(9)
	block := &chain.Block{Account: acct(1), Link: source}
	ins.Inspect(blockprocessor.Result{Block: block, Status: blockprocessor.StatusGapSource})

	dep, ok := accounts.IsBlocking(acct(1))
	require.True(t, ok)
	require.Equal(t, source, dep)
}

func TestInspectorGapPreviousBlocksOnPrevious(t *testing.T) {
	var mu sync.Mutex
	accounts := bootstrap.NewAccounts(testAccountSetsConfig())
	ins := bootstrap.NewInspector(&mu, accounts)

	prev := acct(7)
	block := &chain.Block{Account: acct(1), Previous: prev}
	ins.Inspect(blockprocessor.Result{Block: block, Status: blockprocessor.StatusGapPrevious})

	dep, ok := accounts.IsBlocking(acct(1))
	require.True(t, ok)
	require.Equal(t, prev, dep)
}

func TestInspectorOldAndForkLowerPriority(t *testing.T) {
	var mu sync.Mutex
	cfg := testAccountSetsConfig()
	cfg.PriorityCutoff = 0
	accounts := bootstrap.NewAccounts(cfg)
	ins := bootstrap.NewInspector(&mu, accounts)

	account := acct(1)
	accounts.PriorityUp(account) // priority = initial

	block := &chain.Block{Account: account}
	ins.Inspect(blockprocessor.Result{Block: block, Status: blockprocessor.StatusFork})

	_, priority, _, ok := accounts.NextPriority(nil)
	require.True(t, ok)
	require.Equal(t, cfg.PriorityInitial*cfg.PriorityDecrease, priority)

	ins.Inspect(blockprocessor.Result{Block: block, Status: blockprocessor.StatusOld})

	_, priority, _, ok = accounts.NextPriority(nil)
	require.True(t, ok)
	require.Equal(t, cfg.PriorityInitial*cfg.PriorityDecrease*cfg.PriorityDecrease, priority)
}
