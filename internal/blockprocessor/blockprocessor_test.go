package blockprocessor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gonano/nanogo/internal/blockprocessor"
	"github.com/gonano/nanogo/internal/chain"
	"github.com/gonano/nanogo/internal/ledger"
	"github.com/gonano/nanogo/libs/log"
)

func hash(b byte) chain.Hash {
	var h chain.Hash
	h[len(h)-1] = b
	return h
}

func openBlock(account byte, balance uint64) *chain.Block {
	return &chain.Block{
		Type:    chain.BlockOpen,
		Account: hash(account),
		Balance: balance,
	}
}

func waitResult(t *testing.T, ch <-chan blockprocessor.Result) blockprocessor.Result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a result")
		return blockprocessor.Result{}
	}
}

func TestProcessorAppliesOpenBlock(t *testing.T) {
	lgr := ledger.NewMemory()
	p := blockprocessor.New(log.NewNopLogger(), lgr, 16)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, p.Start(ctx))
	t.Cleanup(func() {
		cancel()
		p.Wait()
	})

	results := p.Subscribe()

	block := openBlock(1, 100)
	require.True(t, p.Add(block, blockprocessor.SourceBootstrap))

	r := waitResult(t, results)
	require.Equal(t, blockprocessor.StatusProgress, r.Status)
	require.Equal(t, blockprocessor.SourceBootstrap, r.Source)
	require.True(t, lgr.AccountExists(block.Account))
}

func TestProcessorRejectsDuplicateOpenAsFork(t *testing.T) {
	lgr := ledger.NewMemory()
	p := blockprocessor.New(log.NewNopLogger(), lgr, 16)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, p.Start(ctx))
	t.Cleanup(func() {
		cancel()
		p.Wait()
	})

	results := p.Subscribe()

	first := openBlock(1, 100)
	require.True(t, p.Add(first, blockprocessor.SourceLive))
	require.Equal(t, blockprocessor.StatusProgress, waitResult(t, results).Status)

	second := openBlock(1, 50)
	require.True(t, p.Add(second, blockprocessor.SourceLive))
	require.Equal(t, blockprocessor.StatusFork, waitResult(t, results).Status)
}

func TestProcessorFlagsGapPrevious(t *testing.T) {
	lgr := ledger.NewMemory()
	p := blockprocessor.New(log.NewNopLogger(), lgr, 16)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, p.Start(ctx))
	t.Cleanup(func() {
		cancel()
		p.Wait()
	})

	results := p.Subscribe()

	orphan := &chain.Block{
		Type:     chain.BlockSend,
		Account:  hash(1),
		Previous: hash(99),
		Balance:  1,
	}
	require.True(t, p.Add(orphan, blockprocessor.SourceBootstrap))
	require.Equal(t, blockprocessor.StatusGapPrevious, waitResult(t, results).Status)
}

func TestProcessorFlagsGapSourceOnOpen(t *testing.T) {
	lgr := ledger.NewMemory()
	p := blockprocessor.New(log.NewNopLogger(), lgr, 16)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, p.Start(ctx))
	t.Cleanup(func() {
		cancel()
		p.Wait()
	})

	results := p.Subscribe()

	receive := &chain.Block{
		Type:    chain.BlockOpen,
		Account: hash(1),
		Link:    hash(250), // no send block exists at this hash
		Balance: 10,
	}
	require.True(t, p.Add(receive, blockprocessor.SourceBootstrap))
	require.Equal(t, blockprocessor.StatusGapSource, waitResult(t, results).Status)
}

func TestProcessorQueueSizeReflectsBackpressure(t *testing.T) {
	lgr := ledger.NewMemory()
	p := blockprocessor.New(log.NewNopLogger(), lgr, 1)

	require.Equal(t, 0, p.QueueSize())
	require.True(t, p.Add(openBlock(1, 1), blockprocessor.SourceBootstrap))
	require.Equal(t, 1, p.QueueSize())

	// the queue is at capacity and the worker hasn't started, so a second
	// Add must report failure rather than block.
	require.False(t, p.Add(openBlock(2, 1), blockprocessor.SourceBootstrap))
}

func TestStatusStringCoversEveryValue(t *testing.T) {
	statuses := []blockprocessor.Status{
		blockprocessor.StatusProgress,
		blockprocessor.StatusOld,
		blockprocessor.StatusFork,
		blockprocessor.StatusGapPrevious,
		blockprocessor.StatusGapSource,
		blockprocessor.StatusBadSignature,
		blockprocessor.StatusInsufficientWork,
	}
	for _, s := range statuses {
		require.NotEqual(t, "unknown", s.String())
	}
}
