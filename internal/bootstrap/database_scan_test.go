package bootstrap_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gonano/nanogo/internal/bootstrap"
	"github.com/gonano/nanogo/internal/chain"
	"github.com/gonano/nanogo/internal/ledger"
)

func openBlock(account chain.Account) *chain.Block {
	return &chain.Block{Type: chain.BlockOpen, Account: account, Balance: 1}
}

func TestDatabaseScanEmptyLedger(t *testing.T) {
	lgr := ledger.NewMemory()
	scan := bootstrap.NewDatabaseScan(lgr, time.Minute)
	_, ok := scan.Next(lgr.NewReadTx())
	require.False(t, ok)
}

func TestDatabaseScanYieldsEachAccountThenWraps(t *testing.T) {
	lgr := ledger.NewMemory()
	a1, a2 := acct(1), acct(2)
	lgr.Apply(openBlock(a1), true)
	lgr.Apply(openBlock(a2), true)

	scan := bootstrap.NewDatabaseScan(lgr, 0)
	tx := lgr.NewReadTx()

	seen := map[chain.Account]bool{}
	for i := 0; i < 2; i++ {
		acc, ok := scan.Next(tx)
		require.True(t, ok)
		seen[acc] = true
	}
	require.True(t, seen[a1])
	require.True(t, seen[a2])
	require.Equal(t, uint64(0), scan.Generation())

	// Third call exhausts the space and wraps, yielding nothing this call.
	_, ok := scan.Next(tx)
	require.False(t, ok)
	require.Equal(t, uint64(1), scan.Generation())

	// With a zero cooldown, the very next call serves from the start again.
	acc, ok := scan.Next(tx)
	require.True(t, ok)
	require.Equal(t, a1, acc)
}

func TestDatabaseScanRespectsPassCooldown(t *testing.T) {
	lgr := ledger.NewMemory()
	a1 := acct(1)
	lgr.Apply(openBlock(a1), true)

	scan := bootstrap.NewDatabaseScan(lgr, time.Hour)
	tx := lgr.NewReadTx()

	acc, ok := scan.Next(tx)
	require.True(t, ok)
	require.Equal(t, a1, acc)

	// Next call wraps (only one account exists), yielding nothing.
	_, ok = scan.Next(tx)
	require.False(t, ok)

	// The hour-long pass cooldown has not elapsed, so the call after the
	// wrap still yields nothing.
	_, ok = scan.Next(tx)
	require.False(t, ok)
}
