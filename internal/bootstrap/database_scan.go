package bootstrap

import (
	"time"

	"github.com/gonano/nanogo/internal/chain"
	"github.com/gonano/nanogo/internal/ledger"
)

// DatabaseScan is C4: a round-robin cursor over the accounts already known
// to the local ledger, feeding low-priority pulls so existing accounts that
// fell behind (rather than ones discovered via frontier scanning) still get
// revisited. Every public method assumes the caller holds the service's
// shared mutex.
type DatabaseScan struct {
	ledger ledger.Ledger

	cursor     chain.Account
	generation uint64

	passCooldown  time.Duration
	lastWrapAt    time.Time
	wrapped       bool

	now func() time.Time
}

// NewDatabaseScan returns a scan starting from the account-id space origin.
func NewDatabaseScan(lgr ledger.Ledger, passCooldown time.Duration) *DatabaseScan {
	return &DatabaseScan{
		ledger:       lgr,
		passCooldown: passCooldown,
		now:          time.Now,
	}
}

// Next yields the next known account in ascending id order, wrapping to the
// start (and incrementing Generation) once the end of the ledger's account
// space is reached. It reports false if a full pass just wrapped and
// passCooldown hasn't elapsed yet, or if the ledger has no accounts at all.
func (d *DatabaseScan) Next(tx ledger.Tx) (chain.Account, bool) {
	if d.ledger.AccountCount() == 0 {
		return chain.Account{}, false
	}

	if d.wrapped {
		if d.now().Before(d.lastWrapAt.Add(d.passCooldown)) {
			return chain.Account{}, false
		}
		d.wrapped = false
	}

	accounts := d.ledger.AccountsFrom(tx, d.cursor, 1)
	if len(accounts) == 0 {
		d.cursor = chain.ZeroHash
		d.generation++
		d.wrapped = true
		d.lastWrapAt = d.now()
		return chain.Account{}, false
	}

	account := accounts[0]
	d.cursor = account.Next()
	return account, true
}

// Generation reports how many full passes over the account space have
// completed, for container_info/metrics.
func (d *DatabaseScan) Generation() uint64 { return d.generation }
