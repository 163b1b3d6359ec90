package commands_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"

	"github.com/gonano/nanogo/cmd/nanogo/commands"
	"github.com/gonano/nanogo/internal/ledger"
)

func writeGenesis(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "genesis.toml")
	require.NoError(t, os.WriteFile(path, []byte(strings.TrimSpace(body)), 0644))
	return path
}

const testAccountHex = "0000000000000000000000000000000000000000000000000000000000000001"
const testRepHex = "0000000000000000000000000000000000000000000000000000000000000002"
const testSigHex = "000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000aa"

func TestLoadGenesisDocParsesFields(t *testing.T) {
	path := writeGenesis(t, `
account = "`+testAccountHex+`"
representative = "`+testRepHex+`"
balance = 1000000
signature = "`+testSigHex+`"
work = 42
`)

	doc, err := commands.LoadGenesisDoc(path)
	require.NoError(t, err)
	require.Equal(t, uint64(1000000), doc.Balance)
	require.Equal(t, uint64(42), doc.Work)

	block, err := doc.Block()
	require.NoError(t, err)
	require.True(t, block.Previous.IsZero())
	require.True(t, block.Link.IsZero())
	require.Equal(t, uint64(1000000), block.Balance)
}

func TestApplyGenesisIsIdempotent(t *testing.T) {
	path := writeGenesis(t, `
account = "`+testAccountHex+`"
representative = "`+testRepHex+`"
balance = 500
signature = "`+testSigHex+`"
work = 7
`)
	doc, err := commands.LoadGenesisDoc(path)
	require.NoError(t, err)

	db, err := dbm.NewDB("genesis-test", dbm.MemDBBackend, "")
	require.NoError(t, err)
	store := ledger.NewStore(db)

	require.NoError(t, commands.ApplyGenesis(store, doc))
	require.Equal(t, uint64(1), store.AccountCount())

	// re-applying must be a no-op rather than a duplicate-account error.
	require.NoError(t, commands.ApplyGenesis(store, doc))
	require.Equal(t, uint64(1), store.AccountCount())
}

func TestLoadGenesisDocRejectsBadHex(t *testing.T) {
	path := writeGenesis(t, `
account = "not-hex"
representative = "`+testRepHex+`"
balance = 1
signature = "`+testSigHex+`"
work = 1
`)
	doc, err := commands.LoadGenesisDoc(path)
	require.NoError(t, err)

	_, err = doc.Block()
	require.Error(t, err)
}
