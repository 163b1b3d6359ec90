package commands

import (
	"encoding/hex"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/gonano/nanogo/internal/chain"
	"github.com/gonano/nanogo/internal/ledger"
)

// GenesisDoc describes the single confirmed open block every nanogo chain
// starts from: one account holding the entire initial supply, the same
// role Tendermint's genesis.json validator set plays for a height-ordered
// chain. Account and Representative are hex-encoded 32-byte hashes,
// matching chain.Hash's wire representation; Signature is hex-encoded
// bytes; Balance and Work are plain integers.
type GenesisDoc struct {
	Account        string `toml:"account"`
	Representative string `toml:"representative"`
	Balance        uint64 `toml:"balance"`
	Signature      string `toml:"signature"`
	Work           uint64 `toml:"work"`
}

// LoadGenesisDoc decodes a genesis.toml file at path.
func LoadGenesisDoc(path string) (*GenesisDoc, error) {
	var doc GenesisDoc
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, fmt.Errorf("reading genesis file: %w", err)
	}
	return &doc, nil
}

// Block converts the doc into the open block it describes.
func (doc *GenesisDoc) Block() (*chain.Block, error) {
	account, err := hashFromHex(doc.Account)
	if err != nil {
		return nil, fmt.Errorf("genesis account: %w", err)
	}
	rep, err := hashFromHex(doc.Representative)
	if err != nil {
		return nil, fmt.Errorf("genesis representative: %w", err)
	}
	sigBytes, err := hex.DecodeString(doc.Signature)
	if err != nil {
		return nil, fmt.Errorf("genesis signature: %w", err)
	}

	b := &chain.Block{
		Type:           chain.BlockOpen,
		Account:        account,
		Previous:       chain.ZeroHash,
		Representative: rep,
		Balance:        doc.Balance,
		Link:           chain.ZeroHash,
		Work:           doc.Work,
	}
	copy(b.Signature[:], sigBytes)
	return b, nil
}

func hashFromHex(s string) (chain.Hash, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return chain.Hash{}, err
	}
	return chain.HashFromBytes(raw)
}

// ApplyGenesis applies the genesis open block to store as confirmed,
// unless the account already exists - startup is expected to be
// idempotent across restarts of the same node.
func ApplyGenesis(store *ledger.Store, doc *GenesisDoc) error {
	block, err := doc.Block()
	if err != nil {
		return err
	}
	if store.AccountExists(block.Account) {
		return nil
	}
	if !store.Apply(block, true) {
		return fmt.Errorf("genesis block rejected by ledger")
	}
	return nil
}
