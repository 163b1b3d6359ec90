package bootstrap

import "github.com/gonano/nanogo/internal/chain"

// VerifyResult is the three-way outcome of checking a response payload
// against the tag that requested it.
type VerifyResult uint8

const (
	VerifyInvalid VerifyResult = iota
	VerifyNothingNew
	VerifyOK
)

func (v VerifyResult) String() string {
	switch v {
	case VerifyInvalid:
		return "invalid"
	case VerifyNothingNew:
		return "nothing_new"
	case VerifyOK:
		return "ok"
	default:
		return "unknown"
	}
}

// VerifyBlocks checks a blocks_payload against the tag that requested it.
// Individual block validity (signature, work) is deferred to the block
// processor; this only checks that the payload chains from the request and
// is internally consistent.
func VerifyBlocks(payload BlocksPayload, tag *Tag) VerifyResult {
	if len(payload.Blocks) == 0 {
		return VerifyNothingNew
	}

	first := payload.Blocks[0]
	switch tag.Type {
	case RequestBlocksByAccount:
		if first.Account != tag.Start {
			return VerifyInvalid
		}
	case RequestBlocksByHash:
		if first.Previous != tag.Start && first.Hash() != tag.Start {
			return VerifyInvalid
		}
	}

	for i := 1; i < len(payload.Blocks); i++ {
		prev, cur := payload.Blocks[i-1], payload.Blocks[i]
		if cur.Previous != prev.Hash() || cur.Account != prev.Account {
			return VerifyInvalid
		}
	}

	return VerifyOK
}

// VerifyFrontiers checks a frontiers_payload: entries must be strictly
// increasing by account id and the first entry's account must be at or
// after the tag's requested start.
func VerifyFrontiers(payload FrontiersPayload, tag *Tag) VerifyResult {
	if len(payload.Entries) == 0 {
		return VerifyNothingNew
	}

	if payload.Entries[0].Account.Less(tag.Start) {
		return VerifyInvalid
	}

	var prev chain.Account
	for i, e := range payload.Entries {
		if i > 0 && !prev.Less(e.Account) {
			return VerifyInvalid
		}
		prev = e.Account
	}

	return VerifyOK
}
