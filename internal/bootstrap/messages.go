package bootstrap

import (
	"encoding/binary"
	"fmt"

	"github.com/gonano/nanogo/internal/chain"
)

// RequestType names what an asc_pull_req is asking for. It doubles as the
// payload discriminant on the matching asc_pull_ack.
type RequestType uint8

const (
	RequestBlocksByHash RequestType = iota
	RequestBlocksByAccount
	RequestAccountInfoByHash
	RequestFrontiers
)

func (t RequestType) String() string {
	switch t {
	case RequestBlocksByHash:
		return "blocks_by_hash"
	case RequestBlocksByAccount:
		return "blocks_by_account"
	case RequestAccountInfoByHash:
		return "account_info_by_hash"
	case RequestFrontiers:
		return "frontiers"
	default:
		return "unknown"
	}
}

// Source names which producer thread issued a tag/request, used by C6's
// per-account-per-source in-flight accounting and by the response handlers
// to decide what follow-up work a response implies.
type Source uint8

const (
	SourcePriority Source = iota
	SourceDatabase
	SourceDependencies
	SourceFrontiers
)

func (s Source) String() string {
	switch s {
	case SourcePriority:
		return "priority"
	case SourceDatabase:
		return "database"
	case SourceDependencies:
		return "dependencies"
	case SourceFrontiers:
		return "frontiers"
	default:
		return "unknown"
	}
}

// AscPullReq is the outbound request message. Start is interpreted
// according to Type: an account id for blocks_by_account and frontiers, a
// block hash for blocks_by_hash and account_info_by_hash.
type AscPullReq struct {
	ID    uint64
	Type  RequestType
	Start chain.Hash
	Count uint32
}

// MarshalBinary renders the request in the surrounding network layer's
// fixed layout: a few scalar fields and one 32-byte hash, no framing beyond
// that - the same "plain struct, explicit codec" idiom as the classic
// pre-protobuf BlockRequest.
func (r AscPullReq) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 8+1+32+4)
	buf = binary.BigEndian.AppendUint64(buf, r.ID)
	buf = append(buf, byte(r.Type))
	buf = append(buf, r.Start[:]...)
	buf = binary.BigEndian.AppendUint32(buf, r.Count)
	return buf, nil
}

// UnmarshalBinary parses the layout MarshalBinary produces.
func (r *AscPullReq) UnmarshalBinary(bz []byte) error {
	const fixed = 8 + 1 + 32 + 4
	if len(bz) != fixed {
		return fmt.Errorf("bootstrap: bad asc_pull_req length %d", len(bz))
	}
	off := 0
	r.ID = binary.BigEndian.Uint64(bz[off : off+8])
	off += 8
	r.Type = RequestType(bz[off])
	off++
	copy(r.Start[:], bz[off:off+32])
	off += 32
	r.Count = binary.BigEndian.Uint32(bz[off : off+4])
	return nil
}

// AscPullAck is the response message. Exactly one of the payload fields is
// populated, selected by Type; Empty is set when there is nothing to
// return (the account/hash/range named by the request is unknown to the
// responder).
type AscPullAck struct {
	ID    uint64
	Type  RequestType
	Empty bool

	Blocks    BlocksPayload
	AccountInfo AccountInfoPayload
	Frontiers FrontiersPayload
}

// BlocksPayload is an ordered sequence of blocks, chained from the
// request's Start.
type BlocksPayload struct {
	Blocks []*chain.Block
}

// AccountInfoPayload answers account_info_by_hash: which account owns the
// queried hash, and that account's denormalized chain state.
type AccountInfoPayload struct {
	Account              chain.Account
	AccountOpen          chain.Hash
	AccountHead          chain.Hash
	BlockCount           uint64
	ConfirmationHeight   uint64
	ConfirmationFrontier chain.Hash
}

// FrontierEntry is one (account, frontier hash) pair in a FrontiersPayload.
type FrontierEntry struct {
	Account  chain.Account
	Frontier chain.Hash
}

// FrontiersPayload answers a frontiers request: entries must be strictly
// increasing by Account and start at or after the request's Start, per
// verify's frontiers invariant.
type FrontiersPayload struct {
	Entries []FrontierEntry
}
