// Package channel implements the Lightning-style payment channel state
// machine (C10): funding, commitment tracking, HTLC add/settle/fail, and
// cooperative/force close. Every state-changing operation is guarded by a
// per-channel HTLC lock plus an operation_in_progress flag (spec.md
// §4.10), and balance adjustments go through a bounded compare-and-swap
// retry loop so concurrent HTLC operations on the same channel never
// corrupt the local_balance + remote_balance + Σ pending_htlcs invariant.
package channel

import (
	"github.com/supernova-labs/supernova/chainhash"
	"github.com/supernova-labs/supernova/wire"
)

// State is the channel's lifecycle stage (spec.md §3).
type State int

const (
	Initializing State = iota
	FundingCreated
	FundingSigned
	Active
	ClosingNegotiation
	Closed
	ForceClosed
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case FundingCreated:
		return "funding_created"
	case FundingSigned:
		return "funding_signed"
	case Active:
		return "active"
	case ClosingNegotiation:
		return "closing_negotiation"
	case Closed:
		return "closed"
	case ForceClosed:
		return "force_closed"
	default:
		return "unknown"
	}
}

// validTransitions enumerates every allowed (from, to) pair beyond the
// implicit same-state no-op (spec.md §3): Initializing→FundingCreated→
// FundingSigned→Active→{ClosingNegotiation→Closed | ForceClosed}.
var validTransitions = map[State]map[State]bool{
	Initializing:       {FundingCreated: true},
	FundingCreated:     {FundingSigned: true},
	FundingSigned:      {Active: true},
	Active:             {ClosingNegotiation: true, ForceClosed: true},
	ClosingNegotiation: {Closed: true},
}

func isValidTransition(from, to State) bool {
	if from == to {
		return true
	}
	return validTransitions[from][to]
}

// Direction records which side offered an HTLC. Offered HTLCs lock local
// balance; Received HTLCs lock counterparty (remote) balance.
type Direction int

const (
	Offered Direction = iota
	Received
)

func (d Direction) String() string {
	if d == Offered {
		return "offered"
	}
	return "received"
}

// HTLC is a single hashed-timelocked-contract pending on a channel.
type HTLC struct {
	ID           uint64
	PaymentHash  chainhash.Hash
	Amount       uint64
	ExpiryHeight uint32
	Direction    Direction
}

// maxBalanceCASRetries bounds the compare-and-swap retry loop in
// updateBalances, carried from original_source's MAX_BALANCE_CAS_RETRIES.
const maxBalanceCASRetries = 8

// CloseScript holds the output script a party's close output pays to.
type CloseScript struct {
	ScriptPubKey []byte
}

// Config names the channel's identity, capacity, funding outpoint, and
// the scripts each party's close output pays to.
type Config struct {
	ChannelID         chainhash.Hash
	Capacity          uint64
	FundingOutpoint   wire.OutPoint
	LocalCloseScript  CloseScript
	RemoteCloseScript CloseScript
}
