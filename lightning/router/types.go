// Package router implements the Lightning path-finding half of C11
// (spec.md §4.11): a directed channel graph, pluggable edge-scoring
// strategies, and Dijkstra path-finding subject to hop/fee/CLTV/avoid-set
// preferences, with failure feedback that decays a channel's success
// probability and retries around it.
package router

import (
	"time"

	"github.com/supernova-labs/supernova/chainhash"
)

// NodeID identifies a Lightning node by its compressed public key, the
// same encoding used as RouteHop.NodeID in lightning/onion.
type NodeID [33]byte

// ChannelStats is the rolling per-edge success/failure counter backing the
// SuccessProbability scoring strategy, grounded on original_source's
// router.rs ChannelHistoricalData.
type ChannelStats struct {
	Successes uint64
	Failures  uint64
}

// SuccessProbability returns the edge's empirical success rate, defaulting
// to 0.5 (no data yet), matching original_source's "unknown is 50/50"
// convention.
func (s ChannelStats) SuccessProbability() float64 {
	total := s.Successes + s.Failures
	if total == 0 {
		return 0.5
	}
	return float64(s.Successes) / float64(total)
}

// ChannelEdge is one directed announcement of a channel: it can be
// forwarded across from Source to Destination under the given fee and
// timelock terms (spec.md §4.11: "edges = channels with { capacity,
// base_fee_msat, fee_rate_millionths, cltv_expiry_delta, is_active }").
// A two-way channel is represented as two ChannelEdge values sharing a
// ChannelID, one per direction.
type ChannelEdge struct {
	ChannelID         chainhash.Hash
	Source            NodeID
	Destination       NodeID
	Capacity          uint64
	BaseFeeMsat       uint32
	FeeRateMillionths uint32
	CLTVExpiryDelta   uint16
	IsActive          bool
	Stats             ChannelStats
}

// Fee returns the forwarding fee, in millisatoshis, for sending
// amountMsat across this edge.
func (e ChannelEdge) Fee(amountMsat uint64) uint64 {
	return uint64(e.BaseFeeMsat) + (amountMsat*uint64(e.FeeRateMillionths))/1_000_000
}

// ScoringStrategy selects how FindRoute ranks candidate edges
// (spec.md §4.11).
type ScoringStrategy int

const (
	SuccessProbability ScoringStrategy = iota
	LowestFee
	ShortestPath
	Custom
)

// CustomScorer is the caller-supplied scoring function used when the
// router's strategy is Custom. Higher is better, mirroring
// original_source's `fn(&ChannelInfo) -> u64` signature.
type CustomScorer func(ChannelEdge) uint64

// Preferences bounds and steers path finding (spec.md §4.11: "max_hops,
// max_cltv_expiry_delta, max_fee_rate, avoid_nodes/channels,
// preferred_nodes, per-route timeout").
type Preferences struct {
	MaxHops              uint8
	MaxCLTVExpiryDelta   uint16
	MaxFeeRateMillionths uint32
	Timeout              time.Duration
	AvoidNodes           map[NodeID]bool
	AvoidChannels        map[chainhash.Hash]bool
	PreferredNodes       map[NodeID]bool
}

// DefaultPreferences mirrors original_source's RouterPreferences::default().
func DefaultPreferences() Preferences {
	return Preferences{
		MaxHops:              20,
		MaxCLTVExpiryDelta:   1440,
		MaxFeeRateMillionths: 5000,
		Timeout:              5 * time.Second,
		AvoidNodes:           make(map[NodeID]bool),
		AvoidChannels:        make(map[chainhash.Hash]bool),
		PreferredNodes:       make(map[NodeID]bool),
	}
}

// RouteHint names a private channel's forwarding terms toward the
// destination, folded into the graph for the duration of one FindRoute
// call (spec.md §4.11, original_source's RouteHint).
type RouteHint struct {
	NodeID            NodeID
	ChannelID         chainhash.Hash
	BaseFeeMsat       uint32
	FeeRateMillionths uint32
	CLTVExpiryDelta   uint16
}

// PathHop is one hop of a resolved payment path.
type PathHop struct {
	NodeID     NodeID
	ChannelID  chainhash.Hash
	AmountMsat uint64
	CLTVExpiry uint32
}

// PaymentPath is a complete route from the router's local node to a
// destination.
type PaymentPath struct {
	Hops            []PathHop
	TotalFeeMsat    uint64
	TotalCLTVDelta  uint32
	TotalAmountMsat uint64
}
