package router

import (
	"testing"

	"github.com/supernova-labs/supernova/chainhash"
)

func nodeID(b byte) NodeID {
	var n NodeID
	n[0] = 0x02
	n[32] = b
	return n
}

func channelID(b byte) chainhash.Hash {
	var h chainhash.Hash
	h[0] = b
	return h
}

// buildLinearGraph wires alice -> bob -> carol, each direction a
// separate ChannelEdge as real channel announcements are.
func buildLinearGraph() (*NetworkGraph, NodeID, NodeID, NodeID) {
	alice, bob, carol := nodeID(1), nodeID(2), nodeID(3)
	g := NewNetworkGraph()
	g.AddChannel(ChannelEdge{
		ChannelID: channelID(1), Source: alice, Destination: bob,
		Capacity: 1_000_000, BaseFeeMsat: 1000, FeeRateMillionths: 1, CLTVExpiryDelta: 40, IsActive: true,
	})
	g.AddChannel(ChannelEdge{
		ChannelID: channelID(2), Source: bob, Destination: carol,
		Capacity: 1_000_000, BaseFeeMsat: 2000, FeeRateMillionths: 1, CLTVExpiryDelta: 40, IsActive: true,
	})
	return g, alice, bob, carol
}

func TestFindRouteTwoHop(t *testing.T) {
	g, alice, bob, carol := buildLinearGraph()
	r := NewRouter(alice, g)

	path, err := r.FindRoute(carol, 500_000, nil)
	if err != nil {
		t.Fatalf("FindRoute: %v", err)
	}
	if len(path.Hops) != 2 {
		t.Fatalf("expected 2 hops, got %d", len(path.Hops))
	}
	if path.Hops[0].NodeID != bob || path.Hops[1].NodeID != carol {
		t.Fatalf("unexpected hop order: %+v", path.Hops)
	}
	if path.Hops[1].AmountMsat != 500_000 {
		t.Fatalf("final hop amount = %d, want 500000", path.Hops[1].AmountMsat)
	}
	// The first hop must forward the destination amount plus bob's fee.
	wantFirstAmount := 500_000 + uint64(2000) + (500_000*1)/1_000_000
	if path.Hops[0].AmountMsat != wantFirstAmount {
		t.Fatalf("first hop amount = %d, want %d", path.Hops[0].AmountMsat, wantFirstAmount)
	}
	if path.TotalFeeMsat == 0 {
		t.Fatal("expected nonzero accumulated fee")
	}
}

func TestFindRouteNoPath(t *testing.T) {
	g, alice, _, _ := buildLinearGraph()
	r := NewRouter(alice, g)

	stranger := nodeID(99)
	_, err := r.FindRoute(stranger, 1000, nil)
	serr, ok := err.(*Error)
	if !ok || serr.Kind != ErrKindInvalidDestination {
		t.Fatalf("expected ErrKindInvalidDestination, got %v", err)
	}
}

func TestFindRouteInsufficientCapacity(t *testing.T) {
	g, alice, _, carol := buildLinearGraph()
	r := NewRouter(alice, g)

	_, err := r.FindRoute(carol, 2_000_000_000, nil)
	serr, ok := err.(*Error)
	if !ok || serr.Kind != ErrKindNoRoute {
		t.Fatalf("expected ErrKindNoRoute, got %v", err)
	}
}

func TestHandleRouteFailureAvoidsFailedChannel(t *testing.T) {
	alice, bob, carol := nodeID(1), nodeID(2), nodeID(3)
	g := NewNetworkGraph()
	// Two parallel alice<->bob channels and two parallel bob<->carol
	// channels; the cheapest end-to-end combination fails, forcing the
	// retry onto the alternate channel at every hop (original_source's
	// HandleRouteFailure avoids the full prefix up to the failure point,
	// not just the failing edge).
	g.AddChannel(ChannelEdge{
		ChannelID: channelID(1), Source: alice, Destination: bob,
		Capacity: 1_000_000, BaseFeeMsat: 10, IsActive: true,
	})
	g.AddChannel(ChannelEdge{
		ChannelID: channelID(4), Source: alice, Destination: bob,
		Capacity: 1_000_000, BaseFeeMsat: 9000, IsActive: true,
	})
	g.AddChannel(ChannelEdge{
		ChannelID: channelID(2), Source: bob, Destination: carol,
		Capacity: 1_000_000, BaseFeeMsat: 100, IsActive: true,
	})
	g.AddChannel(ChannelEdge{
		ChannelID: channelID(3), Source: bob, Destination: carol,
		Capacity: 1_000_000, BaseFeeMsat: 5000, IsActive: true,
	})

	r := NewRouter(alice, g)
	r.SetScoringStrategy(LowestFee, nil)

	path, err := r.FindRoute(carol, 1000, nil)
	if err != nil {
		t.Fatalf("FindRoute: %v", err)
	}
	if path.Hops[0].ChannelID != channelID(1) || path.Hops[1].ChannelID != channelID(2) {
		t.Fatalf("expected cheapest channels first, got %+v", path.Hops)
	}

	retry, err := r.HandleRouteFailure(path, 1, carol, 1000, nil)
	if err != nil {
		t.Fatalf("HandleRouteFailure: %v", err)
	}
	if retry.Hops[0].ChannelID != channelID(4) || retry.Hops[1].ChannelID != channelID(3) {
		t.Fatalf("expected retry to avoid the whole failed prefix, got %+v", retry.Hops)
	}

	edge, _ := g.Channel(channelID(2))
	if edge.Stats.Failures != 1 {
		t.Fatalf("expected failed channel's stats to record a failure, got %+v", edge.Stats)
	}
}

func TestRouteHintReachesUnannouncedDestination(t *testing.T) {
	g, alice, bob, _ := buildLinearGraph()
	r := NewRouter(alice, g)

	private := nodeID(77)
	hints := []RouteHint{{NodeID: bob, ChannelID: channelID(9), BaseFeeMsat: 500, CLTVExpiryDelta: 40}}

	path, err := r.FindRoute(private, 10_000, hints)
	if err != nil {
		t.Fatalf("FindRoute with hint: %v", err)
	}
	if len(path.Hops) != 2 || path.Hops[1].NodeID != private {
		t.Fatalf("unexpected path via hint: %+v", path.Hops)
	}
}
