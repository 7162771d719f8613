package router

import (
	"sync"

	"github.com/supernova-labs/supernova/chainhash"
)

// NetworkGraph is the directed channel graph path finding runs over:
// nodes keyed by node_id, edges keyed by channel_id, with outgoing and
// incoming adjacency indexes kept in lockstep (spec.md §4.11,
// original_source's NetworkGraph).
type NetworkGraph struct {
	mu sync.RWMutex

	edges    map[chainhash.Hash]ChannelEdge
	outgoing map[NodeID][]chainhash.Hash
	incoming map[NodeID][]chainhash.Hash
}

// NewNetworkGraph returns an empty graph.
func NewNetworkGraph() *NetworkGraph {
	return &NetworkGraph{
		edges:    make(map[chainhash.Hash]ChannelEdge),
		outgoing: make(map[NodeID][]chainhash.Hash),
		incoming: make(map[NodeID][]chainhash.Hash),
	}
}

// AddNode registers a node with no channels, a no-op if it already exists.
func (g *NetworkGraph) AddNode(node NodeID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addNodeLocked(node)
}

func (g *NetworkGraph) addNodeLocked(node NodeID) {
	if _, ok := g.outgoing[node]; !ok {
		g.outgoing[node] = nil
	}
	if _, ok := g.incoming[node]; !ok {
		g.incoming[node] = nil
	}
}

// AddChannel inserts or replaces a directed edge, indexing it under both
// endpoints.
func (g *NetworkGraph) AddChannel(edge ChannelEdge) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.addNodeLocked(edge.Source)
	g.addNodeLocked(edge.Destination)

	if _, exists := g.edges[edge.ChannelID]; !exists {
		g.outgoing[edge.Source] = append(g.outgoing[edge.Source], edge.ChannelID)
		g.incoming[edge.Destination] = append(g.incoming[edge.Destination], edge.ChannelID)
	}
	g.edges[edge.ChannelID] = edge
}

// RemoveChannel deletes an edge and its adjacency entries.
func (g *NetworkGraph) RemoveChannel(channelID chainhash.Hash) {
	g.mu.Lock()
	defer g.mu.Unlock()

	edge, ok := g.edges[channelID]
	if !ok {
		return
	}
	delete(g.edges, channelID)
	g.outgoing[edge.Source] = removeHash(g.outgoing[edge.Source], channelID)
	g.incoming[edge.Destination] = removeHash(g.incoming[edge.Destination], channelID)
}

func removeHash(ids []chainhash.Hash, target chainhash.Hash) []chainhash.Hash {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// Channel looks up an edge by channel ID.
func (g *NetworkGraph) Channel(channelID chainhash.Hash) (ChannelEdge, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	edge, ok := g.edges[channelID]
	return edge, ok
}

// RecordOutcome updates an edge's rolling success/failure counters after a
// payment attempt traverses it (spec.md §4.11: "the failing channel's
// success probability is decremented").
func (g *NetworkGraph) RecordOutcome(channelID chainhash.Hash, success bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	edge, ok := g.edges[channelID]
	if !ok {
		return
	}
	if success {
		edge.Stats.Successes++
	} else {
		edge.Stats.Failures++
	}
	g.edges[channelID] = edge
}

// incomingEdges returns every edge terminating at node, used by Dijkstra
// to walk the graph backward from the destination.
func (g *NetworkGraph) incomingEdges(node NodeID) []ChannelEdge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := g.incoming[node]
	edges := make([]ChannelEdge, 0, len(ids))
	for _, id := range ids {
		edges = append(edges, g.edges[id])
	}
	return edges
}

// NodeCount returns the number of distinct nodes in the graph.
func (g *NetworkGraph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.outgoing)
}

// ChannelCount returns the number of directed edges in the graph.
func (g *NetworkGraph) ChannelCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// hasNode reports whether node has been registered, directly or via an
// edge referencing it.
func (g *NetworkGraph) hasNode(node NodeID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.outgoing[node]
	return ok
}

// withRouteHints returns a copy of g with each hint folded in as a
// one-off private edge terminating at destination, scoped to a single
// FindRoute call (spec.md §4.11, original_source's temp_graph pattern).
// Capacity is assumed sufficient, matching original_source's comment.
func (g *NetworkGraph) withRouteHints(hints []RouteHint, destination NodeID, amountMsat uint64) *NetworkGraph {
	g.mu.RLock()
	clone := NewNetworkGraph()
	for id, edge := range g.edges {
		clone.edges[id] = edge
	}
	for node, ids := range g.outgoing {
		clone.outgoing[node] = append([]chainhash.Hash(nil), ids...)
	}
	for node, ids := range g.incoming {
		clone.incoming[node] = append([]chainhash.Hash(nil), ids...)
	}
	g.mu.RUnlock()

	for _, hint := range hints {
		clone.AddChannel(ChannelEdge{
			ChannelID:         hint.ChannelID,
			Source:            hint.NodeID,
			Destination:       destination,
			Capacity:          amountMsat/1000 + 1,
			BaseFeeMsat:       hint.BaseFeeMsat,
			FeeRateMillionths: hint.FeeRateMillionths,
			CLTVExpiryDelta:   hint.CLTVExpiryDelta,
			IsActive:          true,
		})
	}
	return clone
}
