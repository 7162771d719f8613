package router

import (
	"github.com/supernova-labs/supernova/chainhash"
)

// Router finds payment paths across a NetworkGraph from a fixed local
// node (spec.md §4.11, original_source's Router).
type Router struct {
	graph       *NetworkGraph
	localNode   NodeID
	preferences Preferences
	scorer      ChannelScorer
}

// NewRouter builds a router for localNode over graph, defaulting to the
// LowestFee strategy and DefaultPreferences (matching original_source's
// Router::new()).
func NewRouter(localNode NodeID, graph *NetworkGraph) *Router {
	return &Router{
		graph:       graph,
		localNode:   localNode,
		preferences: DefaultPreferences(),
		scorer:      newChannelScorer(LowestFee, nil),
	}
}

// SetPreferences replaces the router's path-finding preferences.
func (r *Router) SetPreferences(prefs Preferences) {
	r.preferences = prefs
}

// SetScoringStrategy switches the edge-scoring strategy; custom is only
// consulted when strategy is Custom.
func (r *Router) SetScoringStrategy(strategy ScoringStrategy, custom CustomScorer) {
	r.scorer = newChannelScorer(strategy, custom)
}

// dijkstraState tracks one node's best-known path back to the
// destination while searching backward from it.
type dijkstraState struct {
	amountMsat uint64
	feeMsat    uint64
	cltvDelta  uint32
	hops       uint8
	cost       float64
	nextNode   NodeID
	viaEdge    chainhash.Hash
	reached    bool
}

// FindRoute finds the lowest-weight eligible path from the router's
// local node to destination forwarding amountMsat, subject to route_hints
// and the router's preferences (spec.md §4.11: "Dijkstra over the channel
// graph"). Path finding runs backward from the destination so that each
// hop's required amount already accounts for every downstream fee, per
// spec.md's "capacity ≥ amount (after accumulating hop fees)".
func (r *Router) FindRoute(destination NodeID, amountMsat uint64, hints []RouteHint) (*PaymentPath, error) {
	if destination == r.localNode {
		return nil, errKind(ErrKindInvalidDestination, "destination is the local node")
	}
	if !r.graph.hasNode(destination) && len(hints) == 0 {
		return nil, errKindf(ErrKindInvalidDestination, "destination node not found in graph")
	}

	graph := r.graph.withRouteHints(hints, destination, amountMsat)

	states := make(map[NodeID]dijkstraState)
	states[destination] = dijkstraState{amountMsat: amountMsat, reached: true}

	pq := newPriorityQueue()
	pq.push(destination, 0)
	visited := make(map[NodeID]bool)

	for pq.len() > 0 {
		node, cost := pq.pop()
		if visited[node] {
			continue
		}
		visited[node] = true

		if node == r.localNode {
			return r.buildPath(states, destination)
		}

		cur := states[node]
		if cur.hops >= r.preferences.MaxHops {
			continue
		}

		for _, edge := range graph.incomingEdges(node) {
			if !r.edgeEligible(edge, cur.amountMsat) {
				continue
			}
			fee := edge.Fee(cur.amountMsat)
			amountAtSource := cur.amountMsat + fee
			cltv := cur.cltvDelta + uint32(edge.CLTVExpiryDelta)
			if cltv > uint32(r.preferences.MaxCLTVExpiryDelta) {
				continue
			}

			weight := r.scorer.weight(edge)
			if r.preferences.PreferredNodes[edge.Source] {
				weight /= 2
			}
			newCost := cost + weight

			existing, ok := states[edge.Source]
			if ok && existing.reached && existing.cost <= newCost {
				continue
			}
			states[edge.Source] = dijkstraState{
				amountMsat: amountAtSource,
				feeMsat:    cur.feeMsat + fee,
				cltvDelta:  cltv,
				hops:       cur.hops + 1,
				cost:       newCost,
				nextNode:   node,
				viaEdge:    edge.ChannelID,
				reached:    true,
			}
			pq.push(edge.Source, newCost)
		}
	}

	return nil, errKind(ErrKindNoRoute, "no eligible path to destination")
}

// edgeEligible applies spec.md §4.11's eligibility rule: active, not in
// either avoid set, and carrying enough capacity for the amount this
// hop must forward (including every fee accumulated downstream so far).
func (r *Router) edgeEligible(edge ChannelEdge, amountMsat uint64) bool {
	if !edge.IsActive {
		return false
	}
	if r.preferences.AvoidChannels[edge.ChannelID] {
		return false
	}
	if r.preferences.AvoidNodes[edge.Source] || r.preferences.AvoidNodes[edge.Destination] {
		return false
	}
	if edge.Capacity*1000 < amountMsat {
		return false
	}
	return true
}

// buildPath walks the resolved dijkstraState chain forward from the
// local node to destination, assembling the ordered hop list.
func (r *Router) buildPath(states map[NodeID]dijkstraState, destination NodeID) (*PaymentPath, error) {
	path := &PaymentPath{}
	node := r.localNode
	for node != destination {
		st, ok := states[node]
		if !ok || !st.reached {
			return nil, errKind(ErrKindNoRoute, "path reconstruction failed")
		}
		path.Hops = append(path.Hops, PathHop{
			NodeID:     st.nextNode,
			ChannelID:  st.viaEdge,
			AmountMsat: states[st.nextNode].amountMsat,
			CLTVExpiry: states[st.nextNode].cltvDelta,
		})
		node = st.nextNode
	}

	final := states[r.localNode]
	path.TotalFeeMsat = final.feeMsat
	path.TotalCLTVDelta = final.cltvDelta
	path.TotalAmountMsat = final.amountMsat
	return path, nil
}

// HandleRouteFailure records the failing channel's outcome, excludes
// every hop up to and including the failure point, and retries
// (spec.md §4.11: "On route failure the failing channel's success
// probability is decremented and it is added to avoid set for a retry").
func (r *Router) HandleRouteFailure(path *PaymentPath, failurePoint int, destination NodeID, amountMsat uint64, hints []RouteHint) (*PaymentPath, error) {
	if failurePoint >= 0 && failurePoint < len(path.Hops) {
		r.graph.RecordOutcome(path.Hops[failurePoint].ChannelID, false)
	}

	retryPrefs := r.preferences
	avoid := make(map[chainhash.Hash]bool, len(retryPrefs.AvoidChannels))
	for id := range retryPrefs.AvoidChannels {
		avoid[id] = true
	}
	for i, hop := range path.Hops {
		if i <= failurePoint {
			avoid[hop.ChannelID] = true
		}
	}
	retryPrefs.AvoidChannels = avoid

	saved := r.preferences
	r.preferences = retryPrefs
	defer func() { r.preferences = saved }()

	return r.FindRoute(destination, amountMsat, hints)
}
