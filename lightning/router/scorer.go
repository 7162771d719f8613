package router

// ChannelScorer turns a ChannelEdge into a path-finding weight under the
// router's configured strategy (spec.md §4.11, original_source's
// ChannelScorer). Lower weight is preferred, so score-based strategies
// are inverted: a higher raw score yields a lower weight.
type ChannelScorer struct {
	strategy ScoringStrategy
	custom   CustomScorer
}

func newChannelScorer(strategy ScoringStrategy, custom CustomScorer) ChannelScorer {
	return ChannelScorer{strategy: strategy, custom: custom}
}

// score computes the strategy's raw goodness value for edge, higher is
// better, matching original_source's score_channel.
func (s ChannelScorer) score(edge ChannelEdge) uint64 {
	switch s.strategy {
	case SuccessProbability:
		return uint64(edge.Stats.SuccessProbability() * 1_000_000)
	case LowestFee:
		cost := uint64(edge.BaseFeeMsat) + uint64(edge.FeeRateMillionths)
		if cost >= 1_000_000 {
			return 1
		}
		return 1_000_000 - cost
	case ShortestPath:
		return 1
	case Custom:
		if s.custom == nil {
			return 1
		}
		return s.custom(edge)
	default:
		return 1
	}
}

// weight converts score into a Dijkstra edge weight: smaller is better,
// and every edge contributes at least a small positive weight so
// ShortestPath's uniform score of 1 still favors fewer hops.
func (s ChannelScorer) weight(edge ChannelEdge) float64 {
	score := s.score(edge)
	return 1_000_000.0 / float64(score+1)
}
