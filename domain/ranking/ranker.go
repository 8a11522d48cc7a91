// Package ranking orders candidate paths best-first.
package ranking

import (
	"math"
	"sort"

	"causaldiscovery/domain/causal"
	"causaldiscovery/domain/policy"
)

// Ranker scores paths by evidence volume, path belief and brevity.
type Ranker struct {
	weights policy.RankingPolicy
}

// NewRanker creates a ranker from the policy's ranking weights.
func NewRanker(p *policy.Policy) *Ranker {
	if p == nil {
		p = policy.DefaultPolicy()
	}
	return &Ranker{weights: p.Ranking}
}

// Score computes
//
//	evidence·min(total/saturation, 1) + belief·path_belief + length·(1/node_count)
//
// with the length term 0 for a path without nodes.
func (r *Ranker) Score(p causal.Path) float64 {
	evidence := math.Min(float64(p.TotalEvidence())/r.weights.EvidenceSaturation, 1)

	length := 0.0
	if n := len(p.Nodes); n > 0 {
		length = 1 / float64(n)
	}

	return r.weights.EvidenceWeight*evidence +
		r.weights.BeliefWeight*p.Belief +
		r.weights.LengthWeight*length
}

// Rank returns a new slice sorted by descending score. Equal scores keep input order.
func (r *Ranker) Rank(paths []causal.Path) []causal.Path {
	type scored struct {
		path  causal.Path
		score float64
	}
	items := make([]scored, len(paths))
	for i, p := range paths {
		items[i] = scored{path: p, score: r.Score(p)}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score > items[j].score
	})

	out := make([]causal.Path, len(items))
	for i, it := range items {
		out[i] = it.path
	}
	return out
}
