package causal

import (
	"encoding/json"
	"fmt"

	pkgerrors "causaldiscovery/pkg/errors"
	"causaldiscovery/pkg/utils"
)

// CausalGraph is an assembled, deduplicated causal graph. It is immutable once
// built: accessors return copies.
type CausalGraph struct {
	nodes     []Node
	nodeIndex map[string]int
	edges     []Edge
	modifiers []GeneticModifier
}

// NewCausalGraph takes ownership of copies of the given slices.
func NewCausalGraph(nodes []Node, edges []Edge, modifiers []GeneticModifier) *CausalGraph {
	g := &CausalGraph{
		nodes:     append([]Node(nil), nodes...),
		nodeIndex: make(map[string]int, len(nodes)),
		edges:     append([]Edge(nil), edges...),
		modifiers: append([]GeneticModifier(nil), modifiers...),
	}
	for i, n := range g.nodes {
		if _, ok := g.nodeIndex[n.ID]; !ok {
			g.nodeIndex[n.ID] = i
		}
	}
	return g
}

// Nodes returns the graph nodes in insertion order.
func (g *CausalGraph) Nodes() []Node {
	return append([]Node{}, g.nodes...)
}

// Edges returns the graph edges in insertion order.
func (g *CausalGraph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	for i, e := range g.edges {
		e.Evidence.Sources = append([]string(nil), e.Evidence.Sources...)
		out[i] = e
	}
	return out
}

// GeneticModifiers returns the modifiers overlaid on the graph.
func (g *CausalGraph) GeneticModifiers() []GeneticModifier {
	out := make([]GeneticModifier, len(g.modifiers))
	for i, m := range g.modifiers {
		m.AffectedNodes = append([]string(nil), m.AffectedNodes...)
		out[i] = m
	}
	return out
}

// Node looks up a node by ID.
func (g *CausalGraph) Node(id string) (Node, bool) {
	i, ok := g.nodeIndex[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[i], true
}

// HasNode reports whether id is a node of the graph.
func (g *CausalGraph) HasNode(id string) bool {
	_, ok := g.nodeIndex[id]
	return ok
}

func (g *CausalGraph) NodeCount() int { return len(g.nodes) }
func (g *CausalGraph) EdgeCount() int { return len(g.edges) }

// IsEmpty reports whether the graph has neither nodes nor edges.
func (g *CausalGraph) IsEmpty() bool {
	return len(g.nodes) == 0 && len(g.edges) == 0
}

// TotalEvidence sums evidence counts over all edges.
func (g *CausalGraph) TotalEvidence() int {
	total := 0
	for _, e := range g.edges {
		total += e.Evidence.Count
	}
	return total
}

// Validate checks every node, edge and modifier against the graph invariants.
func (g *CausalGraph) Validate() error {
	seen := make(map[string]struct{}, len(g.nodes))
	for _, n := range g.nodes {
		if _, dup := seen[n.ID]; dup {
			return pkgerrors.NewValidationError(fmt.Sprintf("duplicate node id '%s'", n.ID))
		}
		seen[n.ID] = struct{}{}
		if err := utils.ValidateStruct(n); err != nil {
			return pkgerrors.NewValidationError(err.Error()).WithCause(err)
		}
	}
	for _, e := range g.edges {
		if err := ValidateEdge(e, g.HasNode); err != nil {
			return err
		}
	}
	for _, m := range g.modifiers {
		if err := utils.ValidateStruct(m); err != nil {
			return pkgerrors.NewValidationError(err.Error()).WithCause(err)
		}
		for _, id := range m.AffectedNodes {
			if !g.HasNode(id) {
				return pkgerrors.NewValidationError(
					fmt.Sprintf("modifier %s references unknown node '%s'", m.Variant, id))
			}
		}
	}
	return nil
}

// ValidateEdge checks an edge's field ranges and that both endpoints exist.
func ValidateEdge(e Edge, hasNode func(string) bool) error {
	if err := utils.ValidateStruct(e); err != nil {
		return pkgerrors.NewValidationError(err.Error()).WithCause(err)
	}
	if hasNode != nil {
		if !hasNode(e.Source) {
			return pkgerrors.NewValidationError(fmt.Sprintf("edge source '%s' is not a graph node", e.Source))
		}
		if !hasNode(e.Target) {
			return pkgerrors.NewValidationError(fmt.Sprintf("edge target '%s' is not a graph node", e.Target))
		}
	}
	return nil
}

type graphJSON struct {
	Nodes            []Node            `json:"nodes"`
	Edges            []Edge            `json:"edges"`
	GeneticModifiers []GeneticModifier `json:"genetic_modifiers"`
}

// MarshalJSON renders the graph in the discovery response shape.
func (g *CausalGraph) MarshalJSON() ([]byte, error) {
	return json.Marshal(graphJSON{
		Nodes:            g.Nodes(),
		Edges:            g.Edges(),
		GeneticModifiers: g.GeneticModifiers(),
	})
}

// UnmarshalJSON rebuilds a graph from its JSON form.
func (g *CausalGraph) UnmarshalJSON(data []byte) error {
	var raw graphJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*g = *NewCausalGraph(raw.Nodes, raw.Edges, raw.GeneticModifiers)
	return nil
}
