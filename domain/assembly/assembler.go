// Package assembly turns ranked mechanistic paths into a validated causal graph.
package assembly

import (
	"fmt"

	"causaldiscovery/domain/causal"
	"causaldiscovery/domain/grounding"
	"causaldiscovery/domain/policy"

	"go.uber.org/zap"
)

const (
	unknownDatabase = "UNKNOWN"
	maxEdgeSources  = 3
	defaultStmtType = "Activation"
	defaultRelation = causal.RelationshipActivates
)

// Assembler is the only constructor of CausalGraph values in the pipeline.
type Assembler struct {
	policy    *policy.Policy
	catalog   *grounding.Catalog
	modifiers *ModifierTable
	logger    *zap.Logger
}

// NewAssembler wires the derivation policy, node catalog and modifier table.
// Nil arguments select the built-in defaults.
func NewAssembler(p *policy.Policy, catalog *grounding.Catalog, modifiers *ModifierTable, logger *zap.Logger) *Assembler {
	if p == nil {
		p = policy.DefaultPolicy()
	}
	if catalog == nil {
		catalog = grounding.DefaultCatalog()
	}
	if modifiers == nil {
		modifiers = NewModifierTable(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{policy: p, catalog: catalog, modifiers: modifiers, logger: logger}
}

// Build merges paths into one graph and overlays the user's genetic modifiers.
func (a *Assembler) Build(paths []causal.Path, genetics map[string]string) *causal.CausalGraph {
	var nodes []causal.Node
	index := make(map[string]struct{})

	var derived []causal.Edge
	for _, p := range paths {
		for _, pn := range p.Nodes {
			if _, seen := index[pn.ID]; seen {
				continue
			}
			index[pn.ID] = struct{}{}
			nodes = append(nodes, a.node(pn))
		}
		for _, pe := range p.Edges {
			derived = append(derived, a.edge(pe))
		}
	}

	hasNode := func(id string) bool {
		_, ok := index[id]
		return ok
	}

	var valid []causal.Edge
	for _, e := range derived {
		if err := causal.ValidateEdge(e, hasNode); err != nil {
			a.logger.Warn("Dropping invalid edge",
				zap.String("source", e.Source),
				zap.String("target", e.Target),
				zap.Error(err),
			)
			continue
		}
		valid = append(valid, e)
	}

	edges := Deduplicate(valid)
	modifiers := a.modifiers.Overlay(genetics, hasNode)

	a.logger.Debug("Assembled causal graph",
		zap.Int("paths", len(paths)),
		zap.Int("nodes", len(nodes)),
		zap.Int("edges", len(edges)),
		zap.Int("modifiers", len(modifiers)),
	)
	return causal.NewCausalGraph(nodes, edges, modifiers)
}

func (a *Assembler) node(pn causal.PathNode) causal.Node {
	db := pn.Grounding.Database
	if db == "" {
		db = unknownDatabase
	}
	label := pn.Name
	if label == "" {
		label = pn.ID
	}
	return causal.Node{
		ID:        pn.ID,
		Type:      a.inferType(pn.ID, pn.Grounding.Database),
		Label:     label,
		Grounding: causal.Grounding{Database: db, Identifier: pn.Grounding.Identifier},
	}
}

// inferType applies, in order: environmental, process, biomarker, molecular.
func (a *Assembler) inferType(id, database string) causal.NodeType {
	switch {
	case a.catalog.IsEnvironmental(id) || database == "MESH":
		return causal.NodeTypeEnvironmental
	case database == "GO" || a.catalog.IsProcess(id):
		return causal.NodeTypeMolecular
	case a.catalog.IsBiomarker(id):
		return causal.NodeTypeBiomarker
	default:
		return causal.NodeTypeMolecular
	}
}

func (a *Assembler) edge(pe causal.PathEdge) causal.Edge {
	stmtType := pe.StatementType
	if stmtType == "" {
		stmtType = defaultStmtType
	}
	rel := pe.Relationship
	if rel == "" {
		rel = defaultRelation
	}
	sources := pe.Sources
	if len(sources) > maxEdgeSources {
		sources = sources[:maxEdgeSources]
	}
	return causal.Edge{
		Source:       pe.Source,
		Target:       pe.Target,
		Relationship: rel,
		Evidence: causal.Evidence{
			Count:      pe.EvidenceCount,
			Confidence: pe.Belief,
			Sources:    append([]string{}, sources...),
			Summary:    fmt.Sprintf("%s %s %s", pe.Source, rel, pe.Target),
		},
		EffectSize:       a.policy.EffectSize(pe.Belief, pe.EvidenceCount),
		TemporalLagHours: a.policy.LagHours(stmtType),
	}
}

// Deduplicate keeps one edge per (source, target, relationship): the one with
// the highest evidence count, the earliest on ties. Output follows first-seen order.
func Deduplicate(edges []causal.Edge) []causal.Edge {
	pos := make(map[causal.EdgeKey]int, len(edges))
	var out []causal.Edge
	for _, e := range edges {
		k := e.Key()
		if i, ok := pos[k]; ok {
			if e.Evidence.Count > out[i].Evidence.Count {
				out[i] = e
			}
			continue
		}
		pos[k] = len(out)
		out = append(out, e)
	}
	return out
}
