package indra

import (
	"fmt"
	"math"

	"causaldiscovery/domain/causal"

	"gonum.org/v1/gonum/stat"
)

const (
	defaultBelief        = 0.5
	defaultStatementType = "Activation"
	hashesPerStatement   = 3
	maxEdgeSources       = 5
)

var statementRelations = map[string]causal.Relationship{
	"Activation":       causal.RelationshipActivates,
	"Inhibition":       causal.RelationshipInhibits,
	"IncreaseAmount":   causal.RelationshipIncreases,
	"DecreaseAmount":   causal.RelationshipDecreases,
	"Phosphorylation":  causal.RelationshipActivates,
	"Complex":          causal.RelationshipActivates,
	"RegulateActivity": causal.RelationshipActivates,
}

// RelationshipFor maps an INDRA statement type to an edge relationship.
// Unknown types activate.
func RelationshipFor(statementType string) causal.Relationship {
	if rel, ok := statementRelations[statementType]; ok {
		return rel
	}
	return causal.RelationshipActivates
}

// toPaths converts a query response into domain paths. A timed-out or empty
// response yields nil.
func toPaths(res queryResults) []causal.Path {
	if res.TimedOut || res.PathResults == nil {
		return nil
	}

	var paths []causal.Path
	for _, group := range res.PathResults.Paths {
		for _, wp := range group.Paths {
			paths = append(paths, toPath(wp))
		}
	}
	return paths
}

func toPath(wp wirePath) causal.Path {
	p := causal.Path{
		Nodes: make([]causal.PathNode, 0, len(wp.Path)),
		Edges: make([]causal.PathEdge, 0, len(wp.EdgeData)),
	}
	for _, n := range wp.Path {
		p.Nodes = append(p.Nodes, causal.PathNode{
			ID:   n.Name,
			Name: n.Name,
			Grounding: causal.Grounding{
				Database:   n.Namespace,
				Identifier: n.Identifier,
			},
		})
	}

	beliefs := make([]float64, 0, len(wp.EdgeData))
	for _, ed := range wp.EdgeData {
		if len(ed.Edge) < 2 {
			continue
		}
		e := toEdge(ed)
		p.Edges = append(p.Edges, e)
		beliefs = append(beliefs, e.Belief)
	}

	p.Belief = defaultBelief
	if len(beliefs) > 0 {
		p.Belief = stat.Mean(beliefs, nil)
	}
	return p
}

func toEdge(ed edgeData) causal.PathEdge {
	stmtType := defaultStatementType
	if len(ed.Statements) > 0 {
		stmtType = ed.Statements[0].Type
	}

	total := 0
	var sources []string
	for _, group := range ed.Statements {
		for _, n := range group.Support.SourceCounts {
			total += n
		}
		stmts := group.Support.Statements
		if len(stmts) > hashesPerStatement {
			stmts = stmts[:hashesPerStatement]
		}
		for _, s := range stmts {
			if s.StmtHash != "" {
				sources = append(sources, fmt.Sprintf("HASH:%s", s.StmtHash))
			}
		}
	}
	if len(sources) > maxEdgeSources {
		sources = sources[:maxEdgeSources]
	}

	belief := defaultBelief
	if ed.Belief != nil {
		belief = clamp(*ed.Belief)
	}

	return causal.PathEdge{
		Source:        ed.Edge[0].Name,
		Target:        ed.Edge[1].Name,
		Relationship:  RelationshipFor(stmtType),
		EvidenceCount: total,
		Belief:        belief,
		StatementType: stmtType,
		Sources:       sources,
	}
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return defaultBelief
	}
	return math.Max(0, math.Min(1, v))
}
