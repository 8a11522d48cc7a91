// Package causal defines the causal graph model shared by the discovery pipeline:
// graph nodes and edges with their evidence, raw mechanistic paths as returned by
// a path source, and genetic modifiers overlaid on an assembled graph.
package causal

// NodeType classifies a graph node.
type NodeType string

const (
	NodeTypeEnvironmental NodeType = "environmental"
	NodeTypeMolecular     NodeType = "molecular"
	NodeTypeBiomarker     NodeType = "biomarker"
	NodeTypeGenetic       NodeType = "genetic"
)

// Relationship is the directed effect an edge asserts.
type Relationship string

const (
	RelationshipActivates Relationship = "activates"
	RelationshipInhibits  Relationship = "inhibits"
	RelationshipIncreases Relationship = "increases"
	RelationshipDecreases Relationship = "decreases"
)

// EffectType is the direction a genetic variant pushes the affected nodes.
type EffectType string

const (
	EffectAmplifies EffectType = "amplifies"
	EffectDampens   EffectType = "dampens"
)

// Grounding is a canonical database reference for an entity.
type Grounding struct {
	Database   string `json:"database" yaml:"database" dynamodbav:"database"`
	Identifier string `json:"identifier" yaml:"identifier" dynamodbav:"identifier"`
}

// Node is a vertex of an assembled causal graph.
type Node struct {
	ID        string    `json:"id" validate:"required"`
	Type      NodeType  `json:"type" validate:"oneof=environmental molecular biomarker genetic"`
	Label     string    `json:"label"`
	Grounding Grounding `json:"grounding"`
}

// Evidence summarizes the literature support behind an edge.
type Evidence struct {
	Count      int      `json:"count" validate:"gte=0"`
	Confidence float64  `json:"confidence" validate:"gte=0,lte=1"`
	Sources    []string `json:"sources"`
	Summary    string   `json:"summary"`
}

// Edge is a directed causal relationship between two nodes of the same graph.
// EffectSize and TemporalLagHours are always derived, never taken from input.
type Edge struct {
	Source           string       `json:"source" validate:"required"`
	Target           string       `json:"target" validate:"required"`
	Relationship     Relationship `json:"relationship" validate:"oneof=activates inhibits increases decreases"`
	Evidence         Evidence     `json:"evidence"`
	EffectSize       float64      `json:"effect_size" validate:"gte=0,lte=1"`
	TemporalLagHours int          `json:"temporal_lag_hours" validate:"gte=0"`
}

// Key identifies an edge for deduplication.
func (e Edge) Key() EdgeKey {
	return EdgeKey{Source: e.Source, Target: e.Target, Relationship: e.Relationship}
}

// EdgeKey is the (source, target, relationship) identity of an edge.
type EdgeKey struct {
	Source       string
	Target       string
	Relationship Relationship
}

// GeneticModifier records a variant that modulates nodes present in a graph.
type GeneticModifier struct {
	Variant       string     `json:"variant" validate:"required"`
	AffectedNodes []string   `json:"affected_nodes" validate:"min=1"`
	EffectType    EffectType `json:"effect_type" validate:"oneof=amplifies dampens"`
	Magnitude     float64    `json:"magnitude" validate:"gt=0"`
}

// PathNode is a node as reported by a path source.
type PathNode struct {
	ID        string    `json:"id" yaml:"id" dynamodbav:"id"`
	Name      string    `json:"name" yaml:"name" dynamodbav:"name"`
	Grounding Grounding `json:"grounding" yaml:"grounding" dynamodbav:"grounding"`
}

// PathEdge is an edge as reported by a path source, before derivation.
type PathEdge struct {
	Source        string       `json:"source" yaml:"source" dynamodbav:"source"`
	Target        string       `json:"target" yaml:"target" dynamodbav:"target"`
	Relationship  Relationship `json:"relationship" yaml:"relationship" dynamodbav:"relationship"`
	EvidenceCount int          `json:"evidence_count" yaml:"evidence_count" dynamodbav:"evidence_count"`
	Belief        float64      `json:"belief" yaml:"belief" dynamodbav:"belief"`
	StatementType string       `json:"statement_type" yaml:"statement_type" dynamodbav:"statement_type"`
	Sources       []string     `json:"sources,omitempty" yaml:"sources,omitempty" dynamodbav:"sources,omitempty"`
}

// Path is one hypothesized mechanistic route. Belief is the aggregate path belief.
type Path struct {
	Nodes  []PathNode `json:"nodes" yaml:"nodes" dynamodbav:"nodes"`
	Edges  []PathEdge `json:"edges" yaml:"edges" dynamodbav:"edges"`
	Belief float64    `json:"path_belief" yaml:"path_belief" dynamodbav:"path_belief"`
}

// TotalEvidence sums evidence counts over every edge of the path.
func (p Path) TotalEvidence() int {
	total := 0
	for _, e := range p.Edges {
		total += e.EvidenceCount
	}
	return total
}

// MinEvidence returns the smallest edge evidence count, or 0 for an edgeless path.
func (p Path) MinEvidence() int {
	if len(p.Edges) == 0 {
		return 0
	}
	lowest := p.Edges[0].EvidenceCount
	for _, e := range p.Edges[1:] {
		if e.EvidenceCount < lowest {
			lowest = e.EvidenceCount
		}
	}
	return lowest
}

// Clone returns a deep copy so cached path lists are never shared with callers.
func (p Path) Clone() Path {
	out := Path{
		Nodes:  append([]PathNode(nil), p.Nodes...),
		Edges:  make([]PathEdge, len(p.Edges)),
		Belief: p.Belief,
	}
	for i, e := range p.Edges {
		e.Sources = append([]string(nil), e.Sources...)
		out.Edges[i] = e
	}
	return out
}

// ClonePaths deep-copies a path list.
func ClonePaths(paths []Path) []Path {
	if paths == nil {
		return nil
	}
	out := make([]Path, len(paths))
	for i, p := range paths {
		out[i] = p.Clone()
	}
	return out
}
