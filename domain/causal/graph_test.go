package causal

import (
	"encoding/json"
	"testing"

	pkgerrors "causaldiscovery/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGraph() *CausalGraph {
	nodes := []Node{
		{ID: "IL6", Type: NodeTypeBiomarker, Label: "Interleukin-6", Grounding: Grounding{"HGNC", "6018"}},
		{ID: "CRP", Type: NodeTypeBiomarker, Label: "C-Reactive Protein", Grounding: Grounding{"HGNC", "2367"}},
	}
	edges := []Edge{{
		Source:           "IL6",
		Target:           "CRP",
		Relationship:     RelationshipIncreases,
		Evidence:         Evidence{Count: 312, Confidence: 0.98, Sources: []string{"PMID:45678901"}},
		EffectSize:       0.934,
		TemporalLagHours: 12,
	}}
	return NewCausalGraph(nodes, edges, nil)
}

func TestCausalGraph_Accessors(t *testing.T) {
	g := testGraph()

	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 1, g.EdgeCount())
	assert.Equal(t, 312, g.TotalEvidence())
	assert.True(t, g.HasNode("CRP"))
	assert.False(t, g.HasNode("TNF"))

	node, ok := g.Node("IL6")
	require.True(t, ok)
	assert.Equal(t, "Interleukin-6", node.Label)
}

func TestCausalGraph_AccessorsReturnCopies(t *testing.T) {
	g := testGraph()

	nodes := g.Nodes()
	nodes[0].Label = "mutated"
	edges := g.Edges()
	edges[0].Evidence.Sources[0] = "mutated"

	assert.Equal(t, "Interleukin-6", g.Nodes()[0].Label)
	assert.Equal(t, "PMID:45678901", g.Edges()[0].Evidence.Sources[0])
}

func TestCausalGraph_Validate(t *testing.T) {
	assert.NoError(t, testGraph().Validate())

	bad := NewCausalGraph(testGraph().Nodes(), []Edge{{
		Source: "IL6", Target: "CRP", Relationship: RelationshipIncreases,
		Evidence: Evidence{Count: 1, Confidence: 0.5}, EffectSize: 1.2,
	}}, nil)
	err := bad.Validate()
	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeValidation))
	assert.Contains(t, err.Error(), "effect_size")

	dangling := NewCausalGraph(testGraph().Nodes(), nil, []GeneticModifier{{
		Variant: "GSTM1_null", AffectedNodes: []string{"ROS"}, EffectType: EffectAmplifies, Magnitude: 1.3,
	}})
	assert.Error(t, dangling.Validate())
}

func TestValidateEdge(t *testing.T) {
	valid := Edge{
		Source: "A", Target: "B", Relationship: RelationshipActivates,
		Evidence: Evidence{Count: 0, Confidence: 0}, EffectSize: 0, TemporalLagHours: 0,
	}
	has := func(id string) bool { return id == "A" || id == "B" }

	tests := []struct {
		name    string
		mutate  func(e *Edge)
		wantErr bool
	}{
		{"boundary values accepted", func(e *Edge) {}, false},
		{"negative lag", func(e *Edge) { e.TemporalLagHours = -1 }, true},
		{"confidence above one", func(e *Edge) { e.Evidence.Confidence = 1.01 }, true},
		{"negative count", func(e *Edge) { e.Evidence.Count = -3 }, true},
		{"unknown relationship", func(e *Edge) { e.Relationship = "binds" }, true},
		{"missing endpoint", func(e *Edge) { e.Target = "C" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			err := ValidateEdge(e, has)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCausalGraph_JSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(testGraph())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"genetic_modifiers":[]`)
	assert.Contains(t, string(data), `"temporal_lag_hours":12`)

	var decoded CausalGraph
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, testGraph().Edges(), decoded.Edges())
}

func TestPath_Evidence(t *testing.T) {
	p := Path{Edges: []PathEdge{{EvidenceCount: 47}, {EvidenceCount: 89}}}
	assert.Equal(t, 136, p.TotalEvidence())
	assert.Equal(t, 47, p.MinEvidence())
	assert.Equal(t, 0, Path{}.MinEvidence())

	clone := p.Clone()
	clone.Edges[0].EvidenceCount = 1
	assert.Equal(t, 47, p.Edges[0].EvidenceCount)
}
