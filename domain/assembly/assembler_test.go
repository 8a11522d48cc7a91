package assembly

import (
	"testing"

	"causaldiscovery/domain/causal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func il6ToCRP() causal.Path {
	return causal.Path{
		Nodes: []causal.PathNode{
			{ID: "IL6", Name: "Interleukin-6", Grounding: causal.Grounding{Database: "HGNC", Identifier: "6018"}},
			{ID: "CRP", Name: "C-Reactive Protein", Grounding: causal.Grounding{Database: "HGNC", Identifier: "2367"}},
		},
		Edges: []causal.PathEdge{{
			Source: "IL6", Target: "CRP", Relationship: causal.RelationshipIncreases,
			EvidenceCount: 312, Belief: 0.98, StatementType: "IncreaseAmount",
			Sources: []string{"PMID:45678901", "PMID:56789012"},
		}},
		Belief: 0.98,
	}
}

func pm25ToIL6(count int) causal.Path {
	return causal.Path{
		Nodes: []causal.PathNode{
			{ID: "PM2.5", Name: "Particulate Matter (PM2.5)", Grounding: causal.Grounding{Database: "MESH", Identifier: "D052638"}},
			{ID: "IL6", Name: "Interleukin-6", Grounding: causal.Grounding{Database: "HGNC", Identifier: "6018"}},
		},
		Edges: []causal.PathEdge{{
			Source: "PM2.5", Target: "IL6", Relationship: causal.RelationshipIncreases,
			EvidenceCount: count, Belief: 0.8, StatementType: "IncreaseAmount",
		}},
		Belief: 0.8,
	}
}

func oxidativePath() causal.Path {
	return causal.Path{
		Nodes: []causal.PathNode{
			{ID: "PM2.5", Name: "Particulate Matter (PM2.5)", Grounding: causal.Grounding{Database: "MESH", Identifier: "D052638"}},
			{ID: "ROS", Name: "Reactive Oxygen Species", Grounding: causal.Grounding{Database: "MESH", Identifier: "D017382"}},
			{ID: "oxidative_stress", Name: "Oxidative Stress", Grounding: causal.Grounding{Database: "GO", Identifier: "0006979"}},
		},
		Edges: []causal.PathEdge{
			{Source: "PM2.5", Target: "ROS", Relationship: causal.RelationshipIncreases, EvidenceCount: 52, Belief: 0.85, StatementType: "IncreaseAmount"},
			{Source: "ROS", Target: "oxidative_stress", Relationship: causal.RelationshipIncreases, EvidenceCount: 87, Belief: 0.92, StatementType: "Activation"},
		},
		Belief: 0.88,
	}
}

func TestBuild_SingleHighEvidenceEdge(t *testing.T) {
	g := NewAssembler(nil, nil, nil, nil).Build([]causal.Path{il6ToCRP()}, nil)

	require.Equal(t, 2, g.NodeCount())
	require.Equal(t, 1, g.EdgeCount())
	assert.Empty(t, g.GeneticModifiers())

	edge := g.Edges()[0]
	// min(0.98*0.8+0.15, 0.95) = 0.934: belief 0.98 stays under the cap, so
	// the expected value is 0.934 and not the capped 0.95.
	assert.InDelta(t, 0.934, edge.EffectSize, 1e-9)
	assert.Equal(t, 12, edge.TemporalLagHours)
	assert.Equal(t, 0.98, edge.Evidence.Confidence)
	assert.Equal(t, "IL6 increases CRP", edge.Evidence.Summary)
	assert.Equal(t, []string{"PMID:45678901", "PMID:56789012"}, edge.Evidence.Sources)

	crp, ok := g.Node("CRP")
	require.True(t, ok)
	assert.Equal(t, causal.NodeTypeBiomarker, crp.Type)
	assert.NoError(t, g.Validate())
}

func TestBuild_DeduplicatesKeepingHighestEvidence(t *testing.T) {
	g := NewAssembler(nil, nil, nil, nil).Build([]causal.Path{pm25ToIL6(30), pm25ToIL6(47)}, nil)

	require.Equal(t, 1, g.EdgeCount())
	assert.Equal(t, 47, g.Edges()[0].Evidence.Count)
	assert.Equal(t, 2, g.NodeCount())
}

func TestDeduplicate_TieKeepsFirstAndOrder(t *testing.T) {
	a := causal.Edge{Source: "A", Target: "B", Relationship: causal.RelationshipActivates, Evidence: causal.Evidence{Count: 5, Summary: "first"}}
	b := causal.Edge{Source: "B", Target: "C", Relationship: causal.RelationshipActivates, Evidence: causal.Evidence{Count: 1}}
	a2 := causal.Edge{Source: "A", Target: "B", Relationship: causal.RelationshipActivates, Evidence: causal.Evidence{Count: 5, Summary: "second"}}
	inhib := causal.Edge{Source: "A", Target: "B", Relationship: causal.RelationshipInhibits, Evidence: causal.Evidence{Count: 2}}

	out := Deduplicate([]causal.Edge{a, b, a2, inhib})

	require.Len(t, out, 3)
	assert.Equal(t, "first", out[0].Evidence.Summary)
	assert.Equal(t, "B", out[1].Source)
	assert.Equal(t, causal.RelationshipInhibits, out[2].Relationship)
}

func TestBuild_NodeTypeInference(t *testing.T) {
	paths := []causal.Path{oxidativePath(), {
		Nodes: []causal.PathNode{
			{ID: "8-OHdG", Grounding: causal.Grounding{Database: "CHEBI", Identifier: "40304"}},
			{ID: "GENE_X"},
		},
	}}
	g := NewAssembler(nil, nil, nil, nil).Build(paths, nil)

	want := map[string]causal.NodeType{
		"PM2.5":            causal.NodeTypeEnvironmental,
		"ROS":              causal.NodeTypeEnvironmental, // MESH database
		"oxidative_stress": causal.NodeTypeMolecular,
		"8-OHdG":           causal.NodeTypeBiomarker,
		"GENE_X":           causal.NodeTypeMolecular,
	}
	for id, typ := range want {
		n, ok := g.Node(id)
		require.True(t, ok, id)
		assert.Equal(t, typ, n.Type, id)
	}

	unknown, _ := g.Node("GENE_X")
	assert.Equal(t, "UNKNOWN", unknown.Grounding.Database)
	assert.Equal(t, "GENE_X", unknown.Label)
}

func TestBuild_DropsInvalidEdges(t *testing.T) {
	p := il6ToCRP()
	p.Edges = append(p.Edges,
		causal.PathEdge{Source: "IL6", Target: "CRP", Relationship: "binds", EvidenceCount: 3, Belief: 0.6},
		causal.PathEdge{Source: "IL6", Target: "TNF", Relationship: causal.RelationshipActivates, EvidenceCount: 3, Belief: 0.6},
		causal.PathEdge{Source: "CRP", Target: "IL6", Relationship: causal.RelationshipInhibits, EvidenceCount: 3, Belief: 1.4},
	)

	g := NewAssembler(nil, nil, nil, nil).Build([]causal.Path{p}, nil)

	require.Equal(t, 1, g.EdgeCount())
	assert.Equal(t, "CRP", g.Edges()[0].Target)
	assert.NoError(t, g.Validate())
}

func TestBuild_DerivedValuesInRange(t *testing.T) {
	a := NewAssembler(nil, nil, nil, nil)
	for _, belief := range []float64{0, 0.25, 0.5, 0.99, 1} {
		for _, count := range []int{0, 19, 21, 51, 101, 5000} {
			for _, stmt := range []string{"", "Phosphorylation", "Complex", "Ubiquitination"} {
				p := il6ToCRP()
				p.Edges[0].Belief = belief
				p.Edges[0].EvidenceCount = count
				p.Edges[0].StatementType = stmt

				g := a.Build([]causal.Path{p}, nil)
				require.Equal(t, 1, g.EdgeCount())
				e := g.Edges()[0]
				assert.GreaterOrEqual(t, e.EffectSize, 0.0)
				assert.LessOrEqual(t, e.EffectSize, 0.95)
				assert.GreaterOrEqual(t, e.TemporalLagHours, 0)
			}
		}
	}
}

func TestBuild_GeneticOverlay(t *testing.T) {
	a := NewAssembler(nil, nil, nil, nil)

	t.Run("null variant amplifies present node only", func(t *testing.T) {
		p := oxidativePath()
		p.Nodes = p.Nodes[:1]
		p.Nodes = append(p.Nodes, causal.PathNode{ID: "oxidative_stress", Grounding: causal.Grounding{Database: "GO", Identifier: "0006979"}})
		p.Edges = []causal.PathEdge{{Source: "PM2.5", Target: "oxidative_stress", Relationship: causal.RelationshipIncreases, EvidenceCount: 31, Belief: 0.78}}

		g := a.Build([]causal.Path{p}, map[string]string{"GSTM1": "null"})

		mods := g.GeneticModifiers()
		require.Len(t, mods, 1)
		assert.Equal(t, "GSTM1_null", mods[0].Variant)
		assert.Equal(t, causal.EffectAmplifies, mods[0].EffectType)
		assert.Equal(t, 1.3, mods[0].Magnitude)
		assert.Equal(t, []string{"oxidative_stress"}, mods[0].AffectedNodes)
	})

	t.Run("slash variants match the table", func(t *testing.T) {
		g := a.Build([]causal.Path{oxidativePath()}, map[string]string{
			"SOD2":  "Ala/Ala",
			"GSTP1": "Val/Val",
		})

		mods := g.GeneticModifiers()
		require.Len(t, mods, 2)
		// sorted by gene
		assert.Equal(t, "GSTP1_Val/Val", mods[0].Variant)
		assert.Equal(t, "SOD2_Ala/Ala", mods[1].Variant)
		assert.Equal(t, causal.EffectDampens, mods[1].EffectType)
		assert.Equal(t, []string{"oxidative_stress", "ROS"}, mods[1].AffectedNodes)
	})

	t.Run("unknown variant is ignored", func(t *testing.T) {
		g := a.Build([]causal.Path{oxidativePath()}, map[string]string{"APOE": "e4/e4"})
		assert.Empty(t, g.GeneticModifiers())
	})

	t.Run("no affected node present", func(t *testing.T) {
		g := a.Build([]causal.Path{il6ToCRP()}, map[string]string{"GSTM1": "null"})
		assert.Empty(t, g.GeneticModifiers())
	})
}

func TestBuild_EmptyInput(t *testing.T) {
	g := NewAssembler(nil, nil, nil, nil).Build(nil, map[string]string{"GSTM1": "null"})
	assert.True(t, g.IsEmpty())
	assert.NoError(t, g.Validate())
}
