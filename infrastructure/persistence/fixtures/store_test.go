package fixtures

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"causaldiscovery/domain/causal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinStore(t *testing.T) {
	s := NewBuiltinStore(nil)
	ctx := context.Background()

	assert.Equal(t, []string{"IL6_to_CRP", "PM2.5_to_IL6", "PM2.5_to_oxidative_stress"}, s.Keys())

	paths, ok, err := s.Lookup(ctx, "PM2.5", "IL6")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, paths, 2)
	assert.Equal(t, 0.86, paths[0].Belief)
	assert.Equal(t, 136, paths[0].TotalEvidence())
	assert.Equal(t, "oxidative_stress", paths[1].Nodes[1].ID)

	paths, ok, err = s.Lookup(ctx, "IL6", "CRP")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, paths[0].Edges, 1)
	assert.Equal(t, 312, paths[0].Edges[0].EvidenceCount)

	_, ok, err = s.Lookup(ctx, "CRP", "IL6")
	require.NoError(t, err)
	assert.False(t, ok, "keys are directional")
}

func TestStore_LookupReturnsCopies(t *testing.T) {
	s := NewBuiltinStore(nil)
	ctx := context.Background()

	paths, _, _ := s.Lookup(ctx, "IL6", "CRP")
	paths[0].Edges[0].EvidenceCount = 1
	paths[0].Edges[0].Sources[0] = "mutated"

	again, _, _ := s.Lookup(ctx, "IL6", "CRP")
	assert.Equal(t, 312, again[0].Edges[0].EvidenceCount)
	assert.Equal(t, "PMID:45678901", again[0].Edges[0].Sources[0])
}

func TestStore_EmptyEntryIsMiss(t *testing.T) {
	s := NewStore(nil)
	s.Add("A", "B", nil)

	_, ok, err := s.Lookup(context.Background(), "A", "B")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixtures.yaml")
	content := `
fixtures:
  - source: NO2
    target: IL6
    paths:
      - nodes:
          - id: NO2
            name: Nitrogen Dioxide
            grounding: {database: MESH, identifier: D009585}
          - id: IL6
            name: Interleukin-6
            grounding: {database: HGNC, identifier: "6018"}
        edges:
          - source: NO2
            target: IL6
            relationship: increases
            evidence_count: 12
            belief: 0.7
            statement_type: IncreaseAmount
            sources: ["PMID:1"]
        path_belief: 0.7
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	s := NewStore(nil)
	require.NoError(t, s.LoadFile(path))

	paths, ok, err := s.Lookup(context.Background(), "NO2", "IL6")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, paths, 1)
	assert.Equal(t, causal.Grounding{Database: "HGNC", Identifier: "6018"}, paths[0].Nodes[1].Grounding)
	assert.Equal(t, causal.PathEdge{
		Source:        "NO2",
		Target:        "IL6",
		Relationship:  causal.RelationshipIncreases,
		EvidenceCount: 12,
		Belief:        0.7,
		StatementType: "IncreaseAmount",
		Sources:       []string{"PMID:1"},
	}, paths[0].Edges[0])
	assert.Equal(t, 0.7, paths[0].Belief)
}

func TestStore_LoadFileErrors(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(nil)

	assert.Error(t, s.LoadFile(filepath.Join(dir, "missing.yaml")))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("fixtures:\n  - target: IL6\n"), 0o600))
	err := s.LoadFile(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source and target are required")
}

type failingStore struct{}

func (failingStore) Lookup(context.Context, string, string) ([]causal.Path, bool, error) {
	return nil, false, errors.New("table unavailable")
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	override := NewStore(nil)
	override.Add("IL6", "CRP", []causal.Path{{Belief: 0.5, Edges: []causal.PathEdge{{Source: "IL6", Target: "CRP"}}}})

	chain := NewChain(nil, failingStore{}, nil, override, NewBuiltinStore(nil))

	paths, ok, err := chain.Lookup(ctx, "IL6", "CRP")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0.5, paths[0].Belief, "first store with a hit wins")

	paths, ok, err = chain.Lookup(ctx, "PM2.5", "IL6")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, paths, 2)

	_, ok, err = chain.Lookup(ctx, "UNKNOWN_X", "UNKNOWN_Y")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_Fixtures(t *testing.T) {
	s := NewBuiltinStore(nil)

	all := s.Fixtures()
	require.Len(t, all, 3)
	assert.Equal(t, "IL6", all[0].Source)
	assert.Equal(t, "CRP", all[0].Target)
	assert.Equal(t, "PM2.5", all[1].Source)
	assert.Equal(t, "IL6", all[1].Target)
	assert.Equal(t, "oxidative_stress", all[2].Target)

	all[0].Paths[0].Edges[0].EvidenceCount = 0
	paths, ok, err := s.Lookup(context.Background(), "IL6", "CRP")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 312, paths[0].Edges[0].EvidenceCount)
}
