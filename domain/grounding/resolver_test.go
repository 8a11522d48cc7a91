package grounding

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

type stubEnricher struct {
	entity Entity
	ok     bool
	err    error
	calls  int
}

func (s *stubEnricher) Enrich(_ context.Context, _ string) (Entity, bool, error) {
	s.calls++
	return s.entity, s.ok, s.err
}

func TestGroundOne(t *testing.T) {
	r := NewResolver(nil, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		input    string
		wantOK   bool
		wantID   string
		wantType causal.NodeType
	}{
		{"exact biomarker", "CRP", true, "CRP", causal.NodeTypeBiomarker},
		{"case insensitive", "crp", true, "CRP", causal.NodeTypeBiomarker},
		{"IL6 resolves molecular", "IL6", true, "IL6", causal.NodeTypeMolecular},
		{"IL-6 alias stays biomarker", "IL-6", true, "IL6", causal.NodeTypeBiomarker},
		{"environmental", "pm2.5", true, "PM2.5", causal.NodeTypeEnvironmental},
		{"process", "oxidative_stress", true, "oxidative_stress", causal.NodeTypeMolecular},
		{"substring of display name", "superoxide", true, "SOD1", causal.NodeTypeMolecular},
		{"unknown", "UNKNOWN_X", false, "", ""},
		{"blank", "   ", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ent, ok := r.GroundOne(ctx, tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, ent.ID)
			assert.Equal(t, tt.wantType, ent.Type)
		})
	}
}

func TestGroundOne_CaseInsensitiveIsSameEntity(t *testing.T) {
	r := NewResolver(nil, nil)
	upper, ok1 := r.GroundOne(context.Background(), "CRP")
	lower, ok2 := r.GroundOne(context.Background(), "crp")

	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, upper, lower)
}

func TestGroundOne_EnrichmentOverridesStatic(t *testing.T) {
	enricher := &stubEnricher{
		entity: Entity{ID: "D052638", Name: "Particulate Matter", Database: "MESH", Identifier: "D052638"},
		ok:     true,
	}
	r := NewResolver(nil, enricher)

	ent, ok := r.GroundOne(context.Background(), "PM2.5")
	require.True(t, ok)
	assert.True(t, ent.Enriched)
	assert.Equal(t, "D052638", ent.ID)
}

func TestGroundStatic_IgnoresEnrichment(t *testing.T) {
	enricher := &stubEnricher{
		entity: Entity{ID: "D052638", Name: "Particulate Matter", Database: "MESH", Identifier: "D052638"},
		ok:     true,
	}
	r := NewResolver(nil, enricher)

	ent, ok := r.GroundStatic("PM2.5")
	require.True(t, ok)
	assert.Equal(t, "PM2.5", ent.ID)
	assert.False(t, ent.Enriched)
	assert.Zero(t, enricher.calls)

	_, ok = r.GroundStatic("UNKNOWN_X")
	assert.False(t, ok)
	_, ok = r.GroundStatic("  ")
	assert.False(t, ok)
}

func TestGroundOne_EnrichmentErrorFallsBack(t *testing.T) {
	enricher := &stubEnricher{err: errors.New("knowledge graph down")}
	r := NewResolver(nil, enricher)

	ent, ok := r.GroundOne(context.Background(), "CRP")
	require.True(t, ok)
	assert.False(t, ent.Enriched)
	assert.Equal(t, "2367", ent.Identifier)
	assert.Equal(t, 1, enricher.calls)
}

func TestGroundMany(t *testing.T) {
	r := NewResolver(nil, nil)
	got := r.GroundMany(context.Background(), []string{"CRP", "UNKNOWN_X"})

	require.Len(t, got, 2)
	require.NotNil(t, got["CRP"])
	assert.Equal(t, "HGNC", got["CRP"].Database)
	assert.Nil(t, got["UNKNOWN_X"])
}

func TestRegulators(t *testing.T) {
	r := NewResolver(nil, nil)

	assert.Equal(t, []string{"IL6", "IL1B", "TNF"}, r.Regulators("CRP"))
	assert.Equal(t, []string{"NFKB1", "RELA"}, r.Regulators("IL6"))
	assert.Empty(t, r.Regulators("8-OHdG"))
	assert.Empty(t, r.Regulators("NFKB1"))

	regs := r.Regulators("CRP")
	regs[0] = "mutated"
	assert.Equal(t, "IL6", r.Regulators("CRP")[0])
}

func TestFormatForQuery(t *testing.T) {
	ent, ok := NewResolver(nil, nil).GroundOne(context.Background(), "IL-6")
	require.True(t, ok)
	assert.Equal(t, "HGNC:6018", FormatForQuery(ent))
}

func TestCatalog(t *testing.T) {
	c := DefaultCatalog()
	assert.True(t, c.IsEnvironmental("NO2"))
	assert.True(t, c.IsProcess("inflammation"))
	assert.True(t, c.IsBiomarker("8-OHdG"))
	assert.False(t, c.IsBiomarker("TNF"))
}

func TestMeshEnrichment(t *testing.T) {
	m := NewMeshEnrichment(nil, []MeshRecord{
		{
			OriginalTerm: "fine particles",
			MeshID:       "D052638",
			MeshLabel:    "Particulate Matter",
			Definition:   "Particles of any solid substance, generally under 30 microns in size, often noted as PM30. An air pollutant.",
			Synonyms:     []string{"Airborne Particulate Matter", "PM", "Particulates", "Ultrafine Fibers"},
		},
		{
			OriginalTerm: "inflammation marker",
			MeshID:       "D002097",
			MeshLabel:    "C-Reactive Protein",
			Synonyms:     []string{"PM"},
		},
		{OriginalTerm: "broken", MeshID: "", MeshLabel: "missing id"},
		{OriginalTerm: "glutathione", MeshID: "D005978", MeshLabel: "Glutathione", Definition: "A tripeptide."},
	})

	ctx := context.Background()

	ent, ok, err := m.Enrich(ctx, "fine particles")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, causal.NodeTypeEnvironmental, ent.Type)
	assert.Equal(t, "MESH", ent.Database)

	// synonym alias keeps the first writer
	syn, ok, _ := m.Enrich(ctx, "PM")
	require.True(t, ok)
	assert.Equal(t, "D052638", syn.ID)

	// only three synonyms are indexed
	_, ok, _ = m.Enrich(ctx, "Ultrafine Fibers")
	assert.False(t, ok)

	crp, ok, _ := m.Enrich(ctx, "inflammation marker")
	require.True(t, ok)
	assert.Equal(t, causal.NodeTypeBiomarker, crp.Type)

	gsh, ok, _ := m.Enrich(ctx, "glutathione")
	require.True(t, ok)
	assert.Equal(t, causal.NodeTypeMolecular, gsh.Type)

	_, ok, _ = m.Enrich(ctx, "broken")
	assert.False(t, ok)
}

func TestLoadMeshRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mesh.yaml")
	content := `
- original_term: ozone
  mesh_id: D010126
  mesh_label: Ozone
  definition: The unstable triatomic form of oxygen, an air pollutant.
  synonyms: [O3]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	records, err := LoadMeshRecords(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "D010126", records[0].MeshID)
	assert.Equal(t, []string{"O3"}, records[0].Synonyms)

	_, err = LoadMeshRecords(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
