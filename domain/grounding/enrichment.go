package grounding

import (
	"context"
	"fmt"
	"os"
	"strings"

	"causaldiscovery/domain/causal"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const maxSynonymAliases = 3

// MeshRecord is one MeSH ontology entry for a user-facing term.
type MeshRecord struct {
	OriginalTerm string   `yaml:"original_term" json:"original_term"`
	MeshID       string   `yaml:"mesh_id" json:"mesh_id"`
	MeshLabel    string   `yaml:"mesh_label" json:"mesh_label"`
	Definition   string   `yaml:"definition" json:"definition"`
	Synonyms     []string `yaml:"synonyms" json:"synonyms"`
	RelatedTerms []string `yaml:"related_terms" json:"related_terms"`
}

var (
	environmentalKeywords = []string{
		"pollutant", "particulate", "air quality", "exposure",
		"pollution", "environmental", "ozone", "dioxide",
	}
	biomarkerKeywords = []string{
		"biomarker", "protein", "crp", "interleukin", "cytokine",
		"marker", "indicator", "level",
	}
)

// MeshEnrichment grounds terms from a fixed set of MeSH records.
type MeshEnrichment struct {
	byTerm map[string]Entity
}

// NewMeshEnrichment indexes records by original term and up to three synonyms.
// Synonyms never replace an earlier mapping. Records without an id or label are skipped.
func NewMeshEnrichment(logger *zap.Logger, records []MeshRecord) *MeshEnrichment {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &MeshEnrichment{byTerm: make(map[string]Entity)}
	for _, rec := range records {
		if rec.MeshID == "" || rec.MeshLabel == "" {
			logger.Warn("Skipping incomplete MeSH record", zap.String("term", rec.OriginalTerm))
			continue
		}
		ent := Entity{
			ID:         rec.MeshID,
			Name:       rec.MeshLabel,
			Type:       inferMeshType(rec),
			Database:   "MESH",
			Identifier: rec.MeshID,
			Synonyms:   append([]string(nil), rec.Synonyms...),
			Enriched:   true,
		}
		m.byTerm[rec.OriginalTerm] = ent

		synonyms := rec.Synonyms
		if len(synonyms) > maxSynonymAliases {
			synonyms = synonyms[:maxSynonymAliases]
		}
		for _, syn := range synonyms {
			if _, taken := m.byTerm[syn]; !taken {
				m.byTerm[syn] = ent
			}
		}
	}
	return m
}

// Enrich implements Enricher.
func (m *MeshEnrichment) Enrich(_ context.Context, term string) (Entity, bool, error) {
	ent, ok := m.byTerm[term]
	if !ok {
		return Entity{}, false, nil
	}
	return ent.clone(), true, nil
}

// Len returns the number of indexed terms.
func (m *MeshEnrichment) Len() int { return len(m.byTerm) }

func inferMeshType(rec MeshRecord) causal.NodeType {
	label := strings.ToLower(rec.MeshLabel)
	def := strings.ToLower(rec.Definition)
	if containsAny(label, def, environmentalKeywords) {
		return causal.NodeTypeEnvironmental
	}
	if containsAny(label, def, biomarkerKeywords) {
		return causal.NodeTypeBiomarker
	}
	return causal.NodeTypeMolecular
}

func containsAny(a, b string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(a, kw) || strings.Contains(b, kw) {
			return true
		}
	}
	return false
}

// LoadMeshRecords reads a YAML list of MeSH records.
func LoadMeshRecords(path string) ([]MeshRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mesh records %s: %w", path, err)
	}
	var records []MeshRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse mesh records %s: %w", path, err)
	}
	return records, nil
}
