package grounding

import "causaldiscovery/domain/causal"

// tableEntry is one row of a static grounding table.
type tableEntry struct {
	key    string
	entity Entity
}

var biomarkerTable = []tableEntry{
	{"CRP", Entity{
		ID: "CRP", Name: "C-Reactive Protein", Type: causal.NodeTypeBiomarker,
		Database: "HGNC", Identifier: "2367",
		Regulators: []string{"IL6", "IL1B", "TNF"},
	}},
	{"IL-6", Entity{
		ID: "IL6", Name: "Interleukin-6", Type: causal.NodeTypeBiomarker,
		Database: "HGNC", Identifier: "6018",
		Regulators: []string{"NFKB1", "RELA"},
	}},
	// alias
	{"IL6", Entity{
		ID: "IL6", Name: "Interleukin-6", Type: causal.NodeTypeBiomarker,
		Database: "HGNC", Identifier: "6018",
		Regulators: []string{"NFKB1", "RELA"},
	}},
	{"8-OHdG", Entity{
		ID: "8-OHdG", Name: "8-Hydroxy-2-deoxyguanosine", Type: causal.NodeTypeBiomarker,
		Database: "CHEBI", Identifier: "40304",
		Process: "oxidative_stress",
	}},
}

var environmentalTable = []tableEntry{
	{"PM2.5", Entity{ID: "PM2.5", Name: "Particulate Matter (PM2.5)", Type: causal.NodeTypeEnvironmental, Database: "MESH", Identifier: "D052638"}},
	{"PM10", Entity{ID: "PM10", Name: "Particulate Matter (PM10)", Type: causal.NodeTypeEnvironmental, Database: "MESH", Identifier: "D052638"}},
	{"ozone", Entity{ID: "ozone", Name: "Ozone", Type: causal.NodeTypeEnvironmental, Database: "CHEBI", Identifier: "25812"}},
	{"NO2", Entity{ID: "NO2", Name: "Nitrogen Dioxide", Type: causal.NodeTypeEnvironmental, Database: "CHEBI", Identifier: "33101"}},
}

var molecularTable = []tableEntry{
	{"NFKB1", Entity{ID: "NFKB1", Name: "NF-κB p50", Type: causal.NodeTypeMolecular, Database: "HGNC", Identifier: "7794"}},
	{"RELA", Entity{ID: "RELA", Name: "NF-κB p65 (RELA)", Type: causal.NodeTypeMolecular, Database: "HGNC", Identifier: "9955"}},
	{"IL6", Entity{ID: "IL6", Name: "Interleukin-6", Type: causal.NodeTypeMolecular, Database: "HGNC", Identifier: "6018"}},
	{"TNF", Entity{ID: "TNF", Name: "TNF-α", Type: causal.NodeTypeMolecular, Database: "HGNC", Identifier: "11892"}},
	{"IL1B", Entity{ID: "IL1B", Name: "IL-1β", Type: causal.NodeTypeMolecular, Database: "HGNC", Identifier: "5992"}},
	{"NFE2L2", Entity{ID: "NFE2L2", Name: "NRF2 (NFE2L2)", Type: causal.NodeTypeMolecular, Database: "HGNC", Identifier: "7782"}},
	{"SOD1", Entity{ID: "SOD1", Name: "Superoxide Dismutase 1", Type: causal.NodeTypeMolecular, Database: "HGNC", Identifier: "11179"}},
	{"ROS", Entity{ID: "ROS", Name: "Reactive Oxygen Species", Type: causal.NodeTypeMolecular, Database: "MESH", Identifier: "D017382"}},
}

var processTable = []tableEntry{
	{"oxidative_stress", Entity{ID: "oxidative_stress", Name: "Oxidative Stress", Type: causal.NodeTypeMolecular, Database: "GO", Identifier: "0006979"}},
	{"inflammation", Entity{ID: "inflammation", Name: "Inflammation", Type: causal.NodeTypeMolecular, Database: "GO", Identifier: "0006954"}},
}

// mergeTables builds the combined lookup. A key keeps the position of its first
// insertion while later tables replace its value.
func mergeTables(tables ...[]tableEntry) []tableEntry {
	var merged []tableEntry
	pos := make(map[string]int)
	for _, table := range tables {
		for _, e := range table {
			if i, ok := pos[e.key]; ok {
				merged[i] = e
				continue
			}
			pos[e.key] = len(merged)
			merged = append(merged, e)
		}
	}
	return merged
}

// Catalog exposes the known-name sets used to classify graph nodes.
type Catalog struct {
	environmental map[string]struct{}
	processes     map[string]struct{}
	biomarkers    map[string]struct{}
}

// DefaultCatalog returns the built-in known-name sets.
func DefaultCatalog() *Catalog {
	return &Catalog{
		environmental: setOf("PM2.5", "PM10", "ozone", "NO2"),
		processes:     setOf("oxidative_stress", "inflammation"),
		biomarkers:    setOf("CRP", "IL6", "8-OHdG"),
	}
}

func (c *Catalog) IsEnvironmental(id string) bool { return has(c.environmental, id) }
func (c *Catalog) IsProcess(id string) bool       { return has(c.processes, id) }
func (c *Catalog) IsBiomarker(id string) bool     { return has(c.biomarkers, id) }

func setOf(names ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func has(s map[string]struct{}, k string) bool {
	_, ok := s[k]
	return ok
}
