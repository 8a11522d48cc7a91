package assembly

import (
	"sort"
	"strings"

	"causaldiscovery/domain/causal"
)

// ModifierInfo describes how a variant modulates a set of nodes.
type ModifierInfo struct {
	Variant       string
	AffectedNodes []string
	EffectType    causal.EffectType
	Magnitude     float64
	Description   string
}

var defaultModifiers = []ModifierInfo{
	{
		Variant:       "GSTM1_null",
		AffectedNodes: []string{"oxidative_stress", "ROS"},
		EffectType:    causal.EffectAmplifies,
		Magnitude:     1.3,
		Description:   "GSTM1 null variant reduces glutathione conjugation capacity",
	},
	{
		Variant:       "GSTP1_Val/Val",
		AffectedNodes: []string{"oxidative_stress"},
		EffectType:    causal.EffectAmplifies,
		Magnitude:     1.15,
		Description:   "GSTP1 Val/Val reduces detoxification efficiency",
	},
	{
		Variant:       "TNF-alpha_-308G/A",
		AffectedNodes: []string{"TNF", "IL6"},
		EffectType:    causal.EffectAmplifies,
		Magnitude:     1.2,
		Description:   "TNF-alpha -308G/A increases inflammatory response",
	},
	{
		Variant:       "SOD2_Ala/Ala",
		AffectedNodes: []string{"oxidative_stress", "ROS"},
		EffectType:    causal.EffectDampens,
		Magnitude:     0.85,
		Description:   "SOD2 Ala/Ala enhances mitochondrial antioxidant defense",
	},
}

// ModifierTable looks up variant modifiers by normalized "{gene}_{variant}" key.
type ModifierTable struct {
	byKey map[string]ModifierInfo
}

// NewModifierTable indexes the given modifiers. A nil slice selects the built-in table.
func NewModifierTable(modifiers []ModifierInfo) *ModifierTable {
	if modifiers == nil {
		modifiers = defaultModifiers
	}
	t := &ModifierTable{byKey: make(map[string]ModifierInfo, len(modifiers))}
	for _, m := range modifiers {
		t.byKey[normalizeVariantKey(m.Variant)] = m
	}
	return t
}

// Lookup finds the modifier for a gene and variant.
func (t *ModifierTable) Lookup(gene, variant string) (ModifierInfo, bool) {
	m, ok := t.byKey[normalizeVariantKey(gene+"_"+variant)]
	return m, ok
}

// Overlay returns the modifiers whose affected nodes intersect the graph.
// Genes are visited in sorted order; only present nodes are recorded.
func (t *ModifierTable) Overlay(genetics map[string]string, hasNode func(string) bool) []causal.GeneticModifier {
	genes := make([]string, 0, len(genetics))
	for g := range genetics {
		genes = append(genes, g)
	}
	sort.Strings(genes)

	var out []causal.GeneticModifier
	for _, gene := range genes {
		info, ok := t.Lookup(gene, genetics[gene])
		if !ok {
			continue
		}
		var present []string
		for _, id := range info.AffectedNodes {
			if hasNode(id) {
				present = append(present, id)
			}
		}
		if len(present) == 0 {
			continue
		}
		out = append(out, causal.GeneticModifier{
			Variant:       info.Variant,
			AffectedNodes: present,
			EffectType:    info.EffectType,
			Magnitude:     info.Magnitude,
		})
	}
	return out
}

func normalizeVariantKey(key string) string {
	return strings.ReplaceAll(key, "/", "")
}
