// Package explain renders short, deterministic narratives for an assembled graph.
package explain

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"causaldiscovery/domain/causal"
	"causaldiscovery/domain/exposure"
)

const (
	MinExplanations = 3
	MaxExplanations = 5
	// MaxLength is exclusive: every explanation is shorter than this many characters.
	MaxLength = 200
)

// Composer builds 3 to 5 explanation strings.
type Composer struct{}

func NewComposer() *Composer { return &Composer{} }

// Generate produces explanations in priority order: exposure change, genetic
// modifier, strongest edge, causal chain, biomarker impact; then pads to three.
func (c *Composer) Generate(graph *causal.CausalGraph, env *exposure.Analysis, genetics map[string]string) []string {
	var out []string

	if env != nil && env.Delta != nil {
		d := env.Delta
		out = append(out, fmt.Sprintf("PM2.5 exposure %s (%s to %s µg/m³)",
			d.Description, formatValue(d.OldValue), formatValue(d.NewValue)))
	}

	var (
		nodes     []causal.Node
		edges     []causal.Edge
		modifiers []causal.GeneticModifier
	)
	if graph != nil {
		nodes, edges, modifiers = graph.Nodes(), graph.Edges(), graph.GeneticModifiers()
	}

	if len(genetics) > 0 && len(modifiers) > 0 {
		m := modifiers[0]
		pct := int(math.Round(math.Abs(m.Magnitude-1) * 100))
		out = append(out, fmt.Sprintf("Your %s variant %s the response by %d%%", m.Variant, m.EffectType, pct))
	}

	if len(edges) > 0 {
		top := edges[0]
		for _, e := range edges[1:] {
			if e.Evidence.Count > top.Evidence.Count {
				top = e
			}
		}
		out = append(out, fmt.Sprintf("%s %s %s (%d papers, confidence: %.2f)",
			top.Source, top.Relationship, top.Target, top.Evidence.Count, top.Evidence.Confidence))
	}

	if len(nodes) >= 3 {
		labels := []string{nodes[0].Label, nodes[1].Label, nodes[2].Label}
		out = append(out, "Causal chain: "+strings.Join(labels, " → "))
	}

	for _, n := range nodes {
		if n.Type == causal.NodeTypeBiomarker {
			out = append(out, fmt.Sprintf("Expected impact on %s based on mechanistic evidence", n.Label))
			break
		}
	}

	for len(out) < MinExplanations {
		out = append(out, fmt.Sprintf("Analysis based on %d causal relationships", len(edges)))
	}
	if len(out) > MaxExplanations {
		out = out[:MaxExplanations]
	}

	for i, s := range out {
		out[i] = truncate(s, MaxLength-1)
	}
	return out
}

func formatValue(v float64) string {
	return fmt.Sprintf("%g", v)
}

// truncate shortens s to at most limit runes, ending with an ellipsis when cut.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}
