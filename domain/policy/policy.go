// Package policy holds the recalibratable scoring rules of the engine: path
// ranking weights, the effect-size formula and the mechanism lag table.
package policy

import (
	"fmt"
	"math"
)

// Policy holds all configurable scoring rules
type Policy struct {
	Ranking RankingPolicy    `yaml:"ranking"`
	Effect  EffectSizePolicy `yaml:"effect_size"`
	Lag     LagPolicy        `yaml:"lag"`
}

// RankingPolicy weights the three path-ranking terms.
type RankingPolicy struct {
	EvidenceWeight     float64 `yaml:"evidence_weight"`
	BeliefWeight       float64 `yaml:"belief_weight"`
	LengthWeight       float64 `yaml:"length_weight"`
	EvidenceSaturation float64 `yaml:"evidence_saturation"`
}

// EvidenceBonus is added to the effect size when count exceeds Above.
type EvidenceBonus struct {
	Above int     `yaml:"above"`
	Bonus float64 `yaml:"bonus"`
}

// EffectSizePolicy derives effect size from belief and evidence volume.
// Bonuses are checked in order; the first threshold exceeded applies.
type EffectSizePolicy struct {
	BeliefWeight float64         `yaml:"belief_weight"`
	Cap          float64         `yaml:"cap"`
	Bonuses      []EvidenceBonus `yaml:"bonuses"`
}

// LagPolicy maps a statement type to an estimated cause-to-effect delay.
type LagPolicy struct {
	Hours        map[string]int `yaml:"hours"`
	DefaultHours int            `yaml:"default_hours"`
}

// DefaultPolicy returns the calibrated default rules
func DefaultPolicy() *Policy {
	return &Policy{
		Ranking: RankingPolicy{
			EvidenceWeight:     0.4,
			BeliefWeight:       0.3,
			LengthWeight:       0.3,
			EvidenceSaturation: 20,
		},
		Effect: EffectSizePolicy{
			BeliefWeight: 0.8,
			Cap:          0.95,
			Bonuses: []EvidenceBonus{
				{Above: 100, Bonus: 0.15},
				{Above: 50, Bonus: 0.10},
				{Above: 20, Bonus: 0.05},
			},
		},
		Lag: LagPolicy{
			Hours: map[string]int{
				"Phosphorylation": 1,  // fast signaling
				"Complex":         2,  // binding
				"Activation":      6,  // transcription factor
				"Inhibition":      6,
				"IncreaseAmount":  12, // expression
				"DecreaseAmount":  12,
			},
			DefaultHours: 6,
		},
	}
}

// EffectSize computes min(belief*w + bonus, cap), floored at 0.
func (p *Policy) EffectSize(belief float64, evidenceCount int) float64 {
	effect := belief * p.Effect.BeliefWeight
	for _, b := range p.Effect.Bonuses {
		if evidenceCount > b.Above {
			effect += b.Bonus
			break
		}
	}
	effect = math.Min(effect, p.Effect.Cap)
	return math.Max(effect, 0)
}

// LagHours returns the lag bucket for a statement type.
func (p *Policy) LagHours(statementType string) int {
	if h, ok := p.Lag.Hours[statementType]; ok {
		return h
	}
	return p.Lag.DefaultHours
}

// Merge overlays non-zero fields of o on a copy of p.
func (p *Policy) Merge(o *Policy) *Policy {
	out := p.clone()
	if o == nil {
		return out
	}
	if o.Ranking.EvidenceWeight != 0 {
		out.Ranking.EvidenceWeight = o.Ranking.EvidenceWeight
	}
	if o.Ranking.BeliefWeight != 0 {
		out.Ranking.BeliefWeight = o.Ranking.BeliefWeight
	}
	if o.Ranking.LengthWeight != 0 {
		out.Ranking.LengthWeight = o.Ranking.LengthWeight
	}
	if o.Ranking.EvidenceSaturation != 0 {
		out.Ranking.EvidenceSaturation = o.Ranking.EvidenceSaturation
	}
	if o.Effect.BeliefWeight != 0 {
		out.Effect.BeliefWeight = o.Effect.BeliefWeight
	}
	if o.Effect.Cap != 0 {
		out.Effect.Cap = o.Effect.Cap
	}
	if len(o.Effect.Bonuses) > 0 {
		out.Effect.Bonuses = append([]EvidenceBonus(nil), o.Effect.Bonuses...)
	}
	for k, v := range o.Lag.Hours {
		out.Lag.Hours[k] = v
	}
	if o.Lag.DefaultHours != 0 {
		out.Lag.DefaultHours = o.Lag.DefaultHours
	}
	return out
}

func (p *Policy) clone() *Policy {
	out := *p
	out.Effect.Bonuses = append([]EvidenceBonus(nil), p.Effect.Bonuses...)
	out.Lag.Hours = make(map[string]int, len(p.Lag.Hours))
	for k, v := range p.Lag.Hours {
		out.Lag.Hours[k] = v
	}
	return &out
}

// Validate checks if the policy keeps every derived value in range
func (p *Policy) Validate() error {
	r := p.Ranking
	if r.EvidenceWeight < 0 || r.BeliefWeight < 0 || r.LengthWeight < 0 {
		return fmt.Errorf("ranking weights must be non-negative")
	}
	if r.EvidenceSaturation <= 0 {
		return fmt.Errorf("evidence saturation must be positive, got %v", r.EvidenceSaturation)
	}
	if p.Effect.Cap <= 0 || p.Effect.Cap > 1 {
		return fmt.Errorf("effect size cap must be in (0, 1], got %v", p.Effect.Cap)
	}
	if p.Effect.BeliefWeight < 0 {
		return fmt.Errorf("effect size belief weight must be non-negative")
	}
	for i := 1; i < len(p.Effect.Bonuses); i++ {
		if p.Effect.Bonuses[i].Above >= p.Effect.Bonuses[i-1].Above {
			return fmt.Errorf("evidence bonuses must be ordered by descending threshold")
		}
	}
	if p.Lag.DefaultHours < 0 {
		return fmt.Errorf("default lag must be non-negative")
	}
	for k, v := range p.Lag.Hours {
		if v < 0 {
			return fmt.Errorf("lag for %s must be non-negative, got %d", k, v)
		}
	}
	return nil
}
