// Package grounding resolves free-text entity names to canonical database
// identifiers using static tables and an optional enrichment source.
package grounding

import (
	"context"
	"fmt"
	"strings"

	"causaldiscovery/domain/causal"

	"go.uber.org/zap"
)

// Entity is a grounded term.
type Entity struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Type       causal.NodeType `json:"type"`
	Database   string          `json:"database"`
	Identifier string          `json:"identifier"`
	Regulators []string        `json:"regulators,omitempty"`
	Process    string          `json:"process,omitempty"`
	Synonyms   []string        `json:"synonyms,omitempty"`
	Enriched   bool            `json:"enriched,omitempty"`
}

func (e Entity) clone() Entity {
	e.Regulators = append([]string(nil), e.Regulators...)
	e.Synonyms = append([]string(nil), e.Synonyms...)
	return e
}

// Enricher is a higher-priority grounding source consulted before the static tables.
type Enricher interface {
	Enrich(ctx context.Context, term string) (Entity, bool, error)
}

// Resolver grounds names against the static tables. It performs no network I/O
// itself; an Enricher may.
type Resolver struct {
	entries    []tableEntry
	exact      map[string]int
	folded     map[string]int
	biomarkers map[string]int
	enricher   Enricher
	logger     *zap.Logger
}

// NewResolver creates a resolver over the built-in tables. enricher may be nil.
func NewResolver(logger *zap.Logger, enricher Enricher) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Resolver{
		entries:    mergeTables(biomarkerTable, environmentalTable, molecularTable, processTable),
		biomarkers: make(map[string]int, len(biomarkerTable)),
		enricher:   enricher,
		logger:     logger,
	}
	r.exact = make(map[string]int, len(r.entries))
	r.folded = make(map[string]int, len(r.entries))
	for i, e := range r.entries {
		r.exact[e.key] = i
		lower := strings.ToLower(e.key)
		if _, ok := r.folded[lower]; !ok {
			r.folded[lower] = i
		}
	}
	for i, e := range biomarkerTable {
		r.biomarkers[e.key] = i
	}
	return r
}

// GroundOne resolves a single name. Order: enrichment, exact key,
// case-insensitive key, substring of a display name.
func (r *Resolver) GroundOne(ctx context.Context, name string) (Entity, bool) {
	if strings.TrimSpace(name) == "" {
		return Entity{}, false
	}

	if r.enricher != nil {
		ent, ok, err := r.enricher.Enrich(ctx, name)
		if err != nil {
			r.logger.Warn("Grounding enrichment failed",
				zap.String("term", name),
				zap.Error(err),
			)
		} else if ok {
			ent.Enriched = true
			r.logger.Debug("Grounded via enrichment",
				zap.String("term", name),
				zap.String("id", ent.ID),
			)
			return ent.clone(), true
		}
	}

	if ent, ok := r.GroundStatic(name); ok {
		return ent, true
	}

	r.logger.Debug("No grounding found", zap.String("term", name))
	return Entity{}, false
}

// GroundStatic resolves a name against the built-in tables only, skipping
// enrichment. Path search keys come from here.
func (r *Resolver) GroundStatic(name string) (Entity, bool) {
	if strings.TrimSpace(name) == "" {
		return Entity{}, false
	}

	if i, ok := r.exact[name]; ok {
		return r.entries[i].entity.clone(), true
	}

	lower := strings.ToLower(name)
	if i, ok := r.folded[lower]; ok {
		return r.entries[i].entity.clone(), true
	}

	for _, e := range r.entries {
		if strings.Contains(strings.ToLower(e.entity.Name), lower) {
			return e.entity.clone(), true
		}
	}
	return Entity{}, false
}

// GroundMany resolves each name; a nil value marks a miss.
func (r *Resolver) GroundMany(ctx context.Context, names []string) map[string]*Entity {
	out := make(map[string]*Entity, len(names))
	for _, name := range names {
		if ent, ok := r.GroundOne(ctx, name); ok {
			out[name] = &ent
		} else {
			out[name] = nil
		}
	}
	return out
}

// Regulators returns the known upstream regulators of a biomarker.
func (r *Resolver) Regulators(biomarker string) []string {
	i, ok := r.biomarkers[biomarker]
	if !ok {
		return nil
	}
	return append([]string(nil), biomarkerTable[i].entity.Regulators...)
}

// FormatForQuery renders an entity as a "DATABASE:identifier" reference.
func FormatForQuery(e Entity) string {
	return fmt.Sprintf("%s:%s", e.Database, e.Identifier)
}
