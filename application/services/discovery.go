package services

import (
	"context"
	"time"

	"causaldiscovery/application/ports"
	"causaldiscovery/domain/assembly"
	"causaldiscovery/domain/causal"
	"causaldiscovery/domain/explain"
	"causaldiscovery/domain/exposure"
	"causaldiscovery/domain/grounding"
	"causaldiscovery/domain/ranking"
	"causaldiscovery/pkg/errors"
	"causaldiscovery/pkg/utils"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var discoveryTracer = otel.Tracer("causaldiscovery/services.discovery")

// Discovery outcomes reported to metrics
const (
	OutcomeSuccess = "success"
	OutcomeNoPath  = "no_path"
	OutcomeInvalid = "invalid"
)

// DiscoveryConfig tunes the pipeline.
type DiscoveryConfig struct {
	DefaultDepth      int
	TopPaths          int
	ReportedPaths     int
	Parallelism       int
	RequestTimeout    time.Duration
	RegulatorBridging bool
}

// DefaultDiscoveryConfig matches the built-in configuration defaults.
func DefaultDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{
		DefaultDepth:      4,
		TopPaths:          3,
		ReportedPaths:     5,
		Parallelism:       4,
		RequestTimeout:    60 * time.Second,
		RegulatorBridging: true,
	}
}

// DiscoveryRequest names the entities to connect. Names may be raw or grounded.
type DiscoveryRequest struct {
	RequestID        string                   `json:"request_id"`
	Sources          []string                 `json:"source_entities" validate:"required,min=1,dive,required"`
	Targets          []string                 `json:"target_entities" validate:"dive,required"`
	FocusBiomarkers  []string                 `json:"focus_biomarkers" validate:"dive,required"`
	MaxDepth         int                      `json:"max_graph_depth" validate:"gte=0,lte=10"`
	Genetics         map[string]string        `json:"genetics"`
	LocationHistory  []exposure.LocationEntry `json:"location_history" validate:"dive"`
	MinEvidenceCount int                      `json:"min_evidence_count" validate:"gte=0"`
	DisableCache     bool                     `json:"disable_cache"`
}

// DiscoveryMetadata summarizes the work done for one request.
type DiscoveryMetadata struct {
	QueryTimeMs         int64 `json:"query_time_ms"`
	PathsExplored       int   `json:"indra_paths_explored"`
	TotalEvidencePapers int   `json:"total_evidence_papers"`
}

// DiscoveryResult bundles the assembled graph with its narrative.
type DiscoveryResult struct {
	RequestID    string                       `json:"request_id"`
	Graph        *causal.CausalGraph          `json:"-"`
	Explanations []string                     `json:"explanations"`
	TopPaths     []causal.Path                `json:"top_paths"`
	Grounded     map[string]*grounding.Entity `json:"grounded"`
	Exposure     *exposure.Analysis           `json:"exposure,omitempty"`
	Metadata     DiscoveryMetadata            `json:"metadata"`
	NoPathFound  bool                         `json:"no_path_found"`
}

// DiscoveryService runs ground → search → rank → assemble → explain.
type DiscoveryService struct {
	paths     *PathSearchService
	grounder  ports.Grounder
	ranker    *ranking.Ranker
	assembler *assembly.Assembler
	composer  *explain.Composer
	metrics   ports.MetricsRecorder
	cfg       DiscoveryConfig
	logger    *zap.Logger
}

// NewDiscoveryService wires the pipeline stages
func NewDiscoveryService(
	paths *PathSearchService,
	grounder ports.Grounder,
	ranker *ranking.Ranker,
	assembler *assembly.Assembler,
	composer *explain.Composer,
	metrics ports.MetricsRecorder,
	cfg DiscoveryConfig,
	logger *zap.Logger,
) *DiscoveryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = noopRecorder{}
	}
	if composer == nil {
		composer = explain.NewComposer()
	}
	defaults := DefaultDiscoveryConfig()
	if cfg.DefaultDepth <= 0 {
		cfg.DefaultDepth = defaults.DefaultDepth
	}
	if cfg.TopPaths <= 0 {
		cfg.TopPaths = defaults.TopPaths
	}
	if cfg.ReportedPaths <= 0 {
		cfg.ReportedPaths = defaults.ReportedPaths
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 1
	}
	return &DiscoveryService{
		paths:     paths,
		grounder:  grounder,
		ranker:    ranker,
		assembler: assembler,
		composer:  composer,
		metrics:   metrics,
		cfg:       cfg,
		logger:    logger,
	}
}

// Ground resolves a single entity name
func (s *DiscoveryService) Ground(ctx context.Context, name string) (grounding.Entity, error) {
	ent, ok := s.grounder.GroundOne(ctx, name)
	if !ok {
		return grounding.Entity{}, errors.NewGroundingMiss(name)
	}
	return ent, nil
}

// Ready reports whether the live path source answers
func (s *DiscoveryService) Ready(ctx context.Context) bool {
	return s.paths.SourceHealthy(ctx)
}

// Discover runs the full pipeline. The only error is an invalid request; an
// empty graph with NoPathFound set is a normal outcome.
func (s *DiscoveryService) Discover(ctx context.Context, req DiscoveryRequest) (*DiscoveryResult, error) {
	start := time.Now()

	if err := utils.ValidateStruct(req); err != nil {
		s.metrics.RecordDiscovery(OutcomeInvalid, 0, time.Since(start))
		return nil, errors.NewInvalidRequestError(err.Error())
	}
	targets := dedupe(req.Targets, req.FocusBiomarkers)
	if len(targets) == 0 {
		s.metrics.RecordDiscovery(OutcomeInvalid, 0, time.Since(start))
		return nil, errors.NewInvalidRequestError("target_entities or focus_biomarkers is required")
	}
	sources := dedupe(req.Sources)

	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}
	depth := req.MaxDepth
	if depth == 0 {
		depth = s.cfg.DefaultDepth
	}

	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	ctx, span := discoveryTracer.Start(ctx, "DiscoveryService.Discover",
		trace.WithAttributes(
			attribute.String("request_id", req.RequestID),
			attribute.StringSlice("sources", sources),
			attribute.StringSlice("targets", targets),
			attribute.Int("max_depth", depth),
		))
	defer span.End()

	logger := s.logger.With(zap.String("request_id", req.RequestID))
	logger.Info("Starting causal discovery",
		zap.Strings("sources", sources),
		zap.Strings("targets", targets),
		zap.Int("max_depth", depth))

	grounded := make(map[string]*grounding.Entity, len(sources)+len(targets))
	sourceIDs := s.groundAll(ctx, sources, grounded)
	targetIDs := s.groundAll(ctx, targets, grounded)

	all := s.searchPairs(ctx, sourceIDs, targetIDs, depth, !req.DisableCache)
	explored := len(all)

	if req.MinEvidenceCount > 0 {
		all = filterByEvidence(all, req.MinEvidenceCount)
	}
	ranked := s.ranker.Rank(all)

	top := ranked
	if len(top) > s.cfg.TopPaths {
		top = top[:s.cfg.TopPaths]
	}
	graph := s.assembler.Build(top, req.Genetics)

	var env *exposure.Analysis
	if len(req.LocationHistory) > 0 {
		a := exposure.AnalyzeLocationHistory(req.LocationHistory)
		env = &a
	}
	explanations := s.composer.Generate(graph, env, req.Genetics)

	reported := ranked
	if len(reported) > s.cfg.ReportedPaths {
		reported = reported[:s.cfg.ReportedPaths]
	}

	res := &DiscoveryResult{
		RequestID:    req.RequestID,
		Graph:        graph,
		Explanations: explanations,
		TopPaths:     causal.ClonePaths(reported),
		Grounded:     grounded,
		Exposure:     env,
		Metadata: DiscoveryMetadata{
			QueryTimeMs:         time.Since(start).Milliseconds(),
			PathsExplored:       explored,
			TotalEvidencePapers: graph.TotalEvidence(),
		},
		NoPathFound: graph.IsEmpty(),
	}

	outcome := OutcomeSuccess
	if res.NoPathFound {
		outcome = OutcomeNoPath
		span.SetStatus(codes.Error, "no causal path")
		if ctx.Err() != nil {
			logger.Warn("Discovery deadline reached before any path was found", zap.Error(ctx.Err()))
		}
	}
	span.SetAttributes(attribute.Int("paths_explored", explored), attribute.Int("nodes", graph.NodeCount()))
	s.metrics.RecordDiscovery(outcome, explored, time.Since(start))

	logger.Info("Causal discovery completed",
		zap.String("outcome", outcome),
		zap.Int("paths_explored", explored),
		zap.Int("nodes", graph.NodeCount()),
		zap.Int("edges", graph.EdgeCount()),
		zap.Int64("query_time_ms", res.Metadata.QueryTimeMs))

	return res, nil
}

// groundAll records each grounding and returns the IDs used for search.
// Search IDs come from the static tables; an enriched grounding is reported
// but never changes the searched pair. A name the tables miss is searched as
// written.
func (s *DiscoveryService) groundAll(ctx context.Context, names []string, into map[string]*grounding.Entity) []string {
	ids := make([]string, len(names))
	for i, name := range names {
		if ent, ok := s.grounder.GroundOne(ctx, name); ok {
			into[name] = &ent
		} else {
			into[name] = nil
		}

		if static, ok := s.grounder.GroundStatic(name); ok {
			ids[i] = static.ID
			continue
		}
		ids[i] = name
		s.logger.Debug("Searching with ungrounded name", zap.String("name", name))
	}
	return ids
}

// searchPairs fans out over source×target and returns paths in pair order.
func (s *DiscoveryService) searchPairs(ctx context.Context, sources, targets []string, depth int, allowCache bool) []causal.Path {
	type pair struct{ source, target string }
	var pairs []pair
	for _, src := range sources {
		for _, tgt := range targets {
			if src == tgt {
				continue
			}
			pairs = append(pairs, pair{src, tgt})
		}
	}

	results := make([][]causal.Path, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Parallelism)
	for i, p := range pairs {
		g.Go(func() error {
			paths := s.paths.FindPaths(gctx, p.source, p.target, depth, allowCache)
			if len(paths) == 0 && s.cfg.RegulatorBridging {
				paths = s.bridge(gctx, p.source, p.target, depth, allowCache)
			}
			results[i] = paths
			return nil
		})
	}
	_ = g.Wait()

	var all []causal.Path
	for _, r := range results {
		all = append(all, r...)
	}
	return all
}

// bridge searches through the target's known regulators. The first regulator
// with paths on both legs wins.
func (s *DiscoveryService) bridge(ctx context.Context, source, target string, depth int, allowCache bool) []causal.Path {
	for _, reg := range s.grounder.Regulators(target) {
		regID := reg
		if ent, ok := s.grounder.GroundStatic(reg); ok {
			regID = ent.ID
		}
		if regID == source || regID == target {
			continue
		}

		upstream := s.paths.FindPaths(ctx, source, regID, depth, allowCache)
		if len(upstream) == 0 {
			continue
		}
		downstream := s.paths.FindPaths(ctx, regID, target, depth, allowCache)
		if len(downstream) == 0 {
			continue
		}

		s.logger.Info("Bridged through regulator",
			zap.String("source", source),
			zap.String("target", target),
			zap.String("regulator", regID),
			zap.Int("upstream_paths", len(upstream)),
			zap.Int("downstream_paths", len(downstream)))
		return append(upstream, downstream...)
	}
	return nil
}

func filterByEvidence(paths []causal.Path, minCount int) []causal.Path {
	out := make([]causal.Path, 0, len(paths))
	for _, p := range paths {
		if len(p.Edges) == 0 || p.MinEvidence() >= minCount {
			out = append(out, p)
		}
	}
	return out
}

func dedupe(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, v := range list {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
