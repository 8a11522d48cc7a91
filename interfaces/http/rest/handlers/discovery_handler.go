package handlers

import (
	"context"
	"net/http"

	"causaldiscovery/application/services"
	"causaldiscovery/domain/causal"
	"causaldiscovery/domain/exposure"
	"causaldiscovery/domain/grounding"
	"causaldiscovery/pkg/common"
	"causaldiscovery/pkg/errors"
	"causaldiscovery/pkg/utils"

	"go.uber.org/zap"
)

// defaultMinEvidence applies when the caller sends no options block
const defaultMinEvidence = 2

// Discoverer runs causal discovery and grounding
type Discoverer interface {
	Discover(ctx context.Context, req services.DiscoveryRequest) (*services.DiscoveryResult, error)
	Ground(ctx context.Context, name string) (grounding.Entity, error)
	Ready(ctx context.Context) bool
}

// CausalDiscoveryRequest is the body of POST /api/v1/causal_discovery
type CausalDiscoveryRequest struct {
	RequestID      string          `json:"request_id" validate:"required"`
	UserContext    UserContext     `json:"user_context"`
	Query          Query           `json:"query"`
	Options        *RequestOptions `json:"options,omitempty"`
	SourceEntities []string        `json:"source_entities" validate:"required,min=1,dive,required"`
	TargetEntities []string        `json:"target_entities" validate:"dive,required"`
}

// UserContext carries the personalisation inputs
type UserContext struct {
	UserID            string                   `json:"user_id" validate:"required"`
	Genetics          map[string]string        `json:"genetics"`
	CurrentBiomarkers map[string]float64       `json:"current_biomarkers"`
	LocationHistory   []exposure.LocationEntry `json:"location_history" validate:"dive"`
}

// Query describes what the user asked
type Query struct {
	Text            string   `json:"text" validate:"required"`
	Intent          string   `json:"intent,omitempty" validate:"omitempty,oneof=prediction explanation intervention"`
	FocusBiomarkers []string `json:"focus_biomarkers,omitempty" validate:"dive,required"`
}

// RequestOptions tunes the search
type RequestOptions struct {
	MaxGraphDepth        int  `json:"max_graph_depth" validate:"gte=0,lte=10"`
	MinEvidenceCount     int  `json:"min_evidence_count" validate:"gte=0"`
	IncludeInterventions bool `json:"include_interventions"`
	DisableCache         bool `json:"disable_cache"`
}

// CausalDiscoveryResponse is the success body
type CausalDiscoveryResponse struct {
	RequestID    string                     `json:"request_id"`
	Status       string                     `json:"status"`
	CausalGraph  *causal.CausalGraph        `json:"causal_graph"`
	Metadata     services.DiscoveryMetadata `json:"metadata"`
	Explanations []string                   `json:"explanations"`
}

// DiscoveryHandler serves the causal discovery endpoints
type DiscoveryHandler struct {
	discovery Discoverer
	errors    *errors.ErrorHandler
	logger    *zap.Logger
}

// NewDiscoveryHandler creates a new discovery handler
func NewDiscoveryHandler(discovery Discoverer, errHandler *errors.ErrorHandler, logger *zap.Logger) *DiscoveryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if errHandler == nil {
		errHandler = errors.NewErrorHandler(logger, false)
	}
	return &DiscoveryHandler{
		discovery: discovery,
		errors:    errHandler,
		logger:    logger,
	}
}

// Discover handles POST /api/v1/causal_discovery
func (h *DiscoveryHandler) Discover(w http.ResponseWriter, r *http.Request) {
	var req CausalDiscoveryRequest
	if err := common.ParseJSONBody(w, r, &req, common.MaxBodyBytes); err != nil {
		h.errors.Handle(w, r, common.ExtractRequestID(r), errors.NewInvalidRequestError("invalid JSON body").WithCause(err))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, req.RequestID, errors.NewInvalidRequestError(err.Error()))
		return
	}

	dreq := req.toDiscoveryRequest()
	res, err := h.discovery.Discover(r.Context(), dreq)
	if err != nil {
		h.errors.Handle(w, r, req.RequestID, err)
		return
	}

	if res.NoPathFound {
		noPath := errors.NewNoPathError(dreq.Sources, append(append([]string(nil), dreq.Targets...), dreq.FocusBiomarkers...)).
			WithDetails(map[string]interface{}{
				"paths_found":       res.Metadata.PathsExplored,
				"max_depth_reached": false,
			})
		h.errors.Handle(w, r, res.RequestID, noPath)
		return
	}

	h.logger.Info("Causal discovery served",
		zap.String("request_id", res.RequestID),
		zap.String("user_id", req.UserContext.UserID),
		zap.Int("nodes", res.Graph.NodeCount()),
		zap.Int("edges", res.Graph.EdgeCount()))

	common.RespondJSON(w, http.StatusOK, CausalDiscoveryResponse{
		RequestID:    res.RequestID,
		Status:       "success",
		CausalGraph:  res.Graph,
		Metadata:     res.Metadata,
		Explanations: res.Explanations,
	})
}

// Ground handles GET /api/v1/grounding?name=
func (h *DiscoveryHandler) Ground(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		h.errors.Handle(w, r, common.ExtractRequestID(r), errors.NewInvalidRequestError("name is required"))
		return
	}

	ent, err := h.discovery.Ground(r.Context(), name)
	if err != nil {
		h.errors.Handle(w, r, common.ExtractRequestID(r), err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"name":      name,
		"entity":    ent,
		"reference": grounding.FormatForQuery(ent),
	})
}

func (req CausalDiscoveryRequest) toDiscoveryRequest() services.DiscoveryRequest {
	out := services.DiscoveryRequest{
		RequestID:        req.RequestID,
		Sources:          req.SourceEntities,
		Targets:          req.TargetEntities,
		FocusBiomarkers:  req.Query.FocusBiomarkers,
		Genetics:         req.UserContext.Genetics,
		LocationHistory:  req.UserContext.LocationHistory,
		MinEvidenceCount: defaultMinEvidence,
	}
	if req.Options != nil {
		out.MaxDepth = req.Options.MaxGraphDepth
		out.MinEvidenceCount = req.Options.MinEvidenceCount
		out.DisableCache = req.Options.DisableCache
	}
	return out
}
