// Package indra is a client for the INDRA Network Search API: entity
// autocomplete and resolution, health checks and mechanistic path queries.
package indra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"causaldiscovery/domain/causal"
	pkgerrors "causaldiscovery/pkg/errors"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const serviceName = "indra"

// endpoint labels for metrics
const (
	endpointHealth       = "health"
	endpointAutocomplete = "autocomplete"
	endpointNodeByID     = "node_id_in_graph"
	endpointNodeByName   = "node_name_in_graph"
	endpointQuery        = "query"
)

var errNotFound = errors.New("not found")

// Config holds the client settings
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	BeliefCutoff      float64
	KShortest         int
	FilterCurated     bool
	CuratedDBOnly     bool
	FplxExpand        bool
	AutocompleteLimit int
	Breaker           BreakerConfig
}

// BreakerConfig configures the circuit breaker around every remote call
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultConfig returns the settings used against network.indra.bio
func DefaultConfig() Config {
	return Config{
		BaseURL:           "https://network.indra.bio",
		Timeout:           30 * time.Second,
		BeliefCutoff:      0.5,
		KShortest:         10,
		FilterCurated:     true,
		CuratedDBOnly:     false,
		FplxExpand:        true,
		AutocompleteLimit: 5,
		Breaker: BreakerConfig{
			MaxRequests:      5,
			Interval:         30 * time.Second,
			Timeout:          60 * time.Second,
			FailureThreshold: 0.8,
			MinRequests:      5,
		},
	}
}

// Metrics receives per-request measurements
type Metrics interface {
	RecordRemoteRequest(endpoint string, status int, duration time.Duration)
	RecordBreakerState(name string, state gobreaker.State)
}

type noopMetrics struct{}

func (noopMetrics) RecordRemoteRequest(string, int, time.Duration) {}
func (noopMetrics) RecordBreakerState(string, gobreaker.State) {}

// Match is one autocomplete suggestion
type Match struct {
	Name     string `json:"name"`
	Database string `json:"database"`
	ID       string `json:"id"`
}

// CURIE returns "db:id" with a lower-cased namespace, or "" when incomplete
func (m Match) CURIE() string {
	if m.Database == "" || m.ID == "" {
		return ""
	}
	return strings.ToLower(m.Database) + ":" + m.ID
}

// Client talks to the INDRA Network Search API. It is safe for concurrent use.
type Client struct {
	cfg      Config
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	logger   *zap.Logger
	metrics  Metrics
	entities sync.Map // "id:db:id" / "name:x" -> Node
}

// NewClient creates a client. metrics may be nil.
func NewClient(logger *zap.Logger, cfg Config, metrics Metrics) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}

	def := DefaultConfig()
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = def.BaseURL
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid INDRA base URL %q: %w", cfg.BaseURL, err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.KShortest <= 0 {
		cfg.KShortest = def.KShortest
	}
	if cfg.AutocompleteLimit <= 0 {
		cfg.AutocompleteLimit = def.AutocompleteLimit
	}
	if cfg.Breaker.MaxRequests == 0 {
		cfg.Breaker = def.Breaker
	}

	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger.With(zap.String("client", "IndraClient")),
		metrics: metrics,
	}
	c.breaker = c.newBreaker(cfg.Breaker)
	return c, nil
}

func (c *Client) newBreaker(bc BreakerConfig) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        serviceName,
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < bc.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= bc.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			c.metrics.RecordBreakerState(name, to)
		},
		// A 404 on resolution is an answer, not a failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errNotFound)
		},
	})
}

// HealthCheck reports whether the API answers /api/health with 2xx
func (c *Client) HealthCheck(ctx context.Context) bool {
	if _, err := c.do(ctx, endpointHealth, http.MethodGet, "/api/health", nil, nil); err != nil {
		c.logger.Warn("INDRA health check failed", zap.Error(err))
		return false
	}
	return true
}

// Autocomplete returns name suggestions for prefix. The API answers with
// [name, namespace, id] triples; malformed items are skipped.
func (c *Client) Autocomplete(ctx context.Context, prefix string, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = c.cfg.AutocompleteLimit
	}
	q := url.Values{}
	q.Set("prefix", prefix)
	q.Set("limit", fmt.Sprint(limit))

	raw, err := c.do(ctx, endpointAutocomplete, http.MethodGet, "/api/autocomplete", q, nil)
	if err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, pkgerrors.NewNetworkError("decode autocomplete response", err)
	}
	matches := make([]Match, 0, len(items))
	for _, item := range items {
		var triple []string
		if err := json.Unmarshal(item, &triple); err != nil || len(triple) < 3 {
			continue
		}
		matches = append(matches, Match{Name: triple[0], Database: triple[1], ID: triple[2]})
	}
	return matches, nil
}

// ResolveByID checks whether a db/id pair is a node of the graph. A 404 is a
// miss, not an error.
func (c *Client) ResolveByID(ctx context.Context, database, id string) (Node, bool, error) {
	key := "id:" + strings.ToLower(database) + ":" + id
	if n, ok := c.entities.Load(key); ok {
		return n.(Node), true, nil
	}

	q := url.Values{}
	q.Set("db-name", strings.ToLower(database))
	q.Set("db-id", id)
	return c.resolve(ctx, key, endpointNodeByID, "/api/node-id-in-graph", q)
}

// ResolveByName checks whether a node name is in the graph. A 404 is a miss.
func (c *Client) ResolveByName(ctx context.Context, name string) (Node, bool, error) {
	key := "name:" + name
	if n, ok := c.entities.Load(key); ok {
		return n.(Node), true, nil
	}

	q := url.Values{}
	q.Set("node-name", name)
	return c.resolve(ctx, key, endpointNodeByName, "/api/node-name-in-graph", q)
}

func (c *Client) resolve(ctx context.Context, key, endpoint, path string, q url.Values) (Node, bool, error) {
	raw, err := c.do(ctx, endpoint, http.MethodGet, path, q, nil)
	if errors.Is(err, errNotFound) {
		return Node{}, false, nil
	}
	if err != nil {
		return Node{}, false, err
	}

	var n Node
	if err := json.Unmarshal(raw, &n); err != nil {
		return Node{}, false, pkgerrors.NewNetworkError("decode node response", err)
	}
	if n.Name == "" {
		return Node{}, false, nil
	}
	c.entities.Store(key, n)
	return n, true, nil
}

// GroundEntity resolves a free-text name to a graph node: autocomplete, pick
// the exact case-insensitive match (else the first suggestion), then resolve by
// id and finally by name. Failures are logged and reported as a miss.
func (c *Client) GroundEntity(ctx context.Context, name string) (Node, bool) {
	matches, err := c.Autocomplete(ctx, name, c.cfg.AutocompleteLimit)
	if err != nil {
		c.logger.Warn("Autocomplete failed", zap.String("entity", name), zap.Error(err))
		return Node{}, false
	}
	if len(matches) == 0 {
		c.logger.Debug("No autocomplete matches", zap.String("entity", name))
		return Node{}, false
	}

	best := matches[0]
	for _, m := range matches {
		if strings.EqualFold(m.Name, name) {
			best = m
			break
		}
	}

	if best.CURIE() != "" {
		n, ok, err := c.ResolveByID(ctx, best.Database, best.ID)
		if err != nil {
			c.logger.Warn("Resolve by id failed", zap.String("curie", best.CURIE()), zap.Error(err))
		}
		if ok {
			return n, true
		}
	}
	if best.Name != "" {
		n, ok, err := c.ResolveByName(ctx, best.Name)
		if err != nil {
			c.logger.Warn("Resolve by name failed", zap.String("name", best.Name), zap.Error(err))
		}
		if ok {
			return n, true
		}
	}

	c.logger.Debug("Could not fully resolve entity", zap.String("entity", name))
	return Node{}, false
}

// SearchPaths queries mechanistic paths between two entities. Both names are
// grounded best-effort; an unresolved name is sent as given. A timed-out
// query yields no paths and no error.
func (c *Client) SearchPaths(ctx context.Context, source, target string, maxDepth int) ([]causal.Path, error) {
	ctx, span := otel.Tracer("causaldiscovery/indra").Start(ctx, "indra.SearchPaths")
	defer span.End()
	span.SetAttributes(
		attribute.String("source", source),
		attribute.String("target", target),
		attribute.Int("max_depth", maxDepth),
	)

	req := queryRequest{
		Source:        c.queryName(ctx, source),
		Target:        c.queryName(ctx, target),
		DepthLimit:    maxDepth,
		Weighted:      "belief",
		BeliefCutoff:  c.cfg.BeliefCutoff,
		KShortest:     c.cfg.KShortest,
		FilterCurated: c.cfg.FilterCurated,
		CuratedDBOnly: c.cfg.CuratedDBOnly,
		FplxExpand:    c.cfg.FplxExpand,
		Format:        "json",
	}

	raw, err := c.do(ctx, endpointQuery, http.MethodPost, "/api/query", nil, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var res queryResults
	if err := json.Unmarshal(raw, &res); err != nil {
		err = pkgerrors.NewNetworkError("decode path query response", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if res.TimedOut {
		c.logger.Warn("INDRA query timed out", zap.String("source", source), zap.String("target", target))
		return nil, nil
	}

	paths := toPaths(res)
	span.SetAttributes(attribute.Int("paths", len(paths)))
	c.logger.Info("Parsed INDRA paths",
		zap.String("source", req.Source),
		zap.String("target", req.Target),
		zap.Int("paths", len(paths)))
	return paths, nil
}

func (c *Client) queryName(ctx context.Context, name string) string {
	if n, ok := c.GroundEntity(ctx, name); ok {
		return n.Name
	}
	return name
}

// do runs one request through the breaker and returns the body of a 2xx
// response. 404 maps to errNotFound.
func (c *Client) do(ctx context.Context, endpoint, method, path string, query url.Values, body any) ([]byte, error) {
	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, pkgerrors.NewInternalError("encode request body").WithCause(err)
		}
		payload = b
	}

	out, err := c.breaker.Execute(func() (any, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		start := time.Now()
		resp, err := c.http.Do(req)
		if err != nil {
			c.metrics.RecordRemoteRequest(endpoint, 0, time.Since(start))
			return nil, err
		}
		defer resp.Body.Close()

		raw, readErr := io.ReadAll(resp.Body)
		c.metrics.RecordRemoteRequest(endpoint, resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, errNotFound
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return nil, fmt.Errorf("indra %s http %d: %s", endpoint, resp.StatusCode, truncateBody(raw))
		case readErr != nil:
			return nil, readErr
		}
		return raw, nil
	})

	switch {
	case err == nil:
		return out.([]byte), nil
	case errors.Is(err, errNotFound):
		return nil, err
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, pkgerrors.NewUnavailableError(serviceName).WithCause(err)
	case errors.Is(err, context.DeadlineExceeded):
		return nil, pkgerrors.NewTimeoutError("indra " + endpoint).WithCause(err)
	default:
		return nil, pkgerrors.NewNetworkError("indra "+endpoint+" request failed", err)
	}
}

func truncateBody(b []byte) string {
	const limit = 256
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
