package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"causaldiscovery/domain/policy"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Environment string `yaml:"environment" validate:"oneof=development staging production test"`
	LogLevel    string `yaml:"log_level" validate:"oneof=debug info warn error"`

	Server    Server         `yaml:"server"`
	RateLimit RateLimit      `yaml:"rate_limit"`
	Indra     Indra          `yaml:"indra"`
	Breaker   Breaker        `yaml:"breaker"`
	Cache     Cache          `yaml:"cache"`
	Fixtures  Fixtures       `yaml:"fixtures"`
	Grounding Grounding      `yaml:"grounding"`
	Discovery Discovery      `yaml:"discovery"`
	Metrics   Metrics        `yaml:"metrics"`
	Tracing   Tracing        `yaml:"tracing"`
	Policy    *policy.Policy `yaml:"policy"`
}

// Server configures the HTTP adapter
type Server struct {
	Address         string        `yaml:"address" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
	EnableCORS      bool          `yaml:"enable_cors"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	IsLambda        bool          `yaml:"is_lambda"`
}

// RateLimit throttles the API per client address
type RateLimit struct {
	Enabled           bool          `yaml:"enabled"`
	RequestsPerWindow int           `yaml:"requests_per_window" validate:"gt=0"`
	Window            time.Duration `yaml:"window" validate:"gt=0"`
}

// Indra configures the remote path search client
type Indra struct {
	BaseURL           string        `yaml:"base_url" validate:"required,url"`
	Timeout           time.Duration `yaml:"timeout" validate:"gt=0"`
	BeliefCutoff      float64       `yaml:"belief_cutoff" validate:"gte=0,lte=1"`
	KShortest         int           `yaml:"k_shortest" validate:"gt=0"`
	FilterCurated     bool          `yaml:"filter_curated"`
	CuratedDBOnly     bool          `yaml:"curated_db_only"`
	FplxExpand        bool          `yaml:"fplx_expand"`
	AutocompleteLimit int           `yaml:"autocomplete_limit" validate:"gt=0"`
	Disabled          bool          `yaml:"disabled"`
}

// Breaker configures the circuit breaker around remote calls
type Breaker struct {
	MaxRequests      uint32        `yaml:"max_requests" validate:"gt=0"`
	Interval         time.Duration `yaml:"interval" validate:"gte=0"`
	Timeout          time.Duration `yaml:"timeout" validate:"gt=0"`
	FailureThreshold float64       `yaml:"failure_threshold" validate:"gt=0,lte=1"`
	MinRequests      uint32        `yaml:"min_requests"`
}

// Cache configures the runtime path cache
type Cache struct {
	Provider  string        `yaml:"provider" validate:"oneof=memory redis"`
	MaxItems  int           `yaml:"max_items" validate:"gt=0"`
	TTL       time.Duration `yaml:"ttl" validate:"gt=0"`
	RedisAddr string        `yaml:"redis_addr"`
	RedisDB   int           `yaml:"redis_db" validate:"gte=0"`
	KeyPrefix string        `yaml:"key_prefix"`
}

// Fixtures configures the precomputed path stores
type Fixtures struct {
	Files          []string `yaml:"files"`
	DisableBuiltin bool     `yaml:"disable_builtin"`
	DynamoDBTable  string   `yaml:"dynamodb_table"`
	AWSRegion      string   `yaml:"aws_region"`
}

// Grounding configures the optional enrichment source
type Grounding struct {
	MeshFile string `yaml:"mesh_file"`
}

// Discovery configures the discovery pipeline
type Discovery struct {
	DefaultDepth      int           `yaml:"default_depth" validate:"gt=0,lte=10"`
	TopPaths          int           `yaml:"top_paths" validate:"gt=0"`
	ReportedPaths     int           `yaml:"reported_paths" validate:"gt=0"`
	Parallelism       int           `yaml:"parallelism" validate:"gt=0"`
	RequestTimeout    time.Duration `yaml:"request_timeout" validate:"gt=0"`
	RegulatorBridging bool          `yaml:"regulator_bridging"`
}

// Metrics configures the Prometheus collector
type Metrics struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
	Path      string `yaml:"path"`
}

// Tracing configures OpenTelemetry
type Tracing struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Endpoint    string  `yaml:"endpoint"`
	SampleRate  float64 `yaml:"sample_rate" validate:"gte=0,lte=1"`
}

// Default returns a configuration that runs offline against the built-in fixtures
// and the public INDRA network search service.
func Default() *Config {
	return &Config{
		Environment: "development",
		LogLevel:    "info",
		Server: Server{
			Address:         ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    90 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			EnableCORS:      true,
			AllowedOrigins:  []string{"*"},
		},
		RateLimit: RateLimit{
			RequestsPerWindow: 60,
			Window:            time.Minute,
		},
		Indra: Indra{
			BaseURL:           "https://network.indra.bio",
			Timeout:           30 * time.Second,
			BeliefCutoff:      0.5,
			KShortest:         10,
			FilterCurated:     true,
			CuratedDBOnly:     false,
			FplxExpand:        true,
			AutocompleteLimit: 5,
		},
		Breaker: Breaker{
			MaxRequests:      5,
			Interval:         30 * time.Second,
			Timeout:          60 * time.Second,
			FailureThreshold: 0.8,
			MinRequests:      5,
		},
		Cache: Cache{
			Provider:  "memory",
			MaxItems:  1000,
			TTL:       time.Hour,
			RedisAddr: "localhost:6379",
			KeyPrefix: "causal:paths:",
		},
		Fixtures: Fixtures{
			AWSRegion: "us-west-2",
		},
		Discovery: Discovery{
			DefaultDepth:      4,
			TopPaths:          3,
			ReportedPaths:     5,
			Parallelism:       4,
			RequestTimeout:    60 * time.Second,
			RegulatorBridging: true,
		},
		Metrics: Metrics{
			Enabled:   true,
			Namespace: "causal",
			Path:      "/metrics",
		},
		Tracing: Tracing{
			ServiceName: "causal-discovery",
			Endpoint:    "localhost:4317",
		},
		Policy: policy.DefaultPolicy(),
	}
}

// LoadConfig loads configuration: defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.loadEnvironmentVariables()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

// loadFile overlays a YAML file on the current values. The policy section is
// merged field by field so a partial override keeps the remaining defaults.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	base := c.Policy
	c.Policy = nil
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	c.Policy = base.Merge(c.Policy)
	return nil
}

func (c *Config) loadEnvironmentVariables() {
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", c.LogLevel))

	c.Server.Address = getEnv("SERVER_ADDRESS", c.Server.Address)
	c.Server.EnableCORS = getEnvBool("ENABLE_CORS", c.Server.EnableCORS)
	c.Server.IsLambda = getEnvBool("IS_LAMBDA", c.Server.IsLambda || os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "")

	c.RateLimit.Enabled = getEnvBool("RATE_LIMIT_ENABLED", c.RateLimit.Enabled)
	c.RateLimit.RequestsPerWindow = getEnvInt("RATE_LIMIT_REQUESTS", c.RateLimit.RequestsPerWindow)
	c.RateLimit.Window = getEnvDuration("RATE_LIMIT_WINDOW", c.RateLimit.Window)

	c.Indra.BaseURL = getEnv("INDRA_BASE_URL", c.Indra.BaseURL)
	c.Indra.Timeout = getEnvDuration("INDRA_TIMEOUT", c.Indra.Timeout)
	c.Indra.BeliefCutoff = getEnvFloat("INDRA_BELIEF_CUTOFF", c.Indra.BeliefCutoff)
	c.Indra.KShortest = getEnvInt("INDRA_K_SHORTEST", c.Indra.KShortest)
	c.Indra.Disabled = getEnvBool("INDRA_DISABLED", c.Indra.Disabled)

	c.Cache.Provider = getEnv("CACHE_PROVIDER", c.Cache.Provider)
	c.Cache.MaxItems = getEnvInt("CACHE_MAX_ITEMS", c.Cache.MaxItems)
	c.Cache.TTL = getEnvDuration("CACHE_TTL", c.Cache.TTL)
	c.Cache.RedisAddr = getEnv("REDIS_ADDR", c.Cache.RedisAddr)
	c.Cache.RedisDB = getEnvInt("REDIS_DB", c.Cache.RedisDB)

	if files := os.Getenv("FIXTURE_FILES"); files != "" {
		c.Fixtures.Files = splitList(files)
	}
	c.Fixtures.DynamoDBTable = getEnv("FIXTURE_TABLE", c.Fixtures.DynamoDBTable)
	c.Fixtures.AWSRegion = getEnv("AWS_REGION", c.Fixtures.AWSRegion)

	c.Grounding.MeshFile = getEnv("MESH_FILE", c.Grounding.MeshFile)

	c.Discovery.DefaultDepth = getEnvInt("DEFAULT_MAX_DEPTH", c.Discovery.DefaultDepth)
	c.Discovery.TopPaths = getEnvInt("TOP_PATHS", c.Discovery.TopPaths)
	c.Discovery.Parallelism = getEnvInt("SEARCH_PARALLELISM", c.Discovery.Parallelism)
	c.Discovery.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", c.Discovery.RequestTimeout)
	c.Discovery.RegulatorBridging = getEnvBool("REGULATOR_BRIDGING", c.Discovery.RegulatorBridging)

	c.Metrics.Enabled = getEnvBool("ENABLE_METRICS", c.Metrics.Enabled)

	c.Tracing.Enabled = getEnvBool("ENABLE_TRACING", c.Tracing.Enabled)
	c.Tracing.Endpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Tracing.Endpoint)
	c.Tracing.SampleRate = getEnvFloat("TRACE_SAMPLE_RATE", c.Tracing.SampleRate)
}

// Validate checks field ranges and cross-field rules
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Cache.Provider == "redis" && c.Cache.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required when the redis cache provider is selected")
	}
	if c.Discovery.ReportedPaths < c.Discovery.TopPaths {
		return fmt.Errorf("discovery.reported_paths (%d) must be >= discovery.top_paths (%d)",
			c.Discovery.ReportedPaths, c.Discovery.TopPaths)
	}
	if c.Fixtures.DynamoDBTable != "" && c.Fixtures.AWSRegion == "" {
		return fmt.Errorf("AWS_REGION is required when FIXTURE_TABLE is set")
	}
	if c.Policy == nil {
		return fmt.Errorf("policy section is required")
	}
	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
