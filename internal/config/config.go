package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported provider names per capability.
var (
	EmbeddingProviders   = []string{"openai", "bedrock"}
	GenerationProviders  = []string{"openai", "bedrock"}
	VectorIndexProviders = []string{"redis", "valkey", "pgvector"}
)

// Retrieval k bounds.
const (
	MinK = 1
	MaxK = 20
)

// Config holds the raggate configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Logging    LoggingConfig    `yaml:"logging"`
	Auth       AuthConfig       `yaml:"auth"`
	Providers  ProvidersConfig  `yaml:"providers"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Bedrock    BedrockConfig    `yaml:"bedrock"`
	Redis      RedisConfig      `yaml:"redis"`
	PGVector   PGVectorConfig   `yaml:"pgvector"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Query      QueryConfig      `yaml:"query"`
	Guardrails GuardrailsConfig `yaml:"guardrails"`
	Ingest     IngestConfig     `yaml:"ingest"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// ProvidersConfig selects the backend for each capability.
type ProvidersConfig struct {
	Embedding   string `yaml:"embedding"`    // openai, bedrock
	Generation  string `yaml:"generation"`   // openai, bedrock
	VectorIndex string `yaml:"vector_index"` // redis, valkey, pgvector
	// Dimension is the embedding vector size shared by the embedder and the index.
	Dimension int `yaml:"dimension"`
}

// OpenAIConfig holds settings for OpenAI-compatible APIs.
type OpenAIConfig struct {
	APIKey         string  `yaml:"api_key"`
	BaseURL        string  `yaml:"base_url"`
	EmbeddingModel string  `yaml:"embedding_model"`
	ChatModel      string  `yaml:"chat_model"`
	Temperature    float32 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
}

// BedrockConfig holds AWS Bedrock settings. Credentials come from the default AWS chain.
type BedrockConfig struct {
	Region         string  `yaml:"region"`
	EmbeddingModel string  `yaml:"embedding_model"`
	ChatModel      string  `yaml:"chat_model"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
}

// RedisConfig holds Redis/Valkey connection and index settings.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	IndexName        string   `yaml:"index_name"`
	TagFields        []string `yaml:"tag_fields"`
	HNSWM            int      `yaml:"hnsw_m"`
	HNSWEFConstruct  int      `yaml:"hnsw_ef_construction"`
	// EmbeddingCacheTTLSec of 0 disables the query-embedding cache.
	EmbeddingCacheTTLSec int `yaml:"embedding_cache_ttl_sec"`
}

// PGVectorConfig holds PostgreSQL + pgvector settings.
type PGVectorConfig struct {
	DSN              string `yaml:"dsn"`
	Table            string `yaml:"table"`
	MaxConns         int32  `yaml:"max_conns"`
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`
}

// RetrievalConfig holds retrieval settings.
type RetrievalConfig struct {
	DefaultK int `yaml:"default_k"`
}

// QueryConfig holds question length bounds, in runes.
type QueryConfig struct {
	MinLength int `yaml:"min_length"`
	MaxLength int `yaml:"max_length"`
}

// GuardrailsConfig toggles the guardrail checkers.
type GuardrailsConfig struct {
	InputValidation    *bool `yaml:"input_validation"`
	InjectionDetection *bool `yaml:"injection_detection"`
	OutputValidation   *bool `yaml:"output_validation"`
	StrictMode         *bool `yaml:"strict_mode"`
	Logging            *bool `yaml:"logging"`
}

// IngestConfig holds ingestion settings.
type IngestConfig struct {
	BatchSize int `yaml:"batch_size"`
	MaxItems  int `yaml:"max_items"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory, when present, is loaded first.
func Load(env string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables in data, decodes it, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Providers.Embedding == "" {
		c.Providers.Embedding = "openai"
	}
	if c.Providers.Generation == "" {
		c.Providers.Generation = "openai"
	}
	if c.Providers.VectorIndex == "" {
		c.Providers.VectorIndex = "valkey"
	}
	if c.Providers.Dimension <= 0 {
		c.Providers.Dimension = 1024
	}
	if c.OpenAI.EmbeddingModel == "" {
		c.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if c.OpenAI.ChatModel == "" {
		c.OpenAI.ChatModel = "gpt-4o-mini"
	}
	if c.Bedrock.Region == "" {
		c.Bedrock.Region = "us-east-1"
	}
	if c.Bedrock.EmbeddingModel == "" {
		c.Bedrock.EmbeddingModel = "amazon.titan-embed-text-v2:0"
	}
	if c.Bedrock.ChatModel == "" {
		c.Bedrock.ChatModel = "anthropic.claude-3-haiku-20240307-v1:0"
	}
	if c.Redis.ReadinessTimeout <= 0 {
		c.Redis.ReadinessTimeout = 10
	}
	if c.Redis.IndexName == "" {
		c.Redis.IndexName = "raggate"
	}
	if c.Redis.TagFields == nil {
		c.Redis.TagFields = []string{"source", "filename"}
	}
	if c.Redis.HNSWM <= 0 {
		c.Redis.HNSWM = 16
	}
	if c.Redis.HNSWEFConstruct <= 0 {
		c.Redis.HNSWEFConstruct = 200
	}
	if c.PGVector.Table == "" {
		c.PGVector.Table = "passages"
	}
	if c.PGVector.ReadinessTimeout <= 0 {
		c.PGVector.ReadinessTimeout = 10
	}
	if c.Retrieval.DefaultK == 0 {
		c.Retrieval.DefaultK = 4
	}
	if c.Query.MinLength <= 0 {
		c.Query.MinLength = 3
	}
	if c.Query.MaxLength <= 0 {
		c.Query.MaxLength = 1000
	}
	g := &c.Guardrails
	for _, p := range []**bool{&g.InputValidation, &g.InjectionDetection, &g.OutputValidation, &g.StrictMode, &g.Logging} {
		if *p == nil {
			v := true
			*p = &v
		}
	}
	if c.Ingest.BatchSize <= 0 {
		c.Ingest.BatchSize = 32
	}
	if c.Ingest.MaxItems <= 0 {
		c.Ingest.MaxItems = 500
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if err := checkProvider("embedding", c.Providers.Embedding, EmbeddingProviders); err != nil {
		return err
	}
	if err := checkProvider("generation", c.Providers.Generation, GenerationProviders); err != nil {
		return err
	}
	if err := checkProvider("vector_index", c.Providers.VectorIndex, VectorIndexProviders); err != nil {
		return err
	}
	switch c.Providers.VectorIndex {
	case "redis", "valkey":
		if len(c.Redis.Addrs) == 0 {
			return fmt.Errorf("redis.addrs is required for vector_index %q", c.Providers.VectorIndex)
		}
	case "pgvector":
		if c.PGVector.DSN == "" {
			return fmt.Errorf("pgvector.dsn is required for vector_index %q", c.Providers.VectorIndex)
		}
	}
	if c.Retrieval.DefaultK < MinK || c.Retrieval.DefaultK > MaxK {
		return fmt.Errorf("retrieval.default_k must be between %d and %d, got %d", MinK, MaxK, c.Retrieval.DefaultK)
	}
	if c.Query.MinLength > c.Query.MaxLength {
		return fmt.Errorf("query.min_length (%d) must not exceed query.max_length (%d)",
			c.Query.MinLength, c.Query.MaxLength)
	}
	return nil
}

// HTTPPort returns the configured port, defaulting to 8080. Zero is allowed in
// the file so the ingest CLI can share one config without serving HTTP.
func (c *Config) HTTPPort() int {
	if c.HTTP.Port == 0 {
		return 8080
	}
	return c.HTTP.Port
}

func checkProvider(kind, name string, supported []string) error {
	if !slices.Contains(supported, name) {
		return fmt.Errorf("configuration error: unsupported %s provider %q (supported: %s)",
			kind, name, strings.Join(supported, ", "))
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

// On reports a tri-state toggle, treating nil as enabled.
func On(p *bool) bool { return p == nil || *p }
