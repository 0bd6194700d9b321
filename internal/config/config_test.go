package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:      HTTPConfig{Port: 8080},
		Providers: ProvidersConfig{VectorIndex: "valkey"},
		Redis:     RedisConfig{Addrs: []string{"localhost:6379"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownProvider(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"embedding", func(c *Config) { c.Providers.Embedding = "cohere" }, `unsupported embedding provider "cohere"`},
		{"generation", func(c *Config) { c.Providers.Generation = "llama" }, `unsupported generation provider "llama"`},
		{"vector index", func(c *Config) { c.Providers.VectorIndex = "milvus" }, `unsupported vector_index provider "milvus"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q, got %v", tc.want, err)
			}
		})
	}
}

func TestValidate_BackendRequirements(t *testing.T) {
	cfg := validConfig()
	cfg.Redis.Addrs = nil
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing redis addrs")
	}

	cfg = validConfig()
	cfg.Providers.VectorIndex = "pgvector"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing pgvector dsn")
	}
	cfg.PGVector.DSN = "postgres://localhost/raggate"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_Bounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"k too large", func(c *Config) { c.Retrieval.DefaultK = 21 }},
		{"k negative", func(c *Config) { c.Retrieval.DefaultK = -1 }},
		{"length inverted", func(c *Config) { c.Query.MinLength = 50; c.Query.MaxLength = 10 }},
		{"port", func(c *Config) { c.HTTP.Port = 70000 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Providers.Embedding != "openai" || cfg.Providers.Generation != "openai" || cfg.Providers.VectorIndex != "valkey" {
		t.Errorf("providers = %+v", cfg.Providers)
	}
	if cfg.Retrieval.DefaultK != 4 {
		t.Errorf("DefaultK = %d, want 4", cfg.Retrieval.DefaultK)
	}
	if cfg.Query.MinLength != 3 || cfg.Query.MaxLength != 1000 {
		t.Errorf("query bounds = %+v", cfg.Query)
	}
	if cfg.Redis.IndexName != "raggate" || cfg.Redis.HNSWM != 16 {
		t.Errorf("redis = %+v", cfg.Redis)
	}
	if !On(cfg.Guardrails.StrictMode) || !On(cfg.Guardrails.InputValidation) {
		t.Error("guardrails should default to enabled")
	}
	if cfg.HTTPPort() != 8080 {
		t.Errorf("HTTPPort = %d", cfg.HTTPPort())
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	off := false
	cfg := Config{
		HTTP:       HTTPConfig{ReadTimeoutSec: 30},
		Retrieval:  RetrievalConfig{DefaultK: 8},
		Redis:      RedisConfig{TagFields: []string{}},
		Guardrails: GuardrailsConfig{StrictMode: &off},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("ReadTimeoutSec = %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Retrieval.DefaultK != 8 {
		t.Errorf("DefaultK = %d", cfg.Retrieval.DefaultK)
	}
	if len(cfg.Redis.TagFields) != 0 {
		t.Errorf("explicit empty tag list should be kept, got %v", cfg.Redis.TagFields)
	}
	if On(cfg.Guardrails.StrictMode) {
		t.Error("explicit strict_mode=false must survive defaults")
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("RAGGATE_TEST_ADDR", "valkey:6380")
	cfg, err := Parse([]byte(`
http:
  port: 9000
providers:
  vector_index: valkey
redis:
  addrs: ["${RAGGATE_TEST_ADDR}"]
retrieval:
  default_k: ${RAGGATE_TEST_K:-6}
guardrails:
  strict_mode: false
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Redis.Addrs[0] != "valkey:6380" {
		t.Errorf("addr = %q", cfg.Redis.Addrs[0])
	}
	if cfg.Retrieval.DefaultK != 6 {
		t.Errorf("default_k = %d", cfg.Retrieval.DefaultK)
	}
	if On(cfg.Guardrails.StrictMode) {
		t.Error("strict_mode should be false")
	}
	if !On(cfg.Guardrails.OutputValidation) {
		t.Error("unset output_validation should default to true")
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("providers: [")); err == nil {
		t.Error("expected yaml error")
	}
	if _, err := Parse([]byte("providers:\n  generation: nope\nredis:\n  addrs: [x]\n")); err == nil {
		t.Error("expected validation error")
	}
}

func TestMustLoad_PanicsOnMissingFile(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !strings.Contains(err.Error(), "raggate-missing-env") {
			t.Errorf("recovered %v, want a read error naming the config path", r)
		}
	}()
	MustLoad("raggate-missing-env")
	t.Error("MustLoad returned without panicking")
}
