package raggate

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/raggate/internal/config"
)

// Config is the full service configuration, as read from config/<env>.yaml.
type Config = config.Config

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	env    string
	cfg    *Config
	logger *zap.Logger

	metricsReg prometheus.Registerer
}

// WithEnv loads config/<env>.yaml. Ignored when WithConfig is set.
func WithEnv(env string) Option {
	return optionFunc(func(c *clientConfig) {
		c.env = env
	})
}

// WithConfig uses cfg instead of reading a file. Defaults are applied and the result validated.
func WithConfig(cfg Config) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg = &cfg
	})
}

// WithLogger enables structured logging. Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// QueryOption tunes one Query call.
type QueryOption func(*queryConfig)

type queryConfig struct {
	k      int
	filter map[string]string
}

// WithK sets how many passages to retrieve (1..20). Zero keeps the configured default.
func WithK(k int) QueryOption {
	return func(q *queryConfig) { q.k = k }
}

// WithFilter restricts retrieval to passages whose metadata matches every pair.
func WithFilter(match map[string]string) QueryOption {
	return func(q *queryConfig) { q.filter = match }
}
