package bedrock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/raggate/internal/domain"
	"github.com/kailas-cloud/raggate/internal/metrics"
)

const anthropicVersion = "bedrock-2023-05-31"

// Compile-time check: Generator implements domain.Generator.
var _ domain.Generator = (*Generator)(nil)

type claudeRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	Temperature      float64         `json:"temperature"`
	System           string          `json:"system,omitempty"`
	Messages         []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// GeneratorConfig holds Claude invocation parameters.
type GeneratorConfig struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// Generator calls an Anthropic Claude model through the Bedrock messages API.
type Generator struct {
	rt     invoker
	cfg    GeneratorConfig
	logger *zap.Logger
}

// NewGenerator creates a Claude generator. MaxTokens defaults to 1024.
func NewGenerator(rt invoker, cfg GeneratorConfig, logger *zap.Logger) *Generator {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{rt: rt, cfg: cfg, logger: logger}
}

// Model returns the configured model id.
func (g *Generator) Model() string { return g.cfg.Model }

// Generate implements domain.Generator. System messages are joined into the
// top-level system field; the rest become the messages list.
func (g *Generator) Generate(ctx context.Context, messages []domain.Message) (string, error) {
	req := claudeRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        g.cfg.MaxTokens,
		Temperature:      g.cfg.Temperature,
	}
	var system []string
	for _, m := range messages {
		switch m.Role {
		case domain.RoleSystem:
			system = append(system, m.Content)
		case domain.RoleAssistant:
			req.Messages = append(req.Messages, claudeMessage{Role: "assistant", Content: m.Content})
		default:
			req.Messages = append(req.Messages, claudeMessage{Role: "user", Content: m.Content})
		}
	}
	req.System = strings.Join(system, "\n\n")

	start := time.Now()
	var resp claudeResponse
	if err := invokeJSON(ctx, g.rt, g.cfg.Model, req, &resp); err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(providerName, g.cfg.Model, "error").Inc()
		return "", fmt.Errorf("claude generate: %w: %w", err, domain.ErrGenerationProviderError)
	}
	duration := time.Since(start)

	var sb strings.Builder
	for _, c := range resp.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}

	metrics.GenerationRequestsTotal.WithLabelValues(providerName, g.cfg.Model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(providerName, g.cfg.Model).Observe(duration.Seconds())
	metrics.GenerationTokensTotal.WithLabelValues(providerName, g.cfg.Model, "prompt").Add(float64(resp.Usage.InputTokens))
	metrics.GenerationTokensTotal.WithLabelValues(providerName, g.cfg.Model, "completion").Add(float64(resp.Usage.OutputTokens))

	g.logger.Debug("claude completion",
		zap.String("model", g.cfg.Model),
		zap.String("stop_reason", resp.StopReason),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("duration", duration))

	return strings.TrimSpace(sb.String()), nil
}
