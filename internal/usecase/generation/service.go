// Package generation builds the context block and calls the answer model.
package generation

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/raggate/internal/domain"
)

// GeneratorSource resolves the generation backend on demand.
type GeneratorSource func(ctx context.Context) (domain.Generator, error)

// Service composes the prompt and returns the model answer.
// Output guardrails are the caller's job.
type Service struct {
	source GeneratorSource
	logger *zap.Logger
}

// New creates an answer generator. The backend is resolved on first Generate.
func New(source GeneratorSource, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, logger: logger}
}

// Generate answers question from the context block.
func (s *Service) Generate(ctx context.Context, question, contextBlock string) (string, error) {
	gen, err := s.source(ctx)
	if err != nil {
		return "", &domain.GenerationError{Op: "resolve generator", Err: err}
	}

	msgs := []domain.Message{
		{Role: domain.RoleSystem, Content: SystemPrompt},
		{Role: domain.RoleUser, Content: userPrompt(question, contextBlock)},
	}

	start := time.Now()
	text, err := gen.Generate(ctx, msgs)
	if err != nil {
		return "", &domain.GenerationError{Op: "generate", Err: err}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &domain.GenerationError{Op: "generate", Err: errors.New("empty answer")}
	}

	s.logger.Debug("Generated answer",
		zap.Int("context_runes", len([]rune(contextBlock))),
		zap.Int("answer_runes", len([]rune(text))),
		zap.Duration("elapsed", time.Since(start)),
	)
	return text, nil
}
