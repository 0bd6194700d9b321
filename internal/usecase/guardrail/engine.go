package guardrail

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/raggate/internal/domain"
	"github.com/kailas-cloud/raggate/internal/domain/threat"
	"github.com/kailas-cloud/raggate/internal/domain/validation"
	"github.com/kailas-cloud/raggate/internal/logger"
	"github.com/kailas-cloud/raggate/internal/metrics"
)

// Config toggles the checkers. It is immutable per engine.
type Config struct {
	InputValidation    bool
	InjectionDetection bool
	OutputValidation   bool
	// StrictMode stops at the first failing checker and returns an error.
	StrictMode bool
	// Logging emits a debug line for every checker outcome.
	Logging bool
	// MinLength and MaxLength bound questions, in runes.
	MinLength int
	MaxLength int
	// LeakMarkers are extra literal fragments the output validator rejects.
	LeakMarkers []string
}

// Verdict is the engine's answer for one direction.
// Sanitized is blank whenever Safe is false.
type Verdict struct {
	Safe      bool
	Reasons   []string
	Threat    threat.Level
	Sanitized string
}

// Engine composes the checkers into one gate per direction.
type Engine struct {
	cfg       Config
	input     *InputValidator
	injection *InjectionDetector
	output    *OutputValidator
	logger    *zap.Logger
}

// NewEngine creates an engine with the built-in checkers.
func NewEngine(cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:       cfg,
		input:     NewInputValidator(cfg.MinLength, cfg.MaxLength),
		injection: NewInjectionDetector(),
		output:    NewOutputValidator(cfg.LeakMarkers...),
		logger:    logger,
	}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// InputBounds exposes the length checker used when input validation is off.
func (e *Engine) InputBounds() *InputValidator { return e.input }

type check struct {
	name string
	run  func(string) validation.Result
}

// CheckInput runs the input validator, then the injection detector, on text.
// The detector sees the trimmed text. In strict mode the first failure returns
// a *domain.GuardrailViolationError; otherwise failures are reported in the Verdict.
func (e *Engine) CheckInput(_ context.Context, text string) (Verdict, error) {
	var checks []check
	if e.cfg.InputValidation {
		checks = append(checks, check{"input_validator", e.input.Validate})
	}
	if e.cfg.InjectionDetection {
		checks = append(checks, check{"injection_detector", e.injection.Detect})
	}
	return e.run(domain.DirectionInput, strings.TrimSpace(text), checks)
}

// CheckOutput runs the output validator on text. Blank output is always safe.
func (e *Engine) CheckOutput(_ context.Context, text string) (Verdict, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Verdict{Safe: true, Threat: threat.None}, nil
	}
	var checks []check
	if e.cfg.OutputValidation {
		checks = append(checks, check{"output_validator", e.output.Validate})
	}
	return e.run(domain.DirectionOutput, trimmed, checks)
}

func (e *Engine) run(dir domain.Direction, text string, checks []check) (Verdict, error) {
	level := threat.None
	var reasons []string

	for _, c := range checks {
		res := c.run(text)
		if e.cfg.Logging {
			e.logger.Debug("Guardrail check",
				zap.String("direction", string(dir)),
				zap.String("checker", c.name),
				zap.Bool("valid", res.Valid()),
				zap.String("reason", res.Reason()),
				zap.String("threat", res.Threat().String()),
			)
		}
		if res.Valid() {
			continue
		}

		level = threat.Combine(level, res.Threat())
		reasons = append(reasons, res.Reason())

		if e.cfg.StrictMode {
			v := Verdict{Reasons: reasons, Threat: level}
			e.report(dir, text, v)
			return v, &domain.GuardrailViolationError{Direction: dir, Reasons: reasons, Threat: level}
		}
	}

	if len(reasons) > 0 {
		v := Verdict{Reasons: reasons, Threat: level}
		e.report(dir, text, v)
		return v, nil
	}
	return Verdict{Safe: true, Threat: threat.None, Sanitized: text}, nil
}

// report logs and counts every unsafe verdict, strict or not.
func (e *Engine) report(dir domain.Direction, text string, v Verdict) {
	metrics.GuardrailViolationsTotal.WithLabelValues(string(dir), v.Threat.String()).Inc()
	e.logger.Warn("Guardrail violation",
		zap.String("direction", string(dir)),
		zap.Strings("reasons", v.Reasons),
		zap.String("threat", v.Threat.String()),
		zap.Bool("strict", e.cfg.StrictMode),
		logger.Preview(text),
	)
}
