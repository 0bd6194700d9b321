package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/raggate/internal/domain/threat"
)

var (
	// ErrConfiguration signals an unknown or unusable provider configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrInvalidQuery signals a blank or out-of-bounds question.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrGuardrailViolation signals that a guardrail blocked the exchange.
	ErrGuardrailViolation = errors.New("blocked by guardrails")
	// ErrInputBlocked signals that the question was blocked before retrieval.
	ErrInputBlocked = errors.New("input blocked")
	// ErrOutputBlocked signals that the generated answer was blocked.
	ErrOutputBlocked = errors.New("output blocked")
	// ErrRetrieval signals a vector-index failure or an out-of-range k.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrGeneration signals a model invocation failure or an empty answer.
	ErrGeneration = errors.New("generation failed")
	// ErrRuntime signals an infrastructure failure surfaced by the pipeline.
	ErrRuntime = errors.New("runtime failure")
	// ErrInvalidDocument signals an ingestion item that cannot be indexed.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationProviderError signals a generation provider failure.
	ErrGenerationProviderError = errors.New("generation provider error")
)

// ConfigurationError names the unsupported provider identifier.
type ConfigurationError struct {
	Kind ProviderKind
	Name string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: unsupported %s provider %q", ErrConfiguration.Error(), e.Kind, e.Name)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// InvalidQueryError carries the reason a question was rejected before validation.
type InvalidQueryError struct {
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return ErrInvalidQuery.Error() + ": " + e.Reason
}

func (e *InvalidQueryError) Unwrap() error { return ErrInvalidQuery }

// Direction tells which side of the exchange a guardrail inspected.
type Direction string

const (
	// DirectionInput is the user question.
	DirectionInput Direction = "input"
	// DirectionOutput is the generated answer.
	DirectionOutput Direction = "output"
)

// GuardrailViolationError is raised when guardrails block input or output.
type GuardrailViolationError struct {
	Direction Direction
	Reasons   []string
	Threat    threat.Level
}

func (e *GuardrailViolationError) Error() string {
	msg := ErrGuardrailViolation.Error()
	if e.Direction == DirectionOutput {
		msg = ErrOutputBlocked.Error() + ": " + msg
	}
	if len(e.Reasons) == 0 {
		return msg
	}
	return msg + ": " + strings.Join(e.Reasons, "; ")
}

// Is matches the generic guardrail sentinel and the direction-specific one.
func (e *GuardrailViolationError) Is(target error) bool {
	switch target {
	case ErrGuardrailViolation:
		return true
	case ErrInputBlocked:
		return e.Direction == DirectionInput
	case ErrOutputBlocked:
		return e.Direction == DirectionOutput
	}
	return false
}

// RetrievalError wraps a vector-index or embedding failure met while retrieving.
type RetrievalError struct {
	Op  string
	Err error
}

func (e *RetrievalError) Error() string {
	if e.Err == nil {
		return ErrRetrieval.Error() + ": " + e.Op
	}
	return ErrRetrieval.Error() + ": " + e.Op + ": " + e.Err.Error()
}

func (e *RetrievalError) Unwrap() []error { return causeChain(ErrRetrieval, e.Err) }

// GenerationError wraps a model invocation failure or an empty answer.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return ErrGeneration.Error() + ": " + e.Op
	}
	return ErrGeneration.Error() + ": " + e.Op + ": " + e.Err.Error()
}

func (e *GenerationError) Unwrap() []error { return causeChain(ErrGeneration, e.Err) }

// RuntimeFailure is the single kind the pipeline surfaces for stage failures.
// The original cause stays reachable through errors.Is / errors.As.
type RuntimeFailure struct {
	Stage string
	Err   error
}

func (e *RuntimeFailure) Error() string {
	return fmt.Sprintf("%s at %s: %v", ErrRuntime.Error(), e.Stage, e.Err)
}

func (e *RuntimeFailure) Unwrap() []error { return causeChain(ErrRuntime, e.Err) }

func causeChain(kind, cause error) []error {
	if cause == nil {
		return []error{kind}
	}
	return []error{kind, cause}
}
