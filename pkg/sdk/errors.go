package raggate

import (
	"errors"

	"github.com/kailas-cloud/raggate/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrConfiguration      = domain.ErrConfiguration
	ErrInvalidQuery       = domain.ErrInvalidQuery
	ErrGuardrailViolation = domain.ErrGuardrailViolation
	ErrInputBlocked       = domain.ErrInputBlocked
	ErrOutputBlocked      = domain.ErrOutputBlocked
	ErrRetrieval          = domain.ErrRetrieval
	ErrGeneration         = domain.ErrGeneration
	ErrRuntime            = domain.ErrRuntime
	ErrInvalidDocument    = domain.ErrInvalidDocument
)

// GuardrailViolationError carries the reasons and threat level of a blocked exchange.
type GuardrailViolationError = domain.GuardrailViolationError

var errUnhealthy = errors.New("raggate: unhealthy")
