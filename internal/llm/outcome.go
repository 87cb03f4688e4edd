package llm

import (
	"context"
	"errors"
	"net/http"

	"candidature-ai/internal/llm/types"
)

type (
	Completion  = types.Completion
	Provider    = types.Provider
	StatusError = types.StatusError
)

// Outcome classifies the result of one provider call
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeRetryable
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// statusOverloaded is Anthropic's "overloaded" status
const statusOverloaded = 529

// Classify decides whether a failed call is worth another attempt.
// Throttling, server errors, timeouts and transport failures are retryable;
// other client errors, cancellation and missing credentials are not.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeOK
	}
	if errors.Is(err, types.ErrMissingAPIKey) || errors.Is(err, context.Canceled) {
		return OutcomeFatal
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return OutcomeRetryable
	}

	var se *types.StatusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == http.StatusRequestTimeout,
			se.StatusCode == http.StatusConflict,
			se.StatusCode == http.StatusTooManyRequests,
			se.StatusCode == statusOverloaded,
			se.StatusCode >= 500:
			return OutcomeRetryable
		default:
			return OutcomeFatal
		}
	}
	return OutcomeRetryable
}
