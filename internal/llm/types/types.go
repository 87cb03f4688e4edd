package types

import (
	"context"
	"errors"
	"fmt"
)

// Completion is a single prompt sent to a generation provider
type Completion struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
	// JSONMode forces the provider to answer with one JSON object
	JSONMode bool
}

// Provider is a text completion backend
type Provider interface {
	// Complete returns the raw text of the provider's answer
	Complete(ctx context.Context, req Completion) (string, error)

	// Name returns the name of the provider
	Name() string
}

// ErrMissingAPIKey is returned by providers constructed without a credential
var ErrMissingAPIKey = errors.New("provider API key is not configured")

// StatusError is a non-success HTTP answer from a provider API
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}
