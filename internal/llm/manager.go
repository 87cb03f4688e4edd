package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"candidature-ai/internal/config"
	"candidature-ai/internal/logging"
	"candidature-ai/pkg/utils"
)

// Result is a completed call together with the number of attempts it took
type Result struct {
	Text     string
	Attempts int
}

// Manager wraps the configured provider with a per-attempt timeout, bounded
// retries for retryable failures and a circuit breaker
type Manager struct {
	config   *config.Config
	provider Provider
	breaker  *CircuitBreaker
	logger   logging.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewManager creates the provider named in the configuration. Without an API
// key no provider is created and every call fails with ProviderMisconfigured.
func NewManager(cfg *config.Config) (*Manager, error) {
	var provider Provider
	if cfg.LLMConfigured() {
		p, err := NewLLMFactory(cfg).CreateProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM provider: %w", err)
		}
		provider = p
	}
	return NewManagerWithProvider(cfg, provider), nil
}

// NewManagerWithProvider creates a manager around an existing provider
func NewManagerWithProvider(cfg *config.Config, provider Provider) *Manager {
	m := &Manager{
		config:   cfg,
		provider: provider,
		breaker:  NewCircuitBreaker(cfg.LLM.Breaker.MaxFailures, cfg.LLM.Breaker.ResetTimeout),
		logger:   logging.GetGlobalLogger().WithField("component", "llm_manager"),
		sleep:    sleepContext,
	}
	if provider != nil {
		m.logger.Info("LLM manager ready", map[string]interface{}{
			"provider":    provider.Name(),
			"model":       cfg.LLM.Model,
			"max_retries": cfg.LLM.MaxRetries,
		})
	} else {
		m.logger.Warn("LLM provider not configured, generation requests will be rejected", map[string]interface{}{
			"provider": cfg.LLM.Provider,
		})
	}
	return m
}

// Configured reports whether a provider with a credential is available
func (m *Manager) Configured() bool {
	return m.provider != nil
}

// GetProviderName returns the name of the current provider
func (m *Manager) GetProviderName() string {
	if m.provider != nil {
		return m.provider.Name()
	}
	return "none"
}

// BreakerState returns the state of the provider circuit breaker
func (m *Manager) BreakerState() CircuitState {
	return m.breaker.State()
}

// CheckHealth reports whether generation calls can currently be attempted.
// It does not call the provider.
func (m *Manager) CheckHealth(context.Context) error {
	if m.provider == nil {
		return utils.NewProviderMisconfiguredError()
	}
	if m.breaker.State() == CircuitOpen {
		return ErrCircuitOpen
	}
	return nil
}

// Complete runs req against the provider. Retryable failures are retried up
// to llm.max_retries times with exponential backoff. The returned error is a
// utils.CustomError of kind ProviderMisconfigured, ProviderError or
// ProviderTimeout.
func (m *Manager) Complete(ctx context.Context, req Completion) (*Result, error) {
	if m.provider == nil {
		return nil, utils.NewProviderMisconfiguredError()
	}

	maxAttempts := m.config.LLM.MaxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if !m.breaker.Allow() {
			return nil, utils.NewProviderError(ErrCircuitOpen)
		}

		text, err := m.attempt(ctx, req)
		outcome := Classify(err)
		if outcome == OutcomeOK {
			m.breaker.RecordSuccess()
			return &Result{Text: text, Attempts: attempt}, nil
		}
		lastErr = err

		fields := map[string]interface{}{
			"provider": m.provider.Name(),
			"attempt":  attempt,
			"outcome":  outcome.String(),
			"error":    err.Error(),
		}
		if outcome == OutcomeFatal {
			m.breaker.Release()
			m.logger.Error("Generation provider call failed", fields)
			break
		}
		m.breaker.RecordFailure()

		if attempt == maxAttempts || ctx.Err() != nil {
			m.logger.Error("Generation provider call failed", fields)
			break
		}
		m.logger.Warn("Generation provider call failed, retrying", fields)
		if err := m.sleep(ctx, utils.Backoff(m.config.LLM.RetryBackoff, attempt-1)); err != nil {
			break
		}
	}

	return nil, providerFailure(ctx, lastErr)
}

func (m *Manager) attempt(ctx context.Context, req Completion) (string, error) {
	if m.config.LLM.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.LLM.Timeout)
		defer cancel()
	}
	return m.provider.Complete(ctx, req)
}

func providerFailure(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return utils.NewProviderTimeoutError(err)
	}
	return utils.NewProviderError(err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
