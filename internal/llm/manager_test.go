package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"candidature-ai/internal/config"
	"candidature-ai/pkg/utils"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Complete(ctx context.Context, req Completion) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) Name() string { return "mock" }

func testConfig(maxRetries int) *config.Config {
	cfg := config.Default()
	cfg.LLM.APIKey = "test-key"
	cfg.LLM.MaxRetries = maxRetries
	cfg.LLM.RetryBackoff = time.Millisecond
	cfg.LLM.Timeout = time.Second
	cfg.LLM.Breaker.MaxFailures = 3
	cfg.LLM.Breaker.ResetTimeout = time.Minute
	return cfg
}

func newTestManager(cfg *config.Config, p Provider) (*Manager, *[]time.Duration) {
	m := NewManagerWithProvider(cfg, p)
	var waits []time.Duration
	m.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return m, &waits
}

var req = Completion{System: "sys", User: "user", Temperature: 0.4, MaxTokens: 100, JSONMode: true}

func TestManager_Success(t *testing.T) {
	p := new(MockProvider)
	p.On("Complete", mock.Anything, req).Return(`{"ok":true}`, nil).Once()

	m, _ := newTestManager(testConfig(1), p)
	res, err := m.Complete(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, res.Text)
	assert.Equal(t, 1, res.Attempts)
	p.AssertExpectations(t)
}

func TestManager_RetriesRetryableOnce(t *testing.T) {
	p := new(MockProvider)
	p.On("Complete", mock.Anything, req).Return("", &StatusError{StatusCode: 503}).Once()
	p.On("Complete", mock.Anything, req).Return(`{}`, nil).Once()

	m, waits := newTestManager(testConfig(1), p)
	res, err := m.Complete(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, []time.Duration{time.Millisecond}, *waits)
	p.AssertExpectations(t)
}

func TestManager_RetriesExhausted(t *testing.T) {
	p := new(MockProvider)
	p.On("Complete", mock.Anything, req).Return("", &StatusError{StatusCode: 429})

	m, waits := newTestManager(testConfig(2), p)
	_, err := m.Complete(context.Background(), req)

	assert.ErrorIs(t, err, utils.ErrProviderError)
	p.AssertNumberOfCalls(t, "Complete", 3)
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, *waits)
}

func TestManager_FatalIsNotRetried(t *testing.T) {
	p := new(MockProvider)
	p.On("Complete", mock.Anything, req).Return("", &StatusError{StatusCode: 400})

	m, _ := newTestManager(testConfig(2), p)
	_, err := m.Complete(context.Background(), req)

	assert.ErrorIs(t, err, utils.ErrProviderError)
	p.AssertNumberOfCalls(t, "Complete", 1)
	assert.Equal(t, CircuitClosed, m.BreakerState())
}

func TestManager_TimeoutMapsToProviderTimeout(t *testing.T) {
	p := new(MockProvider)
	p.On("Complete", mock.Anything, req).Return("", context.DeadlineExceeded)

	m, _ := newTestManager(testConfig(1), p)
	_, err := m.Complete(context.Background(), req)

	assert.ErrorIs(t, err, utils.ErrProviderTimeout)
	p.AssertNumberOfCalls(t, "Complete", 2)
}

func TestManager_NotConfigured(t *testing.T) {
	cfg := testConfig(1)
	cfg.LLM.APIKey = ""

	m, err := NewManager(cfg)
	require.NoError(t, err)

	assert.False(t, m.Configured())
	assert.Equal(t, "none", m.GetProviderName())
	_, err = m.Complete(context.Background(), req)
	assert.ErrorIs(t, err, utils.ErrProviderMisconfigured)
	assert.ErrorIs(t, m.CheckHealth(context.Background()), utils.ErrProviderMisconfigured)
}

func TestManager_CircuitOpensAndFailsFast(t *testing.T) {
	p := new(MockProvider)
	p.On("Complete", mock.Anything, req).Return("", errors.New("connection refused"))

	m, _ := newTestManager(testConfig(0), p)
	for i := 0; i < 3; i++ {
		_, err := m.Complete(context.Background(), req)
		assert.ErrorIs(t, err, utils.ErrProviderError)
	}
	assert.Equal(t, CircuitOpen, m.BreakerState())

	_, err := m.Complete(context.Background(), req)
	assert.ErrorIs(t, err, utils.ErrProviderError)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.ErrorIs(t, m.CheckHealth(context.Background()), ErrCircuitOpen)
	p.AssertNumberOfCalls(t, "Complete", 3)
}

func TestNewManager_UnsupportedProvider(t *testing.T) {
	cfg := testConfig(1)
	cfg.LLM.Provider = "mistral"

	_, err := NewManager(cfg)
	assert.Error(t, err)
}

func TestManager_RecoversAfterHalfOpenCall(t *testing.T) {
	tests := []struct {
		name      string
		trialText string
		trialErr  error
		after     CircuitState
	}{
		{"trial call succeeds", `{}`, nil, CircuitClosed},
		{"trial call retryable", "", &StatusError{StatusCode: 503}, CircuitOpen},
		{"trial call rejected", "", &StatusError{StatusCode: 400}, CircuitHalfOpen},
		{"trial call canceled", "", context.Canceled, CircuitHalfOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(0)
			cfg.LLM.Breaker.MaxFailures = 1
			cfg.LLM.Breaker.ResetTimeout = time.Minute

			p := new(MockProvider)
			p.On("Complete", mock.Anything, req).Return("", &StatusError{StatusCode: 503}).Once()
			p.On("Complete", mock.Anything, req).Return(tt.trialText, tt.trialErr).Once()
			p.On("Complete", mock.Anything, req).Return(`{"ok":true}`, nil)

			m, _ := newTestManager(cfg, p)
			now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
			m.breaker.now = func() time.Time { return now }

			_, err := m.Complete(context.Background(), req)
			require.Error(t, err)
			require.Equal(t, CircuitOpen, m.BreakerState())

			now = now.Add(2 * time.Minute)
			_, err = m.Complete(context.Background(), req)
			if tt.trialErr == nil {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
			assert.Equal(t, tt.after, m.BreakerState())

			now = now.Add(2 * time.Minute)
			res, err := m.Complete(context.Background(), req)
			require.NoError(t, err, "healthy provider is reachable again")
			assert.Equal(t, `{"ok":true}`, res.Text)
			assert.Equal(t, CircuitClosed, m.BreakerState())
		})
	}
}
