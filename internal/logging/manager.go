package logging

import (
	"fmt"
	"sync"

	"candidature-ai/internal/config"
	"candidature-ai/internal/logging/adapters"
)

// NewFromConfig builds a logger from the logging section. Without any
// adapter blocks it falls back to a single stdout adapter.
func NewFromConfig(cfg *config.Config) (*MultiLogger, error) {
	logger := NewMultiLogger()
	logger.SetLevel(ParseLogLevel(cfg.Logging.Level))

	enabled := 0
	for _, ac := range cfg.Logging.Adapters {
		if !ac.Enabled {
			continue
		}
		adapter, err := CreateAdapter(ac)
		if err != nil {
			return nil, fmt.Errorf("failed to create adapter %s: %w", ac.Name, err)
		}
		if err := logger.AddAdapter(adapter); err != nil {
			return nil, err
		}
		enabled++
	}

	if enabled == 0 {
		_ = logger.AddAdapter(adapters.NewStdoutAdapter("stdout", adapters.StdoutConfig{
			Format: cfg.Logging.Format,
		}))
	}
	return logger, nil
}

var (
	globalMu     sync.RWMutex
	globalLogger Logger
)

// InitializeLogging installs the process-wide logger
func InitializeLogging(cfg *config.Config) error {
	logger, err := NewFromConfig(cfg)
	if err != nil {
		return err
	}
	SetGlobalLogger(logger)
	return nil
}

// SetGlobalLogger replaces the process-wide logger
func SetGlobalLogger(logger Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// GetGlobalLogger returns the process-wide logger, creating a JSON stdout
// logger on first use when InitializeLogging was never called.
func GetGlobalLogger() Logger {
	globalMu.RLock()
	logger := globalLogger
	globalMu.RUnlock()
	if logger != nil {
		return logger
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		fallback := NewMultiLogger()
		_ = fallback.AddAdapter(adapters.NewStdoutAdapter("fallback_stdout", adapters.StdoutConfig{Format: "json"}))
		globalLogger = fallback
	}
	return globalLogger
}

// CloseLogging flushes and closes the process-wide logger
func CloseLogging() error {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger == nil {
		return nil
	}
	return globalLogger.Close()
}

// LogWithRequestID returns the global logger tagged with a request id
func LogWithRequestID(requestID string) Logger {
	return GetGlobalLogger().WithField("request_id", requestID)
}
