package logging

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"candidature-ai/internal/logging/types"
)

type (
	LogLevel   = types.LogLevel
	LogEntry   = types.LogEntry
	LogAdapter = types.LogAdapter
	Logger     = types.Logger
)

const (
	DebugLevel = types.DebugLevel
	InfoLevel  = types.InfoLevel
	WarnLevel  = types.WarnLevel
	ErrorLevel = types.ErrorLevel
	FatalLevel = types.FatalLevel
)

// sink is shared by a logger and every child derived from it with WithField,
// so level changes and adapter registration are visible to all of them.
type sink struct {
	mu       sync.RWMutex
	adapters []types.LogAdapter
	level    LogLevel
}

// MultiLogger fans each entry out to all registered adapters
type MultiLogger struct {
	sink   *sink
	ctx    context.Context
	fields map[string]interface{}
}

// NewMultiLogger creates a logger with no adapters at info level
func NewMultiLogger() *MultiLogger {
	return &MultiLogger{
		sink:   &sink{level: InfoLevel},
		ctx:    context.Background(),
		fields: map[string]interface{}{},
	}
}

func (l *MultiLogger) Debug(message string, fields ...map[string]interface{}) {
	l.log(DebugLevel, message, fields)
}

func (l *MultiLogger) Info(message string, fields ...map[string]interface{}) {
	l.log(InfoLevel, message, fields)
}

func (l *MultiLogger) Warn(message string, fields ...map[string]interface{}) {
	l.log(WarnLevel, message, fields)
}

func (l *MultiLogger) Error(message string, fields ...map[string]interface{}) {
	l.log(ErrorLevel, message, fields)
}

// Fatal logs, flushes the adapters and exits the process
func (l *MultiLogger) Fatal(message string, fields ...map[string]interface{}) {
	l.log(FatalLevel, message, fields)
	_ = l.Close()
	os.Exit(1)
}

func (l *MultiLogger) log(level LogLevel, message string, extra []map[string]interface{}) {
	l.sink.mu.RLock()
	defer l.sink.mu.RUnlock()

	if level < l.sink.level {
		return
	}

	fields := make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		fields[k] = v
	}
	for _, m := range extra {
		for k, v := range m {
			fields[k] = v
		}
	}

	entry := &types.LogEntry{
		Level:     level,
		Message:   message,
		Timestamp: time.Now(),
		Context:   l.ctx,
		Fields:    fields,
	}
	for _, adapter := range l.sink.adapters {
		if err := adapter.Write(entry); err != nil {
			// stderr, never back into the logger
			fmt.Fprintf(os.Stderr, "logging adapter %s error: %v\n", adapter.Name(), err)
		}
	}
}

func (l *MultiLogger) derive(ctx context.Context, add map[string]interface{}) *MultiLogger {
	fields := make(map[string]interface{}, len(l.fields)+len(add))
	for k, v := range l.fields {
		fields[k] = v
	}
	for k, v := range add {
		fields[k] = v
	}
	return &MultiLogger{sink: l.sink, ctx: ctx, fields: fields}
}

func (l *MultiLogger) WithContext(ctx context.Context) Logger {
	return l.derive(ctx, nil)
}

func (l *MultiLogger) WithField(key string, value interface{}) Logger {
	return l.derive(l.ctx, map[string]interface{}{key: value})
}

func (l *MultiLogger) WithFields(fields map[string]interface{}) Logger {
	return l.derive(l.ctx, fields)
}

func (l *MultiLogger) SetLevel(level LogLevel) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = level
}

func (l *MultiLogger) GetLevel() LogLevel {
	l.sink.mu.RLock()
	defer l.sink.mu.RUnlock()
	return l.sink.level
}

// AddAdapter registers an adapter; names must be unique
func (l *MultiLogger) AddAdapter(adapter types.LogAdapter) error {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	for _, existing := range l.sink.adapters {
		if existing.Name() == adapter.Name() {
			return fmt.Errorf("adapter %s already exists", adapter.Name())
		}
	}
	l.sink.adapters = append(l.sink.adapters, adapter)
	return nil
}

// Health reports the first unhealthy adapter, if any
func (l *MultiLogger) Health() error {
	l.sink.mu.RLock()
	defer l.sink.mu.RUnlock()

	for _, adapter := range l.sink.adapters {
		if err := adapter.Health(); err != nil {
			return fmt.Errorf("adapter %s: %w", adapter.Name(), err)
		}
	}
	return nil
}

// Close closes all adapters
func (l *MultiLogger) Close() error {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	var errs []error
	for _, adapter := range l.sink.adapters {
		if err := adapter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("adapter %s: %w", adapter.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// ParseLogLevel parses a level name, defaulting to info
func ParseLogLevel(levelStr string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	case "fatal":
		return FatalLevel
	default:
		return InfoLevel
	}
}
