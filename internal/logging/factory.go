package logging

import (
	"fmt"

	"candidature-ai/internal/config"
	"candidature-ai/internal/logging/adapters"
	"candidature-ai/internal/logging/types"
)

// CreateAdapter builds an adapter from its configuration block
func CreateAdapter(cfg config.AdapterConfig) (types.LogAdapter, error) {
	switch cfg.Type {
	case "stdout":
		return adapters.NewStdoutAdapter(cfg.Name, adapters.StdoutConfig{
			Format:    stringOption(cfg.Options, "format", "json"),
			Colorized: boolOption(cfg.Options, "colorized", false),
		}), nil
	case "file":
		return adapters.NewFileAdapter(cfg.Name, adapters.FileConfig{
			FilePath: stringOption(cfg.Options, "file_path", ""),
			Format:   stringOption(cfg.Options, "format", "json"),
			MaxSize:  int64Option(cfg.Options, "max_size", 0),
		})
	default:
		return nil, fmt.Errorf("unsupported adapter type: %s", cfg.Type)
	}
}

func stringOption(options map[string]interface{}, key, def string) string {
	if s, ok := options[key].(string); ok {
		return s
	}
	return def
}

func boolOption(options map[string]interface{}, key string, def bool) bool {
	if b, ok := options[key].(bool); ok {
		return b
	}
	return def
}

// YAML decodes integers as int; JSON-sourced maps use float64.
func int64Option(options map[string]interface{}, key string, def int64) int64 {
	switch v := options[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return def
}
