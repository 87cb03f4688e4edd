package adapters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"candidature-ai/internal/logging/types"
)

const (
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiBlue   = "\033[34m"
	ansiGray   = "\033[90m"
	ansiReset  = "\033[0m"
)

// formatEntry renders an entry as a single line in the requested format.
// Unknown formats fall back to JSON.
func formatEntry(entry *types.LogEntry, format string, colorized bool) (string, error) {
	if strings.EqualFold(format, "text") {
		return formatText(entry, colorized), nil
	}
	return formatJSON(entry)
}

func formatJSON(entry *types.LogEntry) (string, error) {
	data := make(map[string]interface{}, len(entry.Fields)+3)
	for k, v := range entry.Fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		data[k] = v
	}
	data["level"] = entry.Level.String()
	data["message"] = entry.Message
	data["time"] = entry.Timestamp.Format(time.RFC3339)

	out, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal log entry: %w", err)
	}
	return string(out), nil
}

func formatText(entry *types.LogEntry, colorized bool) string {
	level := strings.ToUpper(entry.Level.String())
	if colorized {
		level = colorize(entry.Level, level)
	}

	var b strings.Builder
	b.WriteString(entry.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"))
	b.WriteString(" [")
	b.WriteString(level)
	b.WriteString("] ")
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Fields[k])
	}
	return b.String()
}

func colorize(level types.LogLevel, label string) string {
	var color string
	switch level {
	case types.DebugLevel:
		color = ansiGray
	case types.InfoLevel:
		color = ansiBlue
	case types.WarnLevel:
		color = ansiYellow
	default:
		color = ansiRed
	}
	return color + label + ansiReset
}
