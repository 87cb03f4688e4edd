package models

import "time"

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    time.Duration     `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// GenerationsResponse lists the caller's past generations
type GenerationsResponse struct {
	Generations []GenerationRecord `json:"generations"`
	Count       int                `json:"count"`
}

// DefaultsResponse wraps the saved form defaults, null when none were saved
type DefaultsResponse struct {
	Data map[string]interface{} `json:"data"`
}

// SavedResponse acknowledges a write that returns no resource
type SavedResponse struct {
	OK bool `json:"ok"`
}
