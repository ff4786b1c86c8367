package transport

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fastygo/composite/domain"
)

// ErrorInfo is the body of every failed request.
type ErrorInfo struct {
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
}

// NewErrorInfo stamps an error body for path.
func NewErrorInfo(path string, status int, message string) ErrorInfo {
	return ErrorInfo{
		Timestamp: time.Now().UTC(),
		Path:      path,
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
	}
}

// UpstreamMessage extracts the message of an ErrorInfo body received from
// another service, falling back to the raw body.
func UpstreamMessage(body string) string {
	var info ErrorInfo
	if err := json.Unmarshal([]byte(body), &info); err == nil && info.Message != "" {
		return info.Message
	}
	return body
}

// Health is the /actuator/health payload.
type Health struct {
	Status     domain.HealthStatus `json:"status"`
	Components map[string]any      `json:"components,omitempty"`
}
