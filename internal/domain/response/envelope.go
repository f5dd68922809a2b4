// Package response provides the uniform success/error envelope returned by
// every lookup operation.
package response

import (
	"encoding/json"
	"time"
)

// StatusClass classifies the outcome of an operation. It is the only carrier
// of transport-status intent; transports map it to their own codes.
type StatusClass string

// Status classes.
const (
	StatusOK              StatusClass = "ok"
	StatusBadRequest      StatusClass = "badRequest"
	StatusUnauthorized    StatusClass = "unauthorized"
	StatusForbidden       StatusClass = "forbidden"
	StatusNotFound        StatusClass = "notFound"
	StatusTooManyRequests StatusClass = "tooManyRequests"
	StatusInternalError   StatusClass = "internalError"
)

// redactedMessage replaces internal error messages in production.
const redactedMessage = "Something went wrong"

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// Envelope wraps the result of an operation.
type Envelope struct {
	Success   bool
	Data      any
	Message   string
	Error     string
	Status    StatusClass
	Timestamp time.Time
}

// wireEnvelope is the serialized shape.
type wireEnvelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Success creates a successful envelope.
func Success(data any, message string) *Envelope {
	if message == "" {
		message = "Success"
	}
	return &Envelope{
		Success:   true,
		Data:      data,
		Message:   message,
		Status:    StatusOK,
		Timestamp: timeNow().UTC(),
	}
}

// Error creates a failed envelope.
func Error(message, detail string, class StatusClass) *Envelope {
	if class == "" || class == StatusOK {
		class = StatusInternalError
	}
	return &Envelope{
		Success:   false,
		Message:   message,
		Error:     detail,
		Status:    class,
		Timestamp: timeNow().UTC(),
	}
}

// NotFound creates a notFound envelope.
func NotFound(message string) *Envelope {
	if message == "" {
		message = "Resource not found"
	}
	return Error(message, "", StatusNotFound)
}

// BadRequest creates a badRequest envelope.
func BadRequest(message, detail string) *Envelope {
	if message == "" {
		message = "Bad request"
	}
	return Error(message, detail, StatusBadRequest)
}

// Unauthorized creates an unauthorized envelope.
func Unauthorized(message string) *Envelope {
	if message == "" {
		message = "Unauthorized"
	}
	return Error(message, "", StatusUnauthorized)
}

// Forbidden creates a forbidden envelope.
func Forbidden(message string) *Envelope {
	if message == "" {
		message = "Forbidden"
	}
	return Error(message, "", StatusForbidden)
}

// TooManyRequests creates a tooManyRequests envelope.
func TooManyRequests(message string) *Envelope {
	if message == "" {
		message = "Too many requests"
	}
	return Error(message, "", StatusTooManyRequests)
}

// Internal creates an internalError envelope.
func Internal(message, detail string) *Envelope {
	return Error(message, detail, StatusInternalError)
}

// Redacted returns a copy without error detail. Internal errors also get a
// generic message. The status class is preserved.
func (e *Envelope) Redacted() *Envelope {
	out := *e
	if out.Success {
		return &out
	}
	out.Error = ""
	if out.Status == StatusInternalError {
		out.Message = redactedMessage
	}
	return &out
}

// MarshalJSON encodes the envelope in its wire shape.
func (e *Envelope) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireEnvelope{
		Success:   e.Success,
		Message:   e.Message,
		Data:      e.Data,
		Error:     e.Error,
		Timestamp: e.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}
