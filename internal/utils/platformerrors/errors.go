// Package platformerrors carries typed, layered errors from the domain up to
// the HTTP edge, where they become status codes and a uniform JSON body.
package platformerrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

type requestIDKey struct{}

// WithRequestID stores the request id so errors created further down the stack can carry it.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	requestID, _ := ctx.Value(requestIDKey{}).(string)
	return requestID
}

// ErrorType is the category of an error; it decides the HTTP status.
type ErrorType string

const (
	ErrorTypeNotFound      ErrorType = "NOT_FOUND"
	ErrorTypeValidation    ErrorType = "VALIDATION"
	ErrorTypeConflict      ErrorType = "CONFLICT"
	ErrorTypeUnauthorized  ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden     ErrorType = "FORBIDDEN"
	ErrorTypeInternal      ErrorType = "INTERNAL"
	ErrorTypeExternal      ErrorType = "EXTERNAL"
	ErrorTypeDatabaseError ErrorType = "DATABASE_ERROR"
)

type typeInfo struct {
	status int
	wire   string
	// client errors log at warn, everything else at error
	clientFault bool
}

var typeTable = map[ErrorType]typeInfo{
	ErrorTypeNotFound:      {http.StatusNotFound, "not_found_error", true},
	ErrorTypeValidation:    {http.StatusBadRequest, "validation_error", true},
	ErrorTypeConflict:      {http.StatusConflict, "conflict_error", true},
	ErrorTypeUnauthorized:  {http.StatusUnauthorized, "unauthorized_error", true},
	ErrorTypeForbidden:     {http.StatusForbidden, "forbidden_error", true},
	ErrorTypeExternal:      {http.StatusBadGateway, "external_error", false},
	ErrorTypeInternal:      {http.StatusInternalServerError, "internal_error", false},
	ErrorTypeDatabaseError: {http.StatusInternalServerError, "internal_error", false},
}

func infoFor(t ErrorType) typeInfo {
	if info, ok := typeTable[t]; ok {
		return info
	}
	return typeTable[ErrorTypeInternal]
}

// Layer names the application layer an error was raised in.
type Layer string

const (
	LayerDomain         Layer = "domain"
	LayerHandler        Layer = "handler"
	LayerInfrastructure Layer = "infrastructure"
)

// PlatformError is an error with a category, a stable code and request context.
// Message is safe to show to clients; Err is only logged.
type PlatformError struct {
	UUID      string
	Type      ErrorType
	Message   string
	Err       error
	Context   map[string]any
	RequestID string
	Layer     Layer
	Timestamp time.Time
}

func (e *PlatformError) Error() string {
	head := fmt.Sprintf("[%s][%s][%s] %s", e.Layer, e.Type, e.UUID, e.Message)
	if e.Err == nil {
		return head
	}
	return head + ": " + e.Err.Error()
}

func (e *PlatformError) Unwrap() error {
	return e.Err
}

// NewError builds a PlatformError. An empty code is recorded as "unclassified".
func NewError(ctx context.Context, layer Layer, errorType ErrorType, message string, err error, code string) *PlatformError {
	return NewErrorWithContext(ctx, layer, errorType, message, err, code, nil)
}

// NewErrorWithContext is NewError with extra fields attached to the log line.
func NewErrorWithContext(ctx context.Context, layer Layer, errorType ErrorType, message string, err error, code string, fields map[string]any) *PlatformError {
	if code == "" {
		code = "unclassified"
	}
	var copied map[string]any
	if len(fields) > 0 {
		copied = make(map[string]any, len(fields))
		for k, v := range fields {
			copied[k] = v
		}
	}
	return &PlatformError{
		UUID:      code,
		Type:      errorType,
		Message:   message,
		Err:       err,
		Context:   copied,
		RequestID: requestIDFromContext(ctx),
		Layer:     layer,
		Timestamp: time.Now().UTC(),
	}
}

// AsError re-raises err at layer. An inner PlatformError keeps its type and
// code with message prefixed; anything else becomes INTERNAL.
func AsError(ctx context.Context, layer Layer, err error, message string) *PlatformError {
	if err == nil {
		return nil
	}
	var inner *PlatformError
	if errors.As(err, &inner) {
		return NewError(ctx, layer, inner.Type, message+": "+inner.Message, inner, inner.UUID)
	}
	return NewError(ctx, layer, ErrorTypeInternal, message, err, "")
}

// LogError writes err as one structured event.
func LogError(logger zerolog.Logger, err *PlatformError) {
	if err == nil {
		return
	}
	event := logger.Error()
	if infoFor(err.Type).clientFault {
		event = logger.Warn()
	}
	event = event.
		Str("error_code", err.UUID).
		Str("error_type", string(err.Type)).
		Str("layer", string(err.Layer)).
		Time("timestamp_utc", err.Timestamp)
	if err.RequestID != "" {
		event = event.Str("request_id", err.RequestID)
	}
	if len(err.Context) > 0 {
		event = event.Fields(err.Context)
	}
	if err.Err != nil {
		event = event.Err(err.Err)
	}
	event.Msg(err.Message)
}
