package observability

import (
	"context"

	"github.com/google/uuid"
)

// Attribute keys shared by logs and metric tags.
const (
	CorrelationIDKey = "correlation_id"
	RequestIDKey     = "request_id"
	EmployeeIDKey    = "employee_id"
	OperationKey     = "operation"
	DurationKey      = "duration_ms"
	ErrorKey         = "error"
	StatusKey        = "status"
)

// scope is everything the log handler lifts out of a context. It is stored
// as one value so each With* call copies it instead of stacking keys.
type scope struct {
	correlationID string
	requestID     string
	employeeID    string
}

type scopeKey struct{}

func scopeFrom(ctx context.Context) scope {
	if ctx == nil {
		return scope{}
	}
	s, _ := ctx.Value(scopeKey{}).(scope)
	return s
}

func withScope(ctx context.Context, update func(*scope)) context.Context {
	s := scopeFrom(ctx)
	update(&s)
	return context.WithValue(ctx, scopeKey{}, s)
}

// WithCorrelationID tags ctx with id, or with a fresh UUID when id is empty.
// The correlation ID follows a suggestion from generation to notification.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return withScope(ctx, func(s *scope) { s.correlationID = id })
}

// CorrelationIDFromContext returns the correlation ID, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	return scopeFrom(ctx).correlationID
}

// WithRequestID tags ctx with id, or with a fresh UUID when id is empty.
// Events record it as their causation ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return withScope(ctx, func(s *scope) { s.requestID = id })
}

// RequestIDFromContext returns the request ID, or "".
func RequestIDFromContext(ctx context.Context) string {
	return scopeFrom(ctx).requestID
}

// WithEmployeeID scopes ctx to one employee while they are analysed.
func WithEmployeeID(ctx context.Context, id string) context.Context {
	return withScope(ctx, func(s *scope) { s.employeeID = id })
}

// EmployeeIDFromContext returns the employee being analysed, or "".
func EmployeeIDFromContext(ctx context.Context) string {
	return scopeFrom(ctx).employeeID
}

// NewCommandContext prepares the context of a single CLI invocation or
// worker tick. An empty correlationID gets a fresh one.
func NewCommandContext(ctx context.Context, correlationID string) context.Context {
	return WithCorrelationID(WithRequestID(ctx, ""), correlationID)
}
