package core

import (
	"context"
	"log/slog"
	"time"

	"retreatcore/pkg/domain"
)

// AuditStatus captures the outcome recorded for a service operation.
type AuditStatus string

// Audit entry statuses.
const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusError   AuditStatus = "error"
)

// AuditEntry describes one service operation for the audit trail.
type AuditEntry struct {
	ID        string            `json:"id"`
	Operation string            `json:"operation"`
	Status    AuditStatus       `json:"status"`
	Caller    string            `json:"caller,omitempty"`
	Kind      domain.EntityKind `json:"kind,omitempty"`
	EntityID  string            `json:"entity_id,omitempty"`
	Error     string            `json:"error,omitempty"`
	Duration  time.Duration     `json:"duration"`
	At        time.Time         `json:"at"`
}

// AuditRecorder receives audit entries for every service operation.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

// MetricsRecorder observes operation timing and outcome.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// TraceSpan ends a started trace span.
type TraceSpan interface {
	End(err error)
}

// Tracer starts spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// Logger is the minimal leveled key/value logger the service needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NewSlogLogger adapts a *slog.Logger to the service Logger interface.
// A nil argument uses slog.Default().
func NewSlogLogger(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return slogLogger{l: l}
}

type slogLogger struct{ l *slog.Logger }

func (s slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type noopSpan struct{}

func (noopSpan) End(error) {}
