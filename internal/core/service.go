package core

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"retreatcore/pkg/domain"
)

// Service exposes the document engine over a persistent store and instruments
// every operation with audit, metrics, and tracing hooks.
type Service struct {
	store     domain.DocumentStore
	processor *Processor
	logger    Logger
	audit     AuditRecorder
	metrics   MetricsRecorder
	tracer    Tracer
	archiver  Archiver
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithAuditRecorder installs an audit trail sink.
func WithAuditRecorder(rec AuditRecorder) ServiceOption {
	return func(s *Service) { s.audit = rec }
}

// WithMetricsRecorder installs a metrics sink.
func WithMetricsRecorder(rec MetricsRecorder) ServiceOption {
	return func(s *Service) { s.metrics = rec }
}

// WithTracer installs a tracer.
func WithTracer(tracer Tracer) ServiceOption {
	return func(s *Service) { s.tracer = tracer }
}

// WithLogger installs a logger. The default discards everything.
func WithLogger(logger Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithArchiver installs a snapshot archiver invoked after committed mutations.
func WithArchiver(archiver Archiver) ServiceOption {
	return func(s *Service) { s.archiver = archiver }
}

// NewService constructs a service backed by the supplied store and processor.
// A nil processor gets the default pipeline.
func NewService(store domain.DocumentStore, processor *Processor, opts ...ServiceOption) *Service {
	if processor == nil {
		processor = NewProcessor()
	}
	s := &Service{
		store:     store,
		processor: processor,
		logger:    noopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Processor returns the underlying request processor.
func (s *Service) Processor() *Processor { return s.processor }

// Call applies one mutation (or fetch) request for the given caller. User
// errors are reported inside the response, never as the error return; a
// non-nil error means an invariant or storage failure and carries no response.
func (s *Service) Call(ctx context.Context, caller string, req Request) (Response, error) {
	op := operationName(req)
	ctx, span := s.startSpan(ctx, op)
	started := time.Now()

	var resp Response
	var committed *domain.Document
	err := s.store.Update(ctx, func(doc *domain.Document) (*domain.Document, error) {
		r, next, perr := s.processor.Process(ctx, doc, caller, req)
		if perr != nil {
			return nil, perr
		}
		resp = r
		if req.Op != "" && r.Error == "" {
			committed = next
		}
		return next, nil
	})

	outcome := err
	if outcome == nil && resp.Error != "" {
		outcome = domain.UserError(resp.Error)
	}
	s.observe(ctx, op, caller, req, outcome, time.Since(started))
	span.End(outcome)
	if err != nil {
		s.logger.Error("request aborted", "operation", op, "caller", caller, "error", err)
		return Response{}, err
	}
	if resp.Error != "" {
		s.logger.Info("request rejected", "operation", op, "caller", caller, "error", resp.Error)
		return resp, nil
	}

	if committed != nil && s.archiver != nil {
		if aerr := s.archiver.Archive(ctx, committed); aerr != nil {
			s.logger.Warn("snapshot archive failed", "operation", op, "error", aerr)
		}
	}
	s.logger.Info("request processed", "operation", op, "caller", caller)
	return resp, nil
}

// Fetch returns the caller's projected view without mutating anything.
func (s *Service) Fetch(ctx context.Context, caller string) (Response, error) {
	return s.Call(ctx, caller, Request{})
}

// Seed installs the event configuration (title, admins, nights, houses) into
// the store, preserving any registrations, payments, and expenses already
// present. Invariant violations in the seed abort with an error; the caller
// is expected to treat that as fatal at startup.
func (s *Service) Seed(ctx context.Context, seed *domain.Document) error {
	if seed == nil {
		return domain.ErrInvalidField
	}
	op := "seed_document"
	ctx, span := s.startSpan(ctx, op)
	started := time.Now()

	err := s.store.Update(ctx, func(doc *domain.Document) (*domain.Document, error) {
		next := doc.Clone()
		next.Title = seed.Title
		next.Admins = append([]string{}, seed.Admins...)
		next.Nights = append([]domain.Night{}, seed.Nights...)
		next.Houses = seed.Clone().Houses
		result, err := s.processor.engine.Evaluate(ctx, next)
		if err != nil {
			return nil, err
		}
		if violation, blocked := result.FirstBlocking(); blocked {
			return nil, domain.UserError(violation.Message)
		}
		normalizeDocument(next)
		return next, nil
	})

	s.observe(ctx, op, "", Request{}, err, time.Since(started))
	span.End(err)
	if err != nil {
		s.logger.Error("seed failed", "error", err)
		return err
	}
	s.logger.Info("seed applied", "title", seed.Title)
	return nil
}

// ReservationsOpen reports whether the reservation gate has passed.
func (s *Service) ReservationsOpen() bool {
	return s.processor.ReservationsOpen()
}

func (s *Service) startSpan(ctx context.Context, op string) (context.Context, TraceSpan) {
	if s.tracer == nil {
		return ctx, noopSpan{}
	}
	return s.tracer.Start(ctx, op)
}

func (s *Service) observe(ctx context.Context, op, caller string, req Request, err error, duration time.Duration) {
	if s.metrics != nil {
		s.metrics.Observe(ctx, op, err == nil, duration)
	}
	if s.audit != nil {
		entry := AuditEntry{
			ID:        uuid.NewString(),
			Operation: op,
			Status:    AuditStatusSuccess,
			Caller:    caller,
			Kind:      req.Kind,
			EntityID:  req.ID,
			Duration:  duration,
			At:        time.Now().UTC(),
		}
		if err != nil {
			entry.Status = AuditStatusError
			entry.Error = err.Error()
		}
		s.audit.Record(ctx, entry)
	}
}

// operationName derives the audit/metrics/trace operation name for a request,
// e.g. create_registration, update_payment, replace_document, fetch_state.
func operationName(req Request) string {
	if req.Op == "" {
		return "fetch_state"
	}
	if req.Op == OpReplace {
		return "replace_document"
	}
	kind := strings.TrimSuffix(string(req.Kind), "s")
	if kind == "" {
		kind = "entity"
	}
	return string(req.Op) + "_" + kind
}
