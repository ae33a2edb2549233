package core

import (
	"context"
	"errors"
	"time"

	"retreatcore/pkg/domain"
)

// Processor runs the request state machine: access check, mutation, schema
// and consistency validation, normalization, and projection. It is stateless
// across requests; every request works on a private deep copy of the document.
type Processor struct {
	engine *domain.RulesEngine
	newID  func() string
	now    func() float64

	// reservationsAfter gates non-admin confirmation and reservation edits
	// until the given time. The zero value disables the gate.
	reservationsAfter time.Time
	clock             func() time.Time
}

// ProcessorOption customizes a Processor.
type ProcessorOption func(*Processor)

// WithIDGenerator overrides entity id generation (tests).
func WithIDGenerator(fn func() string) ProcessorOption {
	return func(p *Processor) { p.newID = fn }
}

// WithClock overrides the time source used for defaulted dates and the
// reservation gate (tests).
func WithClock(fn func() time.Time) ProcessorOption {
	return func(p *Processor) { p.clock = fn }
}

// WithReservationGate enables the reservation gate: before the given time,
// non-admins cannot confirm a registration or assign reservation slots.
func WithReservationGate(after time.Time) ProcessorOption {
	return func(p *Processor) { p.reservationsAfter = after }
}

// NewProcessor constructs a processor with the canonical rule pipeline.
func NewProcessor(opts ...ProcessorOption) *Processor {
	p := &Processor{
		engine: NewRulesEngine(),
		newID:  newEntityID,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.now = func() float64 {
		return float64(p.clock().UnixNano()) / float64(time.Second)
	}
	return p
}

// ReservationsOpen reports whether the reservation gate has passed.
func (p *Processor) ReservationsOpen() bool {
	return p.reservationsAfter.IsZero() || p.clock().After(p.reservationsAfter)
}

// Process applies one request. It returns the caller-visible response and the
// document to persist. On a user error the returned document is the input
// document unchanged and the response carries the error plus a projection of
// that unchanged document. A non-nil error return means an invariant
// violation; nothing may be committed and no response exists.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, caller string, req Request) (Response, *domain.Document, error) {
	if doc == nil {
		doc = domain.NewDocument()
	}
	if caller == "" {
		return Response{State: &StateView{Title: doc.Title}}, doc, nil
	}

	sess := newSession(doc, caller)
	var userErr string
	if req.Op != "" {
		if err := p.mutate(ctx, sess, req); err != nil {
			if !domain.IsUserError(err) {
				return Response{}, nil, err
			}
			userErr = err.Error()
			sess = newSession(doc, caller)
		}
	}

	registrations, state := project(sess)
	resp := Response{
		Error:         userErr,
		Group:         sess.group,
		RawGroup:      sess.group,
		Username:      sess.caller,
		Timestamp:     p.now(),
		Registrations: registrations,
		State:         state,
	}
	return resp, sess.doc, nil
}

// mutate runs access check, the requested operation, validation, and
// normalization against the session's private copy.
func (p *Processor) mutate(ctx context.Context, sess *session, req Request) error {
	switch req.Op {
	case OpCreate:
		if err := sess.verifyAccess(req.Kind, ""); err != nil {
			return err
		}
		if err := p.checkReservationGate(sess, req); err != nil {
			return err
		}
		if err := sess.create(req.Kind, req.Fields, p.newID, p.now); err != nil {
			return err
		}
	case OpUpdate:
		if err := sess.verifyAccess(req.Kind, req.ID); err != nil {
			return err
		}
		if err := p.checkReservationGate(sess, req); err != nil {
			return err
		}
		if err := sess.update(req.Kind, req.ID, req.Fields); err != nil {
			return err
		}
	case OpDelete:
		if err := sess.verifyAccess(req.Kind, req.ID); err != nil {
			return err
		}
		if err := sess.delete(req.Kind, req.ID); err != nil {
			return err
		}
	case OpReplace:
		// Whole-document replacement is admin-only: there is no entity to
		// scope a non-admin's access to.
		if err := sess.verifyAccess(domain.EntityKind(""), ""); err != nil {
			return err
		}
		if err := sess.replace(req.Expected, req.Document); err != nil {
			return err
		}
	default:
		return domain.ErrInvalidField
	}

	result, err := p.engine.Evaluate(ctx, sess.doc)
	if err != nil {
		return err
	}
	if violation, blocked := result.FirstBlocking(); blocked {
		return domain.UserError(violation.Message)
	}
	normalizeDocument(sess.doc)
	return nil
}

// checkReservationGate rejects non-admin attempts to confirm a registration
// or assign reservation slots before the gate time.
func (p *Processor) checkReservationGate(sess *session, req Request) error {
	if sess.isAdmin || p.ReservationsOpen() || req.Kind != domain.KindRegistrations {
		return nil
	}
	var patch registrationPatch
	if err := decodeStrict(req.Fields, &patch); err != nil {
		return err
	}
	if patch.touchesReservations() {
		return domain.ErrReservationsGated
	}
	return nil
}

// IsInvariantError reports whether err is a fatal invariant violation.
func IsInvariantError(err error) bool {
	var ie domain.InvariantError
	return errors.As(err, &ie)
}
