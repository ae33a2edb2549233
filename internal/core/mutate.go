package core

import (
	"retreatcore/pkg/domain"
)

// create generates a fresh entity from the supplied fields. Defaults are
// filled before the protection checks that depend on them run.
func (s *session) create(kind domain.EntityKind, fields []byte, newID func() string, now func() float64) error {
	id := newID()
	if s.exists(kind, id) {
		return domain.ErrIDCollision
	}
	switch kind {
	case domain.KindRegistrations:
		var patch registrationPatch
		if err := decodeStrict(fields, &patch); err != nil {
			return err
		}
		// Group affects authorization, adjustments affect money. Both stay
		// admin-only even on create, and presence of the key is enough: an
		// explicit null rejects the operation the same as a value would.
		if (patch.Group.Set || patch.Adjustments.Set) && !s.isAdmin {
			return domain.ErrAdminOnlyFields
		}
		reg := domain.Registration{
			Group:        s.group,
			Reservations: []string{},
			Adjustments:  []domain.Adjustment{},
		}
		patch.apply(&reg)
		// Creating a registration must not change the group of a user who
		// already owns registrations; emails are immutable after creation.
		if reg.Group != reg.Email {
			for _, existingID := range sortedRegistrationIDs(s.doc) {
				if s.doc.Registrations[existingID].Group == reg.Email {
					return domain.ErrGroupTaken
				}
			}
		}
		s.doc.Registrations[id] = reg
	case domain.KindPayments:
		var patch paymentPatch
		if err := decodeStrict(fields, &patch); err != nil {
			return err
		}
		payment := domain.Payment{Date: now(), Allocation: map[string]float64{}}
		patch.apply(&payment)
		s.doc.Payments[id] = payment
	case domain.KindExpenses:
		var patch expensePatch
		if err := decodeStrict(fields, &patch); err != nil {
			return err
		}
		expense := domain.Expense{Date: now()}
		patch.apply(&expense)
		s.doc.Expenses[id] = expense
	default:
		return domain.ErrNotFound
	}
	return nil
}

// update merges the supplied fields into an existing entity (shallow overwrite).
func (s *session) update(kind domain.EntityKind, id string, fields []byte) error {
	if !s.exists(kind, id) {
		return domain.ErrNotFound
	}
	switch kind {
	case domain.KindRegistrations:
		var patch registrationPatch
		if err := decodeStrict(fields, &patch); err != nil {
			return err
		}
		if (patch.Group.Set || patch.Adjustments.Set) && !s.isAdmin {
			return domain.ErrAdminOnlyFields
		}
		if patch.Email.Set {
			return domain.ErrEmailImmutable
		}
		reg := s.doc.Registrations[id]
		patch.apply(&reg)
		s.doc.Registrations[id] = reg
	case domain.KindPayments:
		var patch paymentPatch
		if err := decodeStrict(fields, &patch); err != nil {
			return err
		}
		payment := s.doc.Payments[id]
		patch.apply(&payment)
		s.doc.Payments[id] = payment
	case domain.KindExpenses:
		var patch expensePatch
		if err := decodeStrict(fields, &patch); err != nil {
			return err
		}
		expense := s.doc.Expenses[id]
		patch.apply(&expense)
		s.doc.Expenses[id] = expense
	}
	return nil
}

// delete removes an entity. Registration deletion cascades so that no payment
// allocation or expense reference is ever left dangling.
func (s *session) delete(kind domain.EntityKind, id string) error {
	if !s.exists(kind, id) {
		return domain.ErrNotFound
	}
	switch kind {
	case domain.KindRegistrations:
		for paymentID, payment := range s.doc.Payments {
			if _, ok := payment.Allocation[id]; ok {
				delete(payment.Allocation, id)
				s.doc.Payments[paymentID] = payment
			}
		}
		for expenseID, expense := range s.doc.Expenses {
			if expense.RegID != nil && *expense.RegID == id {
				expense.RegID = nil
				s.doc.Expenses[expenseID] = expense
			}
		}
		delete(s.doc.Registrations, id)
	case domain.KindPayments:
		delete(s.doc.Payments, id)
	case domain.KindExpenses:
		delete(s.doc.Expenses, id)
	}
	return nil
}

// replace is the optimistic whole-document operation: it succeeds only when
// the expected snapshot deep-equals the document as it stood when this
// request began, and otherwise fails closed with a stale-state error.
func (s *session) replace(expected, next *domain.Document) error {
	if expected == nil || next == nil {
		return domain.ErrInvalidField
	}
	if !expected.Equal(s.doc) {
		return domain.ErrStaleState
	}
	s.doc = next.Clone()
	return nil
}
