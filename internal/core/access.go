package core

import (
	"crypto/rand"
	"encoding/hex"
	"sort"

	"retreatcore/pkg/domain"
)

// session holds a private deep copy of the document plus the caller identity
// resolved against it, for the duration of one request. It never shares
// mutable state with the stored original.
type session struct {
	doc     *domain.Document
	caller  string
	group   string
	isAdmin bool
}

func newSession(doc *domain.Document, caller string) *session {
	s := &session{doc: doc.Clone(), caller: caller}
	for _, admin := range s.doc.Admins {
		if admin == caller {
			s.isAdmin = true
			break
		}
	}
	// A registered caller inherits the group of their registration; anyone
	// else is their own group. Non-empty emails are unique, so at most one
	// registration can match.
	s.group = caller
	for _, id := range sortedRegistrationIDs(s.doc) {
		if s.doc.Registrations[id].Email == caller {
			s.group = s.doc.Registrations[id].Group
			break
		}
	}
	return s
}

// verifyAccess gates the requested entity. Admins always pass. Non-admins may
// touch registrations in their own group and may always attempt a create
// (kept to their own group inside the mutation engine); everything else is
// denied. An id that does not resolve fails before any authorization check.
func (s *session) verifyAccess(kind domain.EntityKind, id string) error {
	if id != "" && !s.exists(kind, id) {
		return domain.ErrNotFound
	}
	if s.isAdmin {
		return nil
	}
	if kind == domain.KindRegistrations {
		if id == "" || s.doc.Registrations[id].Group == s.group {
			return nil
		}
	}
	return domain.ErrAccessDenied
}

func (s *session) exists(kind domain.EntityKind, id string) bool {
	switch kind {
	case domain.KindRegistrations:
		_, ok := s.doc.Registrations[id]
		return ok
	case domain.KindPayments:
		_, ok := s.doc.Payments[id]
		return ok
	case domain.KindExpenses:
		_, ok := s.doc.Expenses[id]
		return ok
	}
	return false
}

func sortedRegistrationIDs(doc *domain.Document) []string {
	ids := make([]string, 0, len(doc.Registrations))
	for id := range doc.Registrations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sortedPaymentIDs(doc *domain.Document) []string {
	ids := make([]string, 0, len(doc.Payments))
	for id := range doc.Payments {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sortedExpenseIDs(doc *domain.Document) []string {
	ids := make([]string, 0, len(doc.Expenses))
	for id := range doc.Expenses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// newEntityID returns an unguessable 32-character hex id.
func newEntityID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
