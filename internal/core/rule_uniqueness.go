package core

import (
	"context"

	"retreatcore/pkg/domain"
)

// uniquenessRule enforces global uniqueness of registration display names and
// of non-empty emails. Name collisions are reported before email collisions.
type uniquenessRule struct{}

func (uniquenessRule) Name() string { return "uniqueness" }

func (uniquenessRule) Evaluate(_ context.Context, doc *domain.Document) (domain.Result, error) {
	names := make(map[string]struct{}, len(doc.Registrations))
	for _, id := range sortedRegistrationIDs(doc) {
		name := doc.Registrations[id].Name
		if _, dup := names[name]; dup {
			return block("uniqueness", domain.ErrDuplicateName, domain.KindRegistrations, id), nil
		}
		names[name] = struct{}{}
	}
	emails := make(map[string]struct{}, len(doc.Registrations))
	for _, id := range sortedRegistrationIDs(doc) {
		email := doc.Registrations[id].Email
		if email == "" {
			continue
		}
		if _, dup := emails[email]; dup {
			return block("uniqueness", domain.ErrDuplicateEmail, domain.KindRegistrations, id), nil
		}
		emails[email] = struct{}{}
	}
	return domain.Result{}, nil
}
