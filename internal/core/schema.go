package core

import (
	"context"

	"retreatcore/pkg/domain"
)

// schemaRule performs structural validation over the typed document: required
// non-empty fields and numeric bounds. Exact field sets are already enforced
// at the decode boundary, so by the time this rule runs the shape is known;
// what remains is content the type system cannot express.
type schemaRule struct{}

func (schemaRule) Name() string { return "schema" }

func (schemaRule) Evaluate(_ context.Context, doc *domain.Document) (domain.Result, error) {
	for _, house := range doc.Houses {
		for _, room := range house.Rooms {
			for _, bed := range room.Beds {
				if bed.Capacity < 1 {
					return blockSchema(domain.ErrInvalidField, domain.EntityKind(""), bed.ID), nil
				}
				for _, cost := range bed.Costs {
					if cost < 0 {
						return blockSchema(domain.ErrInvalidField, domain.EntityKind(""), bed.ID), nil
					}
				}
			}
		}
	}
	for _, id := range sortedRegistrationIDs(doc) {
		reg := doc.Registrations[id]
		if reg.FullName == "" || reg.Name == "" || reg.Phone == "" || reg.Emergency == "" {
			return blockSchema(domain.ErrMissingField, domain.KindRegistrations, id), nil
		}
		if reg.Contributions < 0 || reg.Assistance < 0 {
			return blockSchema(domain.ErrInvalidField, domain.KindRegistrations, id), nil
		}
	}
	return domain.Result{}, nil
}

func blockSchema(msg domain.UserError, kind domain.EntityKind, id string) domain.Result {
	return domain.Result{Violations: []domain.Violation{{
		Rule:     "schema",
		Severity: domain.SeverityBlock,
		Message:  string(msg),
		Kind:     kind,
		EntityID: id,
	}}}
}
