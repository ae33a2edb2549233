package core

import (
	"context"

	"retreatcore/pkg/domain"
)

// nightCostsRule verifies that every night id referenced by a bed cost map is
// a declared night. The slot universe derivation skips unknown nights, so
// without this rule a typo would silently make slots unbookable.
type nightCostsRule struct{}

func (nightCostsRule) Name() string { return "night_costs" }

func (nightCostsRule) Evaluate(_ context.Context, doc *domain.Document) (domain.Result, error) {
	nights := make(map[string]struct{}, len(doc.Nights))
	for _, night := range doc.Nights {
		nights[night.ID] = struct{}{}
	}
	for _, house := range doc.Houses {
		for _, room := range house.Rooms {
			for _, bed := range room.Beds {
				for nightID := range bed.Costs {
					if _, ok := nights[nightID]; !ok {
						return block("night_costs", domain.ErrUnknownNight, domain.EntityKind(""), bed.ID), nil
					}
				}
			}
		}
	}
	return domain.Result{}, nil
}
