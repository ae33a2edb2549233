package core

import (
	"context"
	"strings"

	"retreatcore/pkg/domain"
)

// idIntegrityRule verifies the static configuration ids: nights globally,
// houses, rooms within their house, beds within their room. Duplicates or a
// slot delimiter inside an id mean corrupt configuration, so failures are
// invariant errors that abort the request rather than user errors.
type idIntegrityRule struct{}

func (idIntegrityRule) Name() string { return "id_integrity" }

func (idIntegrityRule) Evaluate(_ context.Context, doc *domain.Document) (domain.Result, error) {
	nightIDs := make([]string, 0, len(doc.Nights))
	for _, night := range doc.Nights {
		nightIDs = append(nightIDs, night.ID)
	}
	if err := checkIDs(nightIDs); err != nil {
		return domain.Result{}, err
	}

	houseIDs := make([]string, 0, len(doc.Houses))
	for _, house := range doc.Houses {
		houseIDs = append(houseIDs, house.ID)
	}
	if err := checkIDs(houseIDs); err != nil {
		return domain.Result{}, err
	}
	for _, house := range doc.Houses {
		roomIDs := make([]string, 0, len(house.Rooms))
		for _, room := range house.Rooms {
			roomIDs = append(roomIDs, room.ID)
		}
		if err := checkIDs(roomIDs); err != nil {
			return domain.Result{}, err
		}
		for _, room := range house.Rooms {
			bedIDs := make([]string, 0, len(room.Beds))
			for _, bed := range room.Beds {
				bedIDs = append(bedIDs, bed.ID)
			}
			if err := checkIDs(bedIDs); err != nil {
				return domain.Result{}, err
			}
		}
	}
	return domain.Result{}, nil
}

func checkIDs(ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return domain.ErrDuplicateID
		}
		seen[id] = struct{}{}
		if strings.Contains(id, domain.SlotDelimiter) {
			return domain.ErrDelimiterInID
		}
	}
	return nil
}
