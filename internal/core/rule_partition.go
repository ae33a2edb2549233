package core

import (
	"context"

	"retreatcore/pkg/domain"
)

// slotPartitionRule verifies that every reservation slot a registration holds
// exists in the derivable universe and that no slot is held by more than one
// registration. Slots are partitioned, never shared; a registration listing
// the same slot twice is tolerated (normalization deduplicates it).
type slotPartitionRule struct{}

func (slotPartitionRule) Name() string { return "slot_partition" }

func (slotPartitionRule) Evaluate(_ context.Context, doc *domain.Document) (domain.Result, error) {
	remaining := doc.SlotUniverse()
	for _, id := range sortedRegistrationIDs(doc) {
		reg := doc.Registrations[id]
		held := make(map[string]struct{}, len(reg.Reservations))
		for _, slot := range reg.Reservations {
			held[slot] = struct{}{}
		}
		for slot := range held {
			if _, ok := remaining[slot]; !ok {
				return block("slot_partition", domain.ErrSlotUnavailable, domain.KindRegistrations, id), nil
			}
		}
		for slot := range held {
			delete(remaining, slot)
		}
	}
	return domain.Result{}, nil
}
