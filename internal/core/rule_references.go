package core

import (
	"context"

	"retreatcore/pkg/domain"
)

// referenceRule enforces referential closure: every payment allocation key
// and every non-null expense registration reference must resolve to an
// existing registration.
type referenceRule struct{}

func (referenceRule) Name() string { return "references" }

func (referenceRule) Evaluate(_ context.Context, doc *domain.Document) (domain.Result, error) {
	for _, id := range sortedPaymentIDs(doc) {
		for regID := range doc.Payments[id].Allocation {
			if _, ok := doc.Registrations[regID]; !ok {
				return block("references", domain.ErrPaymentTarget, domain.KindPayments, id), nil
			}
		}
	}
	for _, id := range sortedExpenseIDs(doc) {
		expense := doc.Expenses[id]
		if expense.RegID != nil {
			if _, ok := doc.Registrations[*expense.RegID]; !ok {
				return block("references", domain.ErrExpenseTarget, domain.KindExpenses, id), nil
			}
		}
	}
	return domain.Result{}, nil
}
