package core

import (
	"retreatcore/pkg/domain"
)

// NewRulesEngine wires the document validation pipeline in its canonical
// order. Ordering is part of the contract: the first blocking violation wins,
// so structural checks run before id integrity, cost references before
// uniqueness, uniqueness before the slot partition, and referential closure
// last.
func NewRulesEngine() *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(schemaRule{})
	engine.Register(idIntegrityRule{})
	engine.Register(nightCostsRule{})
	engine.Register(uniquenessRule{})
	engine.Register(slotPartitionRule{})
	engine.Register(referenceRule{})
	return engine
}

func block(rule string, msg domain.UserError, kind domain.EntityKind, id string) domain.Result {
	return domain.Result{Violations: []domain.Violation{{
		Rule:     rule,
		Severity: domain.SeverityBlock,
		Message:  string(msg),
		Kind:     kind,
		EntityID: id,
	}}}
}
