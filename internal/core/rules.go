package core

import "festivalcore/pkg/domain"

// Names of the built-in rules.
const (
	RuleUniqueName     = "unique_name"
	RuleTicketSchedule = "ticket_schedule"
)

// NewRulesEngine constructs an engine instance without rules.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewUniqueNameRule())
	engine.Register(NewTicketScheduleRule())
	return engine
}
