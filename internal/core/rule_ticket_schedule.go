package core

import (
	"context"

	"festivalcore/pkg/domain"
)

// NewTicketScheduleRule returns the rule that blocks commits leaving a ticket
// event whose schedule is out of order or carries seconds.
func NewTicketScheduleRule() domain.Rule {
	return ticketScheduleRule{}
}

type ticketScheduleRule struct{}

func (ticketScheduleRule) Name() string { return RuleTicketSchedule }

func (ticketScheduleRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityEventTicketInfo || change.Action == domain.ActionDelete {
			continue
		}
		info, ok := change.After.(domain.EventTicketInfo)
		if !ok {
			continue
		}
		if err := info.Validate(); err != nil {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     RuleTicketSchedule,
				Severity: domain.SeverityBlock,
				Message:  err.Error(),
				Entity:   domain.EntityEventTicketInfo,
				EntityID: info.ID,
			})
		}
	}
	return res, nil
}
