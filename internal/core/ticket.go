package core

import (
	"context"
	"time"

	"festivalcore/internal/safeupdate"
	"festivalcore/pkg/domain"
)

// EventTicketInfoSchema describes how ticket events take part in safe
// updates. The schedule is validated as a whole before any field is compared.
var EventTicketInfoSchema = mustSchema(&safeupdate.Schema[EventTicketInfo]{
	Kind: EntityEventTicketInfo,
	ID:   func(e EventTicketInfo) string { return e.ID },
	Fields: []safeupdate.Field[EventTicketInfo]{
		safeupdate.Value("name", func(e EventTicketInfo) string { return e.Name }, func(e *EventTicketInfo, v string) { e.Name = v }),
		safeupdate.Value("description", func(e EventTicketInfo) string { return e.Description }, func(e *EventTicketInfo, v string) { e.Description = v }),
		safeupdate.Value("capacity", func(e EventTicketInfo) int { return e.Capacity }, func(e *EventTicketInfo, v int) { e.Capacity = v }),
		safeupdate.Time("application_start", func(e EventTicketInfo) time.Time { return e.ApplicationStart }, func(e *EventTicketInfo, v time.Time) { e.ApplicationStart = v }),
		safeupdate.Time("application_end", func(e EventTicketInfo) time.Time { return e.ApplicationEnd }, func(e *EventTicketInfo, v time.Time) { e.ApplicationEnd = v }),
		safeupdate.Time("exchange_end", func(e EventTicketInfo) time.Time { return e.ExchangeEnd }, func(e *EventTicketInfo, v time.Time) { e.ExchangeEnd = v }),
		safeupdate.Value("public", func(e EventTicketInfo) bool { return e.Public }, func(e *EventTicketInfo, v bool) { e.Public = v }),
	},
	Unique:   "name",
	Validate: EventTicketInfo.Validate,
})

var ticketBinding = binding[EventTicketInfo]{
	schema: EventTicketInfoSchema,
	table: func(tx domain.Transaction) safeupdate.Table[EventTicketInfo] {
		return safeupdate.TableFuncs[EventTicketInfo]{
			FindFn:   tx.FindEventTicketInfo,
			CountFn:  tx.CountEventTicketInfos,
			UpdateFn: tx.UpdateEventTicketInfo,
		}
	},
	editors: []Permission{domain.PermissionTicket},
	create:  domain.Transaction.CreateEventTicketInfo,
	remove:  domain.Transaction.DeleteEventTicketInfo,
	find:    domain.TransactionView.FindEventTicketInfo,
	list:    domain.TransactionView.ListEventTicketInfos,
}

// CreateEventTicketInfo persists a new ticket event.
func (s *Service) CreateEventTicketInfo(ctx context.Context, caller Caller, info EventTicketInfo) (EventTicketInfo, Result, error) {
	return createEntity(ctx, s, ticketBinding, caller, info)
}

// GetEventTicketInfo returns one ticket event.
func (s *Service) GetEventTicketInfo(ctx context.Context, id string) (EventTicketInfo, error) {
	return getEntity(ctx, s, ticketBinding, id)
}

// ListEventTicketInfos returns all ticket events in creation order.
func (s *Service) ListEventTicketInfos(ctx context.Context) ([]EventTicketInfo, error) {
	return listEntities(ctx, s, ticketBinding)
}

// DeleteEventTicketInfo removes a ticket event.
func (s *Service) DeleteEventTicketInfo(ctx context.Context, caller Caller, id string) (Result, error) {
	return deleteEntity(ctx, s, ticketBinding, caller, id)
}

// UpdateEventTicketInfoSafe applies the caller's edits made against prior.
func (s *Service) UpdateEventTicketInfoSafe(ctx context.Context, caller Caller, prior, proposed EventTicketInfo) (safeupdate.Report, error) {
	return safeUpdate(ctx, s, ticketBinding, caller, prior, proposed)
}

// UpdateEventTicketInfoUnsafe overwrites the ticket event with proposed.
func (s *Service) UpdateEventTicketInfoUnsafe(ctx context.Context, proposed EventTicketInfo) bool {
	return unsafeUpdate(ctx, s, ticketBinding, proposed)
}
