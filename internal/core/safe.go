package core

import (
	"context"
	"errors"
	"slices"

	"festivalcore/internal/safeupdate"
	"festivalcore/pkg/domain"
)

// binding ties a schema to the typed transaction methods of its kind.
type binding[T any] struct {
	schema *safeupdate.Schema[T]
	table  func(domain.Transaction) safeupdate.Table[T]
	// editors lists permissions any of which allows editing the kind.
	editors []Permission
	// selfEdit allows callers to edit the record whose id equals their own.
	selfEdit bool

	create func(domain.Transaction, T) (T, error)
	remove func(domain.Transaction, string) error
	find   func(domain.TransactionView, string) (T, bool)
	list   func(domain.TransactionView) []T
}

func mustSchema[T any](schema *safeupdate.Schema[T]) *safeupdate.Schema[T] {
	if err := schema.Check(); err != nil {
		panic(err)
	}
	return schema
}

func (b binding[T]) mayEdit(caller Caller, id string) bool {
	if b.selfEdit && caller.ID != "" && caller.ID == id {
		return true
	}
	return slices.ContainsFunc(b.editors, caller.Permissions.Has)
}

func (b binding[T]) mayOverwrite(caller Caller, id string) bool {
	if !b.mayEdit(caller, id) {
		return false
	}
	for _, need := range b.schema.Elevated {
		if !caller.Permissions.Has(need) {
			return false
		}
	}
	return true
}

// safeUpdate runs the conflict-aware update protocol for one entity inside a
// single store transaction. Only Success commits; every other outcome aborts
// the transaction before the rules engine runs.
func safeUpdate[T any](ctx context.Context, s *Service, b binding[T], caller Caller, prior, proposed T) (safeupdate.Report, error) {
	kind := b.schema.Kind
	id := b.schema.ID(prior)
	op := operation{name: "update_" + string(kind) + "_safe", entity: kind, action: ActionUpdate, actor: caller.ID}
	var report safeupdate.Report
	err := s.run(ctx, op, func(ctx context.Context) (result, error) {
		if !b.mayEdit(caller, id) {
			return result{entityID: id}, ErrForbidden{Operation: op.name, Permission: b.editors[0]}
		}
		_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			r, err := b.schema.Update(b.table(tx), prior, proposed, caller.Permissions)
			if err != nil {
				return err
			}
			report = r
			if !r.Outcome.Committed() {
				return errSkipCommit
			}
			return nil
		})
		var violation RuleViolationError
		switch {
		case errors.Is(err, errSkipCommit):
			err = nil
		case errors.As(err, &violation):
			report = reportFromViolation(violation, report.Changed)
			err = nil
		case err != nil:
			report = safeupdate.Report{}
		}
		return result{entityID: id, outcome: string(report.Outcome)}, err
	})
	if err != nil {
		return safeupdate.Report{}, err
	}
	if rec, ok := s.metrics.(OutcomeRecorder); ok {
		rec.ObserveOutcome(ctx, kind, report.Outcome)
	}
	if report.Outcome == safeupdate.Overwrite {
		s.logger.Warn("concurrent edit detected", "entity", kind, "entity_id", id, "conflicts", report.Conflicts, "actor", caller.ID)
	}
	return report, nil
}

// unsafeUpdate overwrites every schema field with proposed. It collapses
// every failure to false; failures are logged and audited by run.
func unsafeUpdate[T any](ctx context.Context, s *Service, b binding[T], proposed T) bool {
	kind := b.schema.Kind
	id := b.schema.ID(proposed)
	op := operation{name: "update_" + string(kind) + "_unsafe", entity: kind, action: ActionUpdate}
	err := s.run(ctx, op, func(ctx context.Context) (result, error) {
		_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			ok, err := b.schema.Overwrite(b.table(tx), proposed)
			if err != nil {
				return err
			}
			if !ok {
				return ErrNotFound{Entity: kind, ID: id}
			}
			return nil
		})
		return result{entityID: id}, err
	})
	return err == nil
}

// reportFromViolation maps a rule violation raised at commit onto an outcome.
func reportFromViolation(v RuleViolationError, changed []string) safeupdate.Report {
	outcome := safeupdate.Invalid
	if v.Result.BlockedBy(RuleUniqueName) {
		outcome = safeupdate.NameExists
	}
	reason := v.Error()
	for _, violation := range v.Result.Violations {
		if violation.Severity == SeverityBlock {
			reason = violation.Message
			break
		}
	}
	return safeupdate.Report{Outcome: outcome, Changed: changed, Reason: reason}
}
