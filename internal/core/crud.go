package core

import (
	"context"
	"fmt"

	"festivalcore/pkg/domain"
)

func createEntity[T any](ctx context.Context, s *Service, b binding[T], caller Caller, value T) (T, Result, error) {
	kind := b.schema.Kind
	op := operation{name: "create_" + string(kind), entity: kind, action: ActionCreate, actor: caller.ID}
	var created T
	var res Result
	err := s.run(ctx, op, func(ctx context.Context) (result, error) {
		if err := authorize(caller, op.name, kind); err != nil {
			return result{}, err
		}
		if b.schema.Validate != nil {
			if err := b.schema.Validate(value); err != nil {
				return result{}, err
			}
		}
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			if err := checkUnique(b, tx, value); err != nil {
				return err
			}
			var err error
			created, err = b.create(tx, value)
			return err
		})
		return result{entityID: b.schema.ID(created)}, err
	})
	return created, res, err
}

// checkUnique rejects value when a live record of the kind already holds its
// unique field. It runs whether or not the store has the unique_name rule.
func checkUnique[T any](b binding[T], tx domain.Transaction, value T) error {
	unique, ok := b.schema.Field(b.schema.Unique)
	if !ok {
		return nil
	}
	taken := b.table(tx).Count(func(other T) bool { return unique.Equal(other, value) })
	if taken == 0 {
		return nil
	}
	kind := b.schema.Kind
	return RuleViolationError{Result: Result{Violations: []Violation{{
		Rule:     RuleUniqueName,
		Severity: SeverityBlock,
		Message:  fmt.Sprintf("another %s already uses this %s", kind, unique.Name),
		Entity:   kind,
	}}}}
}

func deleteEntity[T any](ctx context.Context, s *Service, b binding[T], caller Caller, id string) (Result, error) {
	kind := b.schema.Kind
	op := operation{name: "delete_" + string(kind), entity: kind, action: ActionDelete, actor: caller.ID}
	var res Result
	err := s.run(ctx, op, func(ctx context.Context) (result, error) {
		if err := authorize(caller, op.name, kind); err != nil {
			return result{entityID: id}, err
		}
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			if _, ok := b.table(tx).Find(id); !ok {
				return ErrNotFound{Entity: kind, ID: id}
			}
			return b.remove(tx, id)
		})
		return result{entityID: id}, err
	})
	return res, err
}

func getEntity[T any](ctx context.Context, s *Service, b binding[T], id string) (T, error) {
	var found T
	var ok bool
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		found, ok = b.find(view, id)
		return nil
	})
	if err != nil {
		return found, err
	}
	if !ok {
		return found, ErrNotFound{Entity: b.schema.Kind, ID: id}
	}
	return found, nil
}

func listEntities[T any](ctx context.Context, s *Service, b binding[T]) ([]T, error) {
	var items []T
	err := s.store.View(ctx, func(view domain.TransactionView) error {
		items = b.list(view)
		return nil
	})
	return items, err
}
