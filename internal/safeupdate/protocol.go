package safeupdate

import (
	"fmt"

	"festivalcore/pkg/domain"
)

// Update applies proposed over the stored entity, writing only the fields
// that differ from prior and only if the store still holds prior's value for
// each of them. Decisions are reported through the returned Report; the error
// is reserved for store failures.
//
// The caller must run Update inside a single store transaction so the read
// of the current entity and the write cannot interleave with another writer.
func (s *Schema[T]) Update(table Table[T], prior, proposed T, perms domain.Permissions) (Report, error) {
	id := s.ID(prior)
	if id == "" || id != s.ID(proposed) {
		return report(Invalid, "identifier mismatch"), nil
	}
	if s.Validate != nil {
		if err := s.Validate(proposed); err != nil {
			return report(Invalid, err.Error()), nil
		}
	}

	changed := s.Diff(prior, proposed)
	for _, f := range changed {
		if need, ok := s.Elevated[f.Name]; ok && !perms.Has(need) {
			return Report{
				Outcome: Invalid,
				Changed: fieldNames(changed),
				Reason:  fmt.Sprintf("changing %s requires the %s permission", f.Name, need),
			}, nil
		}
	}

	current, ok := table.Find(id)
	if !ok {
		return report(NotFound, fmt.Sprintf("%s %s not found", s.Kind, id)), nil
	}
	var conflicts []string
	for _, f := range changed {
		if !f.Equal(current, prior) {
			conflicts = append(conflicts, f.Name)
		}
	}
	if len(conflicts) > 0 {
		return Report{
			Outcome:   Overwrite,
			Changed:   fieldNames(changed),
			Conflicts: conflicts,
			Reason:    "stored values changed since the snapshot was read",
		}, nil
	}
	if len(changed) == 0 {
		return report(NoChange, ""), nil
	}

	if unique, ok := s.Field(s.Unique); ok && containsField(changed, unique.Name) {
		taken := table.Count(func(other T) bool {
			return s.ID(other) != id && unique.Equal(other, proposed)
		})
		if taken > 0 {
			return Report{
				Outcome: NameExists,
				Changed: fieldNames(changed),
				Reason:  fmt.Sprintf("another %s already uses this %s", s.Kind, unique.Name),
			}, nil
		}
	}

	if _, err := table.Update(id, func(dst *T) error {
		for _, f := range changed {
			f.Assign(dst, proposed)
		}
		return nil
	}); err != nil {
		return Report{}, fmt.Errorf("commit %s %s: %w", s.Kind, id, err)
	}
	return Report{Outcome: Success, Changed: fieldNames(changed)}, nil
}

// Overwrite replaces every declared field of the stored entity with proposed,
// without comparing against any snapshot. It reports false when the entity
// does not exist. Callers must only reach it after the user confirmed that
// concurrent changes may be discarded. Proposed values failing the
// cross-field validator are rejected with that error.
func (s *Schema[T]) Overwrite(table Table[T], proposed T) (bool, error) {
	id := s.ID(proposed)
	if id == "" {
		return false, nil
	}
	if s.Validate != nil {
		if err := s.Validate(proposed); err != nil {
			return false, err
		}
	}
	if _, ok := table.Find(id); !ok {
		return false, nil
	}
	if _, err := table.Update(id, func(dst *T) error {
		for _, f := range s.Fields {
			f.Assign(dst, proposed)
		}
		return nil
	}); err != nil {
		return false, fmt.Errorf("overwrite %s %s: %w", s.Kind, id, err)
	}
	return true, nil
}

func containsField[T any](fields []Field[T], name string) bool {
	for _, f := range fields {
		if f.Name == name {
			return true
		}
	}
	return false
}
