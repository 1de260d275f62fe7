package safeupdate

import (
	"fmt"

	"festivalcore/pkg/domain"
)

// Table is the slice of a store transaction the protocol needs for one
// entity kind. All calls made for a single update must observe the same
// transaction.
type Table[T any] interface {
	Find(id string) (T, bool)
	Count(match func(T) bool) int
	Update(id string, mutator func(*T) error) (T, error)
}

// TableFuncs adapts plain functions, typically transaction methods, to Table.
type TableFuncs[T any] struct {
	FindFn   func(id string) (T, bool)
	CountFn  func(match func(T) bool) int
	UpdateFn func(id string, mutator func(*T) error) (T, error)
}

// Find implements Table.
func (t TableFuncs[T]) Find(id string) (T, bool) { return t.FindFn(id) }

// Count implements Table.
func (t TableFuncs[T]) Count(match func(T) bool) int { return t.CountFn(match) }

// Update implements Table.
func (t TableFuncs[T]) Update(id string, mutator func(*T) error) (T, error) {
	return t.UpdateFn(id, mutator)
}

// Schema describes how the protocol treats one entity kind.
type Schema[T any] struct {
	Kind domain.EntityType
	// ID returns the immutable primary key.
	ID func(T) string
	// Fields lists every field a client may change.
	Fields []Field[T]
	// Unique names the field whose value must be unique across the kind.
	// Empty when the kind has no such field.
	Unique string
	// Elevated maps field names to the permission required to change them.
	Elevated map[string]domain.Permission
	// Validate enforces cross-field rules on proposed values. Optional.
	Validate func(T) error
}

// Field returns the named field.
func (s *Schema[T]) Field(name string) (Field[T], bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field[T]{}, false
}

// Check reports schema definitions that reference unknown fields.
func (s *Schema[T]) Check() error {
	if s.ID == nil {
		return fmt.Errorf("%s schema: missing id accessor", s.Kind)
	}
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" || f.Equal == nil || f.Assign == nil {
			return fmt.Errorf("%s schema: incomplete field %q", s.Kind, f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("%s schema: duplicate field %q", s.Kind, f.Name)
		}
		seen[f.Name] = true
	}
	if s.Unique != "" && !seen[s.Unique] {
		return fmt.Errorf("%s schema: unique field %q is not declared", s.Kind, s.Unique)
	}
	for name := range s.Elevated {
		if !seen[name] {
			return fmt.Errorf("%s schema: elevated field %q is not declared", s.Kind, name)
		}
	}
	return nil
}

// Diff returns the fields whose values differ between prior and proposed, in
// declaration order.
func (s *Schema[T]) Diff(prior, proposed T) []Field[T] {
	var changed []Field[T]
	for _, f := range s.Fields {
		if !f.Equal(prior, proposed) {
			changed = append(changed, f)
		}
	}
	return changed
}

// Changed returns the names of the fields Diff reports.
func (s *Schema[T]) Changed(prior, proposed T) []string {
	return fieldNames(s.Diff(prior, proposed))
}

func fieldNames[T any](fields []Field[T]) []string {
	if len(fields) == 0 {
		return nil
	}
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}
