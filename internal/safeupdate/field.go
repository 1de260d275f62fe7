package safeupdate

import (
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Field describes one mutable field of an entity of type T.
type Field[T any] struct {
	Name string
	// Equal compares the field's value in a and b.
	Equal func(a, b T) bool
	// Assign copies the field's value from src into dst.
	Assign func(dst *T, src T)
}

// Value builds a field for comparable values: strings, booleans, integers
// and enumerated tags.
func Value[T any, V comparable](name string, get func(T) V, set func(*T, V)) Field[T] {
	return Field[T]{
		Name:   name,
		Equal:  func(a, b T) bool { return get(a) == get(b) },
		Assign: func(dst *T, src T) { set(dst, get(src)) },
	}
}

// Time builds a date field. Two values are equal when they denote the same
// instant, whatever their location.
func Time[T any](name string, get func(T) time.Time, set func(*T, time.Time)) Field[T] {
	return Field[T]{
		Name:   name,
		Equal:  func(a, b T) bool { return get(a).Equal(get(b)) },
		Assign: func(dst *T, src T) { set(dst, get(src)) },
	}
}

// Composite builds a field holding a structured value compared structurally.
// Nil and empty collections compare equal. clone must return an independent
// copy so the stored entity never aliases the caller's value.
func Composite[T any, V any](name string, get func(T) V, set func(*T, V), clone func(V) V, opts ...cmp.Option) Field[T] {
	opts = append([]cmp.Option{cmpopts.EquateEmpty()}, opts...)
	return Field[T]{
		Name:   name,
		Equal:  func(a, b T) bool { return cmp.Equal(get(a), get(b), opts...) },
		Assign: func(dst *T, src T) { set(dst, clone(get(src))) },
	}
}
