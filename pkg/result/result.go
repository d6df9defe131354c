// Package result provides a value-or-error union returned by client calls instead of (T, error) pairs
// whose slots may both be set or both be empty.
package result

import "errors"

// ErrEmpty is the error carried by a Result built with Err(nil).
var ErrEmpty = errors.New("result: failure without error")

// Result holds either a value or an error, never both.
type Result[T any] struct {
	value T
	err   error
}

// Ok returns a successful Result.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Err returns a failed Result. A nil err is replaced by ErrEmpty so the Result stays a failure.
func Err[T any](err error) Result[T] {
	if err == nil {
		err = ErrEmpty
	}
	return Result[T]{err: err}
}

// From converts a (value, error) pair: a non-nil err wins.
func From[T any](v T, err error) Result[T] {
	if err != nil {
		return Err[T](err)
	}
	return Ok(v)
}

// IsOk reports whether r holds a value.
func (r Result[T]) IsOk() bool { return r.err == nil }

// Value returns the value and true, or the zero value and false on failure.
func (r Result[T]) Value() (T, bool) {
	if r.err != nil {
		var zero T
		return zero, false
	}
	return r.value, true
}

// Error returns the failure, or nil.
func (r Result[T]) Error() error { return r.err }

// Unwrap returns the pair form.
func (r Result[T]) Unwrap() (T, error) {
	if r.err != nil {
		var zero T
		return zero, r.err
	}
	return r.value, nil
}

// Map applies fn to a successful value; failures pass through.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.err != nil {
		return Err[U](r.err)
	}
	return Ok(fn(r.value))
}
