package report

import "encoding/json"

// Result is the outcome of one best-effort analysis: either a completed value
// or the reason the analysis was skipped. The zero value is unavailable with
// no recorded reason.
type Result[T any] struct {
	value     T
	available bool
	err       error
}

// Completed wraps a finished analysis.
func Completed[T any](v T) Result[T] {
	return Result[T]{value: v, available: true}
}

// Unavailable records that an analysis could not run.
func Unavailable[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// Get returns the value and whether the analysis completed.
func (r Result[T]) Get() (T, bool) {
	return r.value, r.available
}

// Available reports whether the analysis completed.
func (r Result[T]) Available() bool {
	return r.available
}

// Err returns why the analysis is unavailable, nil when it completed.
func (r Result[T]) Err() error {
	return r.err
}

// MarshalJSON encodes the value, or null when unavailable.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	if !r.available {
		return []byte("null"), nil
	}
	return json.Marshal(r.value)
}
