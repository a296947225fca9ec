// Package result carries the outcome of an asynchronous operation to its
// consumer: exactly one terminal value per dispatched call, with delivery
// dropped once the consumer's scope is gone.
package result

import "context"

// Result is the terminal outcome of one operation. Exactly one of Value or
// Err is meaningful; Err nil means success.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fail wraps a failure.
func Fail[T any](err error) Result[T] {
	var zero T
	return Result[T]{Value: zero, Err: err}
}

// Failed reports whether the result carries an error.
func (r Result[T]) Failed() bool {
	return r.Err != nil
}

// Callback receives exactly one terminal Result per dispatched operation.
type Callback[T any] func(Result[T])

// Dispatch runs op on its own goroutine and delivers its outcome to cb.
// scope is the consumer's liveness token: when it is already done by the
// time op finishes, delivery is silently skipped. That is not an error
// condition; the consumer has been torn down and nothing is listening.
func Dispatch[T any](scope context.Context, op func() (T, error), cb Callback[T]) {
	if scope == nil {
		scope = context.Background()
	}
	go func() {
		v, err := op()
		select {
		case <-scope.Done():
			return
		default:
		}
		cb(Result[T]{Value: v, Err: err})
	}()
}
