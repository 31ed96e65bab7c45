package waiter

import (
	"context"
	"errors"
)

// Composite describes a mutating call followed by a wait on the resource it
// touched. Mutate and Fetch usually return the same resource type.
type Composite[T any] struct {
	// Mutate issues the create/update/delete call. It is invoked exactly once.
	Mutate func(ctx context.Context) (T, error)

	// ID extracts the affected resource id from the mutation result.
	ID func(T) string

	// Fetch reads the resource by id.
	Fetch func(ctx context.Context, id string) (T, error)

	// State extracts the observable state field.
	State func(T) string
}

var errMissingID = errors.New("mutation returned no resource id")

// RunComposite issues op.Mutate and then waits until the resource reaches
// one of waitFor.
//
// Behavior:
//   - The mutating call is never retried here; only the polling reads are,
//     under cfg.RetryPolicy.
//   - A waitFor with no non-blank state returns the mutation result
//     immediately without touching Fetch.
//   - A failed mutation returns its error unchanged.
//   - A failed wait returns *PartialSuccessError carrying the mutation result,
//     so callers can tell "it failed" from "it happened but we could not
//     confirm the final state".
func RunComposite[T any](ctx context.Context, op Composite[T], waitFor []string, cfg Config) (T, error) {
	var zero T

	result, err := op.Mutate(ctx)
	if err != nil {
		return zero, err
	}

	if targetStates(waitFor).Len() == 0 {
		return result, nil
	}

	id := op.ID(result)
	if id == "" {
		return zero, &PartialSuccessError[T]{Result: result, Err: errMissingID}
	}
	if cfg.Name == "" {
		cfg.Name = id
	}

	fetch := func(ctx context.Context) (T, error) {
		return op.Fetch(ctx, id)
	}

	final, err := Until(ctx, fetch, StateIn(op.State, waitFor...), cfg)
	if err != nil {
		return zero, &PartialSuccessError[T]{ID: id, Result: result, Err: err}
	}
	return final, nil
}
