package segment

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned for a zero-length input.
	ErrEmptyInput = errors.New("empty input")

	// ErrInvalidInputCharacter is matched by every *InputError.
	ErrInvalidInputCharacter = errors.New("invalid input character")

	// ErrNoDecomposition means every branch was explored and none rebuilt
	// the input exactly from dictionary words.
	ErrNoDecomposition = errors.New("no decomposition into dictionary words")

	// ErrUnboundedSearch is matched by every *BudgetError.
	ErrUnboundedSearch = errors.New("search budget exceeded")
)

// InputError reports the first character outside the trained alphabet.
type InputError struct {
	Input string
	Pos   int
	Char  byte
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input character %q at position %d", e.Char, e.Pos)
}

// Is makes errors.Is(err, ErrInvalidInputCharacter) hold.
func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInputCharacter
}

// BudgetError reports a search abandoned before it could prove success or
// failure. Cause is the context error when the deadline or cancellation
// stopped the search.
type BudgetError struct {
	Reason string
	Steps  int
	Cause  error
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("search budget exceeded after %d steps: %s", e.Steps, e.Reason)
}

// Is makes errors.Is(err, ErrUnboundedSearch) hold.
func (e *BudgetError) Is(target error) bool {
	return target == ErrUnboundedSearch
}

func (e *BudgetError) Unwrap() error {
	return e.Cause
}

// Kind is a short label for the outcome of a query, used in metrics and in
// server responses.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNoDecomposition):
		return "no_decomposition"
	case errors.Is(err, ErrInvalidInputCharacter), errors.Is(err, ErrEmptyInput):
		return "invalid_input"
	case errors.Is(err, ErrUnboundedSearch):
		return "unbounded"
	default:
		return "error"
	}
}
