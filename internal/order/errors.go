package order

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("order not found")
	ErrEmptySelection = errors.New("no cart lines selected")
	ErrNotRequester   = errors.New("order belongs to another requester")
)

// InvalidTransitionError means an operation tried to move an order out of a
// terminal state, or to replay a decision that already landed. Callers must
// treat it as fatal to the current flow and never retry automatically.
type InvalidTransitionError struct {
	OrderID string
	From    Status
	To      Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("order %s: invalid transition %s -> %s", e.OrderID, e.From, e.To)
}
