package budget

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("budget not found")
	ErrBelowSpent = errors.New("current month budget below already-spent amount")
)

// ExceededError means admission control failed: the purchase would drive the
// company's remaining budget negative. Remaining is carried so callers can
// show the concrete figure.
type ExceededError struct {
	CompanyID string
	Remaining int64
	Cost      int64
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("budget exceeded for company %s: remaining %d, cost %d", e.CompanyID, e.Remaining, e.Cost)
}
