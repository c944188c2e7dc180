package fitness

import (
	"fmt"

	"github.com/myrjola/fitsight/internal/errors"
)

// ErrInsufficientData signals that the history is too sparse for an
// assessment. It is a valid outcome, not a failure: callers should render an
// empty or encouraging state instead of surfacing an error.
var ErrInsufficientData = errors.NewSentinel("insufficient data")

// ErrComputationTimeout signals that the bounded-time guarantee was violated.
var ErrComputationTimeout = errors.NewSentinel("computation timed out")

// ValidationError reports a malformed session or goal record with enough
// context to log and recover.
type ValidationError struct {
	RecordID string
	Field    string
	Reason   string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid record %s: %s %s", e.RecordID, e.Field, e.Reason)
}
