package lifecycle

import (
	"fmt"
	"time"

	"github.com/chrisdamba/kitchensync/internal/models"
)

// ValidationError is a transition rejected locally, before any durable write.
type ValidationError struct {
	From models.Status
	To   models.Status
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid order status transition: %s -> %s", e.From, e.To)
}

// allowedTransitions is the directed graph of the order lifecycle. The
// forward chain is strictly sequential; cancellation is reachable from every
// non-terminal state. Terminal states allow nothing.
var allowedTransitions = map[models.Status][]models.Status{
	models.StatusPending:   {models.StatusPreparing, models.StatusCancelled},
	models.StatusPreparing: {models.StatusReady, models.StatusCancelled},
	models.StatusReady:     {models.StatusServed, models.StatusCancelled},
	models.StatusServed:    {models.StatusPaid, models.StatusCancelled},
	models.StatusPaid:      {},
	models.StatusCancelled: {},
}

// CanTransition reports whether from -> to is a permitted transition.
// A same-status transition is permitted as a no-op so that two clients
// racing toward the same target never surface an error.
func CanTransition(from, to models.Status) bool {
	if from == to {
		return !from.Terminal()
	}
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ApplyTransition sets the target status on the order and stamps the
// timestamp field mapped to that target. Timestamps already set are never
// overwritten. The order is mutated in place; it is the caller's copy, not
// shared state.
func ApplyTransition(o *models.Order, to models.Status, now time.Time) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}
	if !CanTransition(o.Status, to) {
		return &ValidationError{From: o.Status, To: to}
	}
	o.Status = to
	o.SetStamp(to, now)
	return nil
}
