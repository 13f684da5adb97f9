package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/chrisdamba/kitchensync/internal/models"
	"github.com/chrisdamba/kitchensync/internal/repositories"
	"go.uber.org/zap"
)

// Outcome is the tri-state result of a reconciled transition. It is the only
// thing that crosses the component boundary; every underlying error resolves
// inside the reconciler.
type Outcome int

const (
	OutcomeFailure Outcome = iota
	OutcomeSuccess
	OutcomeDegradedSuccess
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeDegradedSuccess:
		return "degraded_success"
	default:
		return "failure"
	}
}

// LocalState is the client-side snapshot the reconciler updates optimistically
// and rolls back on failure. Implemented by realtime.Cache.
type LocalState interface {
	Get(orderID string) (models.Order, bool)
	Put(order models.Order)
}

// StatusWriter is the one durable operation the reconciler needs.
type StatusWriter interface {
	UpdateStatus(ctx context.Context, w repositories.StatusWrite) error
}

// Reconciler applies a status transition optimistically to local state, then
// performs the durable write, falling back once to a reduced payload when the
// durable schema lags behind the expected fields.
type Reconciler struct {
	local LocalState
	store StatusWriter
	log   *zap.Logger
	now   func() time.Time
}

func NewReconciler(local LocalState, store StatusWriter, log *zap.Logger) *Reconciler {
	return &Reconciler{
		local: local,
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// ApplyTransition validates and applies target to the identified order.
// The local snapshot is updated before the durable write returns, so the
// caller can refresh display state immediately.
func (r *Reconciler) ApplyTransition(ctx context.Context, orderID string, target models.Status) (Outcome, error) {
	cur, ok := r.local.Get(orderID)
	if !ok {
		return OutcomeFailure, fmt.Errorf("order %s not present locally", orderID)
	}
	if cur.Status == target {
		// Another client already moved the order here. Writing again would
		// be a no-op in effect, so don't bother the store.
		return OutcomeSuccess, nil
	}

	next := cur.Clone()
	now := r.now()
	if err := ApplyTransition(&next, target, now); err != nil {
		return OutcomeFailure, err
	}

	// Optimistic: local display state moves first.
	r.local.Put(next)

	write := repositories.StatusWrite{
		TenantID:        cur.TenantID,
		OrderID:         orderID,
		Status:          target,
		TimestampColumn: models.TimestampColumn(target),
		Timestamp:       now,
	}

	err := r.store.UpdateStatus(ctx, write)
	if err == nil {
		return OutcomeSuccess, nil
	}

	if repositories.IsFieldNotFound(err) {
		// The durable schema is missing the timestamp column. Retry exactly
		// once with the status alone; this is a schema-drift escape hatch,
		// not a retry policy.
		reduced := write
		reduced.TimestampColumn = ""
		reduced.Timestamp = time.Time{}

		if retryErr := r.store.UpdateStatus(ctx, reduced); retryErr == nil {
			next.ClearStamp(target)
			r.local.Put(next)
			r.log.Warn("transition stored without timestamp",
				zap.String("order_id", orderID),
				zap.String("status", string(target)),
			)
			return OutcomeDegradedSuccess, nil
		} else {
			err = retryErr
		}
	}

	// Hard failure: put the last durable snapshot back.
	r.local.Put(cur)
	r.log.Error("transition write failed, optimistic state rolled back",
		zap.String("order_id", orderID),
		zap.String("from", string(cur.Status)),
		zap.String("to", string(target)),
		zap.Error(err),
	)
	return OutcomeFailure, fmt.Errorf("transition %s -> %s not stored: %w", cur.Status, target, err)
}
