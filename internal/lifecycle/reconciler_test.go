package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chrisdamba/kitchensync/internal/models"
	"github.com/chrisdamba/kitchensync/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLocal struct {
	mu     sync.Mutex
	orders map[string]models.Order
}

func newFakeLocal(orders ...models.Order) *fakeLocal {
	l := &fakeLocal{orders: make(map[string]models.Order)}
	for _, o := range orders {
		l.orders[o.ID] = o
	}
	return l
}

func (l *fakeLocal) Get(id string) (models.Order, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.orders[id]
	return o, ok
}

func (l *fakeLocal) Put(o models.Order) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.orders[o.ID] = o
}

// fakeStore scripts one error per successive UpdateStatus call; nil entries
// succeed. It records every write it receives.
type fakeStore struct {
	mu     sync.Mutex
	errs   []error
	writes []repositories.StatusWrite
}

func (s *fakeStore) UpdateStatus(_ context.Context, w repositories.StatusWrite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, w)
	if len(s.errs) == 0 {
		return nil
	}
	err := s.errs[0]
	s.errs = s.errs[1:]
	return err
}

func pendingOrder(id string) models.Order {
	return models.Order{
		ID:        id,
		TenantID:  "tenant-1",
		Status:    models.StatusPending,
		OrderType: models.OrderTypeDineIn,
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func driftErr(field string) error {
	return &repositories.StoreError{Kind: repositories.FieldNotFound, Field: field, Err: errors.New("column does not exist")}
}

func transportErr() error {
	return &repositories.StoreError{Kind: repositories.TransportFailed, Err: errors.New("connection reset")}
}

func TestReconciler_CleanSuccess(t *testing.T) {
	local := newFakeLocal(pendingOrder("o1"))
	store := &fakeStore{}
	r := NewReconciler(local, store, zap.NewNop())

	outcome, err := r.ApplyTransition(context.Background(), "o1", models.StatusPreparing)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, outcome)

	got, _ := local.Get("o1")
	assert.Equal(t, models.StatusPreparing, got.Status)
	require.NotNil(t, got.PreparingAt)

	require.Len(t, store.writes, 1)
	assert.Equal(t, "preparing_at", store.writes[0].TimestampColumn)
	assert.Equal(t, models.StatusPreparing, store.writes[0].Status)
	assert.Equal(t, "tenant-1", store.writes[0].TenantID)
}

func TestReconciler_SchemaDriftDegradedSuccess(t *testing.T) {
	// Scenario: full payload rejected for the missing timestamp column, the
	// status-only retry succeeds. Status changes, timing precision is lost.
	local := newFakeLocal(pendingOrder("o1"))
	store := &fakeStore{errs: []error{driftErr("preparing_at")}}
	r := NewReconciler(local, store, zap.NewNop())

	outcome, err := r.ApplyTransition(context.Background(), "o1", models.StatusPreparing)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDegradedSuccess, outcome, "degraded success must be distinguishable")

	got, _ := local.Get("o1")
	assert.Equal(t, models.StatusPreparing, got.Status)
	assert.Nil(t, got.PreparingAt, "timestamp must remain unset after a degraded write")

	require.Len(t, store.writes, 2)
	assert.Equal(t, "", store.writes[1].TimestampColumn, "retry must omit the timestamp")
	assert.True(t, store.writes[1].Timestamp.IsZero())
}

func TestReconciler_ReducedRetryFailureIsHard(t *testing.T) {
	local := newFakeLocal(pendingOrder("o1"))
	store := &fakeStore{errs: []error{driftErr("preparing_at"), transportErr()}}
	r := NewReconciler(local, store, zap.NewNop())

	outcome, err := r.ApplyTransition(context.Background(), "o1", models.StatusPreparing)
	require.Error(t, err)
	assert.Equal(t, OutcomeFailure, outcome)
	assert.Len(t, store.writes, 2, "exactly one reduced attempt, never a loop")

	got, _ := local.Get("o1")
	assert.Equal(t, models.StatusPending, got.Status, "optimistic state rolled back")
	assert.Nil(t, got.PreparingAt)
}

func TestReconciler_DriftOnRetryDoesNotLoop(t *testing.T) {
	local := newFakeLocal(pendingOrder("o1"))
	store := &fakeStore{errs: []error{driftErr("preparing_at"), driftErr("status")}}
	r := NewReconciler(local, store, zap.NewNop())

	outcome, err := r.ApplyTransition(context.Background(), "o1", models.StatusPreparing)
	require.Error(t, err)
	assert.Equal(t, OutcomeFailure, outcome)
	assert.Len(t, store.writes, 2)
}

func TestReconciler_TransportFailureRollsBack(t *testing.T) {
	local := newFakeLocal(pendingOrder("o1"))
	store := &fakeStore{errs: []error{transportErr()}}
	r := NewReconciler(local, store, zap.NewNop())

	outcome, err := r.ApplyTransition(context.Background(), "o1", models.StatusPreparing)
	require.Error(t, err)
	assert.Equal(t, OutcomeFailure, outcome)
	assert.Len(t, store.writes, 1, "transport failure must not trigger the reduced retry")

	got, _ := local.Get("o1")
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestReconciler_InvalidTransitionNeverReachesStore(t *testing.T) {
	local := newFakeLocal(pendingOrder("o1"))
	store := &fakeStore{}
	r := NewReconciler(local, store, zap.NewNop())

	outcome, err := r.ApplyTransition(context.Background(), "o1", models.StatusPaid)
	require.Error(t, err)
	assert.Equal(t, OutcomeFailure, outcome)

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Empty(t, store.writes)
}

func TestReconciler_UnknownOrderFails(t *testing.T) {
	r := NewReconciler(newFakeLocal(), &fakeStore{}, zap.NewNop())
	outcome, err := r.ApplyTransition(context.Background(), "missing", models.StatusPreparing)
	require.Error(t, err)
	assert.Equal(t, OutcomeFailure, outcome)
}

func TestReconciler_ConcurrentSameTarget(t *testing.T) {
	// Scenario: two clients race toward "ready". Whichever lands second sees
	// the status already applied and reports a clean no-op success.
	o := pendingOrder("o1")
	o.Status = models.StatusReady
	local := newFakeLocal(o)
	store := &fakeStore{}
	r := NewReconciler(local, store, zap.NewNop())

	outcome, err := r.ApplyTransition(context.Background(), "o1", models.StatusReady)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, outcome)
	assert.Empty(t, store.writes, "no-op transition skips the durable write")

	got, _ := local.Get("o1")
	assert.Equal(t, models.StatusReady, got.Status)
}
