package realtime

import (
	"context"
	"sync"

	"github.com/chrisdamba/kitchensync/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Source is the tenant-scoped change feed a subscription drains. Run blocks
// until ctx ends, delivering raw payloads and connection-state changes; it is
// responsible for its own reconnection behaviour.
type Source interface {
	Run(ctx context.Context, tenantID string, deliver func([]byte), state func(models.ConnectionState)) error
}

// Enricher fills best-effort display fields (item names, table label) on an
// inserted order.
type Enricher interface {
	Enrich(ctx context.Context, o *models.Order) error
}

// Handlers receive merged events. Every handler is optional, and a panic in
// one never terminates the subscription.
type Handlers struct {
	OnInsert          func(models.Order)
	OnUpdate          func(orderID string, patch models.OrderPatch)
	OnConnectionState func(models.ConnectionState)
}

// Subscriber owns at most one live change-feed subscription per client
// session. Subscribe is idempotent and teardown is exactly-once.
type Subscriber struct {
	tenantID string
	source   Source
	cache    *Cache
	enricher Enricher
	log      *zap.Logger

	mu      sync.Mutex
	session *session
}

type session struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
	stop   sync.Once
}

func NewSubscriber(tenantID string, source Source, cache *Cache, enricher Enricher, log *zap.Logger) *Subscriber {
	return &Subscriber{
		tenantID: tenantID,
		source:   source,
		cache:    cache,
		enricher: enricher,
		log:      log,
	}
}

// Subscribe starts the live subscription and returns its unsubscribe
// function. Calling Subscribe again while live returns the existing
// subscription's unsubscribe instead of opening a second feed. The
// subscription also tears itself down when ctx ends.
func (s *Subscriber) Subscribe(ctx context.Context, h Handlers) func() {
	s.mu.Lock()
	if s.session != nil {
		sess := s.session
		s.mu.Unlock()
		s.log.Debug("subscription already live, reusing",
			zap.String("session_id", sess.id))
		return s.unsubscribeFunc(sess)
	}

	runCtx, cancel := context.WithCancel(ctx)
	sess := &session{
		id:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.session = sess
	s.mu.Unlock()

	go s.run(runCtx, sess, h)

	unsubscribe := s.unsubscribeFunc(sess)
	go func() {
		<-runCtx.Done()
		unsubscribe()
	}()
	return unsubscribe
}

func (s *Subscriber) unsubscribeFunc(sess *session) func() {
	return func() {
		sess.stop.Do(func() {
			sess.cancel()
			<-sess.done
			s.mu.Lock()
			if s.session == sess {
				s.session = nil
			}
			s.mu.Unlock()
		})
	}
}

// Live reports whether a subscription is currently open.
func (s *Subscriber) Live() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil
}

func (s *Subscriber) run(ctx context.Context, sess *session, h Handlers) {
	defer close(sess.done)

	s.log.Info("subscription starting",
		zap.String("tenant_id", s.tenantID),
		zap.String("session_id", sess.id))
	s.notifyState(models.ConnConnecting, h)

	deliver := func(payload []byte) { s.dispatch(ctx, payload, h) }
	state := func(cs models.ConnectionState) { s.notifyState(cs, h) }

	if err := s.source.Run(ctx, s.tenantID, deliver, state); err != nil && ctx.Err() == nil {
		s.log.Error("change feed terminated", zap.Error(err))
		s.notifyState(models.ConnError, h)
	}
	s.log.Info("subscription closed", zap.String("session_id", sess.id))
}

// dispatch parses one raw payload, merges it into the local snapshot and
// invokes the caller's handler. Connection-state changes never touch cached
// data.
func (s *Subscriber) dispatch(ctx context.Context, payload []byte, h Handlers) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("event handler panicked, subscription continues",
				zap.Any("panic", r))
		}
	}()

	event, err := models.ParseChangeEvent(payload)
	if err != nil {
		s.log.Warn("dropping malformed change event", zap.Error(err))
		return
	}

	switch ev := event.(type) {
	case models.OrderInserted:
		if ev.Order.TenantID != "" && ev.Order.TenantID != s.tenantID {
			return
		}
		// At-least-once delivery: a replayed insert refreshes the snapshot
		// but is not announced again, so counters stay idempotent.
		_, known := s.cache.Get(ev.Order.ID)
		order := ev.Order.Clone()
		if s.enricher != nil {
			if err := s.enricher.Enrich(ctx, &order); err != nil {
				// Reduced detail beats a dropped event.
				s.log.Warn("insert delivered without enrichment",
					zap.String("order_id", order.ID), zap.Error(err))
				order = ev.Order.Clone()
			}
		}
		s.cache.ApplyInsert(order)
		if !known && h.OnInsert != nil {
			h.OnInsert(order)
		}

	case models.OrderUpdated:
		if !s.cache.ApplyPatch(ev.OrderID, ev.Patch) {
			// Order already filtered out locally; stale event, silent no-op.
			s.log.Debug("update for untracked order ignored",
				zap.String("order_id", ev.OrderID))
			return
		}
		if h.OnUpdate != nil {
			h.OnUpdate(ev.OrderID, ev.Patch)
		}

	case models.ConnectionChanged:
		s.notifyState(ev.State, h)
	}
}

func (s *Subscriber) notifyState(cs models.ConnectionState, h Handlers) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("connection-state handler panicked", zap.Any("panic", r))
		}
	}()
	if h.OnConnectionState != nil {
		h.OnConnectionState(cs)
	}
}
