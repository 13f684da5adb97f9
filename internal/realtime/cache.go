package realtime

import (
	"sync"
	"time"

	"github.com/chrisdamba/kitchensync/internal/models"
)

// Cache is the local order snapshot one client session works against. All
// merges are keyed by order id and idempotent: replaying an event leaves the
// cache exactly as a single application would.
type Cache struct {
	mu     sync.RWMutex
	orders map[string]models.Order
}

func NewCache() *Cache {
	return &Cache{orders: make(map[string]models.Order)}
}

func (c *Cache) Get(id string) (models.Order, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	o, ok := c.orders[id]
	if !ok {
		return models.Order{}, false
	}
	return o.Clone(), true
}

func (c *Cache) Put(o models.Order) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders[o.ID] = o.Clone()
}

func (c *Cache) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.orders, id)
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.orders)
}

// Snapshot returns a copy of every cached order. The result is safe to hand
// to metrics computation.
func (c *Cache) Snapshot() []models.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Order, 0, len(c.orders))
	for _, o := range c.orders {
		out = append(out, o.Clone())
	}
	return out
}

// Seed replaces the cache contents with the given orders. Used once on
// session start, before live events flow.
func (c *Cache) Seed(orders []models.Order) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders = make(map[string]models.Order, len(orders))
	for _, o := range orders {
		c.orders[o.ID] = o.Clone()
	}
}

// ApplyInsert merges an inserted order by id. A duplicate delivery of the
// same insert replaces the entry with identical content, a no-op in effect.
func (c *Cache) ApplyInsert(o models.Order) {
	c.Put(o)
}

// ApplyPatch merges changed fields into the identified order, last write
// wins per field. Returns false when the order is not tracked locally; the
// caller treats that as a stale event, not an error.
func (c *Cache) ApplyPatch(id string, p models.OrderPatch) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, ok := c.orders[id]
	if !ok {
		return false
	}
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.OrderType != nil {
		o.OrderType = *p.OrderType
	}
	if p.TableRef != nil {
		o.TableRef = *p.TableRef
	}
	if p.CustomerRef != nil {
		o.CustomerRef = *p.CustomerRef
	}
	if p.Notes != nil {
		o.Notes = *p.Notes
	}
	if p.TotalAmount != nil {
		o.TotalAmount = *p.TotalAmount
	}
	if p.PreparingAt != nil {
		t := *p.PreparingAt
		o.PreparingAt = &t
	}
	if p.ReadyAt != nil {
		t := *p.ReadyAt
		o.ReadyAt = &t
	}
	if p.ServedAt != nil {
		t := *p.ServedAt
		o.ServedAt = &t
	}
	if p.PaidAt != nil {
		t := *p.PaidAt
		o.PaidAt = &t
	}
	c.orders[id] = o
	return true
}

// PruneCompleted drops terminal orders created before the cutoff, keeping the
// bounded recently-completed window the metrics computation expects.
func (c *Cache) PruneCompleted(before time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for id, o := range c.orders {
		if o.Status.Terminal() && o.CreatedAt.Before(before) {
			delete(c.orders, id)
			removed++
		}
	}
	return removed
}
