package metrics

import (
	"sync"
	"time"

	"github.com/chrisdamba/kitchensync/internal/models"
)

// Tally holds the same-day directional order counters. It is seeded once from
// a historical count when the session starts and incremented live as matching
// insert events arrive; it is never recomputed from full history.
type Tally struct {
	mu       sync.Mutex
	day      time.Time // midnight, local to the tenant's boards
	dineIn   int
	takeaway int
}

func NewTally(day time.Time) *Tally {
	y, m, d := day.Date()
	return &Tally{day: time.Date(y, m, d, 0, 0, 0, 0, day.Location())}
}

// Seed sets the historical baseline. Call once, before live increments.
func (t *Tally) Seed(dineIn, takeaway int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dineIn = dineIn
	t.takeaway = takeaway
}

// RecordInsert bumps the matching counter for an order created on the tally's
// day. Orders from other days (late replays, backfills) are ignored.
func (t *Tally) RecordInsert(o models.Order) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !sameDay(o.CreatedAt.In(t.day.Location()), t.day) {
		return
	}
	switch o.OrderType {
	case models.OrderTypeDineIn:
		t.dineIn++
	case models.OrderTypeTakeaway:
		t.takeaway++
	}
}

func (t *Tally) Counts() (dineIn, takeaway int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dineIn, t.takeaway
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
