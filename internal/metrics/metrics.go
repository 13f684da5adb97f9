package metrics

import (
	"math"
	"time"

	"github.com/chrisdamba/kitchensync/internal/models"
)

// maxSampleMinutes caps an interval sample at 12 hours. Anything above is
// stale data or clock skew, not a real kitchen duration.
const maxSampleMinutes = 720

// Compute derives the kitchen dashboard snapshot from the live+recent order
// set. The input may contain duplicates (active and recently-completed sets
// overlap); orders are deduplicated by id first. Counts come from the daily
// tally when one is supplied.
func Compute(orders []models.Order, tally *Tally) models.KitchenMetrics {
	deduped := dedupeByID(orders)

	m := models.KitchenMetrics{
		ResponseMinutes: intervalAverage(deduped, createdAt, preparingAt),
		CookMinutes:     intervalAverage(deduped, preparingAt, readyAt),
		ServiceMinutes:  intervalAverage(deduped, readyAt, servedAt),
	}
	if tally != nil {
		m.DineInCount, m.TakeawayCount = tally.Counts()
	}
	return m
}

func dedupeByID(orders []models.Order) []models.Order {
	seen := make(map[string]bool, len(orders))
	out := orders[:0:0]
	for _, o := range orders {
		if o.ID == "" || seen[o.ID] {
			continue
		}
		seen[o.ID] = true
		out = append(out, o)
	}
	return out
}

// intervalAverage is the ceiling of the mean duration in minutes between two
// lifecycle stamps, over every order where both are present and the duration
// is positive and within bounds. Zero means no qualifying sample; the ceiling
// guarantees any nonzero average reports as at least one minute.
func intervalAverage(orders []models.Order, from, to func(*models.Order) (time.Time, bool)) int {
	var sum float64
	count := 0
	for i := range orders {
		start, ok := from(&orders[i])
		if !ok {
			continue
		}
		end, ok := to(&orders[i])
		if !ok {
			continue
		}
		d := end.Sub(start).Minutes()
		if d <= 0 || d > maxSampleMinutes {
			continue
		}
		sum += d
		count++
	}
	if count == 0 {
		return 0
	}
	return int(math.Ceil(sum / float64(count)))
}

func createdAt(o *models.Order) (time.Time, bool) {
	return o.CreatedAt, !o.CreatedAt.IsZero()
}

func preparingAt(o *models.Order) (time.Time, bool) {
	if o.PreparingAt == nil {
		return time.Time{}, false
	}
	return *o.PreparingAt, true
}

func readyAt(o *models.Order) (time.Time, bool) {
	if o.ReadyAt == nil {
		return time.Time{}, false
	}
	return *o.ReadyAt, true
}

func servedAt(o *models.Order) (time.Time, bool) {
	if o.ServedAt == nil {
		return time.Time{}, false
	}
	return *o.ServedAt, true
}
