package realtime

import (
	"testing"
	"time"

	"github.com/chrisdamba/kitchensync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cachedOrder(id string, status models.Status) models.Order {
	return models.Order{
		ID:        id,
		TenantID:  "tenant-1",
		Status:    status,
		OrderType: models.OrderTypeDineIn,
		CreatedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestCache_InsertIdempotent(t *testing.T) {
	c := NewCache()
	o := cachedOrder("o1", models.StatusPending)

	c.ApplyInsert(o)
	once := c.Snapshot()

	c.ApplyInsert(o)
	twice := c.Snapshot()

	assert.Equal(t, once, twice, "replaying an insert must not change state")
	assert.Equal(t, 1, c.Len())
}

func TestCache_PatchIdempotent(t *testing.T) {
	c := NewCache()
	c.ApplyInsert(cachedOrder("o1", models.StatusPending))

	status := models.StatusPreparing
	ts := time.Date(2024, 5, 1, 9, 5, 0, 0, time.UTC)
	patch := models.OrderPatch{Status: &status, PreparingAt: &ts}

	require.True(t, c.ApplyPatch("o1", patch))
	once, _ := c.Get("o1")

	require.True(t, c.ApplyPatch("o1", patch))
	twice, _ := c.Get("o1")

	assert.Equal(t, once, twice)
	assert.Equal(t, models.StatusPreparing, twice.Status)
	require.NotNil(t, twice.PreparingAt)
	assert.Equal(t, ts, *twice.PreparingAt)
}

func TestCache_PatchMergesOnlyChangedFields(t *testing.T) {
	c := NewCache()
	o := cachedOrder("o1", models.StatusPending)
	o.Notes = "no onions"
	o.TotalAmount = 23.5
	c.ApplyInsert(o)

	status := models.StatusPreparing
	require.True(t, c.ApplyPatch("o1", models.OrderPatch{Status: &status}))

	got, _ := c.Get("o1")
	assert.Equal(t, models.StatusPreparing, got.Status)
	assert.Equal(t, "no onions", got.Notes, "untouched fields survive the merge")
	assert.Equal(t, 23.5, got.TotalAmount)
}

func TestCache_StalePatchIsSilentNoop(t *testing.T) {
	c := NewCache()
	status := models.StatusReady
	assert.False(t, c.ApplyPatch("gone", models.OrderPatch{Status: &status}))
	assert.Equal(t, 0, c.Len())
}

func TestCache_PatchLastWriteWins(t *testing.T) {
	c := NewCache()
	c.ApplyInsert(cachedOrder("o1", models.StatusPending))

	first := time.Date(2024, 5, 1, 9, 5, 0, 0, time.UTC)
	second := first.Add(30 * time.Second)
	c.ApplyPatch("o1", models.OrderPatch{PreparingAt: &first})
	c.ApplyPatch("o1", models.OrderPatch{PreparingAt: &second})

	got, _ := c.Get("o1")
	assert.Equal(t, second, *got.PreparingAt, "field-level last write wins")
}

func TestCache_GetReturnsDetachedCopy(t *testing.T) {
	c := NewCache()
	o := cachedOrder("o1", models.StatusPending)
	o.Items = []models.OrderItem{{ID: "i1", MenuItemRef: "m1", Quantity: 1}}
	c.ApplyInsert(o)

	got, _ := c.Get("o1")
	got.Items[0].Quantity = 99
	got.Status = models.StatusPaid

	again, _ := c.Get("o1")
	assert.Equal(t, 1, again.Items[0].Quantity)
	assert.Equal(t, models.StatusPending, again.Status)
}

func TestCache_PruneCompleted(t *testing.T) {
	c := NewCache()
	cutoff := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	old := cachedOrder("old-paid", models.StatusPaid)
	old.CreatedAt = cutoff.Add(-time.Hour)
	stillActive := cachedOrder("old-active", models.StatusPreparing)
	stillActive.CreatedAt = cutoff.Add(-time.Hour)
	fresh := cachedOrder("fresh-paid", models.StatusPaid)
	fresh.CreatedAt = cutoff.Add(time.Hour)

	c.ApplyInsert(old)
	c.ApplyInsert(stillActive)
	c.ApplyInsert(fresh)

	assert.Equal(t, 1, c.PruneCompleted(cutoff))
	_, gone := c.Get("old-paid")
	assert.False(t, gone)
	_, keptActive := c.Get("old-active")
	assert.True(t, keptActive, "active orders are never pruned")
	_, keptFresh := c.Get("fresh-paid")
	assert.True(t, keptFresh)
}
