package archive

import (
	"testing"
	"time"

	"github.com/chrisdamba/kitchensync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowFromOrder(t *testing.T) {
	created := time.Date(2026, 8, 27, 18, 0, 0, 0, time.UTC)
	preparing := created.Add(3 * time.Minute)
	paid := created.Add(50 * time.Minute)
	o := models.Order{
		ID:          "ord-1",
		TenantID:    "tenant-1",
		Status:      models.StatusPaid,
		OrderType:   models.OrderTypeDineIn,
		TotalAmount: 42.50,
		Items:       []models.OrderItem{{ID: "li-1"}, {ID: "li-2"}},
		CreatedAt:   created,
		PreparingAt: &preparing,
		PaidAt:      &paid,
	}

	row := rowFromOrder(&o)

	assert.Equal(t, "ord-1", row.OrderID)
	assert.Equal(t, "paid", row.Status)
	assert.Equal(t, int32(2), row.ItemCount)
	assert.Equal(t, created.UnixMilli(), row.CreatedAt)
	require.NotNil(t, row.PreparingAt)
	assert.Equal(t, preparing.UnixMilli(), *row.PreparingAt)
	require.NotNil(t, row.PaidAt)
	assert.Equal(t, paid.UnixMilli(), *row.PaidAt)
	assert.Nil(t, row.ReadyAt, "stages never reached stay unset")
	assert.Nil(t, row.ServedAt)
}

func TestRowFromOrder_CancelledCarriesNoStageStamps(t *testing.T) {
	o := models.Order{
		ID:        "ord-2",
		Status:    models.StatusCancelled,
		OrderType: models.OrderTypeTakeaway,
		CreatedAt: time.Now(),
	}
	row := rowFromOrder(&o)
	assert.Equal(t, "cancelled", row.Status)
	assert.Nil(t, row.PreparingAt)
	assert.Nil(t, row.PaidAt)
}
