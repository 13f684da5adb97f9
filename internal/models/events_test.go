package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChangeEvent_Insert(t *testing.T) {
	payload := []byte(`{
        "type": "INSERT",
        "table": "orders",
        "tenant_id": "tenant-1",
        "record": {"id": "ord-1", "status": "pending", "order_type": "dine_in", "total_amount": 18.5}
    }`)

	ev, err := ParseChangeEvent(payload)
	require.NoError(t, err)

	ins, ok := ev.(OrderInserted)
	require.True(t, ok)
	assert.Equal(t, "ord-1", ins.Order.ID)
	assert.Equal(t, StatusPending, ins.Order.Status)
	assert.Equal(t, 18.5, ins.Order.TotalAmount)
	assert.Equal(t, "tenant-1", ins.Order.TenantID, "tenant falls back to the envelope")
}

func TestParseChangeEvent_UpdateCarriesOnlyChangedFields(t *testing.T) {
	payload := []byte(`{
        "type": "UPDATE",
        "table": "orders",
        "tenant_id": "tenant-1",
        "id": "ord-1",
        "changes": {"status": "preparing", "preparing_at": "2026-08-28T12:00:00Z"}
    }`)

	ev, err := ParseChangeEvent(payload)
	require.NoError(t, err)

	upd, ok := ev.(OrderUpdated)
	require.True(t, ok)
	assert.Equal(t, "ord-1", upd.OrderID)
	require.NotNil(t, upd.Patch.Status)
	assert.Equal(t, StatusPreparing, *upd.Patch.Status)
	assert.NotNil(t, upd.Patch.PreparingAt)
	assert.Nil(t, upd.Patch.Notes)
	assert.Nil(t, upd.Patch.TotalAmount)
}

func TestParseChangeEvent_RejectsMalformed(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"invalid json", `{"type": "INSERT"`},
		{"wrong table", `{"type": "INSERT", "table": "menu_items", "record": {"id": "x"}}`},
		{"insert without record", `{"type": "INSERT", "table": "orders"}`},
		{"insert without id", `{"type": "INSERT", "table": "orders", "record": {"status": "pending"}}`},
		{"update without id", `{"type": "UPDATE", "table": "orders", "changes": {"status": "ready"}}`},
		{"update without changes", `{"type": "UPDATE", "table": "orders", "id": "ord-1"}`},
		{"unknown type", `{"type": "TRUNCATE", "table": "orders"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := ParseChangeEvent([]byte(tc.payload))
			assert.Error(t, err)
			assert.Nil(t, ev)
		})
	}
}

func TestTenantOf(t *testing.T) {
	assert.Equal(t, "tenant-9", TenantOf([]byte(`{"tenant_id": "tenant-9", "type": "UPDATE"}`)))
	assert.Empty(t, TenantOf([]byte(`not json`)))
	assert.Empty(t, TenantOf([]byte(`{}`)))
}
