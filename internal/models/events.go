package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ConnectionState describes the health of the realtime subscription.
type ConnectionState string

const (
	ConnConnecting ConnectionState = "CONNECTING"
	ConnLive       ConnectionState = "LIVE"
	ConnDegraded   ConnectionState = "DEGRADED"
	ConnError      ConnectionState = "ERROR"
)

// ChangeEvent is the tagged variant every change-feed payload is parsed into
// at the boundary. Exactly one of OrderInserted, OrderUpdated or
// ConnectionChanged; malformed payloads are rejected before they reach any
// merge logic.
type ChangeEvent interface {
	changeEvent()
}

type OrderInserted struct {
	Order Order
}

type OrderUpdated struct {
	OrderID string
	Patch   OrderPatch
}

type ConnectionChanged struct {
	State ConnectionState
}

func (OrderInserted) changeEvent()     {}
func (OrderUpdated) changeEvent()      {}
func (ConnectionChanged) changeEvent() {}

// OrderPatch carries the changed fields of an update event. Nil pointers mean
// the field was not part of the change; merges are shallow and field-level.
type OrderPatch struct {
	Status      *Status    `json:"status,omitempty"`
	OrderType   *string    `json:"order_type,omitempty"`
	TableRef    *string    `json:"table_ref,omitempty"`
	CustomerRef *string    `json:"customer_ref,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	TotalAmount *float64   `json:"total_amount,omitempty"`
	PreparingAt *time.Time `json:"preparing_at,omitempty"`
	ReadyAt     *time.Time `json:"ready_at,omitempty"`
	ServedAt    *time.Time `json:"served_at,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
}

const feedTableOrders = "orders"

type feedEnvelope struct {
	Type     string          `json:"type"`
	Table    string          `json:"table"`
	TenantID string          `json:"tenant_id"`
	OrderID  string          `json:"id,omitempty"`
	Record   json.RawMessage `json:"record,omitempty"`
	Changes  json.RawMessage `json:"changes,omitempty"`
}

// ParseChangeEvent decodes one raw change-feed payload into its tagged
// variant. The feed carries the full inserted row on INSERT and the changed
// columns on UPDATE.
func ParseChangeEvent(payload []byte) (ChangeEvent, error) {
	var env feedEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("malformed change event: %w", err)
	}
	if env.Table != feedTableOrders {
		return nil, fmt.Errorf("change event for unexpected table %q", env.Table)
	}

	switch env.Type {
	case "INSERT":
		if len(env.Record) == 0 {
			return nil, fmt.Errorf("insert event without record")
		}
		var order Order
		if err := json.Unmarshal(env.Record, &order); err != nil {
			return nil, fmt.Errorf("malformed insert record: %w", err)
		}
		if order.ID == "" {
			return nil, fmt.Errorf("insert record without id")
		}
		if order.TenantID == "" {
			order.TenantID = env.TenantID
		}
		return OrderInserted{Order: order}, nil

	case "UPDATE":
		if env.OrderID == "" {
			return nil, fmt.Errorf("update event without id")
		}
		if len(env.Changes) == 0 {
			return nil, fmt.Errorf("update event without changes")
		}
		var patch OrderPatch
		if err := json.Unmarshal(env.Changes, &patch); err != nil {
			return nil, fmt.Errorf("malformed update changes: %w", err)
		}
		return OrderUpdated{OrderID: env.OrderID, Patch: patch}, nil

	default:
		return nil, fmt.Errorf("unknown change event type %q", env.Type)
	}
}

// TenantOf extracts the tenant scope of a raw payload without fully decoding
// it, so the feed can drop other tenants' rows early.
func TenantOf(payload []byte) string {
	var env struct {
		TenantID string `json:"tenant_id"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return ""
	}
	return env.TenantID
}
