package models

import "time"

// Status is the lifecycle state of an order, persisted as a string.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusServed    Status = "served"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

const (
	OrderTypeDineIn   = "dine_in"
	OrderTypeTakeaway = "takeaway"
)

type Order struct {
	ID          string      `json:"id"`
	TenantID    string      `json:"tenant_id"`
	Status      Status      `json:"status"`
	OrderType   string      `json:"order_type"`
	TableRef    string      `json:"table_ref,omitempty"`
	TableLabel  string      `json:"table_label,omitempty"`
	CustomerRef string      `json:"customer_ref,omitempty"`
	Notes       string      `json:"notes,omitempty"`
	TotalAmount float64     `json:"total_amount"`
	Items       []OrderItem `json:"items"`
	CreatedAt   time.Time   `json:"created_at"`
	PreparingAt *time.Time  `json:"preparing_at,omitempty"`
	ReadyAt     *time.Time  `json:"ready_at,omitempty"`
	ServedAt    *time.Time  `json:"served_at,omitempty"`
	PaidAt      *time.Time  `json:"paid_at,omitempty"`
}

type OrderItem struct {
	ID                string             `json:"id"`
	OrderID           string             `json:"order_id"`
	MenuItemRef       string             `json:"menu_item_ref"`
	DisplayName       string             `json:"display_name,omitempty"`
	Quantity          int                `json:"quantity"`
	UnitPriceAtTime   float64            `json:"unit_price_at_time"`
	SelectedModifiers []SelectedModifier `json:"selected_modifiers,omitempty"`
	FreeTextNote      string             `json:"free_text_note,omitempty"`
}

// SelectedModifier is the resolved customisation stored on an order line.
// Persisted as a typed sub-entity, never serialised into the note field.
type SelectedModifier struct {
	GroupName    string  `json:"group_name"`
	ModifierName string  `json:"modifier_name"`
	PriceDelta   float64 `json:"price_delta"`
}

// Terminal reports whether the order can no longer change.
func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// TimestampColumn maps a target status to the column stamped on that
// transition. Empty for statuses that carry no timestamp of their own.
func TimestampColumn(s Status) string {
	switch s {
	case StatusPreparing:
		return "preparing_at"
	case StatusReady:
		return "ready_at"
	case StatusServed:
		return "served_at"
	case StatusPaid:
		return "paid_at"
	}
	return ""
}

// StampedAt returns the transition timestamp recorded for the given status,
// or nil if the order never reached it (or the status carries none).
func (o *Order) StampedAt(s Status) *time.Time {
	switch s {
	case StatusPreparing:
		return o.PreparingAt
	case StatusReady:
		return o.ReadyAt
	case StatusServed:
		return o.ServedAt
	case StatusPaid:
		return o.PaidAt
	}
	return nil
}

// SetStamp records the transition timestamp for the given status. Timestamps
// are set once; a stamp that is already present is left untouched.
func (o *Order) SetStamp(s Status, t time.Time) {
	switch s {
	case StatusPreparing:
		if o.PreparingAt == nil {
			o.PreparingAt = &t
		}
	case StatusReady:
		if o.ReadyAt == nil {
			o.ReadyAt = &t
		}
	case StatusServed:
		if o.ServedAt == nil {
			o.ServedAt = &t
		}
	case StatusPaid:
		if o.PaidAt == nil {
			o.PaidAt = &t
		}
	}
}

// ClearStamp removes the transition timestamp for the given status. Used when
// a degraded write confirmed the status but lost the timestamp, so the local
// snapshot must not claim precision the durable side never stored.
func (o *Order) ClearStamp(s Status) {
	switch s {
	case StatusPreparing:
		o.PreparingAt = nil
	case StatusReady:
		o.ReadyAt = nil
	case StatusServed:
		o.ServedAt = nil
	case StatusPaid:
		o.PaidAt = nil
	}
}

// Clone returns a deep copy of the order, detached from the original's
// items and timestamp pointers.
func (o *Order) Clone() Order {
	out := *o
	out.Items = make([]OrderItem, len(o.Items))
	copy(out.Items, o.Items)
	for i := range out.Items {
		mods := make([]SelectedModifier, len(o.Items[i].SelectedModifiers))
		copy(mods, o.Items[i].SelectedModifiers)
		out.Items[i].SelectedModifiers = mods
	}
	clonePtr := func(t *time.Time) *time.Time {
		if t == nil {
			return nil
		}
		c := *t
		return &c
	}
	out.PreparingAt = clonePtr(o.PreparingAt)
	out.ReadyAt = clonePtr(o.ReadyAt)
	out.ServedAt = clonePtr(o.ServedAt)
	out.PaidAt = clonePtr(o.PaidAt)
	return out
}
