package domain

import "time"

type OrderStatus string

const (
	OrderStatusInvoiced       OrderStatus = "INVOICED"
	OrderStatusPaymentPending OrderStatus = "PAYMENT_PENDING"
	OrderStatusSettled        OrderStatus = "SETTLED"
	OrderStatusFinalized      OrderStatus = "FINALIZED"
	OrderStatusRejected       OrderStatus = "REJECTED"
	OrderStatusExpired        OrderStatus = "EXPIRED"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusFinalized || s == OrderStatusRejected || s == OrderStatusExpired
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

// OrderLine is a cart line frozen at invoice time. UnitPrice is the catalog
// price snapshot; AmountMinor is the priced line in minor currency units.
type OrderLine struct {
	ItemID      int64   `json:"item_id"`
	ItemName    string  `json:"item_name"`
	Quantity    int32   `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	AmountMinor int64   `json:"amount_minor"`
}

// Order is an immutable snapshot of one checkout attempt. Payload is the
// single-use token handed to the payment gateway; the total is never
// recomputed from the catalog after creation.
type Order struct {
	Payload    string
	UserID     int64
	Lines      []OrderLine
	TotalMinor int64
	Status     OrderStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
