package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Order struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	SessionID    string          `db:"session_id" json:"session_id"`
	TotalAmount  decimal.Decimal `db:"total_amount" json:"total_amount"`
	Status       Status          `db:"status" json:"status"`
	TrackingCode string          `db:"tracking_code" json:"tracking_code"`
	Note         *string         `db:"note" json:"note,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`

	Items   []OrderItem `db:"-" json:"items"`
	History []StatusLog `db:"-" json:"history,omitempty"`
}

// OrderItem keeps the unit price the customer saw at order time.
type OrderItem struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	OrderID    uuid.UUID       `db:"order_id" json:"order_id"`
	FoodItemID uuid.UUID       `db:"food_item_id" json:"food_item_id"`
	Position   int             `db:"position" json:"position"`
	Quantity   int             `db:"quantity" json:"quantity"`
	UnitPrice  decimal.Decimal `db:"unit_price" json:"unit_price"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type StatusLog struct {
	ID        int64     `db:"id" json:"id"`
	OrderID   uuid.UUID `db:"order_id" json:"order_id"`
	Status    Status    `db:"status" json:"status"`
	ChangedBy string    `db:"changed_by" json:"changed_by"`
	Note      string    `db:"note" json:"note,omitempty"`
	ChangedAt time.Time `db:"changed_at" json:"changed_at"`
}

// ItemsTotal sums quantity * unit price over the order lines.
func (o Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// NewOrder is the create-order command.
type NewOrder struct {
	SessionID    string
	TotalAmount  decimal.Decimal
	TrackingCode string
	Note         *string
	Items        []NewOrderItem
}

type NewOrderItem struct {
	FoodItemID uuid.UUID
	Quantity   int
	UnitPrice  decimal.Decimal
}

// OrderFilter narrows an order listing. Zero values mean "no filter".
type OrderFilter struct {
	Statuses    []Status
	SessionID   string
	ActiveOnly  bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

type OrderPage struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// NonTerminalStatuses is what an "active only" listing matches.
func NonTerminalStatuses() []Status {
	var out []Status
	for _, st := range allStatuses {
		if !st.Terminal() {
			out = append(out, st)
		}
	}
	return out
}
