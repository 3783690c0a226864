// Package cart holds the customer's pending order between page loads and turns
// it into a create-order command at checkout.
package cart

import (
	"time"

	"campus-food/internal/order/app/core"
	"campus-food/internal/order/domain/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type Line struct {
	FoodItemID uuid.UUID `json:"food_item_id"`
	Quantity   int       `json:"quantity"`
}

// Session is one customer's cart. Lines keep insertion order and hold at most
// one entry per food item.
type Session struct {
	ID        string    `json:"id"`
	Lines     []Line    `json:"lines"`
	Note      string    `json:"note,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSession(id string) Session {
	return Session{ID: id, Lines: []Line{}}
}

// Add increases the quantity of foodID, appending a new line when needed.
func (s *Session) Add(foodID uuid.UUID, qty int) error {
	if qty < core.MinItemQuantity {
		return core.Invalidf("quantity: %d, must be at least %d", qty, core.MinItemQuantity)
	}
	if i := s.index(foodID); i >= 0 {
		return s.setAt(i, s.Lines[i].Quantity+qty)
	}
	if len(s.Lines) >= core.MaxItems {
		return core.Invalidf("cart holds at most %d different items", core.MaxItems)
	}
	if qty > core.MaxItemQuantity {
		return core.Invalidf("quantity: %d, must be at most %d", qty, core.MaxItemQuantity)
	}
	s.Lines = append(s.Lines, Line{FoodItemID: foodID, Quantity: qty})
	return nil
}

// SetQuantity replaces the quantity of foodID. Zero removes the line.
func (s *Session) SetQuantity(foodID uuid.UUID, qty int) error {
	i := s.index(foodID)
	if i < 0 {
		return errors.Wrap(core.ErrNotFound, "item is not in the cart")
	}
	if qty == 0 {
		s.Remove(foodID)
		return nil
	}
	return s.setAt(i, qty)
}

func (s *Session) setAt(i, qty int) error {
	if qty < core.MinItemQuantity || qty > core.MaxItemQuantity {
		return core.Invalidf("quantity: %d, must be in range [%d, %d]", qty, core.MinItemQuantity, core.MaxItemQuantity)
	}
	s.Lines[i].Quantity = qty
	return nil
}

// Remove drops foodID and reports whether it was present.
func (s *Session) Remove(foodID uuid.UUID) bool {
	i := s.index(foodID)
	if i < 0 {
		return false
	}
	s.Lines = append(s.Lines[:i], s.Lines[i+1:]...)
	return true
}

func (s *Session) Clear() {
	s.Lines = []Line{}
	s.Note = ""
}

func (s *Session) SetNote(note string) error {
	if len(note) > core.MaxNoteLen {
		return core.Invalidf("note length: %d, must be at most %d", len(note), core.MaxNoteLen)
	}
	s.Note = note
	return nil
}

func (s Session) Empty() bool {
	return len(s.Lines) == 0
}

func (s Session) FoodItemIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(s.Lines))
	for i, l := range s.Lines {
		ids[i] = l.FoodItemID
	}
	return ids
}

// Total prices the cart with the given catalog prices.
func (s Session) Total(prices map[uuid.UUID]decimal.Decimal) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, l := range s.Lines {
		price, ok := prices[l.FoodItemID]
		if !ok {
			return decimal.Zero, errors.Wrapf(core.ErrFoodItemNotFound, "%s", l.FoodItemID)
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total, nil
}

// Checkout turns the cart into a create-order command, freezing the given prices.
func (s Session) Checkout(prices map[uuid.UUID]decimal.Decimal, trackingCode string) (models.NewOrder, error) {
	if s.Empty() {
		return models.NewOrder{}, core.Invalid("cart is empty")
	}
	total, err := s.Total(prices)
	if err != nil {
		return models.NewOrder{}, err
	}

	order := models.NewOrder{
		SessionID:    s.ID,
		TotalAmount:  total,
		TrackingCode: trackingCode,
		Items:        make([]models.NewOrderItem, 0, len(s.Lines)),
	}
	if s.Note != "" {
		note := s.Note
		order.Note = &note
	}
	for _, l := range s.Lines {
		order.Items = append(order.Items, models.NewOrderItem{
			FoodItemID: l.FoodItemID,
			Quantity:   l.Quantity,
			UnitPrice:  prices[l.FoodItemID],
		})
	}
	return order, nil
}

func (s Session) index(foodID uuid.UUID) int {
	for i, l := range s.Lines {
		if l.FoodItemID == foodID {
			return i
		}
	}
	return -1
}
