package cart

import (
	"context"
	"time"

	"campus-food/internal/order/app/core"
	"campus-food/internal/order/domain/models"
	"campus-food/internal/xpkg/logger"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type Menu interface {
	Get(ctx context.Context, id uuid.UUID, availableOnly bool) (models.FoodItem, error)
	Priced(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.FoodItem, error)
}

type Orders interface {
	Create(ctx context.Context, req models.NewOrder) (models.Order, error)
}

// PricedLine is a cart line joined with the current catalog entry.
type PricedLine struct {
	FoodItemID uuid.UUID       `json:"food_item_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	LineTotal  decimal.Decimal `json:"line_total"`
	Available  bool            `json:"available"`
}

type View struct {
	SessionID string          `json:"session_id"`
	Lines     []PricedLine    `json:"lines"`
	Note      string          `json:"note,omitempty"`
	Total     decimal.Decimal `json:"total"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Service struct {
	store   Store
	menu    Menu
	orders  Orders
	mylog   logger.Logger
	newCode func() (string, error)
	now     func() time.Time
}

func NewService(store Store, menu Menu, orders Orders, mylog logger.Logger) *Service {
	return &Service{
		store:   store,
		menu:    menu,
		orders:  orders,
		mylog:   mylog,
		newCode: NewTrackingCode,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (cs *Service) Get(ctx context.Context, sessionID string) (Session, error) {
	return cs.store.Get(ctx, sessionID)
}

// View prices the cart with the live menu. Items removed from the menu since
// they were added are reported as unavailable with a zero price.
func (cs *Service) View(ctx context.Context, sessionID string) (View, error) {
	s, err := cs.store.Get(ctx, sessionID)
	if err != nil {
		return View{}, err
	}

	view := View{
		SessionID: s.ID,
		Lines:     make([]PricedLine, 0, len(s.Lines)),
		Note:      s.Note,
		Total:     decimal.Zero,
		UpdatedAt: s.UpdatedAt,
	}
	for _, l := range s.Lines {
		line := PricedLine{FoodItemID: l.FoodItemID, Quantity: l.Quantity, UnitPrice: decimal.Zero, LineTotal: decimal.Zero}
		item, err := cs.menu.Get(ctx, l.FoodItemID, false)
		switch {
		case errors.Is(err, core.ErrNotFound):
		case err != nil:
			return View{}, err
		default:
			line.Name = item.Name
			line.Available = item.IsAvailable
			line.UnitPrice = item.Price
			line.LineTotal = item.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
			if item.IsAvailable {
				view.Total = view.Total.Add(line.LineTotal)
			}
		}
		view.Lines = append(view.Lines, line)
	}
	return view, nil
}

// AddItem adds qty of an available menu item.
func (cs *Service) AddItem(ctx context.Context, sessionID string, foodID uuid.UUID, qty int) (Session, error) {
	if _, err := cs.menu.Get(ctx, foodID, true); err != nil {
		return Session{}, err
	}
	return cs.update(ctx, sessionID, func(s *Session) error { return s.Add(foodID, qty) })
}

func (cs *Service) SetQuantity(ctx context.Context, sessionID string, foodID uuid.UUID, qty int) (Session, error) {
	return cs.update(ctx, sessionID, func(s *Session) error { return s.SetQuantity(foodID, qty) })
}

func (cs *Service) RemoveItem(ctx context.Context, sessionID string, foodID uuid.UUID) (Session, error) {
	return cs.update(ctx, sessionID, func(s *Session) error {
		if !s.Remove(foodID) {
			return errors.Wrap(core.ErrNotFound, "item is not in the cart")
		}
		return nil
	})
}

func (cs *Service) SetNote(ctx context.Context, sessionID, note string) (Session, error) {
	return cs.update(ctx, sessionID, func(s *Session) error { return s.SetNote(note) })
}

func (cs *Service) Clear(ctx context.Context, sessionID string) error {
	return cs.store.Delete(ctx, sessionID)
}

// Checkout prices the cart from the live menu and places the order. A tracking
// code collision is retried with a fresh code. The cart is cleared only after
// the order is stored.
func (cs *Service) Checkout(ctx context.Context, sessionID string) (models.Order, error) {
	mylog := cs.mylog.Action("checkout").With("session_id", sessionID)

	s, err := cs.store.Get(ctx, sessionID)
	if err != nil {
		return models.Order{}, err
	}
	if s.Empty() {
		return models.Order{}, core.Invalid("cart is empty")
	}

	items, err := cs.menu.Priced(ctx, s.FoodItemIDs())
	if err != nil {
		return models.Order{}, err
	}
	prices := make(map[uuid.UUID]decimal.Decimal, len(items))
	for id, item := range items {
		prices[id] = item.Price
	}

	var order models.Order
	for attempt := 1; attempt <= core.CheckoutAttempts; attempt++ {
		code, err := cs.newCode()
		if err != nil {
			return models.Order{}, err
		}
		req, err := s.Checkout(prices, code)
		if err != nil {
			return models.Order{}, err
		}

		order, err = cs.orders.Create(ctx, req)
		if err == nil {
			break
		}
		if !errors.Is(err, core.ErrDuplicateTracking) || attempt == core.CheckoutAttempts {
			return models.Order{}, err
		}
		mylog.Warn("tracking code collision, retrying", "tracking_code", code, "attempt", attempt)
	}

	if err := cs.store.Delete(ctx, sessionID); err != nil {
		mylog.Error("failed to clear cart after checkout", err, "order_id", order.ID)
	}
	mylog.Info("cart checked out", "order_id", order.ID, "tracking_code", order.TrackingCode)
	return order, nil
}

func (cs *Service) update(ctx context.Context, sessionID string, mutate func(*Session) error) (Session, error) {
	s, err := cs.store.Get(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if err := mutate(&s); err != nil {
		return Session{}, err
	}
	s.UpdatedAt = cs.now()
	if err := cs.store.Save(ctx, s); err != nil {
		return Session{}, err
	}
	return s, nil
}
