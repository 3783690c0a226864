package services

import (
	"context"
	"regexp"
	"time"

	"campus-food/internal/order/app/core"
	"campus-food/internal/order/domain/models"
	"campus-food/internal/xpkg/logger"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var trackingCodePattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

type OrderService struct {
	orderRepo core.IOrderRepo
	publisher core.IPublisher
	mylog     logger.Logger

	verifyTotal bool
	now         func() time.Time
}

func NewOrderService(
	orderRepo core.IOrderRepo,
	publisher core.IPublisher,
	mylog logger.Logger,
	verifyTotal bool,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		publisher:   publisher,
		mylog:       mylog,
		verifyTotal: verifyTotal,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create validates the command and writes the order, its items and the initial
// history entry in one transaction.
func (os *OrderService) Create(ctx context.Context, req models.NewOrder) (models.Order, error) {
	mylog := os.mylog.Action("create_order").With("tracking_code", req.TrackingCode)

	if err := os.ValidateOrder(req); err != nil {
		mylog.Debug("Order rejected", "reason", err.Error())
		return models.Order{}, err
	}

	order := os.buildOrder(req)
	if err := os.orderRepo.Create(ctx, order); err != nil {
		switch {
		case errors.Is(err, core.ErrDuplicateTracking):
			mylog.Warn("Tracking code already taken")
		case errors.Is(err, core.ErrReferential):
			mylog.Warn("Order references unknown food item", "error", err.Error())
		case errors.Is(err, core.ErrTransient):
			mylog.Error("Ledger unavailable", err)
		default:
			mylog.Error("Failed to save order", err)
		}
		return models.Order{}, err
	}

	mylog.Info("Order created", "order_id", order.ID, "total_amount", order.TotalAmount.StringFixed(2))
	os.publish(ctx, models.OrderEvent{
		Type:       models.EventInsert,
		Order:      order,
		OccurredAt: order.CreatedAt,
	})
	return order, nil
}

func (os *OrderService) buildOrder(req models.NewOrder) models.Order {
	now := os.now()
	order := models.Order{
		ID:           uuid.New(),
		SessionID:    req.SessionID,
		TotalAmount:  req.TotalAmount,
		Status:       models.InitialStatus,
		TrackingCode: req.TrackingCode,
		Note:         req.Note,
		CreatedAt:    now,
		UpdatedAt:    now,
		Items:        make([]models.OrderItem, 0, len(req.Items)),
	}
	for i, item := range req.Items {
		order.Items = append(order.Items, models.OrderItem{
			ID:         uuid.New(),
			OrderID:    order.ID,
			FoodItemID: item.FoodItemID,
			Position:   i + 1,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			CreatedAt:  now,
		})
	}
	order.History = []models.StatusLog{{
		OrderID:   order.ID,
		Status:    models.InitialStatus,
		ChangedBy: core.DefaultChangedBy,
		ChangedAt: now,
	}}
	return order
}

// ValidateOrder checks a create command before anything is written.
func (os *OrderService) ValidateOrder(req models.NewOrder) error {
	if err := validateSessionID(req.SessionID); err != nil {
		return err
	}

	if !req.TotalAmount.IsPositive() {
		return core.ErrInvalidTotal
	}
	if !hasMaxDecimals(req.TotalAmount) {
		return core.Invalidf("total amount: at most %d decimal places", core.MaxPriceDecimals)
	}

	if err := validateTrackingCode(req.TrackingCode); err != nil {
		return err
	}

	if req.Note != nil && len(*req.Note) > core.MaxNoteLen {
		return core.Invalidf("note length: %d, must be at most %d", len(*req.Note), core.MaxNoteLen)
	}

	if err := validateItems(req.Items); err != nil {
		return err
	}

	if os.verifyTotal {
		sum := decimal.Zero
		for _, item := range req.Items {
			sum = sum.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
		if !sum.Equal(req.TotalAmount) {
			return core.Invalidf("total amount %s does not match items total %s",
				req.TotalAmount.StringFixed(2), sum.StringFixed(2))
		}
	}
	return nil
}

func validateSessionID(sessionID string) error {
	if sessionID == "" {
		return core.Invalid("session id is required")
	}
	if len(sessionID) > core.MaxSessionIDLen {
		return core.Invalidf("session id length: %d, must be at most %d", len(sessionID), core.MaxSessionIDLen)
	}
	return nil
}

func validateTrackingCode(code string) error {
	if code == "" {
		return core.Invalid("tracking code is required")
	}
	if len(code) > core.MaxTrackingCodeLen {
		return core.Invalidf("tracking code length: %d, must be at most %d", len(code), core.MaxTrackingCodeLen)
	}
	if !trackingCodePattern.MatchString(code) {
		return core.Invalidf("tracking code must contain only letters, digits and '-': %s", code)
	}
	return nil
}

func validateItems(items []models.NewOrderItem) error {
	n := len(items)
	if n == 0 {
		return core.Invalid("order must contain at least one item")
	}
	if n < core.MinItems || n > core.MaxItems {
		return core.Invalidf("amount of items: %d, must be in range [%d, %d]", n, core.MinItems, core.MaxItems)
	}

	for i, item := range items {
		if item.FoodItemID == uuid.Nil {
			return core.Invalidf("item %d: food item id is required", i+1)
		}
		if item.Quantity < core.MinItemQuantity || item.Quantity > core.MaxItemQuantity {
			return core.Invalidf("item %d: quantity: %d, must be in range [%d, %d]",
				i+1, item.Quantity, core.MinItemQuantity, core.MaxItemQuantity)
		}
		if !item.UnitPrice.IsPositive() {
			return core.Invalidf("item %d: unit price must be positive", i+1)
		}
		if !hasMaxDecimals(item.UnitPrice) {
			return core.Invalidf("item %d: unit price: at most %d decimal places", i+1, core.MaxPriceDecimals)
		}
	}
	return nil
}

func hasMaxDecimals(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(core.MaxPriceDecimals))
}

// Transition moves an order along the status graph. Only admins may do this.
func (os *OrderService) Transition(
	ctx context.Context,
	orderID uuid.UUID,
	target models.Status,
	actor models.Actor,
	note string,
) (models.Order, error) {
	mylog := os.mylog.Action("transition_order").With("order_id", orderID, "target", target)

	if !actor.IsAdmin() {
		mylog.Warn("Transition refused", "actor", actor.String())
		return models.Order{}, errors.Wrap(core.ErrForbidden, "only admins can change order status")
	}
	if !target.Valid() {
		return models.Order{}, core.Invalidf("unknown order status: %q", target)
	}
	if len(note) > core.MaxNoteLen {
		return models.Order{}, core.Invalidf("note length: %d, must be at most %d", len(note), core.MaxNoteLen)
	}

	at := os.now()
	order, from, err := os.orderRepo.Transition(ctx, orderID, target, actor.ID, note, at)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			mylog.Debug("Order not found")
		case errors.Is(err, core.ErrIllegalTransition):
			mylog.Warn("Illegal transition", "from", from)
		default:
			mylog.Error("Failed to transition order", err)
		}
		return models.Order{}, err
	}

	mylog.Info("Order status changed", "from", from, "changed_by", actor.ID)
	os.publish(ctx, models.OrderEvent{
		Type:       models.EventUpdate,
		Order:      order,
		OldStatus:  from,
		OccurredAt: at,
	})
	return order, nil
}

// GetByTrackingCode returns the order with its items and history. An order that
// the actor may not read is reported as not found.
func (os *OrderService) GetByTrackingCode(ctx context.Context, trackingCode string, actor models.Actor) (models.Order, error) {
	if err := validateTrackingCode(trackingCode); err != nil {
		return models.Order{}, err
	}

	order, err := os.orderRepo.GetByTrackingCode(ctx, trackingCode)
	if err != nil {
		return models.Order{}, err
	}
	if !actor.CanRead(order.SessionID) {
		os.mylog.Action("get_order").Debug("Session mismatch", "tracking_code", trackingCode)
		return models.Order{}, core.ErrOrderNotFound
	}

	order.History, err = os.orderRepo.GetHistory(ctx, order.ID)
	if err != nil {
		return models.Order{}, err
	}
	return order, nil
}

func (os *OrderService) History(ctx context.Context, trackingCode string, actor models.Actor) ([]models.StatusLog, error) {
	order, err := os.GetByTrackingCode(ctx, trackingCode, actor)
	if err != nil {
		return nil, err
	}
	return order.History, nil
}

func (os *OrderService) GetByID(ctx context.Context, orderID uuid.UUID, actor models.Actor) (models.Order, error) {
	order, err := os.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	if !actor.CanRead(order.SessionID) {
		return models.Order{}, core.ErrOrderNotFound
	}

	order.History, err = os.orderRepo.GetHistory(ctx, order.ID)
	if err != nil {
		return models.Order{}, err
	}
	return order, nil
}

// List returns a page of orders, newest first. Non admin actors only see their
// own session.
func (os *OrderService) List(ctx context.Context, filter models.OrderFilter, actor models.Actor) (models.OrderPage, error) {
	if !actor.IsAdmin() {
		if actor.ID == "" {
			return models.OrderPage{}, errors.Wrap(core.ErrForbidden, "session required")
		}
		filter.SessionID = actor.ID
	}

	if filter.Limit == 0 {
		filter.Limit = core.DefaultPageLimit
	}
	if filter.Limit < 1 || filter.Limit > core.MaxPageLimit {
		return models.OrderPage{}, core.Invalidf("limit: %d, must be in range [1, %d]", filter.Limit, core.MaxPageLimit)
	}
	if filter.Offset < 0 {
		return models.OrderPage{}, core.Invalidf("offset: %d, must not be negative", filter.Offset)
	}
	for _, st := range filter.Statuses {
		if !st.Valid() {
			return models.OrderPage{}, core.Invalidf("unknown order status: %q", st)
		}
	}
	if filter.CreatedFrom != nil && filter.CreatedTo != nil && !filter.CreatedFrom.Before(*filter.CreatedTo) {
		return models.OrderPage{}, core.Invalid("created_from must be before created_to")
	}

	return os.orderRepo.List(ctx, filter)
}

// publish runs after commit. A failure is logged and never undoes the write.
func (os *OrderService) publish(ctx context.Context, event models.OrderEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), core.PublishTimeout)
	defer cancel()

	if err := os.publisher.Publish(ctx, event); err != nil {
		os.mylog.Action("publish_event").Error("Failed to publish order event", err,
			"order_id", event.Order.ID, "type", event.Type)
	}
}
