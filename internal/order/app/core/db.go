package core

import (
	"context"
	"time"

	"campus-food/internal/order/domain/models"

	"github.com/google/uuid"
)

// IDB is the liveness and lifecycle surface of a ledger backend.
type IDB interface {
	Close() error
	IsAlive(ctx context.Context) error
}

// IOrderRepo is the order ledger. Create and Transition are the only write paths.
type IOrderRepo interface {
	// Create inserts the order, its items and the initial history row in one
	// transaction.
	Create(ctx context.Context, order models.Order) error
	// Transition moves the order to target and appends a history row in one
	// transaction, returning the updated order and the status it left.
	Transition(ctx context.Context, orderID uuid.UUID, target models.Status, changedBy, note string, at time.Time) (models.Order, models.Status, error)

	GetByID(ctx context.Context, orderID uuid.UUID) (models.Order, error)
	GetByTrackingCode(ctx context.Context, trackingCode string) (models.Order, error)
	GetHistory(ctx context.Context, orderID uuid.UUID) ([]models.StatusLog, error)
	List(ctx context.Context, filter models.OrderFilter) (models.OrderPage, error)
}

// IFoodRepo is the menu catalog.
type IFoodRepo interface {
	Create(ctx context.Context, item models.FoodItem) error
	Update(ctx context.Context, item models.FoodItem) error
	SetAvailability(ctx context.Context, id uuid.UUID, available bool, at time.Time) (models.FoodItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (models.FoodItem, error)
	GetMany(ctx context.Context, ids []uuid.UUID) ([]models.FoodItem, error)
	List(ctx context.Context, filter models.MenuFilter) ([]models.FoodItem, error)
}
