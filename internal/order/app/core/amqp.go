package core

import (
	"context"

	"campus-food/internal/order/domain/models"
)

// IPublisher pushes committed ledger changes to the change feed.
type IPublisher interface {
	Publish(ctx context.Context, event models.OrderEvent) error
	Close() error
}
