package brokermessage

import (
	"context"
	"encoding/json"

	"campus-food/internal/order/domain/models"
	"campus-food/internal/xpkg/logger"

	"github.com/pkg/errors"
)

// IBus is satisfied by xpkg/broker.RabbitMQ.
type IBus interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
	Close() error
}

// Publisher puts order events on the topic exchange, keyed "order.<status>".
type Publisher struct {
	bus   IBus
	mylog logger.Logger
}

func NewPublisher(bus IBus, mylog logger.Logger) *Publisher {
	return &Publisher{bus: bus, mylog: mylog}
}

func (p *Publisher) Publish(ctx context.Context, event models.OrderEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal order event")
	}

	key := event.RoutingKey()
	if err := p.bus.Publish(ctx, key, body); err != nil {
		return errors.Wrapf(err, "publish %s", key)
	}
	p.mylog.Action("event_published").Debug("Order event published",
		"routing_key", key, "tracking_code", event.Order.TrackingCode)
	return nil
}

func (p *Publisher) Close() error {
	return p.bus.Close()
}

// Nop drops events. Used when the broker is disabled.
type Nop struct{}

func (Nop) Publish(context.Context, models.OrderEvent) error { return nil }

func (Nop) Close() error { return nil }
