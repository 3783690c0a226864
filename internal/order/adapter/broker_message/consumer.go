package brokermessage

import (
	"context"
	"encoding/json"
	"time"

	"campus-food/internal/order/domain/models"
	"campus-food/internal/xpkg/broker"
	"campus-food/internal/xpkg/logger"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

const resubscribeInterval = 5 * time.Second

// ErrMalformed marks a delivery that can never be processed. Such messages
// are rejected without requeue.
var ErrMalformed = errors.New("malformed order event")

// ISource is satisfied by xpkg/broker.RabbitMQ.
type ISource interface {
	Consume(ctx context.Context, b broker.Binding, consumer string) (<-chan amqp.Delivery, error)
}

// HandlerFunc processes one decoded event.
type HandlerFunc func(ctx context.Context, event models.OrderEvent) error

// Consumer decodes order events from a queue and hands them to a handler,
// acking on success.
type Consumer struct {
	source  ISource
	binding broker.Binding
	name    string
	handle  HandlerFunc
	retry   time.Duration
	mylog   logger.Logger
}

func NewConsumer(source ISource, binding broker.Binding, name string, handle HandlerFunc, mylog logger.Logger) *Consumer {
	return &Consumer{
		source:  source,
		binding: binding,
		name:    name,
		handle:  handle,
		retry:   resubscribeInterval,
		mylog:   mylog.With("consumer", name),
	}
}

// Run consumes until ctx is cancelled. When the delivery channel closes, as
// it does when the broker connection drops, the queue is consumed again every
// retry interval until that succeeds.
func (c *Consumer) Run(ctx context.Context) error {
	deliveries, err := c.source.Consume(ctx, c.binding, c.name)
	if err != nil {
		return errors.Wrap(err, "failed to consume order events")
	}

	for {
		c.mylog.Action("consumer_started").Info("Consuming order events", "queue", c.binding.Queue)
		c.work(ctx, deliveries)
		if ctx.Err() != nil {
			return nil
		}

		deliveries, err = c.resubscribe(ctx)
		if err != nil {
			return nil
		}
	}
}

func (c *Consumer) resubscribe(ctx context.Context) (<-chan amqp.Delivery, error) {
	mylog := c.mylog.Action("consumer_resubscribing")
	t := time.NewTicker(c.retry)
	defer t.Stop()

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
			deliveries, err := c.source.Consume(ctx, c.binding, c.name)
			if err != nil {
				mylog.Warn("Failed to consume order events again", "attempt", attempt, "error", err.Error())
				continue
			}
			mylog.Info("Resumed consuming order events", "attempt", attempt)
			return deliveries, nil
		}
	}
}

// work settles deliveries one at a time so status events for an order are
// handled in publish order.
func (c *Consumer) work(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			c.mylog.Action("work_shutdown").Info("Stopping message consumption due to context cancel")
			return

		case msg, ok := <-deliveries:
			if !ok {
				c.mylog.Action("work_shutdown").Warn("Delivery channel closed")
				return
			}
			c.Process(ctx, msg)
		}
	}
}

// Process handles one delivery and settles it: ack on success, reject
// malformed messages, requeue other failures once.
func (c *Consumer) Process(ctx context.Context, msg amqp.Delivery) {
	mylog := c.mylog.Action("process_message").With("routing_key", msg.RoutingKey)

	err := c.processMsg(ctx, msg)
	if err == nil {
		if err := msg.Ack(false); err != nil {
			mylog.Error("Failed to ack", err)
		}
		return
	}

	requeue := !errors.Is(err, ErrMalformed) && !msg.Redelivered
	mylog.Error("Failed to process order event", err, "requeue", requeue)
	if err := msg.Nack(false, requeue); err != nil {
		mylog.Error("Failed to nack", err)
	}
}

func (c *Consumer) processMsg(ctx context.Context, msg amqp.Delivery) error {
	var event models.OrderEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return errors.Wrap(ErrMalformed, err.Error())
	}
	if event.Order.TrackingCode == "" || !event.Order.Status.Valid() {
		return errors.Wrap(ErrMalformed, "missing tracking code or status")
	}
	return c.handle(ctx, event)
}
