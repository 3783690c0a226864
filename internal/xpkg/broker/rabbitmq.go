// Package broker wraps a RabbitMQ connection with a durable topic exchange,
// publisher confirms and background reconnects.
package broker

import (
	"context"
	"sync"
	"time"

	"campus-food/internal/xpkg/config"
	"campus-food/internal/xpkg/logger"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

const reconnectInterval = 5 * time.Second

var (
	ErrConnClosed    = errors.New("rabbitmq connection is closed")
	ErrChannelClosed = errors.New("rabbitmq channel is closed")
	ErrNacked        = errors.New("rabbitmq did not confirm the message")
)

// Binding describes a queue and the routing keys it listens to on the exchange.
// An empty Queue declares a server-named exclusive queue, used by subscribers that
// only care about live events.
type Binding struct {
	Queue       string
	RoutingKeys []string
	Prefetch    int
	// DeadLetterExchange, when set, receives messages rejected without requeue.
	DeadLetterExchange string
}

type RabbitMQ struct {
	ctx   context.Context
	cfg   config.RabbitMQ
	mylog logger.Logger

	mu           sync.Mutex
	conn         *amqp.Connection
	ch           *amqp.Channel
	reconnecting bool
}

// Dial connects and declares the exchange. ctx bounds the lifetime of the
// reconnect loop.
func Dial(ctx context.Context, cfg config.RabbitMQ, mylog logger.Logger) (*RabbitMQ, error) {
	r := &RabbitMQ{
		ctx:   ctx,
		cfg:   cfg,
		mylog: mylog.With("exchange", cfg.Exchange),
	}
	if err := r.connect(); err != nil {
		return nil, err
	}
	r.mylog.Action("rabbitmq_connected").Info("Connected to RabbitMQ", "host", cfg.Host)
	return r, nil
}

func (r *RabbitMQ) connect() error {
	conn, err := amqp.Dial(r.cfg.URL())
	if err != nil {
		return errors.Wrap(err, "dial rabbitmq")
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return errors.Wrap(err, "open channel")
	}

	if err := ch.Confirm(false); err != nil {
		conn.Close()
		return errors.Wrap(err, "enable confirms")
	}

	err = ch.ExchangeDeclare(
		r.cfg.Exchange, // name
		"topic",        // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		conn.Close()
		return errors.Wrap(err, "declare exchange")
	}

	r.mu.Lock()
	r.conn = conn
	r.ch = ch
	r.mu.Unlock()
	return nil
}

func (r *RabbitMQ) channel() (*amqp.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil || r.conn.IsClosed() {
		return nil, ErrConnClosed
	}
	if r.ch == nil || r.ch.IsClosed() {
		return nil, ErrChannelClosed
	}
	return r.ch, nil
}

func (r *RabbitMQ) IsAlive() error {
	_, err := r.channel()
	return err
}

// Publish sends body on the exchange and waits for the broker confirm.
func (r *RabbitMQ) Publish(ctx context.Context, routingKey string, body []byte) error {
	ch, err := r.channel()
	if err != nil {
		go r.reconnect()
		return err
	}

	confirm, err := ch.PublishWithDeferredConfirmWithContext(ctx, r.cfg.Exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return errors.Wrap(err, "publish")
	}

	ok, err := confirm.WaitContext(ctx)
	if err != nil {
		return errors.Wrap(err, "wait for confirm")
	}
	if !ok {
		return ErrNacked
	}
	return nil
}

// Consume declares and binds the queue described by b and starts delivering
// messages. Deliveries must be acked or nacked by the caller.
func (r *RabbitMQ) Consume(ctx context.Context, b Binding, consumer string) (<-chan amqp.Delivery, error) {
	ch, err := r.channel()
	if err != nil {
		go r.reconnect()
		return nil, err
	}

	if b.Prefetch > 0 {
		if err := ch.Qos(b.Prefetch, 0, false); err != nil {
			return nil, errors.Wrap(err, "set qos")
		}
	}

	var args amqp.Table
	if b.DeadLetterExchange != "" {
		args = amqp.Table{"x-dead-letter-exchange": b.DeadLetterExchange}
	}

	durable := b.Queue != ""
	q, err := ch.QueueDeclare(
		b.Queue,  // name
		durable,  // durable
		!durable, // delete when unused
		!durable, // exclusive
		false,    // no-wait
		args,     // arguments
	)
	if err != nil {
		return nil, errors.Wrapf(err, "declare queue %q", b.Queue)
	}

	for _, key := range b.RoutingKeys {
		if err := ch.QueueBind(q.Name, key, r.cfg.Exchange, false, nil); err != nil {
			return nil, errors.Wrapf(err, "bind %q to %q", q.Name, key)
		}
	}

	r.mylog.Action("queue_bound").Info("Consuming queue", "queue", q.Name, "routing_keys", b.RoutingKeys)
	return ch.ConsumeWithContext(ctx, q.Name, consumer, false, false, false, false, nil)
}

func (r *RabbitMQ) reconnect() {
	r.mu.Lock()
	if r.reconnecting {
		r.mu.Unlock()
		return
	}
	r.reconnecting = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.reconnecting = false
		r.mu.Unlock()
	}()

	t := time.NewTicker(reconnectInterval)
	defer t.Stop()
	log := r.mylog.Action("rabbitmq_reconnecting")

	for {
		select {
		case <-t.C:
			if err := r.connect(); err != nil {
				log.Warn("RabbitMQ failed to reconnect", "error", err.Error())
				continue
			}
			log.Info("RabbitMQ reconnected")
			return
		case <-r.ctx.Done():
			return
		}
	}
}

func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ch != nil && !r.ch.IsClosed() {
		if err := r.ch.Close(); err != nil {
			return errors.Wrap(err, "close rabbitmq channel")
		}
	}
	if r.conn != nil && !r.conn.IsClosed() {
		if err := r.conn.Close(); err != nil {
			return errors.Wrap(err, "close rabbitmq connection")
		}
	}
	return nil
}
