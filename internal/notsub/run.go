// Package notsub runs the notification subscriber: it listens to order events
// and prints a customer message for each status change.
package notsub

import (
	"context"
	"os"

	brokermessage "campus-food/internal/order/adapter/broker_message"
	"campus-food/internal/notsub/app/services"
	"campus-food/internal/xpkg/broker"
	"campus-food/internal/xpkg/config"
	"campus-food/internal/xpkg/logger"

	"github.com/pkg/errors"
)

const consumerName = "notification-subscriber"

// Binding is a durable queue shared by all subscriber instances, so each
// event is notified once.
func Binding(cfg config.Notifications) broker.Binding {
	return broker.Binding{
		Queue:              cfg.Queue,
		RoutingKeys:        []string{"order.#"},
		Prefetch:           cfg.Prefetch,
		DeadLetterExchange: cfg.DeadLetterExchange,
	}
}

func Execute(ctx context.Context, cfg *config.Config, mylog logger.Logger) error {
	mylog = mylog.With("service", consumerName)

	if !cfg.RMQ.Enabled {
		return errors.New("notification subscriber requires rabbitmq.enabled")
	}

	notifier, err := services.NewNotifier(os.Stdout, cfg.Notifications.Language, cfg.Notifications.Currency, mylog)
	if err != nil {
		return err
	}

	mb, err := broker.Dial(ctx, cfg.RMQ, mylog)
	if err != nil {
		mylog.Action("mb_connection_failed").Error("Failed to connect to message broker", err)
		return errors.Wrap(err, "failed to connect to rabbitmq")
	}
	defer func() {
		if err := mb.Close(); err != nil {
			mylog.Action("mb_close_failed").Error("Failed to close message broker", err)
			return
		}
		mylog.Action("mb_closed").Info("Message broker closed")
	}()

	consumer := brokermessage.NewConsumer(mb, Binding(cfg.Notifications), consumerName, notifier.Notify, mylog)
	if err := consumer.Run(ctx); err != nil {
		mylog.Action("consume_failed").Error("Failed to consume order events", err)
		return err
	}
	mylog.Action("graceful_shutdown_completed").Info("Successfully shut down")
	return nil
}
