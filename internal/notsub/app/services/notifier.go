package services

import (
	"context"
	"fmt"
	"io"
	"sync"

	"campus-food/internal/order/domain/models"
	"campus-food/internal/xpkg/logger"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const keyPrefix = "order."

// Arguments are always (tracking code, item count, total); messages pick
// them by index.
var englishMessages = map[models.Status]string{
	models.StatusPending:         "Order %[1]s received: %[2]d item(s), total %[3]s.",
	models.StatusPaymentReceived: "Payment of %[3]s received for order %[1]s.",
	models.StatusConfirmed:       "Order %[1]s confirmed by the kitchen.",
	models.StatusPreparing:       "Order %[1]s is being prepared.",
	models.StatusDispatched:      "Order %[1]s is on its way.",
	models.StatusDelivered:       "Order %[1]s delivered. Enjoy your meal!",
	models.StatusCancelled:       "Order %[1]s was cancelled.",
}

// Notifier turns order events into customer facing messages.
type Notifier struct {
	printer *message.Printer
	unit    currency.Unit
	mylog   logger.Logger

	mu  sync.Mutex
	out io.Writer
}

// NewNotifier formats amounts in cur (ISO 4217) for lang (BCP 47). Only
// English message text exists; other languages fall back to it with their own
// number formatting.
func NewNotifier(out io.Writer, lang, cur string, mylog logger.Logger) (*Notifier, error) {
	tag, err := language.Parse(lang)
	if err != nil {
		return nil, errors.Wrapf(err, "parse language %q", lang)
	}
	unit, err := currency.ParseISO(cur)
	if err != nil {
		return nil, errors.Wrapf(err, "parse currency %q", cur)
	}

	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for status, text := range englishMessages {
		if err := b.SetString(language.English, keyPrefix+string(status), text); err != nil {
			return nil, errors.Wrap(err, "build message catalog")
		}
	}

	return &Notifier{
		printer: message.NewPrinter(tag, message.Catalog(b)),
		unit:    unit,
		mylog:   mylog,
		out:     out,
	}, nil
}

// Format renders the message for e.
func (n *Notifier) Format(e models.OrderEvent) (string, error) {
	if _, ok := englishMessages[e.Order.Status]; !ok {
		return "", errors.Errorf("no message for status %q", e.Order.Status)
	}
	return n.printer.Sprintf(keyPrefix+string(e.Order.Status),
		e.Order.TrackingCode, len(e.Order.Items), n.Amount(e.Order.TotalAmount)), nil
}

// Amount formats d with the currency code and locale digit grouping, e.g.
// "NGN 1,850.00".
func (n *Notifier) Amount(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return n.printer.Sprintf("%s %.2f", n.unit.String(), f)
}

// Notify writes one line for e. It satisfies the order event consumer handler.
func (n *Notifier) Notify(_ context.Context, e models.OrderEvent) error {
	text, err := n.Format(e)
	if err != nil {
		return err
	}

	n.mylog.Action("notification_received").WithGroup("details").Info("Received status update for order",
		"tracking_code", e.Order.TrackingCode, "old_status", e.OldStatus, "new_status", e.Order.Status)

	n.mu.Lock()
	defer n.mu.Unlock()
	if _, err := fmt.Fprintf(n.out, "[session %s] %s\n", e.Order.SessionID, text); err != nil {
		return errors.Wrap(err, "write notification")
	}
	return nil
}
