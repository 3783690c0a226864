package broker

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"campus-food/internal/xpkg/config"
	"campus-food/internal/xpkg/logger"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) config.RabbitMQ {
	t.Helper()
	raw := os.Getenv("CAMPUSFOOD_TEST_AMQP_URL")
	if raw == "" {
		t.Skip("CAMPUSFOOD_TEST_AMQP_URL not set")
	}
	uri, err := amqp.ParseURI(raw)
	require.NoError(t, err)

	return config.RabbitMQ{
		Enabled:  true,
		Host:     uri.Host,
		Port:     strconv.Itoa(uri.Port),
		User:     uri.Username,
		Password: uri.Password,
		VHost:    uri.Vhost,
		Exchange: "campusfood_test_" + uuid.NewString()[:8],
	}
}

func TestPublishConsumeRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	r, err := Dial(ctx, testConfig(t), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	require.NoError(t, r.IsAlive())

	deliveries, err := r.Consume(ctx, Binding{RoutingKeys: []string{"order.#"}}, "test")
	require.NoError(t, err)

	require.NoError(t, r.Publish(ctx, "order.cancelled", []byte(`{"type":"UPDATE"}`)))
	require.NoError(t, r.Publish(ctx, "menu.updated", []byte(`{}`)))

	select {
	case d := <-deliveries:
		require.Equal(t, "order.cancelled", d.RoutingKey)
		require.JSONEq(t, `{"type":"UPDATE"}`, string(d.Body))
		require.NoError(t, d.Ack(false))
	case <-ctx.Done():
		t.Fatal("no delivery")
	}

	select {
	case d := <-deliveries:
		t.Fatalf("unexpected delivery %q", d.RoutingKey)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestCloseMarksBrokerDead(t *testing.T) {
	r, err := Dial(context.Background(), testConfig(t), logger.Nop())
	require.NoError(t, err)

	require.NoError(t, r.Close())
	require.ErrorIs(t, r.IsAlive(), ErrConnClosed)
}
