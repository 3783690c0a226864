package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	brokermessage "campus-food/internal/order/adapter/broker_message"
	"campus-food/internal/order/adapter/ledger"
	orderhandle "campus-food/internal/order/api/http/handle"
	"campus-food/internal/order/api/http/middleware"
	"campus-food/internal/order/app/services"
	"campus-food/internal/order/domain/models"
	"campus-food/internal/tracking/app/feed"
	"campus-food/internal/xpkg/auth"
	"campus-food/internal/xpkg/config"
	"campus-food/internal/xpkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type trackingFixture struct {
	router *gin.Engine
	hub    *feed.Hub
	orders *services.OrderService
	token  string
	order  models.Order
}

func newTrackingFixture(t *testing.T) *trackingFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	l, err := ledger.Open(ctx, config.Database{Driver: "sqlite", SQLitePath: ":memory:"}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	authenticator, err := auth.New(config.Auth{JWTSecret: "test-secret", TokenTTL: time.Hour})
	require.NoError(t, err)
	token, _, err := authenticator.Issue("admin")
	require.NoError(t, err)

	orders := services.NewOrderService(l.Orders, brokermessage.Nop{}, logger.Nop(), true)
	menu := services.NewMenuService(l.Foods, logger.Nop())
	jollof, err := menu.Create(ctx, models.FoodItemInput{
		Name: "Jollof Rice", Price: decimal.NewFromInt(800), Category: models.CategoryRice, IsAvailable: true,
	})
	require.NoError(t, err)

	order, err := orders.Create(ctx, models.NewOrder{
		SessionID:    "sess-1",
		TotalAmount:  decimal.NewFromInt(1600),
		TrackingCode: "FPI-TRK001",
		Items:        []models.NewOrderItem{{FoodItemID: jollof.ID, Quantity: 2, UnitPrice: decimal.NewFromInt(800)}},
	})
	require.NoError(t, err)

	hub := feed.NewHub(logger.Nop())
	router := NewRouter(Deps{
		Orders:    orders,
		Hub:       hub,
		Auth:      authenticator,
		Health:    map[string]orderhandle.Pinger{"database": l.DB},
		Timeout:   5 * time.Second,
		Heartbeat: time.Hour,
	}, logger.Nop())

	return &trackingFixture{router: router, hub: hub, orders: orders, token: token, order: order}
}

func (f *trackingFixture) get(ctx context.Context, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil).WithContext(ctx)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// serveAsync runs a streaming request and returns once the handler has
// subscribed to the hub.
func (f *trackingFixture) serveAsync(t *testing.T, ctx context.Context, path string, headers map[string]string) <-chan *httptest.ResponseRecorder {
	t.Helper()
	before := f.hub.Len()
	done := make(chan *httptest.ResponseRecorder, 1)
	go func() { done <- f.get(ctx, path, headers) }()
	require.Eventually(t, func() bool { return f.hub.Len() > before }, time.Second, 5*time.Millisecond)
	return done
}

func (f *trackingFixture) transition(t *testing.T, to models.Status) models.OrderEvent {
	t.Helper()
	from := f.order.Status
	order, err := f.orders.Transition(context.Background(), f.order.ID, to, models.AdminActor("admin"), "")
	require.NoError(t, err)
	f.order = order
	return models.OrderEvent{Type: models.EventUpdate, Order: order, OldStatus: from}
}

// moved builds the event a transition of the fixture order would publish,
// without touching the ledger.
func (f *trackingFixture) moved(from, to models.Status) models.OrderEvent {
	order := f.order
	order.Status = to
	return models.OrderEvent{Type: models.EventUpdate, Order: order, OldStatus: from}
}

func sessionHeader(id string) map[string]string {
	return map[string]string{middleware.SessionHeader: id}
}

func TestTrackingStatusAndHistory(t *testing.T) {
	f := newTrackingFixture(t)
	f.transition(t, models.StatusPaymentReceived)

	rec := f.get(context.Background(), "/orders/FPI-TRK001", sessionHeader("sess-1"))
	require.Equal(t, http.StatusOK, rec.Code)
	var order models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	require.Equal(t, models.StatusPaymentReceived, order.Status)
	require.Len(t, order.History, 2)

	rec = f.get(context.Background(), "/orders/FPI-TRK001/history", sessionHeader("sess-1"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.get(context.Background(), "/orders/FPI-TRK001", sessionHeader("sess-2"))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.get(context.Background(), "/orders/FPI-TRK001", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.get(context.Background(), "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCustomerStreamEndsAtTerminalStatus(t *testing.T) {
	f := newTrackingFixture(t)
	done := f.serveAsync(t, context.Background(), "/orders/FPI-TRK001/events", sessionHeader("sess-1"))

	// Another session's order must not leak into this stream.
	f.hub.Publish(models.OrderEvent{Order: models.Order{SessionID: "sess-2", TrackingCode: "FPI-OTHER1", Status: models.StatusPending}})
	f.hub.Publish(f.moved(models.StatusPending, models.StatusPaymentReceived))
	f.hub.Publish(f.moved(models.StatusPaymentReceived, models.StatusCancelled))

	var rec *httptest.ResponseRecorder
	select {
	case rec = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end after terminal status")
	}

	body := rec.Body.String()
	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	require.Contains(t, body, "event:snapshot")
	require.Equal(t, 2, strings.Count(body, "event:status"))
	require.Contains(t, body, `"status":"cancelled"`)
	require.NotContains(t, body, "FPI-OTHER1")
	require.Equal(t, 0, f.hub.Len())
}

func TestCustomerStreamHidesOtherSessions(t *testing.T) {
	f := newTrackingFixture(t)
	rec := f.get(context.Background(), "/orders/FPI-TRK001/events", sessionHeader("sess-2"))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, 0, f.hub.Len())
}

func TestAdminStream(t *testing.T) {
	f := newTrackingFixture(t)
	admin := map[string]string{"Authorization": "Bearer " + f.token}

	rec := f.get(context.Background(), "/admin/orders/events", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	done := f.serveAsync(t, context.Background(), "/admin/orders/events", admin)
	f.hub.Publish(models.OrderEvent{Order: models.Order{SessionID: "s9", TrackingCode: "FPI-DONE01", Status: models.StatusDelivered}})
	f.hub.Publish(f.moved(models.StatusPending, models.StatusPaymentReceived))
	// Buffered events are still written before the closed channel ends the stream.
	f.hub.Close()

	select {
	case rec = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("admin stream did not stop when the hub closed")
	}
	body := rec.Body.String()
	require.Contains(t, body, "FPI-TRK001")
	require.Contains(t, body, `"old_status":"pending"`)
	require.NotContains(t, body, "FPI-DONE01")
}

func TestAdminStreamStopsOnDisconnect(t *testing.T) {
	f := newTrackingFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := f.serveAsync(t, ctx, "/admin/orders/events?all=true", map[string]string{"Authorization": "Bearer " + f.token})
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("admin stream did not stop on disconnect")
	}
	require.Equal(t, 0, f.hub.Len())
}
