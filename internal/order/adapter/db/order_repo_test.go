package db

import (
	"context"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"campus-food/internal/order/app/core"
	"campus-food/internal/order/domain/models"
	"campus-food/internal/xpkg/config"
	xdb "campus-food/internal/xpkg/db"
	"campus-food/internal/xpkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// postgresConfig reads CAMPUSFOOD_TEST_POSTGRES_DSN and skips when it is unset.
func postgresConfig(t *testing.T) config.Database {
	t.Helper()
	dsn := os.Getenv("CAMPUSFOOD_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CAMPUSFOOD_TEST_POSTGRES_DSN not set")
	}
	parsed, err := pgx.ParseConfig(dsn)
	require.NoError(t, err)

	sslmode := "disable"
	if parsed.TLSConfig != nil {
		sslmode = "require"
	}
	return config.Database{
		Driver:   "postgres",
		Host:     parsed.Host,
		Port:     strconv.Itoa(int(parsed.Port)),
		User:     parsed.User,
		Password: parsed.Password,
		Database: parsed.Database,
		SSLMode:  sslmode,
	}
}

type pgFixture struct {
	orders *OrderRepo
	foods  *FoodRepo
	food   models.FoodItem
}

func newPGFixture(t *testing.T) *pgFixture {
	t.Helper()
	cfg := postgresConfig(t)
	require.NoError(t, xdb.MigratePostgres(cfg))

	conn, err := xdb.Start(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	f := &pgFixture{orders: NewOrderRepo(conn), foods: NewFoodRepo(conn)}
	now := time.Now().UTC().Truncate(time.Microsecond)
	f.food = models.FoodItem{
		ID:          uuid.New(),
		Name:        "Fried Rice " + uuid.NewString()[:8],
		Price:       decimal.NewFromInt(900),
		Category:    models.CategoryRice,
		IsAvailable: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, f.foods.Create(context.Background(), f.food))
	return f
}

func (f *pgFixture) newOrder(code string, foodID uuid.UUID) models.Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	order := models.Order{
		ID:           uuid.New(),
		SessionID:    "pg-" + code,
		TotalAmount:  decimal.NewFromInt(1800),
		Status:       models.InitialStatus,
		TrackingCode: code,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	order.Items = []models.OrderItem{{
		ID:         uuid.New(),
		OrderID:    order.ID,
		FoodItemID: foodID,
		Quantity:   2,
		UnitPrice:  decimal.NewFromInt(900),
		Position:   1,
	}}
	order.History = initialHistory(order)
	return order
}

func testCode() string {
	return "PG-" + strings.ToUpper(uuid.NewString()[:8])
}

func TestPostgresCreateAndRead(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	order := f.newOrder(testCode(), f.food.ID)

	require.NoError(t, f.orders.Create(ctx, order))

	got, err := f.orders.GetByTrackingCode(ctx, order.TrackingCode)
	require.NoError(t, err)
	require.Equal(t, order.ID, got.ID)
	require.Len(t, got.Items, 1)
	require.True(t, got.TotalAmount.Equal(order.TotalAmount))

	history, err := f.orders.GetHistory(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, models.StatusPending, history[0].Status)
}

func TestPostgresCreateErrors(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	order := f.newOrder(testCode(), f.food.ID)
	require.NoError(t, f.orders.Create(ctx, order))

	dup := f.newOrder(order.TrackingCode, f.food.ID)
	require.ErrorIs(t, f.orders.Create(ctx, dup), core.ErrDuplicateTracking)

	dangling := f.newOrder(testCode(), uuid.New())
	require.ErrorIs(t, f.orders.Create(ctx, dangling), core.ErrReferential)

	_, err := f.orders.GetByTrackingCode(ctx, dangling.TrackingCode)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestPostgresConcurrentDuplicateCode(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	code := testCode()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.orders.Create(ctx, f.newOrder(code, f.food.ID))
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case core.Retryable(err):
			dup++
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, 1, dup)
}

func TestPostgresTransition(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	order := f.newOrder(testCode(), f.food.ID)
	require.NoError(t, f.orders.Create(ctx, order))

	at := time.Now().UTC().Truncate(time.Microsecond)
	updated, from, err := f.orders.Transition(ctx, order.ID, models.StatusPaymentReceived, "root", "paid", at)
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, from)
	require.Equal(t, models.StatusPaymentReceived, updated.Status)

	_, _, err = f.orders.Transition(ctx, order.ID, models.StatusDelivered, "root", "", at)
	require.ErrorIs(t, err, core.ErrIllegalTransition)

	_, _, err = f.orders.Transition(ctx, uuid.New(), models.StatusConfirmed, "root", "", at)
	require.ErrorIs(t, err, core.ErrNotFound)

	history, err := f.orders.GetHistory(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "root", history[1].ChangedBy)
}

func TestPostgresDeleteFoodInUse(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	require.NoError(t, f.orders.Create(ctx, f.newOrder(testCode(), f.food.ID)))

	require.ErrorIs(t, f.foods.Delete(ctx, f.food.ID), core.ErrConflict)
}
