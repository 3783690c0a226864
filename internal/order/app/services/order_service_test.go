package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"campus-food/internal/order/app/core"
	"campus-food/internal/order/domain/models"
	"campus-food/internal/xpkg/logger"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestOrderService(verifyTotal bool) (*OrderService, *MockOrderRepo, *MockPublisher) {
	repo := new(MockOrderRepo)
	pub := new(MockPublisher)
	svc := NewOrderService(repo, pub, logger.Nop(), verifyTotal)
	svc.now = func() time.Time { return fixedNow }
	return svc, repo, pub
}

func scenarioA() models.NewOrder {
	return models.NewOrder{
		SessionID:    "sess-1",
		TotalAmount:  decimal.NewFromInt(1850),
		TrackingCode: "FPI-AB12CD",
		Items: []models.NewOrderItem{
			{FoodItemID: uuid.New(), Quantity: 2, UnitPrice: decimal.NewFromInt(800)},
			{FoodItemID: uuid.New(), Quantity: 1, UnitPrice: decimal.NewFromInt(250)},
		},
	}
}

func TestCreateOrderBuildsLedgerRowsAndPublishes(t *testing.T) {
	svc, repo, pub := newTestOrderService(true)
	req := scenarioA()

	var saved models.Order
	repo.On("Create", mock.Anything, mock.AnythingOfType("models.Order")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(models.Order) }).
		Return(nil)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(e models.OrderEvent) bool {
		return e.Type == models.EventInsert && e.Order.TrackingCode == "FPI-AB12CD"
	})).Return(nil)

	order, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, models.StatusPending, order.Status)
	require.Equal(t, fixedNow, order.CreatedAt)
	require.Len(t, order.Items, 2)
	require.Equal(t, 1, order.Items[0].Position)
	require.Equal(t, 2, order.Items[1].Position)
	require.Equal(t, req.Items[1].FoodItemID, order.Items[1].FoodItemID)
	require.Len(t, order.History, 1)
	require.Equal(t, models.StatusPending, order.History[0].Status)
	require.Equal(t, saved.ID, order.ID)

	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestCreateOrderPublishFailureKeepsOrder(t *testing.T) {
	svc, repo, pub := newTestOrderService(true)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	order, err := svc.Create(context.Background(), scenarioA())
	require.NoError(t, err)
	require.Equal(t, "FPI-AB12CD", order.TrackingCode)
}

func TestCreateOrderValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.NewOrder)
		is     error
	}{
		{"zero total", func(r *models.NewOrder) { r.TotalAmount = decimal.Zero }, core.ErrInvalidTotal},
		{"negative total", func(r *models.NewOrder) { r.TotalAmount = decimal.NewFromInt(-5) }, core.ErrInvalidTotal},
		{"no items", func(r *models.NewOrder) { r.Items = nil }, core.ErrValidation},
		{"zero quantity", func(r *models.NewOrder) { r.Items[0].Quantity = 0 }, core.ErrValidation},
		{"zero unit price", func(r *models.NewOrder) { r.Items[1].UnitPrice = decimal.Zero }, core.ErrValidation},
		{"three decimals", func(r *models.NewOrder) { r.Items[1].UnitPrice = decimal.RequireFromString("250.005") }, core.ErrValidation},
		{"missing session", func(r *models.NewOrder) { r.SessionID = "" }, core.ErrValidation},
		{"missing tracking code", func(r *models.NewOrder) { r.TrackingCode = "" }, core.ErrValidation},
		{"bad tracking code", func(r *models.NewOrder) { r.TrackingCode = "FPI AB/12" }, core.ErrValidation},
		{"long note", func(r *models.NewOrder) { n := strings.Repeat("x", core.MaxNoteLen+1); r.Note = &n }, core.ErrValidation},
		{"nil food id", func(r *models.NewOrder) { r.Items[0].FoodItemID = uuid.Nil }, core.ErrValidation},
		{"total mismatch", func(r *models.NewOrder) { r.TotalAmount = decimal.NewFromInt(1900) }, core.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, pub := newTestOrderService(true)
			req := scenarioA()
			tt.mutate(&req)

			_, err := svc.Create(context.Background(), req)
			require.ErrorIs(t, err, tt.is)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateOrderSkipsTotalCheckWhenDisabled(t *testing.T) {
	svc, repo, pub := newTestOrderService(false)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	req := scenarioA()
	req.TotalAmount = decimal.NewFromInt(1900)
	_, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
}

func TestCreateOrderPropagatesLedgerErrors(t *testing.T) {
	for _, ledgerErr := range []error{
		errors.Wrap(core.ErrDuplicateTracking, "insert order"),
		errors.Wrap(core.ErrReferential, "insert item 2"),
		errors.Wrap(core.ErrTransient, "begin transaction"),
	} {
		svc, repo, pub := newTestOrderService(true)
		repo.On("Create", mock.Anything, mock.Anything).Return(ledgerErr)

		_, err := svc.Create(context.Background(), scenarioA())
		require.ErrorIs(t, err, errors.Cause(ledgerErr))
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	}
}

func TestTransitionRequiresAdmin(t *testing.T) {
	svc, repo, _ := newTestOrderService(true)

	_, err := svc.Transition(context.Background(), uuid.New(), models.StatusConfirmed, models.SessionActor("sess-1"), "")
	require.ErrorIs(t, err, core.ErrForbidden)
	repo.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	svc, _, _ := newTestOrderService(true)

	_, err := svc.Transition(context.Background(), uuid.New(), models.Status("ready"), models.AdminActor("root"), "")
	require.ErrorIs(t, err, core.ErrValidation)
}

func TestTransitionPublishesUpdate(t *testing.T) {
	svc, repo, pub := newTestOrderService(true)
	id := uuid.New()
	updated := models.Order{ID: id, Status: models.StatusPreparing, TrackingCode: "FPI-AB12CD"}

	repo.On("Transition", mock.Anything, id, models.StatusPreparing, "root", "on it", fixedNow).
		Return(updated, models.StatusConfirmed, nil)
	pub.On("Publish", mock.Anything, models.OrderEvent{
		Type:       models.EventUpdate,
		Order:      updated,
		OldStatus:  models.StatusConfirmed,
		OccurredAt: fixedNow,
	}).Return(nil)

	order, err := svc.Transition(context.Background(), id, models.StatusPreparing, models.AdminActor("root"), "on it")
	require.NoError(t, err)
	require.Equal(t, models.StatusPreparing, order.Status)
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestTransitionIllegalIsNotPublished(t *testing.T) {
	svc, repo, pub := newTestOrderService(true)
	id := uuid.New()
	repo.On("Transition", mock.Anything, id, models.StatusPreparing, "root", "", fixedNow).
		Return(models.Order{}, models.StatusDelivered, errors.Wrap(core.ErrIllegalTransition, "delivered -> preparing"))

	_, err := svc.Transition(context.Background(), id, models.StatusPreparing, models.AdminActor("root"), "")
	require.ErrorIs(t, err, core.ErrIllegalTransition)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestGetByTrackingCodeHidesOtherSessions(t *testing.T) {
	svc, repo, _ := newTestOrderService(true)
	order := models.Order{ID: uuid.New(), SessionID: "sess-1", TrackingCode: "FPI-AB12CD"}
	history := []models.StatusLog{{OrderID: order.ID, Status: models.StatusPending}}

	repo.On("GetByTrackingCode", mock.Anything, "FPI-AB12CD").Return(order, nil)
	repo.On("GetHistory", mock.Anything, order.ID).Return(history, nil)

	got, err := svc.GetByTrackingCode(context.Background(), "FPI-AB12CD", models.SessionActor("sess-1"))
	require.NoError(t, err)
	require.Equal(t, history, got.History)

	_, err = svc.GetByTrackingCode(context.Background(), "FPI-AB12CD", models.SessionActor("sess-2"))
	require.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.GetByTrackingCode(context.Background(), "FPI-AB12CD", models.AdminActor("root"))
	require.NoError(t, err)
}

func TestListScopesSessionsAndDefaultsLimit(t *testing.T) {
	svc, repo, _ := newTestOrderService(true)
	repo.On("List", mock.Anything, models.OrderFilter{SessionID: "sess-1", Limit: core.DefaultPageLimit}).
		Return(models.OrderPage{Limit: core.DefaultPageLimit}, nil)

	_, err := svc.List(context.Background(), models.OrderFilter{SessionID: "someone-else"}, models.SessionActor("sess-1"))
	require.NoError(t, err)
	repo.AssertExpectations(t)

	_, err = svc.List(context.Background(), models.OrderFilter{Limit: core.MaxPageLimit + 1}, models.AdminActor("root"))
	require.ErrorIs(t, err, core.ErrValidation)

	_, err = svc.List(context.Background(), models.OrderFilter{Offset: -1}, models.AdminActor("root"))
	require.ErrorIs(t, err, core.ErrValidation)

	_, err = svc.List(context.Background(), models.OrderFilter{Statuses: []models.Status{"ready"}}, models.AdminActor("root"))
	require.ErrorIs(t, err, core.ErrValidation)

	_, err = svc.List(context.Background(), models.OrderFilter{}, models.Actor{})
	require.ErrorIs(t, err, core.ErrForbidden)
}
