package services

import (
	"context"
	"time"

	"campus-food/internal/order/domain/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockOrderRepo struct {
	mock.Mock
}

func (m *MockOrderRepo) Create(ctx context.Context, order models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepo) Transition(
	ctx context.Context,
	orderID uuid.UUID,
	target models.Status,
	changedBy, note string,
	at time.Time,
) (models.Order, models.Status, error) {
	args := m.Called(ctx, orderID, target, changedBy, note, at)
	return args.Get(0).(models.Order), args.Get(1).(models.Status), args.Error(2)
}

func (m *MockOrderRepo) GetByID(ctx context.Context, orderID uuid.UUID) (models.Order, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(models.Order), args.Error(1)
}

func (m *MockOrderRepo) GetByTrackingCode(ctx context.Context, trackingCode string) (models.Order, error) {
	args := m.Called(ctx, trackingCode)
	return args.Get(0).(models.Order), args.Error(1)
}

func (m *MockOrderRepo) GetHistory(ctx context.Context, orderID uuid.UUID) ([]models.StatusLog, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]models.StatusLog), args.Error(1)
}

func (m *MockOrderRepo) List(ctx context.Context, filter models.OrderFilter) (models.OrderPage, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(models.OrderPage), args.Error(1)
}

type MockFoodRepo struct {
	mock.Mock
}

func (m *MockFoodRepo) Create(ctx context.Context, item models.FoodItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockFoodRepo) Update(ctx context.Context, item models.FoodItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockFoodRepo) SetAvailability(ctx context.Context, id uuid.UUID, available bool, at time.Time) (models.FoodItem, error) {
	args := m.Called(ctx, id, available, at)
	return args.Get(0).(models.FoodItem), args.Error(1)
}

func (m *MockFoodRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockFoodRepo) Get(ctx context.Context, id uuid.UUID) (models.FoodItem, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.FoodItem), args.Error(1)
}

func (m *MockFoodRepo) GetMany(ctx context.Context, ids []uuid.UUID) ([]models.FoodItem, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]models.FoodItem), args.Error(1)
}

func (m *MockFoodRepo) List(ctx context.Context, filter models.MenuFilter) ([]models.FoodItem, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.FoodItem), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event models.OrderEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}
