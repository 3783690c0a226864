package dto

import (
	"time"

	"campus-food/internal/order/domain/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateOrderRequest struct {
	TotalAmount  decimal.Decimal    `json:"total_amount"`
	TrackingCode string             `json:"tracking_code" binding:"required,max=32"`
	Note         *string            `json:"note" binding:"omitempty,max=500"`
	Items        []OrderItemRequest `json:"items" binding:"required,min=1,max=50,dive"`
}

type OrderItemRequest struct {
	FoodItemID string          `json:"food_item_id" binding:"required,uuid"`
	Quantity   int             `json:"quantity" binding:"required,min=1,max=100"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

// ToModel converts the request into a create command for sessionID. Binding
// has already checked the food item ids.
func (r CreateOrderRequest) ToModel(sessionID string) models.NewOrder {
	out := models.NewOrder{
		SessionID:    sessionID,
		TotalAmount:  r.TotalAmount,
		TrackingCode: r.TrackingCode,
		Note:         r.Note,
		Items:        make([]models.NewOrderItem, 0, len(r.Items)),
	}
	for _, item := range r.Items {
		out.Items = append(out.Items, models.NewOrderItem{
			FoodItemID: uuid.MustParse(item.FoodItemID),
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
		})
	}
	return out
}

type TransitionRequest struct {
	Status string `json:"status" binding:"required,order_status"`
	Note   string `json:"note" binding:"max=500"`
}

type ListOrdersQuery struct {
	Status      []string   `form:"status" binding:"dive,order_status"`
	SessionID   string     `form:"session_id" binding:"max=128"`
	Active      bool       `form:"active"`
	CreatedFrom *time.Time `form:"created_from" time_format:"2006-01-02T15:04:05Z07:00"`
	CreatedTo   *time.Time `form:"created_to" time_format:"2006-01-02T15:04:05Z07:00"`
	Limit       int        `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset      int        `form:"offset" binding:"omitempty,min=0"`
}

func (q ListOrdersQuery) ToFilter() models.OrderFilter {
	filter := models.OrderFilter{
		SessionID:   q.SessionID,
		ActiveOnly:  q.Active,
		CreatedFrom: q.CreatedFrom,
		CreatedTo:   q.CreatedTo,
		Limit:       q.Limit,
		Offset:      q.Offset,
	}
	for _, st := range q.Status {
		filter.Statuses = append(filter.Statuses, models.Status(st))
	}
	return filter
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// OrderStatusResponse is the short form served to tracking pages.
type OrderStatusResponse struct {
	TrackingCode string          `json:"tracking_code"`
	Status       models.Status   `json:"status"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Next         []models.Status `json:"next_statuses"`
}

func NewOrderStatusResponse(o models.Order) OrderStatusResponse {
	return OrderStatusResponse{
		TrackingCode: o.TrackingCode,
		Status:       o.Status,
		TotalAmount:  o.TotalAmount,
		UpdatedAt:    o.UpdatedAt,
		Next:         o.Status.Next(),
	}
}
