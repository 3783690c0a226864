package dto

import (
	"campus-food/internal/order/domain/models"

	"github.com/shopspring/decimal"
)

type FoodItemRequest struct {
	Name        string          `json:"name" binding:"required,max=100"`
	Description string          `json:"description" binding:"max=500"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category" binding:"required,category"`
	IsAvailable *bool           `json:"is_available"`
}

// ToModel defaults IsAvailable to true when omitted.
func (r FoodItemRequest) ToModel() models.FoodItemInput {
	available := true
	if r.IsAvailable != nil {
		available = *r.IsAvailable
	}
	return models.FoodItemInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Category:    models.Category(r.Category),
		IsAvailable: available,
	}
}

type AvailabilityRequest struct {
	IsAvailable *bool `json:"is_available" binding:"required"`
}

type MenuQuery struct {
	Category string `form:"category" binding:"omitempty,category"`
}
