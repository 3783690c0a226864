package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryRice    Category = "Rice"
	CategorySnacks  Category = "Snacks"
	CategoryDrinks  Category = "Drinks"
	CategorySwallow Category = "Swallow"
	CategoryProtein Category = "Protein"
	CategoryOthers  Category = "Others"
)

var categories = []Category{
	CategoryRice,
	CategorySnacks,
	CategoryDrinks,
	CategorySwallow,
	CategoryProtein,
	CategoryOthers,
}

func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", errors.Errorf("unknown category: %q", s)
	}
	return c, nil
}

func (c Category) Valid() bool {
	for _, known := range categories {
		if known == c {
			return true
		}
	}
	return false
}

type FoodItem struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Category    Category        `db:"category" json:"category"`
	IsAvailable bool            `db:"is_available" json:"is_available"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

type MenuFilter struct {
	Category      Category
	AvailableOnly bool
}

// FoodItemInput is the writable part of a menu item.
type FoodItemInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    Category
	IsAvailable bool
}
