package services

import (
	"context"
	"strings"
	"time"

	"campus-food/internal/order/app/core"
	"campus-food/internal/order/domain/models"
	"campus-food/internal/xpkg/logger"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type MenuService struct {
	foodRepo core.IFoodRepo
	mylog    logger.Logger
	now      func() time.Time
}

func NewMenuService(foodRepo core.IFoodRepo, mylog logger.Logger) *MenuService {
	return &MenuService{
		foodRepo: foodRepo,
		mylog:    mylog,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// List returns the menu. Customers only ever see available items.
func (ms *MenuService) List(ctx context.Context, filter models.MenuFilter) ([]models.FoodItem, error) {
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, core.Invalidf("unknown category: %q", filter.Category)
	}
	return ms.foodRepo.List(ctx, filter)
}

// Get returns one item. With availableOnly set, an unavailable item is not found.
func (ms *MenuService) Get(ctx context.Context, id uuid.UUID, availableOnly bool) (models.FoodItem, error) {
	item, err := ms.foodRepo.Get(ctx, id)
	if err != nil {
		return models.FoodItem{}, err
	}
	if availableOnly && !item.IsAvailable {
		return models.FoodItem{}, core.ErrFoodItemNotFound
	}
	return item, nil
}

// Priced returns the catalog entries for ids, keyed by id. Missing or
// unavailable items are reported by id.
func (ms *MenuService) Priced(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.FoodItem, error) {
	items, err := ms.foodRepo.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.FoodItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	for _, id := range ids {
		item, ok := byID[id]
		if !ok {
			return nil, errors.Wrapf(core.ErrFoodItemNotFound, "%s", id)
		}
		if !item.IsAvailable {
			return nil, core.Invalidf("%s is currently unavailable", item.Name)
		}
	}
	return byID, nil
}

func (ms *MenuService) Create(ctx context.Context, in models.FoodItemInput) (models.FoodItem, error) {
	mylog := ms.mylog.Action("create_food_item")

	in, err := normalizeFood(in)
	if err != nil {
		return models.FoodItem{}, err
	}

	now := ms.now()
	item := models.FoodItem{
		ID:          uuid.New(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		IsAvailable: in.IsAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := ms.foodRepo.Create(ctx, item); err != nil {
		mylog.Error("Failed to create food item", err)
		return models.FoodItem{}, err
	}

	mylog.Info("Food item created", "food_item_id", item.ID, "name", item.Name)
	return item, nil
}

func (ms *MenuService) Update(ctx context.Context, id uuid.UUID, in models.FoodItemInput) (models.FoodItem, error) {
	in, err := normalizeFood(in)
	if err != nil {
		return models.FoodItem{}, err
	}

	item, err := ms.foodRepo.Get(ctx, id)
	if err != nil {
		return models.FoodItem{}, err
	}
	item.Name = in.Name
	item.Description = in.Description
	item.Price = in.Price
	item.Category = in.Category
	item.IsAvailable = in.IsAvailable
	item.UpdatedAt = ms.now()

	if err := ms.foodRepo.Update(ctx, item); err != nil {
		return models.FoodItem{}, err
	}
	ms.mylog.Action("update_food_item").Info("Food item updated", "food_item_id", id)
	return item, nil
}

func (ms *MenuService) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (models.FoodItem, error) {
	item, err := ms.foodRepo.SetAvailability(ctx, id, available, ms.now())
	if err != nil {
		return models.FoodItem{}, err
	}
	ms.mylog.Action("set_availability").Info("Food item availability changed",
		"food_item_id", id, "is_available", available)
	return item, nil
}

// Delete removes an item that no order references. Referenced items can only
// be made unavailable.
func (ms *MenuService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ms.foodRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, core.ErrFoodItemInUse) {
			ms.mylog.Action("delete_food_item").Warn("Food item still referenced", "food_item_id", id)
		}
		return err
	}
	ms.mylog.Action("delete_food_item").Info("Food item deleted", "food_item_id", id)
	return nil
}

// Seed creates the given items, skipping names already on the menu so the
// same file can be applied twice. All items are validated before any is
// written.
func (ms *MenuService) Seed(ctx context.Context, items []models.FoodItemInput) (created, skipped int, err error) {
	mylog := ms.mylog.Action("seed_menu")

	for i := range items {
		if items[i], err = normalizeFood(items[i]); err != nil {
			return 0, 0, errors.Wrapf(err, "item %d", i+1)
		}
	}

	existing, err := ms.foodRepo.List(ctx, models.MenuFilter{})
	if err != nil {
		return 0, 0, err
	}
	names := make(map[string]bool, len(existing))
	for _, item := range existing {
		names[strings.ToLower(item.Name)] = true
	}

	for _, in := range items {
		key := strings.ToLower(in.Name)
		if names[key] {
			skipped++
			continue
		}
		if _, err := ms.Create(ctx, in); err != nil {
			return created, skipped, err
		}
		names[key] = true
		created++
	}
	mylog.Info("Menu seeded", "created", created, "skipped", skipped)
	return created, skipped, nil
}

func normalizeFood(in models.FoodItemInput) (models.FoodItemInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)

	if in.Name == "" {
		return in, core.Invalid("name is required")
	}
	if len(in.Name) > core.MaxFoodNameLen {
		return in, core.Invalidf("name length: %d, must be at most %d", len(in.Name), core.MaxFoodNameLen)
	}
	if len(in.Description) > core.MaxFoodDescriptionLen {
		return in, core.Invalidf("description length: %d, must be at most %d", len(in.Description), core.MaxFoodDescriptionLen)
	}
	if !in.Price.IsPositive() {
		return in, core.Invalid("price must be positive")
	}
	if !hasMaxDecimals(in.Price) {
		return in, core.Invalidf("price: at most %d decimal places", core.MaxPriceDecimals)
	}
	if !in.Category.Valid() {
		return in, core.Invalidf("unknown category: %q", in.Category)
	}
	return in, nil
}
