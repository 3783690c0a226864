package db

import (
	"context"
	"time"

	"campus-food/internal/order/app/core"
	"campus-food/internal/order/domain/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const foodColumns = `id, name, description, price, category, is_available, created_at, updated_at`

type FoodRepo struct {
	db IDB
}

func NewFoodRepo(db IDB) *FoodRepo {
	return &FoodRepo{db: db}
}

func (fr *FoodRepo) Create(ctx context.Context, item models.FoodItem) error {
	_, err := fr.db.Pool().Exec(ctx, `
		INSERT INTO food_items (`+foodColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		item.ID,
		item.Name,
		item.Description,
		item.Price,
		string(item.Category),
		item.IsAvailable,
		item.CreatedAt,
		item.UpdatedAt,
	)
	return translate(err, "insert food item")
}

func (fr *FoodRepo) Update(ctx context.Context, item models.FoodItem) error {
	tag, err := fr.db.Pool().Exec(ctx, `
		UPDATE food_items
		SET name = $2, description = $3, price = $4, category = $5, is_available = $6, updated_at = $7
		WHERE id = $1
	`,
		item.ID,
		item.Name,
		item.Description,
		item.Price,
		string(item.Category),
		item.IsAvailable,
		item.UpdatedAt,
	)
	if err != nil {
		return translate(err, "update food item")
	}
	if tag.RowsAffected() == 0 {
		return core.ErrFoodItemNotFound
	}
	return nil
}

func (fr *FoodRepo) SetAvailability(ctx context.Context, id uuid.UUID, available bool, at time.Time) (models.FoodItem, error) {
	row := fr.db.Pool().QueryRow(ctx, `
		UPDATE food_items
		SET is_available = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+foodColumns, id, available, at)
	item, err := scanFood(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.FoodItem{}, core.ErrFoodItemNotFound
	}
	if err != nil {
		return models.FoodItem{}, translate(err, "set availability")
	}
	return item, nil
}

func (fr *FoodRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := fr.db.Pool().Exec(ctx, `DELETE FROM food_items WHERE id = $1`, id)
	if err != nil {
		err = translate(err, "delete food item")
		if errors.Is(err, core.ErrReferential) {
			return core.ErrFoodItemInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrFoodItemNotFound
	}
	return nil
}

func (fr *FoodRepo) Get(ctx context.Context, id uuid.UUID) (models.FoodItem, error) {
	item, err := scanFood(fr.db.Pool().QueryRow(ctx, `SELECT `+foodColumns+` FROM food_items WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.FoodItem{}, core.ErrFoodItemNotFound
	}
	if err != nil {
		return models.FoodItem{}, translate(err, "get food item")
	}
	return item, nil
}

func (fr *FoodRepo) GetMany(ctx context.Context, ids []uuid.UUID) ([]models.FoodItem, error) {
	if len(ids) == 0 {
		return []models.FoodItem{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	rows, err := fr.db.Pool().Query(ctx, `SELECT `+foodColumns+` FROM food_items WHERE id = ANY($1::uuid[])`, keys)
	if err != nil {
		return nil, translate(err, "query food items")
	}
	return collectFood(rows)
}

func (fr *FoodRepo) List(ctx context.Context, filter models.MenuFilter) ([]models.FoodItem, error) {
	q := `SELECT ` + foodColumns + ` FROM food_items
		WHERE ($1::text = '' OR category = $1::text) AND (NOT $2::boolean OR is_available)
		ORDER BY category, name`
	rows, err := fr.db.Pool().Query(ctx, q, string(filter.Category), filter.AvailableOnly)
	if err != nil {
		return nil, translate(err, "query menu")
	}
	return collectFood(rows)
}

func scanFood(row pgx.Row) (models.FoodItem, error) {
	var item models.FoodItem
	var category string
	err := row.Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.Price,
		&category,
		&item.IsAvailable,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	item.Category = models.Category(category)
	return item, err
}

func collectFood(rows pgx.Rows) ([]models.FoodItem, error) {
	defer rows.Close()

	items := []models.FoodItem{}
	for rows.Next() {
		item, err := scanFood(rows)
		if err != nil {
			return nil, translate(err, "scan food item")
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "iterate food items")
	}
	return items, nil
}
