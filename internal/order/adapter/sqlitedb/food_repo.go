package sqlitedb

import (
	"context"
	"database/sql"
	"time"

	"campus-food/internal/order/app/core"
	"campus-food/internal/order/domain/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
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
	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()
	_, err := fr.db.DB().NamedExecContext(ctx, `
		INSERT INTO food_items (`+foodColumns+`)
		VALUES (:id, :name, :description, :price, :category, :is_available, :created_at, :updated_at)
	`, item)
	return translate(err, "insert food item")
}

func (fr *FoodRepo) Update(ctx context.Context, item models.FoodItem) error {
	item.UpdatedAt = item.UpdatedAt.UTC()
	res, err := fr.db.DB().NamedExecContext(ctx, `
		UPDATE food_items
		SET name = :name, description = :description, price = :price, category = :category,
			is_available = :is_available, updated_at = :updated_at
		WHERE id = :id
	`, item)
	if err != nil {
		return translate(err, "update food item")
	}
	return expectRow(res, core.ErrFoodItemNotFound)
}

func (fr *FoodRepo) SetAvailability(ctx context.Context, id uuid.UUID, available bool, at time.Time) (models.FoodItem, error) {
	res, err := fr.db.DB().ExecContext(ctx, `UPDATE food_items SET is_available = ?, updated_at = ? WHERE id = ?`,
		available, at.UTC(), id)
	if err != nil {
		return models.FoodItem{}, translate(err, "set availability")
	}
	if err := expectRow(res, core.ErrFoodItemNotFound); err != nil {
		return models.FoodItem{}, err
	}
	return fr.Get(ctx, id)
}

func (fr *FoodRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := fr.db.DB().ExecContext(ctx, `DELETE FROM food_items WHERE id = ?`, id)
	if err != nil {
		err = translate(err, "delete food item")
		if errors.Is(err, core.ErrReferential) {
			return core.ErrFoodItemInUse
		}
		return err
	}
	return expectRow(res, core.ErrFoodItemNotFound)
}

func (fr *FoodRepo) Get(ctx context.Context, id uuid.UUID) (models.FoodItem, error) {
	var item models.FoodItem
	err := fr.db.DB().GetContext(ctx, &item, `SELECT `+foodColumns+` FROM food_items WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FoodItem{}, core.ErrFoodItemNotFound
	}
	if err != nil {
		return models.FoodItem{}, translate(err, "get food item")
	}
	return item, nil
}

func (fr *FoodRepo) GetMany(ctx context.Context, ids []uuid.UUID) ([]models.FoodItem, error) {
	items := []models.FoodItem{}
	if len(ids) == 0 {
		return items, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	query, args, err := sqlx.In(`SELECT `+foodColumns+` FROM food_items WHERE id IN (?)`, keys)
	if err != nil {
		return nil, errors.Wrap(err, "build food items query")
	}
	if err := fr.db.DB().SelectContext(ctx, &items, fr.db.DB().Rebind(query), args...); err != nil {
		return nil, translate(err, "query food items")
	}
	return items, nil
}

func (fr *FoodRepo) List(ctx context.Context, filter models.MenuFilter) ([]models.FoodItem, error) {
	items := []models.FoodItem{}
	err := fr.db.DB().SelectContext(ctx, &items, `
		SELECT `+foodColumns+` FROM food_items
		WHERE (? = '' OR category = ?) AND (? = 0 OR is_available = 1)
		ORDER BY category, name
	`, string(filter.Category), string(filter.Category), filter.AvailableOnly)
	if err != nil {
		return nil, translate(err, "query menu")
	}
	return items, nil
}

func expectRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return notFound
	}
	return nil
}
