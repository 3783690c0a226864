// Package sqlitedb is the embedded order ledger, used for local development and
// for exercising the transactional behaviour of the ledger in tests.
package sqlitedb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"campus-food/internal/order/app/core"
	"campus-food/internal/order/domain/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// IDB is satisfied by xpkg/db.SQLite.
type IDB interface {
	DB() *sqlx.DB
}

// dbtx is implemented by both *sqlx.DB and *sqlx.Tx.
type dbtx interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

const orderColumns = `id, session_id, total_amount, status, tracking_code, note, created_at, updated_at`

type OrderRepo struct {
	db IDB
}

func NewOrderRepo(db IDB) *OrderRepo {
	return &OrderRepo{db: db}
}

func (or *OrderRepo) Create(ctx context.Context, order models.Order) error {
	tx, err := or.db.DB().BeginTxx(ctx, nil)
	if err != nil {
		return translate(err, "begin transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		order.ID,
		order.SessionID,
		order.TotalAmount,
		string(order.Status),
		order.TrackingCode,
		order.Note,
		order.CreatedAt.UTC(),
		order.UpdatedAt.UTC(),
	)
	if err != nil {
		return translate(err, "insert order")
	}

	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, food_item_id, position, quantity, unit_price, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, item.ID, order.ID, item.FoodItemID, item.Position, item.Quantity, item.UnitPrice, item.CreatedAt.UTC())
		if err != nil {
			return translate(err, fmt.Sprintf("insert item %d", item.Position))
		}
	}

	for _, entry := range initialHistory(order) {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_status_history (order_id, status, changed_by, note, changed_at)
			VALUES (?, ?, ?, ?, ?)
		`, order.ID, string(entry.Status), entry.ChangedBy, entry.Note, entry.ChangedAt.UTC())
		if err != nil {
			return translate(err, "insert status history")
		}
	}

	if err := tx.Commit(); err != nil {
		return translate(err, "commit order")
	}
	return nil
}

// Transition runs inside one sqlite transaction. The pool holds a single
// connection, so the read of the current status cannot interleave with
// another writer.
func (or *OrderRepo) Transition(
	ctx context.Context,
	orderID uuid.UUID,
	target models.Status,
	changedBy, note string,
	at time.Time,
) (models.Order, models.Status, error) {
	tx, err := or.db.DB().BeginTxx(ctx, nil)
	if err != nil {
		return models.Order{}, "", translate(err, "begin transaction")
	}
	defer tx.Rollback()

	var current string
	err = tx.GetContext(ctx, &current, `SELECT status FROM orders WHERE id = ?`, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Order{}, "", core.ErrOrderNotFound
	}
	if err != nil {
		return models.Order{}, "", translate(err, "read order status")
	}

	from := models.Status(current)
	if !from.CanTransitionTo(target) {
		return models.Order{}, from, errors.Wrapf(core.ErrIllegalTransition, "%s -> %s", from, target)
	}

	at = at.UTC()
	if _, err = tx.ExecContext(ctx, `UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		string(target), at, orderID); err != nil {
		return models.Order{}, from, translate(err, "update order status")
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO order_status_history (order_id, status, changed_by, note, changed_at)
		VALUES (?, ?, ?, ?, ?)
	`, orderID, string(target), changedBy, note, at); err != nil {
		return models.Order{}, from, translate(err, "insert status history")
	}

	order, err := getOrder(ctx, tx, `id = ?`, orderID)
	if err != nil {
		return models.Order{}, from, err
	}

	if err := tx.Commit(); err != nil {
		return models.Order{}, from, translate(err, "commit transition")
	}
	return order, from, nil
}

func (or *OrderRepo) GetByID(ctx context.Context, orderID uuid.UUID) (models.Order, error) {
	return getOrder(ctx, or.db.DB(), `id = ?`, orderID)
}

func (or *OrderRepo) GetByTrackingCode(ctx context.Context, trackingCode string) (models.Order, error) {
	return getOrder(ctx, or.db.DB(), `tracking_code = ?`, trackingCode)
}

func (or *OrderRepo) GetHistory(ctx context.Context, orderID uuid.UUID) ([]models.StatusLog, error) {
	history := []models.StatusLog{}
	err := or.db.DB().SelectContext(ctx, &history, `
		SELECT id, order_id, status, changed_by, note, changed_at
		FROM order_status_history
		WHERE order_id = ?
		ORDER BY changed_at ASC, id ASC
	`, orderID)
	if err != nil {
		return nil, translate(err, "query status history")
	}
	return history, nil
}

func (or *OrderRepo) List(ctx context.Context, filter models.OrderFilter) (models.OrderPage, error) {
	where, args, err := listConditions(filter)
	if err != nil {
		return models.OrderPage{}, err
	}

	page := models.OrderPage{Orders: []models.Order{}, Limit: filter.Limit, Offset: filter.Offset}
	if err := or.db.DB().GetContext(ctx, &page.Total, `SELECT COUNT(*) FROM orders`+where, args...); err != nil {
		return models.OrderPage{}, translate(err, "count orders")
	}
	if page.Total == 0 {
		return page, nil
	}

	q := `SELECT ` + orderColumns + ` FROM orders` + where + ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	orders := []models.Order{}
	if err := or.db.DB().SelectContext(ctx, &orders, q, args...); err != nil {
		return models.OrderPage{}, translate(err, "query orders")
	}
	if err := attachItems(ctx, or.db.DB(), orders); err != nil {
		return models.OrderPage{}, err
	}
	page.Orders = orders
	return page, nil
}

func listConditions(filter models.OrderFilter) (string, []any, error) {
	var conds []string
	var args []any

	in := func(column string, statuses []models.Status) error {
		q, inArgs, err := sqlx.In(column+` IN (?)`, statusStrings(statuses))
		if err != nil {
			return errors.Wrap(err, "build status filter")
		}
		conds = append(conds, q)
		args = append(args, inArgs...)
		return nil
	}

	if len(filter.Statuses) > 0 {
		if err := in("status", filter.Statuses); err != nil {
			return "", nil, err
		}
	}
	if filter.ActiveOnly {
		if err := in("status", models.NonTerminalStatuses()); err != nil {
			return "", nil, err
		}
	}
	if filter.SessionID != "" {
		conds = append(conds, `session_id = ?`)
		args = append(args, filter.SessionID)
	}
	if filter.CreatedFrom != nil {
		conds = append(conds, `created_at >= ?`)
		args = append(args, filter.CreatedFrom.UTC())
	}
	if filter.CreatedTo != nil {
		conds = append(conds, `created_at < ?`)
		args = append(args, filter.CreatedTo.UTC())
	}

	if len(conds) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func statusStrings(statuses []models.Status) []string {
	out := make([]string, len(statuses))
	for i, st := range statuses {
		out[i] = string(st)
	}
	return out
}

func getOrder(ctx context.Context, q dbtx, cond string, arg any) (models.Order, error) {
	var order models.Order
	err := q.GetContext(ctx, &order, `SELECT `+orderColumns+` FROM orders WHERE `+cond, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Order{}, core.ErrOrderNotFound
	}
	if err != nil {
		return models.Order{}, translate(err, "query order")
	}

	orders := []models.Order{order}
	if err := attachItems(ctx, q, orders); err != nil {
		return models.Order{}, err
	}
	return orders[0], nil
}

// attachItems loads the lines of every order in one query, in position order.
func attachItems(ctx context.Context, q dbtx, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	index := make(map[uuid.UUID]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID.String()
		index[orders[i].ID] = i
		orders[i].Items = []models.OrderItem{}
	}

	query, args, err := sqlx.In(`
		SELECT id, order_id, food_item_id, position, quantity, unit_price, created_at
		FROM order_items
		WHERE order_id IN (?)
		ORDER BY order_id, position`, ids)
	if err != nil {
		return errors.Wrap(err, "build order items query")
	}

	var items []models.OrderItem
	if err := q.SelectContext(ctx, &items, q.Rebind(query), args...); err != nil {
		return translate(err, "query order items")
	}
	for _, item := range items {
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	return nil
}

func initialHistory(order models.Order) []models.StatusLog {
	if len(order.History) > 0 {
		return order.History
	}
	return []models.StatusLog{{
		OrderID:   order.ID,
		Status:    order.Status,
		ChangedBy: core.DefaultChangedBy,
		ChangedAt: order.CreatedAt,
	}}
}
