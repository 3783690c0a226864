package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"campus-food/internal/order/app/core"
	"campus-food/internal/order/domain/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// IDB is satisfied by xpkg/db.DB.
type IDB interface {
	Pool() *pgxpool.Pool
}

// querier is the read surface shared by the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const orderColumns = `id, session_id, total_amount, status, tracking_code, note, created_at, updated_at`

type OrderRepo struct {
	db IDB
}

func NewOrderRepo(db IDB) *OrderRepo {
	return &OrderRepo{db: db}
}

func (or *OrderRepo) Create(ctx context.Context, order models.Order) error {
	tx, err := or.db.Pool().BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return translate(err, "begin transaction")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (
			id,
			session_id,
			total_amount,
			status,
			tracking_code,
			note,
			created_at,
			updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		order.ID,
		order.SessionID,
		order.TotalAmount,
		string(order.Status),
		order.TrackingCode,
		order.Note,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return translate(err, "insert order")
	}

	for _, item := range order.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (
				id,
				order_id,
				food_item_id,
				position,
				quantity,
				unit_price,
				created_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, item.ID, order.ID, item.FoodItemID, item.Position, item.Quantity, item.UnitPrice, item.CreatedAt)
		if err != nil {
			return translate(err, fmt.Sprintf("insert item %d", item.Position))
		}
	}

	for _, entry := range initialHistory(order) {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_status_history (
				order_id,
				status,
				changed_by,
				note,
				changed_at
			)
			VALUES ($1, $2, $3, $4, $5)
		`, order.ID, string(entry.Status), entry.ChangedBy, entry.Note, entry.ChangedAt)
		if err != nil {
			return translate(err, "insert status history")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return translate(err, "commit order")
	}
	return nil
}

func (or *OrderRepo) Transition(
	ctx context.Context,
	orderID uuid.UUID,
	target models.Status,
	changedBy, note string,
	at time.Time,
) (models.Order, models.Status, error) {
	tx, err := or.db.Pool().BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Order{}, "", translate(err, "begin transaction")
	}
	defer tx.Rollback(ctx)

	var current string
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Order{}, "", core.ErrOrderNotFound
	}
	if err != nil {
		return models.Order{}, "", translate(err, "lock order")
	}

	from := models.Status(current)
	if !from.CanTransitionTo(target) {
		return models.Order{}, from, errors.Wrapf(core.ErrIllegalTransition, "%s -> %s", from, target)
	}

	if _, err = tx.Exec(ctx, `
		UPDATE orders
		SET status = $2, updated_at = $3
		WHERE id = $1
	`, orderID, string(target), at); err != nil {
		return models.Order{}, from, translate(err, "update order status")
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO order_status_history (order_id, status, changed_by, note, changed_at)
		VALUES ($1, $2, $3, $4, $5)
	`, orderID, string(target), changedBy, note, at); err != nil {
		return models.Order{}, from, translate(err, "insert status history")
	}

	order, err := getOrder(ctx, tx, `id = $1`, orderID)
	if err != nil {
		return models.Order{}, from, err
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Order{}, from, translate(err, "commit transition")
	}
	return order, from, nil
}

func (or *OrderRepo) GetByID(ctx context.Context, orderID uuid.UUID) (models.Order, error) {
	return getOrder(ctx, or.db.Pool(), `id = $1`, orderID)
}

func (or *OrderRepo) GetByTrackingCode(ctx context.Context, trackingCode string) (models.Order, error) {
	return getOrder(ctx, or.db.Pool(), `tracking_code = $1`, trackingCode)
}

func (or *OrderRepo) GetHistory(ctx context.Context, orderID uuid.UUID) ([]models.StatusLog, error) {
	rows, err := or.db.Pool().Query(ctx, `
		SELECT id, order_id, status, changed_by, note, changed_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY changed_at ASC, id ASC
	`, orderID)
	if err != nil {
		return nil, translate(err, "query status history")
	}
	defer rows.Close()

	history := []models.StatusLog{}
	for rows.Next() {
		var entry models.StatusLog
		var status string
		if err := rows.Scan(&entry.ID, &entry.OrderID, &status, &entry.ChangedBy, &entry.Note, &entry.ChangedAt); err != nil {
			return nil, translate(err, "scan status history")
		}
		entry.Status = models.Status(status)
		history = append(history, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "iterate status history")
	}
	return history, nil
}

func (or *OrderRepo) List(ctx context.Context, filter models.OrderFilter) (models.OrderPage, error) {
	where, args := listConditions(filter)

	page := models.OrderPage{Orders: []models.Order{}, Limit: filter.Limit, Offset: filter.Offset}
	if err := or.db.Pool().QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&page.Total); err != nil {
		return models.OrderPage{}, translate(err, "count orders")
	}
	if page.Total == 0 {
		return page, nil
	}

	args = append(args, filter.Limit, filter.Offset)
	q := fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		orderColumns, where, len(args)-1, len(args))

	rows, err := or.db.Pool().Query(ctx, q, args...)
	if err != nil {
		return models.OrderPage{}, translate(err, "query orders")
	}
	orders, err := scanOrders(rows)
	if err != nil {
		return models.OrderPage{}, err
	}

	if err := attachItems(ctx, or.db.Pool(), orders); err != nil {
		return models.OrderPage{}, err
	}
	page.Orders = orders
	return page, nil
}

// listConditions renders the WHERE clause for a filter with positional args.
func listConditions(filter models.OrderFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	statuses := filter.Statuses
	if filter.ActiveOnly && len(statuses) == 0 {
		statuses = models.NonTerminalStatuses()
	}
	if len(statuses) > 0 {
		add(`status = ANY($%d)`, statusStrings(statuses))
	}
	if filter.ActiveOnly && len(filter.Statuses) > 0 {
		add(`status = ANY($%d)`, statusStrings(models.NonTerminalStatuses()))
	}
	if filter.SessionID != "" {
		add(`session_id = $%d`, filter.SessionID)
	}
	if filter.CreatedFrom != nil {
		add(`created_at >= $%d`, *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		add(`created_at < $%d`, *filter.CreatedTo)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func statusStrings(statuses []models.Status) []string {
	out := make([]string, len(statuses))
	for i, st := range statuses {
		out[i] = string(st)
	}
	return out
}

func getOrder(ctx context.Context, q querier, cond string, arg any) (models.Order, error) {
	rows, err := q.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE `+cond, arg)
	if err != nil {
		return models.Order{}, translate(err, "query order")
	}
	orders, err := scanOrders(rows)
	if err != nil {
		return models.Order{}, err
	}
	if len(orders) == 0 {
		return models.Order{}, core.ErrOrderNotFound
	}
	if err := attachItems(ctx, q, orders); err != nil {
		return models.Order{}, err
	}
	return orders[0], nil
}

func scanOrders(rows pgx.Rows) ([]models.Order, error) {
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		var o models.Order
		var status string
		if err := rows.Scan(
			&o.ID,
			&o.SessionID,
			&o.TotalAmount,
			&status,
			&o.TrackingCode,
			&o.Note,
			&o.CreatedAt,
			&o.UpdatedAt,
		); err != nil {
			return nil, translate(err, "scan order")
		}
		o.Status = models.Status(status)
		o.Items = []models.OrderItem{}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "iterate orders")
	}
	return orders, nil
}

// attachItems loads the lines of every order in one query, in position order.
func attachItems(ctx context.Context, q querier, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	index := make(map[uuid.UUID]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID.String()
		index[o.ID] = i
	}

	rows, err := q.Query(ctx, `
		SELECT id, order_id, food_item_id, position, quantity, unit_price, created_at
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, position
	`, ids)
	if err != nil {
		return translate(err, "query order items")
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.FoodItemID,
			&item.Position,
			&item.Quantity,
			&item.UnitPrice,
			&item.CreatedAt,
		); err != nil {
			return translate(err, "scan order item")
		}
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	if err := rows.Err(); err != nil {
		return translate(err, "iterate order items")
	}
	return nil
}

// initialHistory returns the history rows written with a new order. An order
// without explicit history gets a single entry for its starting status.
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
