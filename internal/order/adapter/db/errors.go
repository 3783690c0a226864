package db

import (
	"context"
	"net"

	"campus-food/internal/order/app/core"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

const trackingCodeConstraint = "orders_tracking_code_key"

// translate maps driver failures onto the core error taxonomy.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return errors.Wrap(core.ErrNotFound, op)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505" && pgErr.ConstraintName == trackingCodeConstraint:
			return errors.Wrap(core.ErrDuplicateTracking, op)
		case pgErr.Code == "23505":
			return errors.Wrapf(core.ErrConflict, "%s: %s", op, pgErr.Message)
		case pgErr.Code == "23503":
			return errors.Wrapf(core.ErrReferential, "%s: %s", op, pgErr.Detail)
		case pgErr.Code == "23514", pgErr.Code == "22P02", pgErr.Code == "22003":
			return core.Invalidf("%s: %s", op, pgErr.Message)
		case pgErr.Code == "40001", pgErr.Code == "40P01", pgErr.Code == "55P03":
			return errors.Wrapf(core.ErrTransient, "%s: %s", op, pgErr.Message)
		case len(pgErr.Code) == 5 && pgErr.Code[:2] == "08":
			return errors.Wrapf(core.ErrTransient, "%s: %s", op, pgErr.Message)
		}
		return errors.Wrap(err, op)
	}

	var connErr *pgconn.ConnectError
	var netErr net.Error
	switch {
	case errors.As(err, &connErr),
		errors.As(err, &netErr),
		pgconn.Timeout(err),
		errors.Is(err, context.DeadlineExceeded):
		return errors.Wrapf(core.ErrTransient, "%s: %v", op, err)
	}
	return errors.Wrap(err, op)
}
