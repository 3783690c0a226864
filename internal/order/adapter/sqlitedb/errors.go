package sqlitedb

import (
	"context"
	"database/sql"
	"strings"

	"campus-food/internal/order/app/core"

	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const trackingCodeColumn = "orders.tracking_code"

// translate maps sqlite failures onto the core error taxonomy.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errors.Wrap(core.ErrNotFound, op)
	}

	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) {
		switch {
		case sqErr.ExtendedCode == sqlite3.ErrConstraintUnique && strings.Contains(sqErr.Error(), trackingCodeColumn):
			return errors.Wrap(core.ErrDuplicateTracking, op)
		case sqErr.ExtendedCode == sqlite3.ErrConstraintUnique, sqErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
			return errors.Wrapf(core.ErrConflict, "%s: %s", op, sqErr.Error())
		case sqErr.ExtendedCode == sqlite3.ErrConstraintForeignKey, isForeignKeyTrigger(sqErr):
			return errors.Wrapf(core.ErrReferential, "%s: %s", op, sqErr.Error())
		case sqErr.ExtendedCode == sqlite3.ErrConstraintCheck, sqErr.ExtendedCode == sqlite3.ErrConstraintNotNull:
			return core.Invalidf("%s: %s", op, sqErr.Error())
		case sqErr.Code == sqlite3.ErrBusy, sqErr.Code == sqlite3.ErrLocked:
			return errors.Wrapf(core.ErrTransient, "%s: %s", op, sqErr.Error())
		}
		return errors.Wrap(err, op)
	}

	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return errors.Wrapf(core.ErrTransient, "%s: %v", op, err)
	}
	return errors.Wrap(err, op)
}

// isForeignKeyTrigger reports a RESTRICT action firing on a parent row, which
// sqlite reports as a trigger constraint rather than a foreign key one.
func isForeignKeyTrigger(e sqlite3.Error) bool {
	return e.Code == sqlite3.ErrConstraint &&
		(e.ExtendedCode == sqlite3.ErrConstraintTrigger || strings.Contains(e.Error(), "FOREIGN KEY constraint failed"))
}
