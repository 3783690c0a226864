package cmd

import (
	"context"

	"campus-food/internal/order/adapter/ledger"
	xdb "campus-food/internal/xpkg/db"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending order ledger migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, mylog, err := setup()
		if err != nil {
			return err
		}
		mylog = mylog.Action("migrate")

		switch cfg.DB.Driver {
		case "postgres":
			if err := xdb.MigratePostgres(cfg.DB); err != nil {
				mylog.Error("Migration failed", err)
				return err
			}
		case "sqlite":
			// Opening the sqlite ledger migrates it.
			l, err := ledger.Open(context.Background(), cfg.DB, mylog)
			if err != nil {
				mylog.Error("Migration failed", err)
				return err
			}
			if err := l.Close(); err != nil {
				return errors.Wrap(err, "close sqlite")
			}
		}
		mylog.Info("Migrations applied", "driver", cfg.DB.Driver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
