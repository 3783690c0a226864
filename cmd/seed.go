package cmd

import (
	"os"

	"campus-food/internal/order/adapter/ledger"
	"campus-food/internal/order/app/services"
	"campus-food/internal/order/domain/dto"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var seedFile string

var seedMenuCmd = &cobra.Command{
	Use:   "seed-menu",
	Short: "Load menu items from a yaml file, skipping names already on the menu",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, mylog, err := setup()
		if err != nil {
			return err
		}

		f, err := os.Open(seedFile)
		if err != nil {
			return errors.Wrap(err, "open seed file")
		}
		defer f.Close()

		items, err := dto.ParseMenuSeed(f)
		if err != nil {
			return err
		}

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		l, err := ledger.Open(ctx, cfg.DB, mylog)
		if err != nil {
			return err
		}
		defer l.Close()

		created, skipped, err := services.NewMenuService(l.Foods, mylog).Seed(ctx, items)
		if err != nil {
			return err
		}
		cmd.Printf("menu seeded: %d created, %d skipped\n", created, skipped)
		return nil
	},
}

func init() {
	seedMenuCmd.Flags().StringVarP(&seedFile, "file", "f", "menu.yaml", "menu seed file")
	rootCmd.AddCommand(seedMenuCmd)
}
