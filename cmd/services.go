package cmd

import (
	"context"

	"campus-food/internal/notsub"
	"campus-food/internal/order"
	"campus-food/internal/tracking"
	"campus-food/internal/xpkg/config"
	"campus-food/internal/xpkg/logger"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type runFunc func(ctx context.Context, cfg *config.Config, mylog logger.Logger) error

func serviceCommand(use, alias, short string, run runFunc) *cobra.Command {
	return &cobra.Command{
		Use:     use,
		Aliases: []string{alias},
		Short:   short,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, mylog, err := setup()
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return run(ctx, cfg, mylog)
		},
	}
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Run the order, tracking and notification services in one process",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, mylog, err := setup()
		if err != nil {
			return err
		}
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { return order.Execute(ctx, cfg, mylog) })
		g.Go(func() error { return tracking.Execute(ctx, cfg, mylog) })
		if cfg.RMQ.Enabled {
			g.Go(func() error { return notsub.Execute(ctx, cfg, mylog) })
		}
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(
		serviceCommand("order-service", "os", "Serve the order, menu and cart API", order.Execute),
		serviceCommand("tracking-service", "ts", "Serve order status reads and live status streams", tracking.Execute),
		serviceCommand("notification-subscriber", "ns", "Print customer notifications for order events", notsub.Execute),
		allCmd,
	)
}
