// Package tracking runs the tracking service: order status reads and live
// status streams for customers and the admin dashboard.
package tracking

import (
	"context"

	"campus-food/internal/tracking/api/http"
	"campus-food/internal/xpkg/config"
	"campus-food/internal/xpkg/logger"

	"github.com/gin-gonic/gin"
)

func Execute(ctx context.Context, cfg *config.Config, mylog logger.Logger) error {
	mylog = mylog.With("service", "tracking-service")
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	server := http.NewServer(ctx, cfg, mylog)

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- server.Run()
	}()

	select {
	case <-ctx.Done():
		mylog.Action("shutdown_signal_received").Info("Shutdown signal received")
		stopErr := server.Stop(context.Background())
		if err := <-runErrCh; err != nil {
			mylog.Action("tracking_service_failed").Error("Server stopped with error", err)
		}
		return stopErr
	case err := <-runErrCh:
		if err != nil {
			mylog.Action("tracking_service_failed").Error("Server failed unexpectedly", err)
		}
		if stopErr := server.Stop(context.Background()); stopErr != nil && err == nil {
			return stopErr
		}
		return err
	}
}
