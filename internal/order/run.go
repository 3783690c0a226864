// Package order runs the order service: the HTTP API in front of the order
// ledger, the menu catalog and customer carts.
package order

import (
	"context"

	"campus-food/internal/order/api/http"
	"campus-food/internal/xpkg/config"
	"campus-food/internal/xpkg/logger"

	"github.com/gin-gonic/gin"
)

// Execute starts the order service and blocks until ctx is cancelled or the
// server fails.
func Execute(ctx context.Context, cfg *config.Config, mylog logger.Logger) error {
	mylog = mylog.With("service", "order-service")
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
		return server.Stop(context.Background())
	case err := <-runErrCh:
		if err != nil {
			mylog.Action("order_service_failed").Error("Server failed unexpectedly", err)
			_ = server.Stop(context.Background())
			return err
		}
		mylog.Action("server_stopped").Info("Server exited normally")
		return server.Stop(context.Background())
	}
}
