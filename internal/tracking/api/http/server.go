package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	brokermessage "campus-food/internal/order/adapter/broker_message"
	"campus-food/internal/order/adapter/ledger"
	orderhandle "campus-food/internal/order/api/http/handle"
	"campus-food/internal/order/api/http/middleware"
	"campus-food/internal/order/app/services"
	"campus-food/internal/order/domain/models"
	"campus-food/internal/tracking/api/http/handle"
	"campus-food/internal/tracking/app/feed"
	"campus-food/internal/xpkg/auth"
	"campus-food/internal/xpkg/broker"
	"campus-food/internal/xpkg/config"
	"campus-food/internal/xpkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const (
	heartbeatInterval = 15 * time.Second
	consumerName      = "tracking-service"
)

// FeedBinding is an exclusive queue per tracking instance, so every instance
// sees every change.
var FeedBinding = broker.Binding{RoutingKeys: []string{"order.#"}, Prefetch: 50}

type Deps struct {
	Orders    *services.OrderService
	Hub       *feed.Hub
	Auth      *auth.Authenticator
	Health    map[string]orderhandle.Pinger
	Timeout   time.Duration
	Heartbeat time.Duration
}

func NewRouter(d Deps, mylog logger.Logger) *gin.Engine {
	if d.Heartbeat <= 0 {
		d.Heartbeat = heartbeatInterval
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.CORS(), gin.Recovery(), middleware.Logging(mylog))

	orderHandler := handle.NewOrderHandler(d.Orders, d.Hub, mylog, d.Timeout, d.Heartbeat)

	r.GET("/health", orderhandle.Health(d.Health))

	customer := r.Group("/orders", middleware.Session())
	customer.GET("/:tracking_code", orderHandler.GetStatus())
	customer.GET("/:tracking_code/history", orderHandler.GetHistory())
	customer.GET("/:tracking_code/events", orderHandler.Events())

	admin := r.Group("/admin", middleware.Admin(d.Auth))
	admin.GET("/orders/events", orderHandler.AdminEvents())

	return r
}

type Server struct {
	cfg      *config.Config
	srv      *http.Server
	mylog    logger.Logger
	ledger   *ledger.Ledger
	mb       *broker.RabbitMQ
	hub      *feed.Hub
	consumer *brokermessage.Consumer
	ctx      context.Context
	mu       sync.Mutex
}

func NewServer(ctx context.Context, cfg *config.Config, mylog logger.Logger) *Server {
	return &Server{
		ctx:   ctx,
		cfg:   cfg,
		mylog: mylog,
		hub:   feed.NewHub(mylog),
	}
}

// Run serves the read API and, with the broker enabled, feeds the live streams
// from the order event exchange.
func (s *Server) Run() error {
	mylog := s.mylog.Action("server_started")

	l, err := ledger.Open(s.ctx, s.cfg.DB, s.mylog)
	if err != nil {
		mylog.Action("db_connection_failed").Error("Failed to connect to database", err)
		return err
	}
	s.ledger = l

	if err := s.initializeRabbitMQ(); err != nil {
		mylog.Action("mb_connection_failed").Error("Failed to connect to message broker", err)
		return err
	}

	handler, err := s.Configure()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.TrackingPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Unlock()

	mylog.WithGroup("details").With("port", s.cfg.Server.TrackingPort).Info("server is running")

	g, ctx := errgroup.WithContext(s.ctx)
	if s.consumer != nil {
		g.Go(func() error { return s.consumer.Run(ctx) })
	}
	g.Go(func() error {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	// Closing the hub ends open streams, which lets Shutdown drain.
	g.Go(func() error {
		<-ctx.Done()
		s.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.mylog.Action("graceful_shutdown_failed").Error("Failed to shut down HTTP server gracefully", err)
		}
		return nil
	})
	return g.Wait()
}

func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mylog.Action("graceful_shutdown_started").Info("Shutting down HTTP server...")
	s.hub.Close()

	if s.srv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.mylog.Action("graceful_shutdown_failed").Error("Failed to shut down HTTP server gracefully", err)
			return errors.Wrap(err, "http server shutdown")
		}
	}

	if s.mb != nil {
		if err := s.mb.Close(); err != nil {
			s.mylog.Action("mb_close_failed").Error("Failed to close message broker", err)
		}
	}
	if s.ledger != nil {
		if err := s.ledger.Close(); err != nil {
			return errors.Wrap(err, "db close")
		}
	}

	s.mylog.Action("graceful_shutdown_completed").Info("HTTP server shut down gracefully")
	return nil
}

func (s *Server) initializeRabbitMQ() error {
	if !s.cfg.RMQ.Enabled {
		s.mylog.Action("mb_disabled").Warn("RabbitMQ disabled, live streams will stay idle")
		return nil
	}

	mb, err := broker.Dial(s.ctx, s.cfg.RMQ, s.mylog)
	if err != nil {
		return errors.Wrap(err, "failed to connect to rabbitmq")
	}
	s.mb = mb
	s.consumer = brokermessage.NewConsumer(mb, FeedBinding, consumerName, s.deliver, s.mylog)
	return nil
}

func (s *Server) deliver(_ context.Context, e models.OrderEvent) error {
	n := s.hub.Publish(e)
	s.mylog.Action("feed_delivered").Debug("Order event fanned out",
		"tracking_code", e.Order.TrackingCode, "status", e.Order.Status, "subscribers", n)
	return nil
}

func (s *Server) Configure() (http.Handler, error) {
	authenticator, err := auth.New(s.cfg.Auth)
	if err != nil {
		return nil, err
	}

	// The tracking service only reads the ledger, so it never publishes.
	orderService := services.NewOrderService(s.ledger.Orders, brokermessage.Nop{}, s.mylog, s.cfg.Orders.VerifyTotal)

	health := map[string]orderhandle.Pinger{"database": s.ledger.DB}
	if s.mb != nil {
		health["rabbitmq"] = orderhandle.PingFunc(func(context.Context) error { return s.mb.IsAlive() })
	}

	return NewRouter(Deps{
		Orders:    orderService,
		Hub:       s.hub,
		Auth:      authenticator,
		Health:    health,
		Timeout:   s.cfg.Server.RequestTimeout,
		Heartbeat: heartbeatInterval,
	}, s.mylog), nil
}
