package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"campus-food/internal/cart"
	brokermessage "campus-food/internal/order/adapter/broker_message"
	"campus-food/internal/order/adapter/ledger"
	"campus-food/internal/order/api/http/handle"
	"campus-food/internal/order/api/http/middleware"
	"campus-food/internal/order/app/core"
	"campus-food/internal/order/app/services"
	"campus-food/internal/order/domain/dto"
	"campus-food/internal/xpkg/auth"
	"campus-food/internal/xpkg/broker"
	"campus-food/internal/xpkg/config"
	"campus-food/internal/xpkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// Deps are the collaborators the order API routes over.
type Deps struct {
	Orders  *services.OrderService
	Menu    *services.MenuService
	Cart    *cart.Service
	Auth    *auth.Authenticator
	Health  map[string]handle.Pinger
	Timeout time.Duration
}

// NewRouter builds the order-service routes.
func NewRouter(d Deps, mylog logger.Logger) (*gin.Engine, error) {
	if err := dto.RegisterValidations(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.CORS(), gin.Recovery(), middleware.Logging(mylog))

	orderHandler := handle.NewOrderHandler(d.Orders, mylog, d.Timeout)
	menuHandler := handle.NewMenuHandler(d.Menu, mylog, d.Timeout)
	cartHandler := handle.NewCartHandler(d.Cart, mylog, d.Timeout)
	authHandler := handle.NewAuthHandler(d.Auth, mylog)

	r.GET("/health", handle.Health(d.Health))
	r.GET("/menu", menuHandler.List(true))
	r.GET("/menu/:id", menuHandler.Get(true))
	r.POST("/admin/login", authHandler.Login())

	customer := r.Group("/", middleware.Session())
	customer.POST("/orders", orderHandler.Create())
	customer.GET("/orders", orderHandler.List())
	customer.GET("/orders/:tracking_code", orderHandler.GetByTrackingCode())
	customer.GET("/orders/:tracking_code/history", orderHandler.History())

	customer.GET("/cart", cartHandler.View())
	customer.POST("/cart/items", cartHandler.AddItem())
	customer.PATCH("/cart/items/:food_item_id", cartHandler.SetQuantity())
	customer.DELETE("/cart/items/:food_item_id", cartHandler.RemoveItem())
	customer.PUT("/cart/note", cartHandler.SetNote())
	customer.DELETE("/cart", cartHandler.Clear())
	customer.POST("/cart/checkout", cartHandler.Checkout())

	admin := r.Group("/admin", middleware.Admin(d.Auth))
	admin.GET("/orders", orderHandler.List())
	admin.GET("/orders/:id", orderHandler.GetByID())
	admin.POST("/orders/:id/status", orderHandler.Transition())
	admin.GET("/menu", menuHandler.List(false))
	admin.GET("/menu/:id", menuHandler.Get(false))
	admin.POST("/menu", menuHandler.Create())
	admin.PUT("/menu/:id", menuHandler.Update())
	admin.PATCH("/menu/:id/availability", menuHandler.SetAvailability())
	admin.DELETE("/menu/:id", menuHandler.Delete())

	return r, nil
}

type Server struct {
	cfg    *config.Config
	srv    *http.Server
	mylog  logger.Logger
	ledger *ledger.Ledger
	mb     *broker.RabbitMQ
	pub    core.IPublisher
	carts  cart.Store
	ctx    context.Context
	mu     sync.Mutex
}

func NewServer(ctx context.Context, cfg *config.Config, mylog logger.Logger) *Server {
	return &Server{
		ctx:   ctx,
		cfg:   cfg,
		mylog: mylog,
	}
}

// Run connects the ledger, broker and cart store, then serves until ctx is
// cancelled or the listener fails.
func (s *Server) Run() error {
	mylog := s.mylog.Action("server_started")

	if err := s.initializeDatabase(); err != nil {
		mylog.Action("db_connection_failed").Error("Failed to connect to database", err)
		return err
	}
	if err := s.initializeRabbitMQ(); err != nil {
		mylog.Action("mb_connection_failed").Error("Failed to connect to message broker", err)
		return err
	}
	s.initializeCartStore()

	handler, err := s.Configure()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.OrderPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Unlock()

	mylog.WithGroup("details").With("port", s.cfg.Server.OrderPort, "db_driver", s.cfg.DB.Driver).Info("server is running")
	return s.startHTTPServer()
}

// Stop shuts the listener down, then releases the broker and the ledger.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mylog.Action("graceful_shutdown_started").Info("Shutting down HTTP server...")

	if s.srv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.mylog.Action("graceful_shutdown_failed").Error("Failed to shut down HTTP server gracefully", err)
			return errors.Wrap(err, "http server shutdown")
		}
	}

	if s.pub != nil {
		if err := s.pub.Close(); err != nil {
			s.mylog.Action("mb_close_failed").Error("Failed to close message broker", err)
		} else {
			s.mylog.Action("mb_closed").Info("Message broker closed")
		}
	}

	if s.ledger != nil {
		if err := s.ledger.Close(); err != nil {
			s.mylog.Action("db_close_failed").Error("Failed to close database", err)
			return errors.Wrap(err, "db close")
		}
		s.mylog.Action("db_closed").Info("Database closed")
	}

	s.mylog.Action("graceful_shutdown_completed").Info("HTTP server shut down gracefully")
	return nil
}

func (s *Server) startHTTPServer() error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		} else {
			errCh <- nil
		}
	}()

	select {
	case <-s.ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) initializeDatabase() error {
	l, err := ledger.Open(s.ctx, s.cfg.DB, s.mylog)
	if err != nil {
		return errors.Wrap(err, "failed to connect to database")
	}
	s.ledger = l
	return nil
}

// initializeRabbitMQ falls back to a no-op publisher when the broker is
// disabled. Orders are still accepted without a change feed.
func (s *Server) initializeRabbitMQ() error {
	if !s.cfg.RMQ.Enabled {
		s.mylog.Action("mb_disabled").Warn("RabbitMQ disabled, order events will not be published")
		s.pub = brokermessage.Nop{}
		return nil
	}

	mb, err := broker.Dial(s.ctx, s.cfg.RMQ, s.mylog)
	if err != nil {
		return errors.Wrap(err, "failed to connect to rabbitmq")
	}
	s.mb = mb
	s.pub = brokermessage.NewPublisher(mb, s.mylog)
	s.mylog.Action("mb_connected").Info("Successful message broker connection")
	return nil
}

func (s *Server) initializeCartStore() {
	if s.cfg.Redis.Enabled {
		s.carts = cart.NewRedisStore(cart.NewRedisClient(s.cfg.Redis), s.cfg.Redis.CartTTL)
		s.mylog.Action("cart_store").Info("Carts stored in redis", "addr", s.cfg.Redis.Addr)
		return
	}
	s.carts = cart.NewMemoryStore(s.cfg.Redis.CartTTL)
	s.mylog.Action("cart_store").Info("Carts stored in memory")
}

// Configure wires repositories, services and handlers.
func (s *Server) Configure() (http.Handler, error) {
	authenticator, err := auth.New(s.cfg.Auth)
	if err != nil {
		return nil, err
	}

	orderService := services.NewOrderService(s.ledger.Orders, s.pub, s.mylog, s.cfg.Orders.VerifyTotal)
	menuService := services.NewMenuService(s.ledger.Foods, s.mylog)
	cartService := cart.NewService(s.carts, menuService, orderService, s.mylog)

	health := map[string]handle.Pinger{"database": s.ledger.DB}
	if s.mb != nil {
		health["rabbitmq"] = handle.PingFunc(func(context.Context) error { return s.mb.IsAlive() })
	}
	if rs, ok := s.carts.(*cart.RedisStore); ok {
		health["redis"] = handle.PingFunc(rs.Ping)
	}

	return NewRouter(Deps{
		Orders:  orderService,
		Menu:    menuService,
		Cart:    cartService,
		Auth:    authenticator,
		Health:  health,
		Timeout: s.cfg.Server.RequestTimeout,
	}, s.mylog)
}
