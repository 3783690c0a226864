package handle

import (
	"context"
	"net/http"
	"time"

	"campus-food/internal/order/api/http/middleware"
	"campus-food/internal/order/api/http/respond"
	"campus-food/internal/order/app/services"
	"campus-food/internal/order/domain/dto"
	"campus-food/internal/order/domain/models"
	"campus-food/internal/xpkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type OrderHandler struct {
	orderService *services.OrderService
	mylog        logger.Logger
	timeout      time.Duration
}

func NewOrderHandler(orderService *services.OrderService, mylog logger.Logger, timeout time.Duration) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		mylog:        mylog,
		timeout:      timeout,
	}
}

// Create places an order for the calling session.
func (oh *OrderHandler) Create() gin.HandlerFunc {
	return func(c *gin.Context) {
		mylog := oh.mylog.RequestID(middleware.GetRequestID(c))

		var req dto.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			mylog.Action("parse_failed").Debug("Failed to parse order", "error", err.Error())
			respond.BadRequest(c, err)
			return
		}
		actor := middleware.Actor(c)
		mylog.Action("received").Debug("Received order", "session_id", actor.ID, "tracking_code", req.TrackingCode, "number_of_items", len(req.Items))

		ctx, cancel := context.WithTimeout(c.Request.Context(), oh.timeout)
		defer cancel()

		order, err := oh.orderService.Create(ctx, req.ToModel(actor.ID))
		if err != nil {
			respond.Error(c, mylog, err)
			return
		}
		respond.JSON(c, http.StatusCreated, order)
	}
}

// GetByTrackingCode returns the order with its items and history.
func (oh *OrderHandler) GetByTrackingCode() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), oh.timeout)
		defer cancel()

		order, err := oh.orderService.GetByTrackingCode(ctx, c.Param("tracking_code"), middleware.Actor(c))
		if err != nil {
			respond.Error(c, oh.mylog, err)
			return
		}
		respond.JSON(c, http.StatusOK, order)
	}
}

func (oh *OrderHandler) History() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), oh.timeout)
		defer cancel()

		history, err := oh.orderService.History(ctx, c.Param("tracking_code"), middleware.Actor(c))
		if err != nil {
			respond.Error(c, oh.mylog, err)
			return
		}
		respond.JSON(c, http.StatusOK, gin.H{"history": history})
	}
}

// List serves both the session's own orders and the admin listing; the
// service scopes session actors to their own orders.
func (oh *OrderHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		var q dto.ListOrdersQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			respond.BadRequest(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), oh.timeout)
		defer cancel()

		page, err := oh.orderService.List(ctx, q.ToFilter(), middleware.Actor(c))
		if err != nil {
			respond.Error(c, oh.mylog, err)
			return
		}
		respond.JSON(c, http.StatusOK, page)
	}
}

func (oh *OrderHandler) GetByID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathUUID(c, "id")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), oh.timeout)
		defer cancel()

		order, err := oh.orderService.GetByID(ctx, id, middleware.Actor(c))
		if err != nil {
			respond.Error(c, oh.mylog, err)
			return
		}
		respond.JSON(c, http.StatusOK, order)
	}
}

// Transition moves an order along the status state machine.
func (oh *OrderHandler) Transition() gin.HandlerFunc {
	return func(c *gin.Context) {
		mylog := oh.mylog.RequestID(middleware.GetRequestID(c))

		id, ok := pathUUID(c, "id")
		if !ok {
			return
		}
		var req dto.TransitionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), oh.timeout)
		defer cancel()

		order, err := oh.orderService.Transition(ctx, id, models.Status(req.Status), middleware.Actor(c), req.Note)
		if err != nil {
			respond.Error(c, mylog, err)
			return
		}
		respond.JSON(c, http.StatusOK, dto.NewOrderStatusResponse(order))
	}
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respond.BadRequest(c, errors.Errorf("%s must be a uuid", name))
		return uuid.Nil, false
	}
	return id, true
}
