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
	"campus-food/internal/tracking/app/feed"
	"campus-food/internal/xpkg/logger"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService *services.OrderService
	hub          *feed.Hub
	mylog        logger.Logger
	timeout      time.Duration
	heartbeat    time.Duration
}

func NewOrderHandler(orderService *services.OrderService, hub *feed.Hub, mylog logger.Logger, timeout, heartbeat time.Duration) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		hub:          hub,
		mylog:        mylog,
		timeout:      timeout,
		heartbeat:    heartbeat,
	}
}

func (oh *OrderHandler) GetStatus() gin.HandlerFunc {
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

func (oh *OrderHandler) GetHistory() gin.HandlerFunc {
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

// StatusEvent is the payload of every "status" server-sent event.
type StatusEvent struct {
	dto.OrderStatusResponse
	OldStatus models.Status `json:"old_status,omitempty"`
}

func newStatusEvent(e models.OrderEvent) StatusEvent {
	return StatusEvent{OrderStatusResponse: dto.NewOrderStatusResponse(e.Order), OldStatus: e.OldStatus}
}

// Events streams status changes of one order to its session. The stream
// starts with a snapshot and ends once the order reaches a terminal status.
func (oh *OrderHandler) Events() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middleware.Actor(c)
		code := c.Param("tracking_code")

		filter := feed.Filter{TrackingCode: code}
		if !actor.IsAdmin() {
			filter.SessionID = actor.ID
		}
		// Subscribe before the snapshot so no change slips between the two.
		sub := oh.hub.Subscribe(filter)
		defer sub.Close()

		ctx, cancel := context.WithTimeout(c.Request.Context(), oh.timeout)
		order, err := oh.orderService.GetByTrackingCode(ctx, code, actor)
		cancel()
		if err != nil {
			respond.Error(c, oh.mylog, err)
			return
		}

		oh.mylog.Action("stream_opened").Debug("Order stream opened", "tracking_code", code)
		streamHeaders(c)
		c.SSEvent("snapshot", dto.NewOrderStatusResponse(order))
		c.Writer.Flush()
		if order.Status.Terminal() {
			return
		}
		oh.stream(c, sub, true)
	}
}

// AdminEvents streams every order change to the dashboard. Settled orders are
// skipped unless all=true.
func (oh *OrderHandler) AdminEvents() gin.HandlerFunc {
	return func(c *gin.Context) {
		sub := oh.hub.Subscribe(feed.Filter{ActiveOnly: c.Query("all") != "true"})
		defer sub.Close()

		oh.mylog.Action("stream_opened").Debug("Admin stream opened", "admin", middleware.Actor(c).ID)
		streamHeaders(c)
		c.Writer.Flush()
		oh.stream(c, sub, false)
	}
}

func (oh *OrderHandler) stream(c *gin.Context, sub *feed.Subscription, stopAtTerminal bool) {
	ticker := time.NewTicker(oh.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			c.SSEvent("ping", t.UTC().Format(time.RFC3339))
			c.Writer.Flush()
		case e, ok := <-sub.C:
			if !ok {
				return
			}
			c.SSEvent("status", newStatusEvent(e))
			c.Writer.Flush()
			if stopAtTerminal && e.Order.Status.Terminal() {
				return
			}
		}
	}
}

func streamHeaders(c *gin.Context) {
	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
}
