package handle

import (
	"context"
	"net/http"
	"time"

	"campus-food/internal/cart"
	"campus-food/internal/order/api/http/middleware"
	"campus-food/internal/order/api/http/respond"
	"campus-food/internal/xpkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type addCartItemRequest struct {
	FoodItemID string `json:"food_item_id" binding:"required,uuid"`
	Quantity   int    `json:"quantity" binding:"required,min=1,max=100"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required,min=0,max=100"`
}

type cartNoteRequest struct {
	Note string `json:"note" binding:"max=500"`
}

type CartHandler struct {
	cartService *cart.Service
	mylog       logger.Logger
	timeout     time.Duration
}

func NewCartHandler(cartService *cart.Service, mylog logger.Logger, timeout time.Duration) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		mylog:       mylog,
		timeout:     timeout,
	}
}

func (ch *CartHandler) View() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), ch.timeout)
		defer cancel()

		view, err := ch.cartService.View(ctx, middleware.Actor(c).ID)
		if err != nil {
			respond.Error(c, ch.mylog, err)
			return
		}
		respond.JSON(c, http.StatusOK, view)
	}
}

func (ch *CartHandler) AddItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), ch.timeout)
		defer cancel()

		s, err := ch.cartService.AddItem(ctx, middleware.Actor(c).ID, uuid.MustParse(req.FoodItemID), req.Quantity)
		if err != nil {
			respond.Error(c, ch.mylog, err)
			return
		}
		respond.JSON(c, http.StatusOK, s)
	}
}

func (ch *CartHandler) SetQuantity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathUUID(c, "food_item_id")
		if !ok {
			return
		}
		var req setQuantityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), ch.timeout)
		defer cancel()

		s, err := ch.cartService.SetQuantity(ctx, middleware.Actor(c).ID, id, *req.Quantity)
		if err != nil {
			respond.Error(c, ch.mylog, err)
			return
		}
		respond.JSON(c, http.StatusOK, s)
	}
}

func (ch *CartHandler) RemoveItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathUUID(c, "food_item_id")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), ch.timeout)
		defer cancel()

		s, err := ch.cartService.RemoveItem(ctx, middleware.Actor(c).ID, id)
		if err != nil {
			respond.Error(c, ch.mylog, err)
			return
		}
		respond.JSON(c, http.StatusOK, s)
	}
}

func (ch *CartHandler) SetNote() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cartNoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), ch.timeout)
		defer cancel()

		s, err := ch.cartService.SetNote(ctx, middleware.Actor(c).ID, req.Note)
		if err != nil {
			respond.Error(c, ch.mylog, err)
			return
		}
		respond.JSON(c, http.StatusOK, s)
	}
}

func (ch *CartHandler) Clear() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), ch.timeout)
		defer cancel()

		if err := ch.cartService.Clear(ctx, middleware.Actor(c).ID); err != nil {
			respond.Error(c, ch.mylog, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// Checkout turns the cart into an order.
func (ch *CartHandler) Checkout() gin.HandlerFunc {
	return func(c *gin.Context) {
		mylog := ch.mylog.RequestID(middleware.GetRequestID(c))

		ctx, cancel := context.WithTimeout(c.Request.Context(), ch.timeout)
		defer cancel()

		order, err := ch.cartService.Checkout(ctx, middleware.Actor(c).ID)
		if err != nil {
			respond.Error(c, mylog, err)
			return
		}
		respond.JSON(c, http.StatusCreated, order)
	}
}
