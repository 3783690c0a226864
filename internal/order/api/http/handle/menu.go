package handle

import (
	"context"
	"net/http"
	"time"

	"campus-food/internal/order/api/http/respond"
	"campus-food/internal/order/app/services"
	"campus-food/internal/order/domain/dto"
	"campus-food/internal/order/domain/models"
	"campus-food/internal/xpkg/logger"

	"github.com/gin-gonic/gin"
)

type MenuHandler struct {
	menuService *services.MenuService
	mylog       logger.Logger
	timeout     time.Duration
}

func NewMenuHandler(menuService *services.MenuService, mylog logger.Logger, timeout time.Duration) *MenuHandler {
	return &MenuHandler{
		menuService: menuService,
		mylog:       mylog,
		timeout:     timeout,
	}
}

// List serves the menu. Public callers only see available items.
func (mh *MenuHandler) List(availableOnly bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q dto.MenuQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			respond.BadRequest(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), mh.timeout)
		defer cancel()

		items, err := mh.menuService.List(ctx, models.MenuFilter{
			Category:      models.Category(q.Category),
			AvailableOnly: availableOnly,
		})
		if err != nil {
			respond.Error(c, mh.mylog, err)
			return
		}
		respond.JSON(c, http.StatusOK, gin.H{"items": items})
	}
}

func (mh *MenuHandler) Get(availableOnly bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathUUID(c, "id")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), mh.timeout)
		defer cancel()

		item, err := mh.menuService.Get(ctx, id, availableOnly)
		if err != nil {
			respond.Error(c, mh.mylog, err)
			return
		}
		respond.JSON(c, http.StatusOK, item)
	}
}

func (mh *MenuHandler) Create() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.FoodItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), mh.timeout)
		defer cancel()

		item, err := mh.menuService.Create(ctx, req.ToModel())
		if err != nil {
			respond.Error(c, mh.mylog, err)
			return
		}
		respond.JSON(c, http.StatusCreated, item)
	}
}

func (mh *MenuHandler) Update() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathUUID(c, "id")
		if !ok {
			return
		}
		var req dto.FoodItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), mh.timeout)
		defer cancel()

		item, err := mh.menuService.Update(ctx, id, req.ToModel())
		if err != nil {
			respond.Error(c, mh.mylog, err)
			return
		}
		respond.JSON(c, http.StatusOK, item)
	}
}

func (mh *MenuHandler) SetAvailability() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathUUID(c, "id")
		if !ok {
			return
		}
		var req dto.AvailabilityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), mh.timeout)
		defer cancel()

		item, err := mh.menuService.SetAvailability(ctx, id, *req.IsAvailable)
		if err != nil {
			respond.Error(c, mh.mylog, err)
			return
		}
		respond.JSON(c, http.StatusOK, item)
	}
}

func (mh *MenuHandler) Delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathUUID(c, "id")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), mh.timeout)
		defer cancel()

		if err := mh.menuService.Delete(ctx, id); err != nil {
			respond.Error(c, mh.mylog, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
