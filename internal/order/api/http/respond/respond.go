// Package respond writes JSON bodies and maps ledger errors onto HTTP status codes.
package respond

import (
	"net/http"

	"campus-food/internal/order/app/core"
	"campus-food/internal/xpkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

func JSON(c *gin.Context, code int, data any) {
	if data == nil {
		c.Status(code)
		return
	}
	c.JSON(code, data)
}

// Status maps an error from the order core onto an HTTP status.
func Status(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrDuplicateTracking),
		errors.Is(err, core.ErrIllegalTransition),
		errors.Is(err, core.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, core.ErrReferential):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrTransient):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Error writes err with the mapped status. Server side failures are logged and
// their details withheld from the client.
func Error(c *gin.Context, mylog logger.Logger, err error) {
	code := Status(err)
	msg := err.Error()

	switch code {
	case http.StatusInternalServerError:
		mylog.Action("request_failed").Error("Unhandled error", err, "path", c.FullPath())
		msg = "internal error"
	case http.StatusServiceUnavailable:
		msg = "service temporarily unavailable, retry later"
	}

	body := gin.H{"error": msg, "code": code}
	if core.Retryable(err) {
		body["retryable"] = true
	}
	c.AbortWithStatusJSON(code, body)
}

// BadRequest reports a malformed request body or query.
func BadRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": http.StatusBadRequest})
}
