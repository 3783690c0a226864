package handle

import (
	"net/http"

	"campus-food/internal/order/api/http/respond"
	"campus-food/internal/order/domain/dto"
	"campus-food/internal/xpkg/auth"
	"campus-food/internal/xpkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type AuthHandler struct {
	auth  *auth.Authenticator
	mylog logger.Logger
}

func NewAuthHandler(a *auth.Authenticator, mylog logger.Logger) *AuthHandler {
	return &AuthHandler{auth: a, mylog: mylog}
}

// Login exchanges admin credentials for a bearer token.
func (ah *AuthHandler) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err)
			return
		}

		token, expires, err := ah.auth.Login(req.Username, req.Password)
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			ah.mylog.Action("login_failed").Warn("Rejected admin login", "username", req.Username)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "code": http.StatusUnauthorized})
			return
		case errors.Is(err, auth.ErrNotConfigured):
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "code": http.StatusServiceUnavailable})
			return
		case err != nil:
			respond.Error(c, ah.mylog, err)
			return
		}

		ah.mylog.Action("login_completed").Info("Admin logged in", "username", req.Username)
		respond.JSON(c, http.StatusOK, dto.LoginResponse{Token: token, TokenType: "Bearer", ExpiresAt: expires})
	}
}
