// Package middleware holds the gin middleware shared by the HTTP services.
package middleware

import (
	"net/http"
	"strings"
	"time"

	"campus-food/internal/order/app/core"
	"campus-food/internal/order/domain/models"
	"campus-food/internal/xpkg/auth"
	"campus-food/internal/xpkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"
	SessionHeader   = "X-Session-ID"

	requestIDKey = "request_id"
	actorKey     = "actor"
)

// TokenVerifier is satisfied by auth.Authenticator.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// RequestID tags each request with an id, taken from the header when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// Logging writes one entry per request once it completes.
func Logging(mylog logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := mylog.Action("http_request").RequestID(c.GetString(requestIDKey))
		kv := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			log.Warn("Server error", kv...)
		case status >= http.StatusBadRequest:
			log.Debug("Client error", kv...)
		default:
			log.Info("Request processed", kv...)
		}
	}
}

// CORS allows browser clients on other origins to call the API.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID, X-Session-ID")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Session requires an X-Session-ID header and records a session actor.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(SessionHeader))
		if id == "" || len(id) > core.MaxSessionIDLen {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid " + SessionHeader + " header"})
			return
		}
		c.Set(actorKey, models.SessionActor(id))
		c.Next()
	}
}

// Admin requires a valid admin bearer token and records an admin actor.
func Admin(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized: missing token"})
			return
		}
		claims, err := verifier.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized: invalid token"})
			return
		}
		c.Set(actorKey, models.AdminActor(claims.Subject))
		c.Next()
	}
}

// Actor returns the identity recorded by Session or Admin.
func Actor(c *gin.Context) models.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(models.Actor); ok {
			return actor
		}
	}
	return models.Actor{}
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}
