package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tgo/sage/internal/middleware"
	"github.com/tgo/sage/internal/pkg/errs"
)

// respondError maps service errors to HTTP responses. Unrecognized errors
// become a generic 500 and are logged with their detail.
func respondError(c *gin.Context, err error) {
	if e, ok := errs.As(err); ok {
		body := gin.H{"error": e.Message}
		if e.RetryAfter > 0 {
			body["retry_after"] = e.RetryAfter
		}
		c.JSON(e.Status, body)
		return
	}

	slog.Error("request failed", "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// currentUser pulls the authenticated user id, aborting with 401 when the
// auth middleware did not run.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return uuid.Nil, false
	}
	return userID, true
}
