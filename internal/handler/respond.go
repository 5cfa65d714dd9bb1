package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/heartline/heartline/internal/middleware"
	"github.com/heartline/heartline/internal/realtime"
	"github.com/heartline/heartline/internal/service"
	"github.com/heartline/heartline/pkg/logger"
	"go.uber.org/zap"
)

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, middleware.ErrUnauthenticated),
		errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrEmailNotVerified),
		errors.Is(err, realtime.ErrChannelForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrMessageNotFound),
		errors.Is(err, service.ErrMemberNotFound),
		errors.Is(err, service.ErrPhotoNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrPhotoNotApproved),
		errors.Is(err, service.ErrEmailAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrCannotLikeSelf),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrTokenExpired):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnsupportedImage):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, service.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {status:"error", ...}. Validation problems go
// back as a field map; anything unexpected is logged and hidden.
func respondError(c *gin.Context, err error) {
	if verr, ok := service.AsValidationError(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"errors": verr.Fields,
		})
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Log.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(status, gin.H{"status": "error", "error": "Internal server error"})
		return
	}

	c.JSON(status, gin.H{"status": "error", "error": err.Error()})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": message})
}

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"status": "success", "data": data})
}

// currentUser aborts with 401 when the request has no session
func currentUser(c *gin.Context) (userID string, ok bool) {
	claims, err := middleware.CurrentUser(c)
	if err != nil {
		respondError(c, err)
		return "", false
	}
	return claims.UserID, true
}
