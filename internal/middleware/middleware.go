package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fekuna/marketplace-listing-service/internal/apperror"
	"github.com/fekuna/marketplace-listing-service/internal/auth"
	"github.com/fekuna/marketplace-listing-service/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Identity copies the gateway-resolved caller headers onto the request context.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := auth.Caller{
			UserID: strings.TrimSpace(c.GetHeader(auth.HeaderUserID)),
			Role:   auth.NormalizeRole(c.GetHeader(auth.HeaderUserRole)),
		}
		c.Request = c.Request.WithContext(auth.WithCaller(c.Request.Context(), caller))
		c.Next()
	}
}

func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth.GetUserID(c.Request.Context()) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorBody{Code: "UNAUTHENTICATED", Message: "missing caller identity"})
			return
		}
		c.Next()
	}
}

func RequireModerator() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.GetCaller(c.Request.Context()).IsModerator() {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorBody{Code: "FORBIDDEN", Message: "moderator role required"})
			return
		}
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.GetCaller(c.Request.Context()).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorBody{Code: "FORBIDDEN", Message: "admin role required"})
			return
		}
		c.Next()
	}
}

func RequestLogger(log logger.ZapLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// AbortWithError renders err as an ErrorBody. Only non-taxonomy errors are logged.
func AbortWithError(c *gin.Context, log logger.ZapLogger, err error) {
	if appErr, ok := asAppError(err); ok {
		c.AbortWithStatusJSON(appErr.HTTPStatus(), ErrorBody{Code: appErr.Code, Message: appErr.Message, Detail: appErr.Detail})
		return
	}
	log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorBody{Code: apperror.CodeInternal, Message: "internal error"})
}

func asAppError(err error) (*apperror.Error, bool) {
	var e *apperror.Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// BadRequest reports a malformed request body or parameter.
func BadRequest(c *gin.Context, detail string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorBody{
		Code:    apperror.ValidationFailed(detail).Code,
		Message: "Invalid request",
		Detail:  detail,
	})
}
