package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khoahotran/blog-search/pkg/apperror"
	"github.com/khoahotran/blog-search/pkg/auth"
	"github.com/khoahotran/blog-search/pkg/logger"
)

const (
	GinContextKeySubject = "subject"
	GinContextKeyRole    = "role"
)

func AuthMiddleware(jwtSvc *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, apperror.NewUnauthorized("Authorization header is required", nil))
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			abortWithError(c, apperror.NewUnauthorized("Invalid token format", nil))
			return
		}

		claims, err := jwtSvc.ValidateToken(tokenString)
		if err != nil {
			abortWithError(c, apperror.NewUnauthorized("Invalid or expired token", err))
			return
		}

		c.Set(GinContextKeySubject, claims.Subject)
		c.Set(GinContextKeyRole, claims.Role)

		c.Next()
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(GinContextKeyRole) != role {
			abortWithError(c, apperror.NewPermissionDenied("role "+role+" required"))
			return
		}
		c.Next()
	}
}

func abortWithError(c *gin.Context, err *apperror.AppError) {
	c.AbortWithStatusJSON(apperror.ToHTTPStatus(err), err.ToJSON())
}

// ErrorMiddleware renders the last error a handler attached with c.Error.
// Errors that are not an *apperror.AppError are reported as internal errors
// without leaking their text.
func ErrorMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			appErr = apperror.NewInternal("unexpected error", err)
		}
		status := apperror.ToHTTPStatus(appErr)
		if status >= http.StatusInternalServerError {
			log.Error("Request failed", err, zap.String("method", c.Request.Method), zap.String("path", c.FullPath()))
		}

		if !c.Writer.Written() {
			c.JSON(status, appErr.ToJSON())
		}
	}
}
