package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"invoicer/internal/core/apperror"
	appctx "invoicer/internal/core/context"
	"invoicer/internal/infrastructure/http/v1/dto"
	"invoicer/pkg/logger"
)

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		ctx := c.Request.Context()

		appErr, ok := apperror.AsAppError(err)
		if !ok {
			logger.Error(ctx, "unhandled error", "error", err)
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
				Code:    apperror.CodeInternal,
				Message: "Internal server error",
				Details: map[string]any{"request_id": appctx.GetRequestID(ctx)},
			})
			return
		}

		if appErr.Err != nil {
			// The cause is for the log only; denials must look alike.
			if appErr.HTTPStatus >= http.StatusInternalServerError {
				logger.Error(ctx, "request error", "code", appErr.Code, "cause", appErr.Err)
			} else {
				logger.Warn(ctx, "request error", "code", appErr.Code, "cause", appErr.Err)
			}
		}

		c.JSON(appErr.HTTPStatus, dto.ErrorResponse{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		})
	}
}
