package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	apperrors "smsledger/internal/errors"
	"smsledger/internal/logger"
)

// ErrorDetail is the inner object of every error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the JSON envelope shared by handlers and middleware.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

func newErrorResponse(appErr *apperrors.AppError) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: appErr.Code, Message: appErr.Message}}
}

// RespondWithError writes err as an error envelope. Errors that are not
// *AppError are logged and reported as INTERNAL_ERROR so details never leak.
func RespondWithError(c *gin.Context, err error) {
	appErr := resolveError(c, err)
	c.JSON(appErr.StatusCode, newErrorResponse(appErr))
}

func abortWithError(c *gin.Context, appErr *apperrors.AppError) {
	c.AbortWithStatusJSON(appErr.StatusCode, newErrorResponse(appErr))
}

func resolveError(c *gin.Context, err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
				"device_id", c.GetString(DeviceIDKey),
				"request_id", c.GetString(requestIDKey),
			)
		}
		return appErr
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"device_id", c.GetString(DeviceIDKey),
		"request_id", c.GetString(requestIDKey),
	)
	return apperrors.ErrInternalServer
}

// ErrorHandler recovers panics into an INTERNAL_ERROR response and renders
// the last error attached to the context when the handler wrote nothing.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			// net/http uses this panic to abort the connection silently.
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}
			logger.Get().Errorw("panic recovered",
				"panic", rec,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"device_id", c.GetString(DeviceIDKey),
				"request_id", c.GetString(requestIDKey),
				"stack", string(debug.Stack()),
			)
			abortWithError(c, apperrors.ErrInternalServer)
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		RespondWithError(c, c.Errors.Last().Err)
	}
}
