package handlers

import (
	"github.com/gin-gonic/gin"

	apperrors "smsledger/internal/errors"
	"smsledger/internal/middleware"
)

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail = middleware.ErrorDetail

// ErrorResponse represents an error response.
type ErrorResponse = middleware.ErrorResponse

// getDeviceID extracts the resolved device ID from the Gin context.
// Returns ErrDeviceIDRequired if not present.
func getDeviceID(c *gin.Context) (string, error) {
	deviceID := c.GetString(middleware.DeviceIDKey)
	if deviceID == "" {
		return "", apperrors.ErrDeviceIDRequired
	}
	return deviceID, nil
}

// respondWithError writes the shared JSON error envelope for err.
func respondWithError(c *gin.Context, err error) {
	middleware.RespondWithError(c, err)
}
