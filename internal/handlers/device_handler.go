package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "smsledger/internal/errors"
	"smsledger/internal/middleware"
	"smsledger/internal/services"
)

// DeviceHandler issues device tokens.
type DeviceHandler struct {
	secret       []byte
	ttl          time.Duration
	auditService services.AuditServicer
}

// NewDeviceHandler creates a new DeviceHandler.
func NewDeviceHandler(secret []byte, ttl time.Duration, auditService services.AuditServicer) *DeviceHandler {
	return &DeviceHandler{secret: secret, ttl: ttl, auditService: auditService}
}

// DeviceTokenResponse represents an issued device token.
type DeviceTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	DeviceID  string    `json:"deviceId"`
}

// IssueToken handles device token issuance
// @Summary     Issue a device token
// @Description Exchange the X-Device-ID header for a signed bearer token bound to that device
// @Tags        devices
// @Produce     json
// @Param       X-Device-ID header string true "Device identifier"
// @Success     200 {object} DeviceTokenResponse "Token issued"
// @Failure     400 {object} ErrorResponse "Missing or malformed device ID"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /devices/token [post]
func (h *DeviceHandler) IssueToken(c *gin.Context) {
	deviceID, err := getDeviceID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	token, expiresAt, err := middleware.GenerateDeviceToken(deviceID, h.secret, h.ttl)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	h.auditService.Log(deviceID, "ISSUE_TOKEN", "device", deviceID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, DeviceTokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		DeviceID:  deviceID,
	})
}
