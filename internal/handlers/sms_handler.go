package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "smsledger/internal/errors"
	"smsledger/internal/middleware"
	"smsledger/internal/services"
	"smsledger/internal/smsparser"
)

// anonymousDevice owns messages saved through /sms/parse without a device.
const anonymousDevice = "anonymous"

// SMSHandler handles SMS ingestion requests.
type SMSHandler struct {
	smsService   services.SMSServicer
	auditService services.AuditServicer
}

// NewSMSHandler creates a new SMSHandler.
func NewSMSHandler(smsService services.SMSServicer, auditService services.AuditServicer) *SMSHandler {
	return &SMSHandler{smsService: smsService, auditService: auditService}
}

// ParseSMSRequest represents the request payload for single-message parsing.
type ParseSMSRequest struct {
	Text      string  `json:"text"`
	Sender    *string `json:"sender"`
	Timestamp *int64  `json:"timestamp"`
	Save      bool    `json:"save"`
}

// BatchSMSRequest represents a batch of messages. Each item is either a
// plain string or an object with text, sender and timestamp.
type BatchSMSRequest struct {
	Messages []smsparser.Message `json:"messages" binding:"required"`
}

// ValidateSMSRequest represents the request payload for bank-message detection.
type ValidateSMSRequest struct {
	Text string `json:"text"`
}

// ValidateSMSResponse reports whether a message looks like a bank notification.
type ValidateSMSResponse struct {
	Valid bool `json:"valid"`
}

// ParseSMS handles single-message parsing
// @Summary     Parse an SMS
// @Description Extract a transaction from one bank message and optionally record it for the device
// @Tags        sms
// @Accept      json
// @Produce     json
// @Param       X-Device-ID header string false "Device identifier"
// @Param       request body ParseSMSRequest true "Message"
// @Success     200 {object} services.ParseOutcome "Parse outcome"
// @Failure     400 {object} ErrorResponse "SMS text is required"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /sms/parse [post]
func (h *SMSHandler) ParseSMS(c *gin.Context) {
	var req ParseSMSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondWithError(c, apperrors.ErrSMSTextRequired)
		return
	}

	deviceID := c.GetString(middleware.DeviceIDKey)
	if deviceID == "" {
		deviceID = anonymousDevice
	}

	msg := smsparser.Message{Text: req.Text, Sender: req.Sender, Timestamp: req.Timestamp}
	outcome, err := h.smsService.ParseOne(c.Request.Context(), deviceID, msg, req.Save)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if outcome.Saved {
		h.auditService.Log(deviceID, "INGEST_SMS", "transaction", outcome.Transaction.ID, c.ClientIP(), nil)
	}

	c.JSON(http.StatusOK, outcome)
}

// BatchSMS handles bulk ingestion from a phone sync
// @Summary     Ingest a batch of SMS
// @Description Parse every message and record new transactions; repeats of stored messages are reported as duplicates
// @Tags        sms
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       X-Device-ID header string true "Device identifier"
// @Param       request body BatchSMSRequest true "Messages"
// @Success     200 {object} services.BatchOutcome "Batch outcome"
// @Failure     400 {object} ErrorResponse "Missing device or messages"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /sms/batch [post]
func (h *SMSHandler) BatchSMS(c *gin.Context) {
	deviceID, err := getDeviceID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BatchSMSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.ErrMessagesRequired)
		return
	}

	outcome, err := h.smsService.ProcessBatch(c.Request.Context(), deviceID, req.Messages)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if outcome.Saved > 0 {
		h.auditService.Log(deviceID, "INGEST_SMS_BATCH", "transaction", "", c.ClientIP(),
			map[string]any{"total": outcome.Total, "saved": outcome.Saved, "duplicates": outcome.Duplicates})
	}

	c.JSON(http.StatusOK, outcome)
}

// ValidateSMS handles bank-message detection
// @Summary     Check whether an SMS is a bank message
// @Tags        sms
// @Accept      json
// @Produce     json
// @Param       request body ValidateSMSRequest true "Message"
// @Success     200 {object} ValidateSMSResponse "Detection result"
// @Failure     400 {object} ErrorResponse "SMS text is required"
// @Router      /sms/validate [post]
func (h *SMSHandler) ValidateSMS(c *gin.Context) {
	var req ValidateSMSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if req.Text == "" {
		respondWithError(c, apperrors.ErrSMSTextRequired)
		return
	}

	c.JSON(http.StatusOK, ValidateSMSResponse{Valid: h.smsService.IsBankSMS(req.Text)})
}
