package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "smsledger/internal/errors"
	"smsledger/internal/models"
	"smsledger/internal/pagination"
	"smsledger/internal/services"
	"smsledger/internal/store"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// ListTransactionsQuery represents the query string of a transaction listing.
type ListTransactionsQuery struct {
	pagination.Request
	Category  *models.Category `form:"category" binding:"omitempty,category"`
	StartDate *string          `form:"startDate" binding:"omitempty,iso_date"`
	EndDate   *string          `form:"endDate" binding:"omitempty,iso_date"`
}

// SummaryQuery represents the query string of a summary request.
type SummaryQuery struct {
	Month string `form:"month" binding:"omitempty,month"`
}

// CreateTransactionRequest represents the request payload for a manual entry.
// Omitted fields take defaults: debit, other, today's date and time.
type CreateTransactionRequest struct {
	Type        *models.TransactionType `json:"type" binding:"omitempty,transaction_type"`
	Amount      *decimal.Decimal        `json:"amount" binding:"required" swaggertype:"number"`
	Category    *models.Category        `json:"category" binding:"omitempty,category"`
	Description *string                 `json:"description" binding:"omitempty,max=500"`
	Date        *string                 `json:"date" binding:"omitempty,iso_date"`
	Time        *string                 `json:"time" binding:"omitempty,clock_time"`
	PaymentMode *models.PaymentMode     `json:"paymentMode" binding:"omitempty,payment_mode"`
	CardLast4   *string                 `json:"cardLast4" binding:"omitempty,card_last4"`
	Sender      *string                 `json:"sender" binding:"omitempty,max=100"`
}

// UpdateTransactionRequest represents the request payload for a partial update.
type UpdateTransactionRequest struct {
	Type        *models.TransactionType `json:"type" binding:"omitempty,transaction_type"`
	Amount      *decimal.Decimal        `json:"amount" swaggertype:"number"`
	Category    *models.Category        `json:"category" binding:"omitempty,category"`
	Description *string                 `json:"description" binding:"omitempty,max=500"`
	Date        *string                 `json:"date" binding:"omitempty,iso_date"`
	Time        *string                 `json:"time" binding:"omitempty,clock_time"`
	PaymentMode *models.PaymentMode     `json:"paymentMode" binding:"omitempty,payment_mode"`
	CardLast4   *string                 `json:"cardLast4" binding:"omitempty,card_last4"`
	Sender      *string                 `json:"sender" binding:"omitempty,max=100"`
}

func (r UpdateTransactionRequest) patch() models.TransactionPatch {
	return models.TransactionPatch{
		Type:        r.Type,
		Amount:      r.Amount,
		Category:    r.Category,
		Description: r.Description,
		Date:        r.Date,
		Time:        r.Time,
		PaymentMode: r.PaymentMode,
		CardLast4:   r.CardLast4,
		Sender:      r.Sender,
	}
}

// DeleteResponse confirms a deletion.
type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ListTransactions handles the retrieval of the device's transactions
// @Summary     List transactions
// @Description Get a page of the device's transactions, newest first, with optional filters
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       X-Device-ID header string false "Device identifier when no bearer token is sent"
// @Param       limit     query int    false "Items per page (default 50, max 500)"
// @Param       offset    query int    false "Items to skip (default 0)"
// @Param       category  query string false "Filter by category"
// @Param       startDate query string false "Earliest business date (YYYY-MM-DD, inclusive)"
// @Param       endDate   query string false "Latest business date (YYYY-MM-DD, inclusive)"
// @Success     200 {object} store.Page "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	deviceID, err := getDeviceID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q ListTransactionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	page, err := h.transactionService.ListTransactions(c.Request.Context(), deviceID, store.ListQuery{
		Limit:     q.Limit,
		Offset:    q.Offset,
		Category:  q.Category,
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetSummary handles the aggregate spend report
// @Summary     Summarize transactions
// @Description Totals and per-category debit spend for one month or all time
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       X-Device-ID header string false "Device identifier when no bearer token is sent"
// @Param       month query string false "Month (YYYY-MM); omit for all time"
// @Success     200 {object} store.Summary "Summary"
// @Failure     400 {object} ErrorResponse "Invalid month"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/summary [get]
func (h *TransactionHandler) GetSummary(c *gin.Context) {
	deviceID, err := getDeviceID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q SummaryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidMonth, err.Error()))
		return
	}

	summary, err := h.transactionService.GetSummary(c.Request.Context(), deviceID, q.Month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetTransaction handles the retrieval of a single transaction
// @Summary     Get a transaction
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       X-Device-ID header string false "Device identifier when no bearer token is sent"
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction"
// @Failure     403 {object} ErrorResponse "Owned by another device"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	deviceID, err := getDeviceID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	txn, err := h.transactionService.GetTransaction(c.Request.Context(), deviceID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, txn)
}

// CreateTransaction handles manual transaction entry
// @Summary     Create a transaction
// @Description Record a manually entered transaction for the device
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       X-Device-ID header string false "Device identifier when no bearer token is sent"
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	deviceID, err := getDeviceID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	txn, err := h.transactionService.CreateManual(c.Request.Context(), deviceID, services.ManualEntry{
		Type:        req.Type,
		Amount:      *req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Date:        req.Date,
		Time:        req.Time,
		PaymentMode: req.PaymentMode,
		CardLast4:   req.CardLast4,
		Sender:      req.Sender,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(deviceID, "CREATE_TRANSACTION", "transaction", txn.ID, c.ClientIP(),
		map[string]any{"type": txn.Type, "amount": txn.Amount.String(), "category": txn.Category})

	c.JSON(http.StatusCreated, txn)
}

// UpdateTransaction handles partial updates
// @Summary     Update a transaction
// @Description Change the mutable fields of a transaction; omitted fields are kept
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       X-Device-ID header string false "Device identifier when no bearer token is sent"
// @Param       id path string true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to change"
// @Success     200 {object} models.Transaction "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Owned by another device"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	deviceID, err := getDeviceID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	txID := c.Param("id")
	txn, err := h.transactionService.UpdateTransaction(c.Request.Context(), deviceID, txID, req.patch())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(deviceID, "UPDATE_TRANSACTION", "transaction", txID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, txn)
}

// DeleteTransaction handles transaction deletion
// @Summary     Delete a transaction
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       X-Device-ID header string false "Device identifier when no bearer token is sent"
// @Param       id path string true "Transaction ID"
// @Success     200 {object} DeleteResponse "Transaction deleted"
// @Failure     404 {object} ErrorResponse "Transaction not found or access denied"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	deviceID, err := getDeviceID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	txID := c.Param("id")
	if err := h.transactionService.DeleteTransaction(c.Request.Context(), deviceID, txID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(deviceID, "DELETE_TRANSACTION", "transaction", txID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, DeleteResponse{Success: true, Message: "Transaction deleted"})
}
