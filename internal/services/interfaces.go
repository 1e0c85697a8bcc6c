package services

import (
	"context"

	"github.com/shopspring/decimal"

	"smsledger/internal/models"
	"smsledger/internal/smsparser"
	"smsledger/internal/store"
)

// ManualEntry is a user-submitted transaction. Nil fields take defaults.
type ManualEntry struct {
	Type        *models.TransactionType
	Amount      decimal.Decimal
	Category    *models.Category
	Description *string
	Date        *string
	Time        *string
	PaymentMode *models.PaymentMode
	CardLast4   *string
	Sender      *string
}

// TransactionServicer defines the contract for device-scoped ledger access.
type TransactionServicer interface {
	ListTransactions(ctx context.Context, deviceID string, q store.ListQuery) (*store.Page, error)
	GetSummary(ctx context.Context, deviceID, month string) (*store.Summary, error)
	GetTransaction(ctx context.Context, deviceID, id string) (*models.Transaction, error)
	CreateManual(ctx context.Context, deviceID string, entry ManualEntry) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, deviceID, id string, patch models.TransactionPatch) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, deviceID, id string) error
}

// ParseOutcome is the result of single-message ingestion.
type ParseOutcome struct {
	smsparser.Result
	Saved     bool `json:"saved,omitempty"`
	Duplicate bool `json:"duplicate,omitempty"`
}

// DuplicateItem reports a batch message that was already recorded.
type DuplicateItem struct {
	Text       string `json:"text"`
	ExistingID string `json:"existingId"`
}

// BatchOutcome is the result of batch ingestion for one device.
type BatchOutcome struct {
	Success        bool                   `json:"success"`
	Total          int                    `json:"total"`
	Parsed         int                    `json:"parsed"`
	Saved          int                    `json:"saved"`
	Duplicates     int                    `json:"duplicates"`
	Transactions   []*models.Transaction  `json:"transactions"`
	DuplicateItems []DuplicateItem        `json:"duplicateItems"`
	Errors         []smsparser.BatchError `json:"errors"`
}

// SMSServicer defines the contract for SMS ingestion.
type SMSServicer interface {
	ParseOne(ctx context.Context, deviceID string, msg smsparser.Message, save bool) (*ParseOutcome, error)
	ProcessBatch(ctx context.Context, deviceID string, items []smsparser.Message) (*BatchOutcome, error)
	IsBankSMS(text string) bool
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(deviceID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
