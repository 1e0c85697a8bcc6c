package services

import (
	"context"
	"errors"
	"time"

	apperrors "smsledger/internal/errors"
	"smsledger/internal/models"
	"smsledger/internal/store"
)

const manualDescription = "Manual entry"

// transactionService handles device-scoped ledger operations.
type transactionService struct {
	store store.Store
	loc   *time.Location
	now   func() time.Time
}

// NewTransactionService creates a new TransactionServicer. loc is the zone
// used for manual-entry default dates and times.
func NewTransactionService(st store.Store, loc *time.Location) TransactionServicer {
	if loc == nil {
		loc = time.Local
	}
	return &transactionService{store: st, loc: loc, now: time.Now}
}

// mapStoreError converts store sentinels into API errors.
func mapStoreError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperrors.ErrTransactionNotFound
	case errors.Is(err, store.ErrConflict):
		return apperrors.Wrap(apperrors.ErrTransactionConflict, err)
	case errors.Is(err, store.ErrInvalid):
		appErr := apperrors.WithMessage(apperrors.ErrInvalidTransaction, err.Error())
		appErr.Internal = err
		return appErr
	default:
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
}

// ListTransactions returns a filtered page of the device's transactions.
func (s *transactionService) ListTransactions(ctx context.Context, deviceID string, q store.ListQuery) (*store.Page, error) {
	page, err := s.store.List(ctx, deviceID, q)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return page, nil
}

// GetSummary aggregates the device's transactions, optionally for one YYYY-MM month.
func (s *transactionService) GetSummary(ctx context.Context, deviceID, month string) (*store.Summary, error) {
	var m *store.Month
	if month != "" {
		parsed, err := store.ParseMonth(month)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInvalidMonth, err)
		}
		m = &parsed
	}

	summary, err := s.store.Summarize(ctx, deviceID, m)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return summary, nil
}

// GetTransaction returns a transaction owned by deviceID.
func (s *transactionService) GetTransaction(ctx context.Context, deviceID, id string) (*models.Transaction, error) {
	txn, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if txn.DeviceID != deviceID {
		return nil, apperrors.ErrForbidden
	}
	return txn, nil
}

// CreateManual records a user-entered transaction.
func (s *transactionService) CreateManual(ctx context.Context, deviceID string, entry ManualEntry) (*models.Transaction, error) {
	if !entry.Amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Valid amount is required")
	}

	now := s.now().In(s.loc)
	txn := &models.Transaction{
		Type:        valueOr(entry.Type, models.TransactionTypeDebit),
		Amount:      entry.Amount.Round(2),
		Category:    valueOr(entry.Category, models.CategoryOther),
		Description: valueOr(entry.Description, manualDescription),
		Date:        valueOr(entry.Date, now.Format(models.DateLayout)),
		Time:        valueOr(entry.Time, now.Format(models.TimeLayout)),
		PaymentMode: valueOr(entry.PaymentMode, models.PaymentModeOther),
		CardLast4:   entry.CardLast4,
		Source:      models.SourceManual,
		Sender:      entry.Sender,
	}
	if txn.Description == "" {
		txn.Description = manualDescription
	}

	created, err := s.store.Create(ctx, txn, deviceID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return created, nil
}

// UpdateTransaction applies a partial update to a transaction owned by deviceID.
func (s *transactionService) UpdateTransaction(ctx context.Context, deviceID, id string, patch models.TransactionPatch) (*models.Transaction, error) {
	if _, err := s.GetTransaction(ctx, deviceID, id); err != nil {
		return nil, err
	}

	updated, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return updated, nil
}

// DeleteTransaction removes a transaction owned by deviceID. Missing and
// foreign records are both reported as not found.
func (s *transactionService) DeleteTransaction(ctx context.Context, deviceID, id string) error {
	deleted, err := s.store.Delete(ctx, id, deviceID)
	if err != nil {
		return mapStoreError(err)
	}
	if !deleted {
		return apperrors.WithMessage(apperrors.ErrTransactionNotFound, "Transaction not found or access denied")
	}
	return nil
}

func valueOr[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
