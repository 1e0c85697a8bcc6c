package services

import (
	"context"
	"strings"

	apperrors "smsledger/internal/errors"
	"smsledger/internal/logger"
	"smsledger/internal/models"
	"smsledger/internal/smsparser"
	"smsledger/internal/store"
)

// Ingestion outcomes that are not extraction failures.
const (
	ReasonDuplicate   smsparser.Reason = "Duplicate"
	ReasonStoreFailed smsparser.Reason = "StoreFailed"
)

// smsService parses bank messages and records them per device.
type smsService struct {
	parser *smsparser.Parser
	store  store.Store
}

// NewSMSService creates a new SMSServicer.
func NewSMSService(parser *smsparser.Parser, st store.Store) SMSServicer {
	return &smsService{parser: parser, store: st}
}

// IsBankSMS reports whether text looks like a bank notification.
func (s *smsService) IsBankSMS(text string) bool {
	return smsparser.IsBankSMS(text)
}

// ParseOne parses a single message and, when save is set, records it unless
// the device already has the same message.
func (s *smsService) ParseOne(ctx context.Context, deviceID string, msg smsparser.Message, save bool) (*ParseOutcome, error) {
	if strings.TrimSpace(msg.Text) == "" {
		return nil, apperrors.ErrSMSTextRequired
	}

	result := s.parser.Parse(msg.Text, msg.Sender, msg.Timestamp)
	if !result.Success || !save {
		return &ParseOutcome{Result: result}, nil
	}
	if deviceID == "" {
		return nil, apperrors.ErrDeviceIDRequired
	}

	stored, created, err := s.store.CreateIfAbsent(ctx, result.Transaction, deviceID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if !created {
		return &ParseOutcome{
			Result: smsparser.Result{
				Error:   ReasonDuplicate,
				Message: "Duplicate transaction",
			},
			Duplicate: true,
		}, nil
	}

	logger.Get().Debugw("SMS transaction saved", "device_id", deviceID, "transaction_id", stored.ID)
	return &ParseOutcome{
		Result: smsparser.Result{Success: true, Transaction: stored},
		Saved:  true,
	}, nil
}

// ProcessBatch parses every message and records the successes for deviceID.
// One message failing never aborts the batch.
func (s *smsService) ProcessBatch(ctx context.Context, deviceID string, items []smsparser.Message) (*BatchOutcome, error) {
	if deviceID == "" {
		return nil, apperrors.ErrDeviceIDRequired
	}
	if items == nil {
		return nil, apperrors.ErrMessagesRequired
	}

	parsed := s.parser.ParseBatch(items)
	out := &BatchOutcome{
		Success:        true,
		Total:          parsed.Total,
		Parsed:         parsed.Parsed,
		Transactions:   make([]*models.Transaction, 0, len(parsed.Transactions)),
		DuplicateItems: []DuplicateItem{},
		Errors:         parsed.Errors,
	}

	log := logger.With("device_id", deviceID)
	for _, txn := range parsed.Transactions {
		stored, created, err := s.store.CreateIfAbsent(ctx, txn, deviceID)
		if err != nil {
			log.Errorw("failed to store parsed SMS", "error", err, "transaction_id", txn.ID)
			out.Errors = append(out.Errors, smsparser.BatchError{
				Text:  smsparser.Snippet(txn.RawSMS),
				Error: ReasonStoreFailed,
			})
			continue
		}
		if !created {
			out.DuplicateItems = append(out.DuplicateItems, DuplicateItem{
				Text:       smsparser.Snippet(txn.RawSMS),
				ExistingID: stored.ID,
			})
			continue
		}
		out.Transactions = append(out.Transactions, stored)
	}
	out.Saved = len(out.Transactions)
	out.Duplicates = len(out.DuplicateItems)

	log.Infow("Processed SMS batch",
		"total", out.Total,
		"parsed", out.Parsed,
		"saved", out.Saved,
		"duplicates", out.Duplicates,
		"errors", len(out.Errors),
	)
	return out, nil
}
