package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"smsledger/internal/models"
	"smsledger/internal/store"
	"smsledger/internal/testutil"
)

func newTestTransactionService(st store.Store) *transactionService {
	svc := NewTransactionService(st, time.UTC).(*transactionService)
	svc.now = func() time.Time { return time.Date(2025, 2, 3, 14, 7, 0, 0, time.UTC) }
	return svc
}

func seed(t *testing.T, st store.Store, deviceID string, txnType models.TransactionType, amount int64) *models.Transaction {
	t.Helper()
	created, err := st.Create(context.Background(), testutil.NewTestTransaction(txnType, amount), deviceID)
	testutil.AssertNoError(t, err)
	return created
}

func TestCreateManual(t *testing.T) {
	ctx := context.Background()

	t.Run("applies_defaults", func(t *testing.T) {
		svc := newTestTransactionService(store.NewMemoryStore())

		txn, err := svc.CreateManual(ctx, "D1", ManualEntry{Amount: decimal.NewFromInt(250)})
		testutil.AssertNoError(t, err)

		if txn.ID == "" {
			t.Fatal("expected an ID")
		}
		if txn.Type != models.TransactionTypeDebit {
			t.Errorf("expected debit, got %s", txn.Type)
		}
		if txn.Category != models.CategoryOther {
			t.Errorf("expected other, got %s", txn.Category)
		}
		if txn.Description != "Manual entry" {
			t.Errorf("expected default description, got %q", txn.Description)
		}
		if txn.Date != "2025-02-03" || txn.Time != "14:07" {
			t.Errorf("expected 2025-02-03 14:07, got %s %s", txn.Date, txn.Time)
		}
		if txn.PaymentMode != models.PaymentModeOther {
			t.Errorf("expected other payment mode, got %s", txn.PaymentMode)
		}
		if txn.Source != models.SourceManual {
			t.Errorf("expected manual source, got %s", txn.Source)
		}
		if txn.RawSMS != "" {
			t.Errorf("manual entries carry no raw SMS, got %q", txn.RawSMS)
		}
		if txn.DeviceID != "D1" {
			t.Errorf("expected device D1, got %s", txn.DeviceID)
		}
	})

	t.Run("uses_provided_fields", func(t *testing.T) {
		svc := newTestTransactionService(store.NewMemoryStore())
		credit := models.TransactionTypeCredit
		category := models.CategoryFood
		desc := "Lunch refund"
		date := "2025-01-31"
		clock := "09:15"
		mode := models.PaymentModeUPI

		txn, err := svc.CreateManual(ctx, "D1", ManualEntry{
			Type:        &credit,
			Amount:      decimal.RequireFromString("99.999"),
			Category:    &category,
			Description: &desc,
			Date:        &date,
			Time:        &clock,
			PaymentMode: &mode,
		})
		testutil.AssertNoError(t, err)

		testutil.AssertDecimal(t, "100.00", txn.Amount)
		if txn.Type != credit || txn.Category != category || txn.Description != desc {
			t.Errorf("unexpected fields: %+v", txn)
		}
		if txn.Date != date || txn.Time != clock || txn.PaymentMode != mode {
			t.Errorf("unexpected date/time/mode: %s %s %s", txn.Date, txn.Time, txn.PaymentMode)
		}
	})

	t.Run("zero_amount", func(t *testing.T) {
		svc := newTestTransactionService(store.NewMemoryStore())
		_, err := svc.CreateManual(ctx, "D1", ManualEntry{Amount: decimal.Zero})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("negative_amount", func(t *testing.T) {
		svc := newTestTransactionService(store.NewMemoryStore())
		_, err := svc.CreateManual(ctx, "D1", ManualEntry{Amount: decimal.NewFromInt(-10)})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("invalid_date", func(t *testing.T) {
		svc := newTestTransactionService(store.NewMemoryStore())
		date := "2025-02-30"
		_, err := svc.CreateManual(ctx, "D1", ManualEntry{Amount: decimal.NewFromInt(10), Date: &date})
		testutil.AssertAppError(t, err, "INVALID_TRANSACTION")
	})
}

func TestGetTransaction(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := newTestTransactionService(st)
	txn := seed(t, st, "D1", models.TransactionTypeDebit, 100)

	t.Run("owner", func(t *testing.T) {
		got, err := svc.GetTransaction(ctx, "D1", txn.ID)
		testutil.AssertNoError(t, err)
		if got.ID != txn.ID {
			t.Errorf("expected %s, got %s", txn.ID, got.ID)
		}
	})

	t.Run("other_device", func(t *testing.T) {
		_, err := svc.GetTransaction(ctx, "D2", txn.ID)
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})

	t.Run("not_found", func(t *testing.T) {
		_, err := svc.GetTransaction(ctx, "D1", "missing")
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}

func TestUpdateTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("owner_updates", func(t *testing.T) {
		st := store.NewMemoryStore()
		svc := newTestTransactionService(st)
		txn := seed(t, st, "D1", models.TransactionTypeDebit, 100)

		category := models.CategoryTransport
		updated, err := svc.UpdateTransaction(ctx, "D1", txn.ID, models.TransactionPatch{Category: &category})
		testutil.AssertNoError(t, err)
		if updated.Category != category {
			t.Errorf("expected %s, got %s", category, updated.Category)
		}
		if updated.UpdatedAt == nil {
			t.Error("expected updatedAt to be set")
		}
	})

	t.Run("other_device_forbidden", func(t *testing.T) {
		st := store.NewMemoryStore()
		svc := newTestTransactionService(st)
		txn := seed(t, st, "D1", models.TransactionTypeDebit, 100)

		desc := "hijack"
		_, err := svc.UpdateTransaction(ctx, "D2", txn.ID, models.TransactionPatch{Description: &desc})
		testutil.AssertAppError(t, err, "FORBIDDEN")

		got, err := st.Get(ctx, txn.ID)
		testutil.AssertNoError(t, err)
		if got.Description == desc || got.DeviceID != "D1" {
			t.Errorf("record should be untouched: %+v", got)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		svc := newTestTransactionService(store.NewMemoryStore())
		_, err := svc.UpdateTransaction(ctx, "D1", "missing", models.TransactionPatch{})
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})

	t.Run("invalid_patch", func(t *testing.T) {
		st := store.NewMemoryStore()
		svc := newTestTransactionService(st)
		txn := seed(t, st, "D1", models.TransactionTypeDebit, 100)

		clock := "7pm"
		_, err := svc.UpdateTransaction(ctx, "D1", txn.ID, models.TransactionPatch{Time: &clock})
		testutil.AssertAppError(t, err, "INVALID_TRANSACTION")
	})
}

func TestDeleteTransaction(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := newTestTransactionService(st)
	txn := seed(t, st, "D1", models.TransactionTypeDebit, 100)

	err := svc.DeleteTransaction(ctx, "D2", txn.ID)
	testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")

	testutil.AssertNoError(t, svc.DeleteTransaction(ctx, "D1", txn.ID))

	err = svc.DeleteTransaction(ctx, "D1", txn.ID)
	testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
}

func TestListTransactions(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := newTestTransactionService(st)
	for i := 0; i < 3; i++ {
		seed(t, st, "D1", models.TransactionTypeDebit, int64(10*(i+1)))
	}
	seed(t, st, "D2", models.TransactionTypeDebit, 5)

	page, err := svc.ListTransactions(ctx, "D1", store.ListQuery{Limit: 1})
	testutil.AssertNoError(t, err)
	if len(page.Transactions) != 1 || page.Total != 3 || !page.HasMore {
		t.Errorf("unexpected page: len=%d total=%d hasMore=%v", len(page.Transactions), page.Total, page.HasMore)
	}
}

func TestGetSummary(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := newTestTransactionService(st)
	seed(t, st, "D1", models.TransactionTypeDebit, 300)
	seed(t, st, "D1", models.TransactionTypeCredit, 1000)

	t.Run("all_time", func(t *testing.T) {
		summary, err := svc.GetSummary(ctx, "D1", "")
		testutil.AssertNoError(t, err)
		if summary.Month != "all-time" {
			t.Errorf("expected all-time, got %s", summary.Month)
		}
		testutil.AssertDecimal(t, "300", summary.TotalSpent)
		testutil.AssertDecimal(t, "1000", summary.TotalIncome)
		testutil.AssertDecimal(t, "700", summary.NetAmount)
		if summary.TransactionCount != 2 {
			t.Errorf("expected 2 transactions, got %d", summary.TransactionCount)
		}
	})

	t.Run("month_echoed", func(t *testing.T) {
		summary, err := svc.GetSummary(ctx, "D1", "1999-01")
		testutil.AssertNoError(t, err)
		if summary.Month != "1999-01" || summary.TransactionCount != 0 {
			t.Errorf("unexpected summary: %+v", summary)
		}
	})

	t.Run("invalid_month", func(t *testing.T) {
		_, err := svc.GetSummary(ctx, "D1", "January")
		testutil.AssertAppError(t, err, "INVALID_MONTH")
	})
}
