package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"smsledger/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// NewTestTransaction returns an unsaved, valid SMS transaction with a unique
// raw message. Fields can be adjusted before inserting it.
func NewTestTransaction(txnType models.TransactionType, amount int64) *models.Transaction {
	n := nextID()
	return &models.Transaction{
		Type:        txnType,
		Amount:      decimal.NewFromInt(amount),
		Category:    models.CategoryOther,
		Description: fmt.Sprintf("Test transaction %d", n),
		Date:        time.Now().Format(models.DateLayout),
		Time:        "10:30",
		PaymentMode: models.PaymentModeUPI,
		Source:      models.SourceSMS,
		RawSMS:      fmt.Sprintf("Rs %d %s via UPI ref %d", amount, txnType, n),
	}
}

// CreateTestTransaction inserts a transaction owned by deviceID.
func CreateTestTransaction(t *testing.T, db *gorm.DB, deviceID string, txnType models.TransactionType, amount int64) *models.Transaction {
	t.Helper()

	txn := NewTestTransaction(txnType, amount)
	txn.DeviceID = deviceID
	txn.DedupKey = models.DedupKeyFor(txn.RawSMS)
	if err := db.Create(txn).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return txn
}

// TestDeviceID returns a unique device identifier.
func TestDeviceID() string {
	return fmt.Sprintf("device-%d", nextID())
}
