package services

import (
	"testing"

	"smsledger/internal/models"
	"smsledger/internal/testutil"
)

func TestAuditService_Log(t *testing.T) {
	t.Run("persists_entry", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewAuditService(db)

		svc.Log("D1", "DELETE_TRANSACTION", "transaction", "txn-1", "10.0.0.1", map[string]any{"amount": "100"})

		var entries []models.AuditLog
		testutil.AssertNoError(t, db.Find(&entries).Error)
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}
		e := entries[0]
		if e.DeviceID != "D1" || e.Action != "DELETE_TRANSACTION" || e.ResourceID != "txn-1" {
			t.Errorf("unexpected entry: %+v", e)
		}
		if e.Changes != `{"amount":"100"}` {
			t.Errorf("unexpected changes: %s", e.Changes)
		}
	})

	t.Run("log_only_without_db", func(t *testing.T) {
		svc := NewAuditService(nil)
		svc.Log("D1", "CREATE_TRANSACTION", "transaction", "txn-2", "", nil)
	})
}
