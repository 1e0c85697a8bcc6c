package store_test

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smsledger/internal/models"
	"smsledger/internal/store"
	"smsledger/internal/testutil"
)

// backends lists every Store implementation; each test runs against all.
var backends = []struct {
	name string
	new  func(t *testing.T) store.Store
}{
	{"memory", func(t *testing.T) store.Store { return store.NewMemoryStore() }},
	{"gorm", func(t *testing.T) store.Store { return store.NewGormStore(testutil.SetupTestDB(t)) }},
}

func forEachBackend(t *testing.T, fn func(t *testing.T, s store.Store)) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			fn(t, b.new(t))
		})
	}
}

func newTxn(txnType models.TransactionType, amount int64, date string) *models.Transaction {
	txn := testutil.NewTestTransaction(txnType, amount)
	txn.Date = date
	return txn
}

func TestCreate_ThenGet(t *testing.T) {
	ctx := context.Background()
	forEachBackend(t, func(t *testing.T, s store.Store) {
		in := newTxn(models.TransactionTypeDebit, 500, "2025-01-05")
		in.Category = models.CategoryFood
		last4 := "1234"
		in.CardLast4 = &last4

		created, err := s.Create(ctx, in, "D1")
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.False(t, created.CreatedAt.IsZero())
		assert.Equal(t, "D1", created.DeviceID)
		assert.Empty(t, in.ID, "input must not be mutated")

		got, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "D1", got.DeviceID)
		assert.Equal(t, in.Type, got.Type)
		testutil.AssertDecimal(t, "500", got.Amount)
		assert.Equal(t, in.Category, got.Category)
		assert.Equal(t, in.Description, got.Description)
		assert.Equal(t, in.Date, got.Date)
		assert.Equal(t, in.Time, got.Time)
		assert.Equal(t, in.PaymentMode, got.PaymentMode)
		require.NotNil(t, got.CardLast4)
		assert.Equal(t, "1234", *got.CardLast4)
		assert.Equal(t, in.RawSMS, got.RawSMS)
		assert.Nil(t, got.UpdatedAt)
		assert.WithinDuration(t, created.CreatedAt, got.CreatedAt, time.Millisecond)
	})
}

func TestCreate_KeepsProvidedIDAndCreatedAt(t *testing.T) {
	ctx := context.Background()
	forEachBackend(t, func(t *testing.T, s store.Store) {
		in := newTxn(models.TransactionTypeDebit, 10, "2025-01-05")
		in.ID = "0190a8c4-0000-7000-8000-000000000001"
		in.CreatedAt = time.Date(2025, 1, 5, 8, 0, 0, 0, time.UTC)

		created, err := s.Create(ctx, in, "D1")
		require.NoError(t, err)
		assert.Equal(t, in.ID, created.ID)
		assert.True(t, in.CreatedAt.Equal(created.CreatedAt))

		dup := newTxn(models.TransactionTypeDebit, 20, "2025-01-05")
		dup.ID = in.ID
		_, err = s.Create(ctx, dup, "D1")
		assert.ErrorIs(t, err, store.ErrConflict)
	})
}

func TestCreate_Invalid(t *testing.T) {
	ctx := context.Background()
	forEachBackend(t, func(t *testing.T, s store.Store) {
		tests := []struct {
			name   string
			mutate func(*models.Transaction)
			device string
		}{
			{"zero amount", func(x *models.Transaction) { x.Amount = decimal.Zero }, "D1"},
			{"negative amount", func(x *models.Transaction) { x.Amount = decimal.NewFromInt(-5) }, "D1"},
			{"bad date", func(x *models.Transaction) { x.Date = "05-01-2025" }, "D1"},
			{"bad time", func(x *models.Transaction) { x.Time = "25:00" }, "D1"},
			{"bad category", func(x *models.Transaction) { x.Category = "travel" }, "D1"},
			{"bad card", func(x *models.Transaction) { v := "12a4"; x.CardLast4 = &v }, "D1"},
			{"missing device", func(*models.Transaction) {}, ""},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				in := newTxn(models.TransactionTypeDebit, 10, "2025-01-05")
				tt.mutate(in)
				_, err := s.Create(ctx, in, tt.device)
				assert.ErrorIs(t, err, store.ErrInvalid)
			})
		}
	})
}

func TestGet_NotFound(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s store.Store) {
		_, err := s.Get(context.Background(), "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestCreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	forEachBackend(t, func(t *testing.T, s store.Store) {
		first := newTxn(models.TransactionTypeDebit, 100, "2025-01-05")
		stored, created, err := s.CreateIfAbsent(ctx, first, "D1")
		require.NoError(t, err)
		assert.True(t, created)

		again := first.Clone()
		again.ID = ""
		existing, created, err := s.CreateIfAbsent(ctx, again, "D1")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, stored.ID, existing.ID)

		// Same text on another device is not a duplicate.
		_, created, err = s.CreateIfAbsent(ctx, first.Clone(), "D2")
		require.NoError(t, err)
		assert.True(t, created)

		page, err := s.List(ctx, "D1", store.ListQuery{})
		require.NoError(t, err)
		assert.EqualValues(t, 1, page.Total)
	})
}

func TestCreateIfAbsent_ManualEntriesNeverCollide(t *testing.T) {
	ctx := context.Background()
	forEachBackend(t, func(t *testing.T, s store.Store) {
		for i := 0; i < 2; i++ {
			in := newTxn(models.TransactionTypeDebit, 10, "2025-01-05")
			in.RawSMS = ""
			in.Source = models.SourceManual
			_, created, err := s.CreateIfAbsent(ctx, in, "D1")
			require.NoError(t, err)
			assert.True(t, created)
		}

		dup, err := s.IsDuplicate(ctx, "", "D1")
		require.NoError(t, err)
		assert.False(t, dup)
	})
}

func TestMemoryStore_CreateIfAbsentConcurrent(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	raw := "Rs 250 debited via UPI to ZOMATO"

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			in := newTxn(models.TransactionTypeDebit, 250, "2025-01-05")
			in.RawSMS = raw
			_, ok, err := s.CreateIfAbsent(ctx, in, "D1")
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	page, err := s.List(ctx, "D1", store.ListQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
}

func TestIsDuplicate(t *testing.T) {
	ctx := context.Background()
	forEachBackend(t, func(t *testing.T, s store.Store) {
		in := newTxn(models.TransactionTypeDebit, 100, "2025-01-05")
		_, err := s.Create(ctx, in, "D1")
		require.NoError(t, err)

		dup, err := s.IsDuplicate(ctx, in.RawSMS, "D1")
		require.NoError(t, err)
		assert.True(t, dup)

		// Byte-exact: no trimming or case folding.
		dup, err = s.IsDuplicate(ctx, in.RawSMS+" ", "D1")
		require.NoError(t, err)
		assert.False(t, dup)

		dup, err = s.IsDuplicate(ctx, in.RawSMS, "D2")
		require.NoError(t, err)
		assert.False(t, dup)
	})
}

func TestList_PaginationExample(t *testing.T) {
	ctx := context.Background()
	forEachBackend(t, func(t *testing.T, s store.Store) {
		for i := 0; i < 3; i++ {
			_, err := s.Create(ctx, newTxn(models.TransactionTypeDebit, int64(10+i), "2025-01-05"), "D1")
			require.NoError(t, err)
		}

		page, err := s.List(ctx, "D1", store.ListQuery{Limit: 1, Offset: 0})
		require.NoError(t, err)
		assert.Len(t, page.Transactions, 1)
		assert.EqualValues(t, 3, page.Total)
		assert.True(t, page.HasMore)
		assert.Equal(t, 1, page.Limit)
		assert.Equal(t, 0, page.Offset)

		page, err = s.List(ctx, "D1", store.ListQuery{Limit: 1, Offset: 2})
		require.NoError(t, err)
		assert.Len(t, page.Transactions, 1)
		assert.False(t, page.HasMore)

		page, err = s.List(ctx, "D1", store.ListQuery{Offset: 10})
		require.NoError(t, err)
		assert.Empty(t, page.Transactions)
		assert.NotNil(t, page.Transactions)
		assert.Equal(t, 50, page.Limit)
	})
}

func TestMemoryStore_ListHugeOffset(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	_, err := s.Create(ctx, newTxn(models.TransactionTypeDebit, 10, "2025-01-05"), "D1")
	require.NoError(t, err)

	page, err := s.List(ctx, "D1", store.ListQuery{Limit: 10, Offset: math.MaxInt})
	require.NoError(t, err)
	assert.Empty(t, page.Transactions)
	assert.EqualValues(t, 1, page.Total)
	assert.False(t, page.HasMore)
}

func TestList_OrderAndFilters(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	forEachBackend(t, func(t *testing.T, s store.Store) {
		specs := []struct {
			date     string
			category models.Category
			offset   time.Duration
		}{
			{"2025-01-10", models.CategoryFood, 0},
			{"2025-02-10", models.CategoryTransport, time.Hour},
			{"2025-02-20", models.CategoryFood, 2 * time.Hour},
			{"2025-03-01", models.CategoryFood, 3 * time.Hour},
		}
		ids := make([]string, len(specs))
		for i, sp := range specs {
			in := newTxn(models.TransactionTypeDebit, 10, sp.date)
			in.Category = sp.category
			in.CreatedAt = base.Add(sp.offset)
			created, err := s.Create(ctx, in, "D1")
			require.NoError(t, err)
			ids[i] = created.ID
		}
		// Another device's rows never leak in.
		_, err := s.Create(ctx, newTxn(models.TransactionTypeDebit, 10, "2025-02-15"), "D2")
		require.NoError(t, err)

		page, err := s.List(ctx, "D1", store.ListQuery{})
		require.NoError(t, err)
		require.Len(t, page.Transactions, 4)
		assert.Equal(t, []string{ids[3], ids[2], ids[1], ids[0]}, idsOf(page.Transactions))

		food := models.CategoryFood
		start, end := "2025-02-10", "2025-03-01"
		page, err = s.List(ctx, "D1", store.ListQuery{Category: &food, StartDate: &start, EndDate: &end})
		require.NoError(t, err)
		assert.EqualValues(t, 2, page.Total)
		assert.Equal(t, []string{ids[3], ids[2]}, idsOf(page.Transactions))

		page, err = s.List(ctx, "D1", store.ListQuery{StartDate: &start, EndDate: &start})
		require.NoError(t, err)
		assert.Equal(t, []string{ids[1]}, idsOf(page.Transactions))
	})
}

func TestMemoryStore_ListTiesKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 3; i++ {
		in := newTxn(models.TransactionTypeDebit, 10, "2025-03-01")
		in.CreatedAt = at
		created, err := s.Create(ctx, in, "D1")
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	page, err := s.List(ctx, "D1", store.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, ids, idsOf(page.Transactions))
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	forEachBackend(t, func(t *testing.T, s store.Store) {
		created, err := s.Create(ctx, newTxn(models.TransactionTypeDebit, 100, "2025-01-05"), "D1")
		require.NoError(t, err)

		category := models.CategoryHealth
		amount := decimal.RequireFromString("120.50")
		desc := "Pharmacy"
		updated, err := s.Update(ctx, created.ID, models.TransactionPatch{
			Category:    &category,
			Amount:      &amount,
			Description: &desc,
		})
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, "D1", updated.DeviceID)
		assert.Equal(t, category, updated.Category)
		testutil.AssertDecimal(t, "120.50", updated.Amount)
		assert.Equal(t, desc, updated.Description)
		assert.Equal(t, created.Date, updated.Date)
		require.NotNil(t, updated.UpdatedAt)

		got, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, category, got.Category)
		assert.Equal(t, "D1", got.DeviceID)
		assert.Equal(t, created.RawSMS, got.RawSMS)
		require.NotNil(t, got.UpdatedAt)

		// The record still deduplicates under its original device.
		dup, err := s.IsDuplicate(ctx, created.RawSMS, "D1")
		require.NoError(t, err)
		assert.True(t, dup)
	})
}

func TestUpdate_RoundsAmount(t *testing.T) {
	ctx := context.Background()
	forEachBackend(t, func(t *testing.T, s store.Store) {
		created, err := s.Create(ctx, newTxn(models.TransactionTypeDebit, 10, "2025-01-05"), "D1")
		require.NoError(t, err)

		amount := decimal.RequireFromString("10.005")
		updated, err := s.Update(ctx, created.ID, models.TransactionPatch{Amount: &amount})
		require.NoError(t, err)
		testutil.AssertDecimal(t, "10.01", updated.Amount)

		got, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		testutil.AssertDecimal(t, "10.01", got.Amount)

		summary, err := s.Summarize(ctx, "D1", nil)
		require.NoError(t, err)
		testutil.AssertDecimal(t, "10.01", summary.TotalSpent)
	})
}

func TestCreate_RoundsAmount(t *testing.T) {
	ctx := context.Background()
	forEachBackend(t, func(t *testing.T, s store.Store) {
		txn := newTxn(models.TransactionTypeCredit, 0, "2025-01-05")
		txn.Amount = decimal.RequireFromString("99.994")
		created, err := s.Create(ctx, txn, "D1")
		require.NoError(t, err)
		testutil.AssertDecimal(t, "99.99", created.Amount)
	})
}

func TestUpdate_Errors(t *testing.T) {
	ctx := context.Background()
	forEachBackend(t, func(t *testing.T, s store.Store) {
		_, err := s.Update(ctx, "missing", models.TransactionPatch{})
		assert.ErrorIs(t, err, store.ErrNotFound)

		created, err := s.Create(ctx, newTxn(models.TransactionTypeDebit, 100, "2025-01-05"), "D1")
		require.NoError(t, err)

		zero := decimal.Zero
		_, err = s.Update(ctx, created.ID, models.TransactionPatch{Amount: &zero})
		assert.ErrorIs(t, err, store.ErrInvalid)

		got, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		testutil.AssertDecimal(t, "100", got.Amount)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	forEachBackend(t, func(t *testing.T, s store.Store) {
		created, err := s.Create(ctx, newTxn(models.TransactionTypeDebit, 100, "2025-01-05"), "D1")
		require.NoError(t, err)

		ok, err := s.Delete(ctx, created.ID, "D2")
		require.NoError(t, err)
		assert.False(t, ok, "another device cannot delete")

		ok, err = s.Delete(ctx, created.ID, "D1")
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = s.Get(ctx, created.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)

		page, err := s.List(ctx, "D1", store.ListQuery{})
		require.NoError(t, err)
		assert.Zero(t, page.Total)

		ok, err = s.Delete(ctx, created.ID, "D1")
		require.NoError(t, err)
		assert.False(t, ok)

		// A deleted message can be ingested again.
		again := created.Clone()
		again.ID = ""
		_, ok, err = s.CreateIfAbsent(ctx, again, "D1")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestSummarize(t *testing.T) {
	ctx := context.Background()
	forEachBackend(t, func(t *testing.T, s store.Store) {
		rows := []struct {
			txnType  models.TransactionType
			amount   string
			category models.Category
			date     string
		}{
			{models.TransactionTypeDebit, "100.50", models.CategoryFood, "2025-01-05"},
			{models.TransactionTypeDebit, "49.50", models.CategoryFood, "2025-01-20"},
			{models.TransactionTypeDebit, "300", models.CategoryTransport, "2025-02-01"},
			{models.TransactionTypeCredit, "1000", models.CategoryOther, "2025-01-31"},
			{models.TransactionTypeCredit, "250", models.CategoryOther, "2025-02-14"},
		}
		for _, r := range rows {
			in := newTxn(r.txnType, 1, r.date)
			in.Amount = decimal.RequireFromString(r.amount)
			in.Category = r.category
			_, err := s.Create(ctx, in, "D1")
			require.NoError(t, err)
		}

		all, err := s.Summarize(ctx, "D1", nil)
		require.NoError(t, err)
		assert.Equal(t, store.AllTime, all.Month)
		assert.Equal(t, 5, all.TransactionCount)
		testutil.AssertDecimal(t, "450", all.TotalSpent)
		testutil.AssertDecimal(t, "1250", all.TotalIncome)
		testutil.AssertDecimal(t, "800", all.NetAmount)
		require.Len(t, all.ByCategory, 2)
		testutil.AssertDecimal(t, "150", all.ByCategory[models.CategoryFood])
		testutil.AssertDecimal(t, "300", all.ByCategory[models.CategoryTransport])

		jan, err := store.ParseMonth("2025-01")
		require.NoError(t, err)
		sum, err := s.Summarize(ctx, "D1", &jan)
		require.NoError(t, err)
		assert.Equal(t, "2025-01", sum.Month)
		assert.Equal(t, 3, sum.TransactionCount)
		testutil.AssertDecimal(t, "150", sum.TotalSpent)
		testutil.AssertDecimal(t, "1000", sum.TotalIncome)
		testutil.AssertDecimal(t, "850", sum.NetAmount)
		assert.NotContains(t, sum.ByCategory, models.CategoryTransport)

		empty, err := s.Summarize(ctx, "nobody", nil)
		require.NoError(t, err)
		assert.Zero(t, empty.TransactionCount)
		assert.True(t, empty.NetAmount.IsZero())
		assert.NotNil(t, empty.ByCategory)
	})
}

func TestParseMonth(t *testing.T) {
	tests := []struct {
		in      string
		want    store.Month
		wantErr bool
	}{
		{"2025-01", store.Month{Year: 2025, Month: time.January}, false},
		{"1999-12", store.Month{Year: 1999, Month: time.December}, false},
		{"2025-13", store.Month{}, true},
		{"2025-00", store.Month{}, true},
		{"2025-1", store.Month{}, true},
		{"all-time", store.Month{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := store.ParseMonth(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestMonth_Contains(t *testing.T) {
	m := store.Month{Year: 2025, Month: time.February}
	assert.True(t, m.Contains("2025-02-01"))
	assert.True(t, m.Contains("2025-02-28"))
	assert.False(t, m.Contains("2025-03-01"))
	assert.False(t, m.Contains("2024-02-10"))
	assert.False(t, m.Contains("garbage"))
}

func idsOf(txns []*models.Transaction) []string {
	out := make([]string, len(txns))
	for i, t := range txns {
		out[i] = t.ID
	}
	return out
}

func ExampleParseMonth() {
	m, _ := store.ParseMonth("2025-01")
	fmt.Println(m.Year, m.Month)
	// Output: 2025 January
}
