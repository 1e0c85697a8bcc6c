// Package store keeps transactions keyed by id and partitioned by device.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"smsledger/internal/models"
	"smsledger/internal/pagination"
	"smsledger/internal/uuid"
)

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("transaction not found")
	// ErrConflict is returned when an id or (device, rawSMS) pair is already stored.
	ErrConflict = errors.New("transaction already exists")
	// ErrInvalid is returned when a record violates a stored-record invariant.
	ErrInvalid = errors.New("invalid transaction")
)

// Store is the per-device transaction repository.
type Store interface {
	// Create assigns id and createdAt when absent, binds the record to
	// deviceID and stores it.
	Create(ctx context.Context, txn *models.Transaction, deviceID string) (*models.Transaction, error)
	// CreateIfAbsent stores txn unless deviceID already has a record with
	// the same raw SMS, in which case that record is returned with created=false.
	CreateIfAbsent(ctx context.Context, txn *models.Transaction, deviceID string) (stored *models.Transaction, created bool, err error)
	List(ctx context.Context, deviceID string, q ListQuery) (*Page, error)
	// Get looks a record up by id without an ownership check.
	Get(ctx context.Context, id string) (*models.Transaction, error)
	Update(ctx context.Context, id string, patch models.TransactionPatch) (*models.Transaction, error)
	// Delete removes the record only when deviceID owns it.
	Delete(ctx context.Context, id, deviceID string) (bool, error)
	IsDuplicate(ctx context.Context, rawSMS, deviceID string) (bool, error)
	Summarize(ctx context.Context, deviceID string, month *Month) (*Summary, error)
}

// ListQuery filters and pages a device's records. Dates are inclusive
// YYYY-MM-DD business dates.
type ListQuery struct {
	Limit     int
	Offset    int
	Category  *models.Category
	StartDate *string
	EndDate   *string
}

func (q ListQuery) page() pagination.Request {
	r := pagination.Request{Limit: q.Limit, Offset: q.Offset}
	r.Defaults()
	return r
}

func (q ListQuery) matches(t *models.Transaction) bool {
	if q.Category != nil && t.Category != *q.Category {
		return false
	}
	if q.StartDate != nil && t.Date < *q.StartDate {
		return false
	}
	if q.EndDate != nil && t.Date > *q.EndDate {
		return false
	}
	return true
}

// Page is one page of a device's records, newest first.
type Page struct {
	Transactions []*models.Transaction `json:"transactions"`
	Total        int64                 `json:"total"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
	HasMore      bool                  `json:"hasMore"`
}

// Summary aggregates a device's records.
type Summary struct {
	TotalSpent       decimal.Decimal                     `json:"totalSpent"`
	TotalIncome      decimal.Decimal                     `json:"totalIncome"`
	NetAmount        decimal.Decimal                     `json:"netAmount"`
	TransactionCount int                                 `json:"transactionCount"`
	ByCategory       map[models.Category]decimal.Decimal `json:"byCategory"`
	Month            string                              `json:"month"`
}

// AllTime is the Summary.Month value when no month filter is applied.
const AllTime = "all-time"

var monthPattern = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

// Month is a calendar month used to filter on business date.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses a YYYY-MM string.
func ParseMonth(s string) (Month, error) {
	m := monthPattern.FindStringSubmatch(s)
	if m == nil {
		return Month{}, fmt.Errorf("month %q is not YYYY-MM", s)
	}
	year, _ := strconv.Atoi(m[1])
	mon, _ := strconv.Atoi(m[2])
	if mon < 1 || mon > 12 {
		return Month{}, fmt.Errorf("month %q is out of range", s)
	}
	return Month{Year: year, Month: time.Month(mon)}, nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// datePrefix is the YYYY-MM- prefix shared by every business date in m.
func (m Month) datePrefix() string {
	return m.String() + "-"
}

// Contains reports whether the YYYY-MM-DD date falls in m.
func (m Month) Contains(date string) bool {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return false
	}
	return t.Year() == m.Year && t.Month() == m.Month
}

// summarize folds records into a Summary. Only debits count toward ByCategory.
func summarize(txns []*models.Transaction, month *Month) *Summary {
	s := &Summary{
		TotalSpent:  decimal.Zero,
		TotalIncome: decimal.Zero,
		ByCategory:  make(map[models.Category]decimal.Decimal),
		Month:       AllTime,
	}
	if month != nil {
		s.Month = month.String()
	}
	for _, t := range txns {
		if month != nil && !month.Contains(t.Date) {
			continue
		}
		s.TransactionCount++
		if t.Type == models.TransactionTypeDebit {
			s.TotalSpent = s.TotalSpent.Add(t.Amount)
			s.ByCategory[t.Category] = s.ByCategory[t.Category].Add(t.Amount)
			continue
		}
		s.TotalIncome = s.TotalIncome.Add(t.Amount)
	}
	s.NetAmount = s.TotalIncome.Sub(s.TotalSpent)
	return s
}

// prepare fills server-assigned fields and checks invariants before insert.
func prepare(txn *models.Transaction, deviceID string, now time.Time) (*models.Transaction, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("%w: device id is required", ErrInvalid)
	}
	t := txn.Clone()
	if t.ID == "" {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.DeviceID = deviceID
	t.Amount = t.Amount.Round(2)
	t.DedupKey = models.DedupKeyFor(t.RawSMS)
	t.UpdatedAt = nil
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return t, nil
}

// applyPatch merges patch into a copy of t and stamps updatedAt.
func applyPatch(t *models.Transaction, patch models.TransactionPatch, now time.Time) (*models.Transaction, error) {
	updated := t.Clone()
	patch.Apply(updated)
	if err := updated.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	stamp := now.UTC()
	updated.UpdatedAt = &stamp
	return updated, nil
}
