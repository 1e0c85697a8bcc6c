package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"smsledger/internal/models"
	"smsledger/internal/pagination"
)

// GormStore is a Store backed by a SQL database. The database must have
// the transactions schema and be opened with gorm's TranslateError so that
// unique violations surface as gorm.ErrDuplicatedKey.
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore creates a GormStore over db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, now: time.Now}
}

// Create implements Store.
func (s *GormStore) Create(ctx context.Context, txn *models.Transaction, deviceID string) (*models.Transaction, error) {
	t, err := prepare(txn, deviceID, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %w", ErrConflict, err)
		}
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	return t, nil
}

// CreateIfAbsent implements Store. The unique (device_id, dedup_key) index
// settles races between concurrent writers; the loser reads back the winner.
func (s *GormStore) CreateIfAbsent(ctx context.Context, txn *models.Transaction, deviceID string) (*models.Transaction, bool, error) {
	t, err := prepare(txn, deviceID, s.now())
	if err != nil {
		return nil, false, err
	}
	if t.DedupKey == nil {
		stored, err := s.Create(ctx, t, deviceID)
		return stored, err == nil, err
	}

	var existing *models.Transaction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := findByDedupKey(tx, deviceID, *t.DedupKey)
		if err != nil {
			return err
		}
		if found != nil {
			existing = found
			return nil
		}
		return tx.Create(t).Error
	})

	switch {
	case err == nil && existing != nil:
		return existing, false, nil
	case err == nil:
		return t, true, nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		found, ferr := findByDedupKey(s.db.WithContext(ctx), deviceID, *t.DedupKey)
		if ferr != nil {
			return nil, false, ferr
		}
		if found == nil {
			// The conflict was on the id, not the raw SMS.
			return nil, false, fmt.Errorf("%w: %w", ErrConflict, err)
		}
		return found, false, nil
	default:
		return nil, false, fmt.Errorf("create transaction: %w", err)
	}
}

func findByDedupKey(db *gorm.DB, deviceID, key string) (*models.Transaction, error) {
	var t models.Transaction
	err := db.Where("device_id = ? AND dedup_key = ?", deviceID, key).Take(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by dedup key: %w", err)
	}
	return &t, nil
}

func applyListFilters(q *gorm.DB, lq ListQuery) *gorm.DB {
	if lq.Category != nil {
		q = q.Where("category = ?", *lq.Category)
	}
	if lq.StartDate != nil {
		q = q.Where("date >= ?", *lq.StartDate)
	}
	if lq.EndDate != nil {
		q = q.Where("date <= ?", *lq.EndDate)
	}
	return q
}

// List implements Store.
func (s *GormStore) List(ctx context.Context, deviceID string, q ListQuery) (*Page, error) {
	req := q.page()

	base := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("device_id = ?", deviceID)
	base = applyListFilters(base, q).Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count transactions: %w", err)
	}

	var rows []*models.Transaction
	if err := base.Scopes(pagination.Paginate(req)).
		Order("created_at DESC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if rows == nil {
		rows = []*models.Transaction{}
	}

	return &Page{
		Transactions: rows,
		Total:        total,
		Limit:        req.Limit,
		Offset:       req.Offset,
		HasMore:      req.HasMore(total),
	}, nil
}

// Get implements Store.
func (s *GormStore) Get(ctx context.Context, id string) (*models.Transaction, error) {
	var t models.Transaction
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return &t, nil
}

// Update implements Store.
func (s *GormStore) Update(ctx context.Context, id string, patch models.TransactionPatch) (*models.Transaction, error) {
	var updated *models.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.Transaction
		if err := tx.Where("id = ?", id).Take(&t).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var err error
		updated, err = applyPatch(&t, patch, s.now())
		if err != nil {
			return err
		}
		return tx.Save(updated).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalid) {
			return nil, err
		}
		return nil, fmt.Errorf("update transaction: %w", err)
	}
	return updated, nil
}

// Delete implements Store.
func (s *GormStore) Delete(ctx context.Context, id, deviceID string) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("id = ? AND device_id = ?", id, deviceID).
		Delete(&models.Transaction{})
	if res.Error != nil {
		return false, fmt.Errorf("delete transaction: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// IsDuplicate implements Store.
func (s *GormStore) IsDuplicate(ctx context.Context, rawSMS, deviceID string) (bool, error) {
	key := models.DedupKeyFor(rawSMS)
	if key == nil {
		return false, nil
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("device_id = ? AND dedup_key = ?", deviceID, *key).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check duplicate: %w", err)
	}
	return count > 0, nil
}

// Summarize implements Store. Rows are narrowed in SQL and folded in Go so
// decimal sums behave the same on every dialect.
func (s *GormStore) Summarize(ctx context.Context, deviceID string, month *Month) (*Summary, error) {
	q := s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("type", "category", "amount", "date").
		Where("device_id = ?", deviceID)
	if month != nil {
		q = q.Where("date LIKE ?", month.datePrefix()+"%")
	}

	var rows []*models.Transaction
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("summarize transactions: %w", err)
	}
	return summarize(rows, month), nil
}

// Ensure GormStore implements Store interface.
var _ Store = (*GormStore)(nil)
