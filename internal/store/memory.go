package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"smsledger/internal/models"
)

type dedupKey struct {
	deviceID string
	hash     string
}

// MemoryStore is an in-memory Store. It is safe for concurrent use; all
// state is lost when the process exits.
type MemoryStore struct {
	mu       sync.RWMutex
	byID     map[string]*models.Transaction
	byDevice map[string][]string
	dedup    map[dedupKey]string
	now      func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:     make(map[string]*models.Transaction),
		byDevice: make(map[string][]string),
		dedup:    make(map[dedupKey]string),
		now:      time.Now,
	}
}

// Create implements Store.
func (s *MemoryStore) Create(ctx context.Context, txn *models.Transaction, deviceID string) (*models.Transaction, error) {
	t, err := prepare(txn, deviceID, s.now())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[t.ID]; exists {
		return nil, fmt.Errorf("%w: id %s", ErrConflict, t.ID)
	}
	if t.DedupKey != nil {
		if _, exists := s.dedup[dedupKey{deviceID, *t.DedupKey}]; exists {
			return nil, fmt.Errorf("%w: raw SMS already recorded for device", ErrConflict)
		}
	}
	s.insertLocked(t)
	return t.Clone(), nil
}

// CreateIfAbsent implements Store. Lookup and insert happen under one lock.
func (s *MemoryStore) CreateIfAbsent(ctx context.Context, txn *models.Transaction, deviceID string) (*models.Transaction, bool, error) {
	t, err := prepare(txn, deviceID, s.now())
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if t.DedupKey != nil {
		if id, exists := s.dedup[dedupKey{deviceID, *t.DedupKey}]; exists {
			return s.byID[id].Clone(), false, nil
		}
	}
	if _, exists := s.byID[t.ID]; exists {
		return nil, false, fmt.Errorf("%w: id %s", ErrConflict, t.ID)
	}
	s.insertLocked(t)
	return t.Clone(), true, nil
}

func (s *MemoryStore) insertLocked(t *models.Transaction) {
	s.byID[t.ID] = t
	s.byDevice[t.DeviceID] = append(s.byDevice[t.DeviceID], t.ID)
	if t.DedupKey != nil {
		s.dedup[dedupKey{t.DeviceID, *t.DedupKey}] = t.ID
	}
}

// List implements Store. Records are ordered by createdAt descending; equal
// timestamps keep insertion order.
func (s *MemoryStore) List(ctx context.Context, deviceID string, q ListQuery) (*Page, error) {
	req := q.page()

	s.mu.RLock()
	matched := make([]*models.Transaction, 0, len(s.byDevice[deviceID]))
	for _, id := range s.byDevice[deviceID] {
		t := s.byID[id]
		if q.matches(t) {
			matched = append(matched, t)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	start, end := req.Bounds(len(matched))
	out := make([]*models.Transaction, 0, end-start)
	for _, t := range matched[start:end] {
		out = append(out, t.Clone())
	}
	s.mu.RUnlock()

	total := int64(len(matched))
	return &Page{
		Transactions: out,
		Total:        total,
		Limit:        req.Limit,
		Offset:       req.Offset,
		HasMore:      req.HasMore(total),
	}, nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.byID[id]
	if !exists {
		return nil, ErrNotFound
	}
	return t.Clone(), nil
}

// Update implements Store.
func (s *MemoryStore) Update(ctx context.Context, id string, patch models.TransactionPatch) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.byID[id]
	if !exists {
		return nil, ErrNotFound
	}
	updated, err := applyPatch(t, patch, s.now())
	if err != nil {
		return nil, err
	}
	s.byID[id] = updated
	return updated.Clone(), nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, id, deviceID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.byID[id]
	if !exists || t.DeviceID != deviceID {
		return false, nil
	}

	delete(s.byID, id)
	ids := s.byDevice[deviceID]
	for i, other := range ids {
		if other == id {
			s.byDevice[deviceID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(s.byDevice[deviceID]) == 0 {
		delete(s.byDevice, deviceID)
	}
	if t.DedupKey != nil {
		delete(s.dedup, dedupKey{deviceID, *t.DedupKey})
	}
	return true, nil
}

// IsDuplicate implements Store.
func (s *MemoryStore) IsDuplicate(ctx context.Context, rawSMS, deviceID string) (bool, error) {
	key := models.DedupKeyFor(rawSMS)
	if key == nil {
		return false, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.dedup[dedupKey{deviceID, *key}]
	return exists, nil
}

// Summarize implements Store.
func (s *MemoryStore) Summarize(ctx context.Context, deviceID string, month *Month) (*Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txns := make([]*models.Transaction, 0, len(s.byDevice[deviceID]))
	for _, id := range s.byDevice[deviceID] {
		txns = append(txns, s.byID[id])
	}
	return summarize(txns, month), nil
}

// Ensure MemoryStore implements Store interface.
var _ Store = (*MemoryStore)(nil)
