package pagination

import (
	"gorm.io/gorm"
)

const (
	// DefaultLimit is applied when a request carries no limit.
	DefaultLimit = 50
	// MaxLimit caps a single page.
	MaxLimit = 500
)

// Request holds limit/offset parameters parsed from query strings.
type Request struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// Defaults fills in the default limit and clamps out-of-range values.
func (r *Request) Defaults() {
	if r.Limit <= 0 {
		r.Limit = DefaultLimit
	}
	if r.Limit > MaxLimit {
		r.Limit = MaxLimit
	}
	if r.Offset < 0 {
		r.Offset = 0
	}
}

// Bounds returns the slice bounds of this page within total items.
func (r Request) Bounds(total int) (start, end int) {
	start = min(r.Offset, total)
	end = min(start+r.Limit, total)
	return start, end
}

// HasMore reports whether items remain after this page.
func (r Request) HasMore(total int64) bool {
	return int64(r.Offset) < total-int64(r.Limit)
}

// Paginate returns a GORM scope that applies OFFSET and LIMIT for the given request.
func Paginate(req Request) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(req.Offset).Limit(req.Limit)
	}
}
