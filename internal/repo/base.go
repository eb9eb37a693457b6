package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base carries the shared GORM handle for read-side repositories that do not
// participate in caller-managed transactions.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB binds the handle to ctx so query cancellation follows the request. A nil
// context returns the raw handle.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}
