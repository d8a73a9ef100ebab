package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base is embedded by domain repositories so they all resolve their gorm
// handle the same way.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB binds the connection to ctx. A nil ctx yields the raw connection,
// which keeps test helpers that build queries outside a request simple.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}
