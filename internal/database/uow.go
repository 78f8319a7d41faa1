package database

import (
	"context"

	"gorm.io/gorm"
)

// UnitOfWork runs a multi-step mutation so that it commits or rolls back as a whole.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// GormUnitOfWork maps a unit of work onto a gorm transaction.
type GormUnitOfWork struct {
	DB *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{DB: db}
}

// Within begins a transaction bound to ctx, commits when fn returns nil and
// rolls back otherwise. A cancelled ctx also rolls back.
func (u *GormUnitOfWork) Within(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return u.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(tx)
	})
}
