package database_test

import (
	"context"
	"errors"
	"testing"

	"fintracker/internal/database"
	"fintracker/internal/database/dbtest"
	"fintracker/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestWithinCommits(t *testing.T) {
	db := dbtest.New(t)
	uow := database.NewUnitOfWork(db)

	err := uow.Within(context.Background(), func(tx *gorm.DB) error {
		return tx.Create(&models.Transaction{Owner: "u1", Kind: models.KindIncome, Amount: decimal.NewFromInt(10)}).Error
	})
	require.NoError(t, err)

	var n int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestWithinRollsBackOnError(t *testing.T) {
	db := dbtest.New(t)
	uow := database.NewUnitOfWork(db)
	boom := errors.New("boom")

	err := uow.Within(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Create(&models.Transaction{Owner: "u1", Kind: models.KindIncome, Amount: decimal.NewFromInt(10)}).Error; err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var n int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestWithinCancelledContext(t *testing.T) {
	db := dbtest.New(t)
	uow := database.NewUnitOfWork(db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := uow.Within(ctx, func(tx *gorm.DB) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
}
