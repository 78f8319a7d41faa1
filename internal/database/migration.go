package database

import (
	"fmt"

	"fintracker/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate runs database schema migrations for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.UserSettings{},
		&models.Transaction{},
		&models.Budget{},
		&models.BudgetItem{},
		&models.Saving{},
		&models.Habit{},
		&models.HabitLog{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
