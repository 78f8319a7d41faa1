package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type HabitFrequency string

const (
	Daily   HabitFrequency = "daily"
	Weekly  HabitFrequency = "weekly"
	Monthly HabitFrequency = "monthly"
)

func (f HabitFrequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly:
		return true
	}
	return false
}

type Habit struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	Owner       string         `gorm:"size:128;index;not null" json:"owner"`
	Title       string         `gorm:"size:128;not null" json:"title"`
	Description string         `gorm:"size:255" json:"description"`
	Frequency   HabitFrequency `gorm:"size:16;not null" json:"frequency"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (h *Habit) BeforeCreate(*gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}

// HabitLog marks one period of a habit as done.
type HabitLog struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	HabitID     string    `gorm:"size:36;uniqueIndex:idx_habit_period;not null" json:"habit_id"`
	PeriodKey   string    `gorm:"size:16;uniqueIndex:idx_habit_period;not null" json:"period_key"`
	CompletedAt time.Time `json:"completed_at"`
}

func (l *HabitLog) BeforeCreate(*gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
