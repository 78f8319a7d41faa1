// Package habit tracks recurring habits and their per-period completion.
package habit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fintracker/internal/database"
	"fintracker/internal/models"
	"fintracker/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	db  *gorm.DB
	uow database.UnitOfWork
	now func() time.Time
}

func NewService(db *gorm.DB, uow database.UnitOfWork) *Service {
	return &Service{db: db, uow: uow, now: time.Now}
}

// View is a habit plus its state for the current period.
type View struct {
	models.Habit
	PeriodKey              string `json:"period_key"`
	CompletedCurrentPeriod bool   `json:"completed_current_period"`
	Streak                 int    `json:"streak"`
}

type Input struct {
	Title       string
	Description string
	Frequency   models.HabitFrequency
}

func (s *Service) Create(ctx context.Context, owner string, in Input) (*models.Habit, error) {
	if err := util.ValidateTitle("title", in.Title); err != nil {
		return nil, err
	}
	if in.Frequency == "" {
		in.Frequency = models.Daily
	}
	if !in.Frequency.Valid() {
		return nil, fmt.Errorf("%w: frequency must be daily, weekly or monthly", models.ErrValidation)
	}
	h := &models.Habit{
		Owner:       owner,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Frequency:   in.Frequency,
	}
	if err := s.db.WithContext(ctx).Create(h).Error; err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}
	return h, nil
}

func (s *Service) List(ctx context.Context, owner string) ([]View, error) {
	db := s.db.WithContext(ctx)
	var habits []models.Habit
	if err := db.Where("owner = ?", owner).Order("created_at ASC").Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	if len(habits) == 0 {
		return []View{}, nil
	}

	ids := make([]string, len(habits))
	for i := range habits {
		ids[i] = habits[i].ID
	}
	var logs []models.HabitLog
	if err := db.Select("habit_id", "period_key").Where("habit_id IN ?", ids).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("load habit logs: %w", err)
	}
	done := make(map[string]map[string]bool, len(habits))
	for _, l := range logs {
		if done[l.HabitID] == nil {
			done[l.HabitID] = make(map[string]bool)
		}
		done[l.HabitID][l.PeriodKey] = true
	}

	now := s.now()
	out := make([]View, 0, len(habits))
	for _, h := range habits {
		key := PeriodKey(h.Frequency, now)
		out = append(out, View{
			Habit:                  h,
			PeriodKey:              key,
			CompletedCurrentPeriod: done[h.ID][key],
			Streak:                 Streak(h.Frequency, done[h.ID], now),
		})
	}
	return out, nil
}

func (s *Service) find(db *gorm.DB, owner, id string) (*models.Habit, error) {
	var h models.Habit
	if err := db.Where("id = ? AND owner = ?", id, owner).First(&h).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("habit %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("find habit: %w", err)
	}
	return &h, nil
}

type Patch struct {
	Title       *string
	Description *string
	Frequency   *models.HabitFrequency
}

// Update edits a habit. Changing frequency keeps old logs; they simply stop
// matching the new period keys.
func (s *Service) Update(ctx context.Context, owner, id string, p Patch) (*models.Habit, error) {
	db := s.db.WithContext(ctx)
	h, err := s.find(db, owner, id)
	if err != nil {
		return nil, err
	}
	if p.Title != nil {
		if err := util.ValidateTitle("title", *p.Title); err != nil {
			return nil, err
		}
		h.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		h.Description = *p.Description
	}
	if p.Frequency != nil {
		if !p.Frequency.Valid() {
			return nil, fmt.Errorf("%w: frequency must be daily, weekly or monthly", models.ErrValidation)
		}
		h.Frequency = *p.Frequency
	}
	if err := db.Save(h).Error; err != nil {
		return nil, fmt.Errorf("save habit: %w", err)
	}
	return h, nil
}

// Delete removes the habit together with its logs.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	return s.uow.Within(ctx, func(tx *gorm.DB) error {
		h, err := s.find(tx, owner, id)
		if err != nil {
			return err
		}
		if err := tx.Where("habit_id = ?", h.ID).Delete(&models.HabitLog{}).Error; err != nil {
			return fmt.Errorf("delete habit logs: %w", err)
		}
		if err := tx.Delete(h).Error; err != nil {
			return fmt.Errorf("delete habit: %w", err)
		}
		return nil
	})
}

// Complete marks the current period done. Completing twice is a no-op.
func (s *Service) Complete(ctx context.Context, owner, id string) (*View, error) {
	db := s.db.WithContext(ctx)
	h, err := s.find(db, owner, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	entry := models.HabitLog{HabitID: h.ID, PeriodKey: PeriodKey(h.Frequency, now), CompletedAt: now.UTC()}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("complete habit: %w", err)
	}
	return s.view(db, h, now)
}

// Uncomplete clears the current period's mark, if any.
func (s *Service) Uncomplete(ctx context.Context, owner, id string) (*View, error) {
	db := s.db.WithContext(ctx)
	h, err := s.find(db, owner, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := db.Where("habit_id = ? AND period_key = ?", h.ID, PeriodKey(h.Frequency, now)).Delete(&models.HabitLog{}).Error; err != nil {
		return nil, fmt.Errorf("uncomplete habit: %w", err)
	}
	return s.view(db, h, now)
}

func (s *Service) view(db *gorm.DB, h *models.Habit, now time.Time) (*View, error) {
	var keys []string
	if err := db.Model(&models.HabitLog{}).Where("habit_id = ?", h.ID).Pluck("period_key", &keys).Error; err != nil {
		return nil, fmt.Errorf("load habit logs: %w", err)
	}
	done := make(map[string]bool, len(keys))
	for _, k := range keys {
		done[k] = true
	}
	key := PeriodKey(h.Frequency, now)
	return &View{Habit: *h, PeriodKey: key, CompletedCurrentPeriod: done[key], Streak: Streak(h.Frequency, done, now)}, nil
}
