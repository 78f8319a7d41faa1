package habit

import (
	"fmt"
	"time"

	"fintracker/internal/models"
)

// PeriodKey names the period t falls in: 2006-01-02 for daily, ISO week
// 2006-W01 for weekly, 2006-01 for monthly. t is read in UTC.
func PeriodKey(f models.HabitFrequency, t time.Time) string {
	t = t.UTC()
	switch f {
	case models.Weekly:
		y, w := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", y, w)
	case models.Monthly:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

// previous returns a time inside the period before the one containing t.
func previous(f models.HabitFrequency, t time.Time) time.Time {
	t = t.UTC()
	switch f {
	case models.Weekly:
		return t.AddDate(0, 0, -7)
	case models.Monthly:
		first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		return first.AddDate(0, -1, 0)
	default:
		return t.AddDate(0, 0, -1)
	}
}

// Streak counts consecutive completed periods ending at now's period, or at
// the one before it when the current period is still open.
func Streak(f models.HabitFrequency, done map[string]bool, now time.Time) int {
	t := now
	if !done[PeriodKey(f, t)] {
		t = previous(f, t)
	}
	n := 0
	for done[PeriodKey(f, t)] {
		n++
		t = previous(f, t)
	}
	return n
}
