package models

import (
	"time"

	"github.com/lib/pq"
)

// AcademicConfig holds the active academic configuration, including the
// weekend-day set used for working-day computation.
type AcademicConfig struct {
	ID          string         `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	WeekendDays pq.StringArray `db:"weekend_days" json:"weekend_days"`
	Active      bool           `db:"active" json:"active"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// WeekendSet returns the configured weekend days as weekday lookups.
func (c *AcademicConfig) WeekendSet() map[time.Weekday]struct{} {
	set := make(map[time.Weekday]struct{}, len(c.WeekendDays))
	for _, name := range c.WeekendDays {
		for wd := time.Sunday; wd <= time.Saturday; wd++ {
			if wd.String() == name {
				set[wd] = struct{}{}
			}
		}
	}
	return set
}

// Holiday represents one academic holiday range.
type Holiday struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	Cancelled bool      `db:"cancelled" json:"cancelled"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Covers reports whether the holiday includes the given calendar day.
func (h *Holiday) Covers(day time.Time) bool {
	d := day.Truncate(24 * time.Hour)
	return !d.Before(h.StartDate.Truncate(24*time.Hour)) && !d.After(h.EndDate.Truncate(24*time.Hour))
}
