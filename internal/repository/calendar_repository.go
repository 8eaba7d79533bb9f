package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-progress-api/internal/models"
)

// CalendarRepository reads the academic configuration and holiday calendar.
type CalendarRepository struct {
	db *sqlx.DB
}

// NewCalendarRepository constructs a calendar repository.
func NewCalendarRepository(db *sqlx.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

// GetActiveConfig returns the single active academic configuration.
func (r *CalendarRepository) GetActiveConfig(ctx context.Context) (*models.AcademicConfig, error) {
	const query = `SELECT id, name, weekend_days, active, created_at, updated_at
FROM academic_configs WHERE active = TRUE ORDER BY updated_at DESC LIMIT 1`
	var cfg models.AcademicConfig
	if err := r.db.GetContext(ctx, &cfg, query); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ListHolidaysInRange returns non-cancelled holidays overlapping [start, end].
func (r *CalendarRepository) ListHolidaysInRange(ctx context.Context, start, end time.Time) ([]models.Holiday, error) {
	const query = `SELECT id, name, start_date, end_date, cancelled, created_at, updated_at
FROM holidays WHERE cancelled = FALSE AND end_date >= $1 AND start_date <= $2
ORDER BY start_date ASC`
	var holidays []models.Holiday
	if err := r.db.SelectContext(ctx, &holidays, query, start, end); err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	return holidays, nil
}
