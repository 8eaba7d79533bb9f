package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-progress-api/internal/models"
)

// ActivityRepository reads daily activity records. The pipeline never writes
// them; ingestion belongs to a separate service.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs an activity repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

const activityColumns = `id, student_id, date, status, arrived_on_time, subjects_studied,
homework_assigned, homework_completed, classwork_completed, assessments_taken,
behavior_rating, participation_level, discipline_score, uniform_compliance, skills,
created_at, updated_at`

// ListByStudentRange returns a student's records with date in [from, to],
// ordered oldest first.
func (r *ActivityRepository) ListByStudentRange(ctx context.Context, studentID string, from, to time.Time) ([]models.DailyActivityRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM daily_activity_records
WHERE student_id = $1 AND date >= $2 AND date <= $3 ORDER BY date ASC`, activityColumns)
	var records []models.DailyActivityRecord
	if err := r.db.SelectContext(ctx, &records, query, studentID, from, to); err != nil {
		return nil, fmt.Errorf("list activity records: %w", err)
	}
	return records, nil
}

// ListRecentByStudent returns the student's records for the trailing window of
// days, ordered most recent first. The ordering feeds streak computation.
func (r *ActivityRepository) ListRecentByStudent(ctx context.Context, studentID string, days int, now time.Time) ([]models.DailyActivityRecord, error) {
	from := now.AddDate(0, 0, -days)
	query := fmt.Sprintf(`SELECT %s FROM daily_activity_records
WHERE student_id = $1 AND date >= $2 AND date <= $3 ORDER BY date DESC`, activityColumns)
	var records []models.DailyActivityRecord
	if err := r.db.SelectContext(ctx, &records, query, studentID, from, now); err != nil {
		return nil, fmt.Errorf("list recent activity records: %w", err)
	}
	return records, nil
}
