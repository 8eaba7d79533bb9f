package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-progress-api/internal/models"
)

// WeeklyRepository persists weekly progress aggregates.
type WeeklyRepository struct {
	db *sqlx.DB
}

// NewWeeklyRepository constructs a weekly progress repository.
func NewWeeklyRepository(db *sqlx.DB) *WeeklyRepository {
	return &WeeklyRepository{db: db}
}

const weeklyColumns = `id, student_id, week_number, year, working_days, days_present, days_absent,
days_late, days_half, days_excused, total_days_present, attendance_percentage, punctuality_percentage,
subject_performance, homework_assigned_count, homework_completed_count, homework_completion_rate,
homework_quality_avg, classwork_completed_count, classwork_quality_avg, assessment_count,
assessment_total_score, assessment_total_out_of, avg_assessment_percentage, avg_behavior_rating,
avg_participation, avg_discipline, uniform_compliance_rate, avg_skills, strength_subjects,
weak_subjects, highlights, teacher_comments, action_items, created_at, updated_at`

// ListRecent returns up to limit aggregates for a student, newest week first.
func (r *WeeklyRepository) ListRecent(ctx context.Context, studentID string, limit int) ([]models.WeeklyProgress, error) {
	if limit <= 0 {
		limit = 8
	}
	query := fmt.Sprintf(`SELECT %s FROM weekly_progress
WHERE student_id = $1 ORDER BY year DESC, week_number DESC LIMIT $2`, weeklyColumns)
	var weeks []models.WeeklyProgress
	if err := r.db.SelectContext(ctx, &weeks, query, studentID, limit); err != nil {
		return nil, fmt.Errorf("list weekly progress: %w", err)
	}
	return weeks, nil
}

// GetByID fetches one weekly aggregate.
func (r *WeeklyRepository) GetByID(ctx context.Context, id string) (*models.WeeklyProgress, error) {
	query := fmt.Sprintf(`SELECT %s FROM weekly_progress WHERE id = $1`, weeklyColumns)
	var week models.WeeklyProgress
	if err := r.db.GetContext(ctx, &week, query, id); err != nil {
		return nil, err
	}
	return &week, nil
}

// Upsert replaces the numeric aggregate keyed on (student, week, year). The
// commentary columns are deliberately left out of the update list so a
// recompute never clobbers teacher-entered text.
func (r *WeeklyRepository) Upsert(ctx context.Context, week *models.WeeklyProgress) error {
	if week.ID == "" {
		week.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if week.CreatedAt.IsZero() {
		week.CreatedAt = now
	}
	week.UpdatedAt = now

	if _, err := r.db.NamedExecContext(ctx, weeklyUpsertQuery, week); err != nil {
		return fmt.Errorf("upsert weekly progress: %w", err)
	}
	return nil
}

const weeklyUpsertQuery = `INSERT INTO weekly_progress (id, student_id, week_number, year, working_days, days_present,
days_absent, days_late, days_half, days_excused, total_days_present, attendance_percentage,
punctuality_percentage, subject_performance, homework_assigned_count, homework_completed_count,
homework_completion_rate, homework_quality_avg, classwork_completed_count, classwork_quality_avg,
assessment_count, assessment_total_score, assessment_total_out_of, avg_assessment_percentage,
avg_behavior_rating, avg_participation, avg_discipline, uniform_compliance_rate, avg_skills,
strength_subjects, weak_subjects, highlights, teacher_comments, action_items, created_at, updated_at)
VALUES (:id, :student_id, :week_number, :year, :working_days, :days_present, :days_absent, :days_late,
:days_half, :days_excused, :total_days_present, :attendance_percentage, :punctuality_percentage,
:subject_performance, :homework_assigned_count, :homework_completed_count, :homework_completion_rate,
:homework_quality_avg, :classwork_completed_count, :classwork_quality_avg, :assessment_count,
:assessment_total_score, :assessment_total_out_of, :avg_assessment_percentage, :avg_behavior_rating,
:avg_participation, :avg_discipline, :uniform_compliance_rate, :avg_skills, :strength_subjects,
:weak_subjects, :highlights, :teacher_comments, :action_items, :created_at, :updated_at)
ON CONFLICT (student_id, week_number, year) DO UPDATE SET
working_days = EXCLUDED.working_days, days_present = EXCLUDED.days_present,
days_absent = EXCLUDED.days_absent, days_late = EXCLUDED.days_late, days_half = EXCLUDED.days_half,
days_excused = EXCLUDED.days_excused, total_days_present = EXCLUDED.total_days_present,
attendance_percentage = EXCLUDED.attendance_percentage,
punctuality_percentage = EXCLUDED.punctuality_percentage,
subject_performance = EXCLUDED.subject_performance,
homework_assigned_count = EXCLUDED.homework_assigned_count,
homework_completed_count = EXCLUDED.homework_completed_count,
homework_completion_rate = EXCLUDED.homework_completion_rate,
homework_quality_avg = EXCLUDED.homework_quality_avg,
classwork_completed_count = EXCLUDED.classwork_completed_count,
classwork_quality_avg = EXCLUDED.classwork_quality_avg,
assessment_count = EXCLUDED.assessment_count,
assessment_total_score = EXCLUDED.assessment_total_score,
assessment_total_out_of = EXCLUDED.assessment_total_out_of,
avg_assessment_percentage = EXCLUDED.avg_assessment_percentage,
avg_behavior_rating = EXCLUDED.avg_behavior_rating,
avg_participation = EXCLUDED.avg_participation,
avg_discipline = EXCLUDED.avg_discipline,
uniform_compliance_rate = EXCLUDED.uniform_compliance_rate,
avg_skills = EXCLUDED.avg_skills,
strength_subjects = EXCLUDED.strength_subjects,
weak_subjects = EXCLUDED.weak_subjects,
updated_at = EXCLUDED.updated_at`

// UpdateCommentary writes only the teacher-editable free-text fields.
func (r *WeeklyRepository) UpdateCommentary(ctx context.Context, id string, commentary models.WeeklyCommentary) error {
	query := `UPDATE weekly_progress SET
highlights = COALESCE($2, highlights),
teacher_comments = COALESCE($3, teacher_comments),
action_items = COALESCE($4, action_items),
updated_at = $5
WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, commentary.Highlights, commentary.TeacherComments, commentary.ActionItems, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update weekly commentary: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
