package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-progress-api/internal/models"
)

// SnapshotRepository persists the singleton progress snapshot per student.
type SnapshotRepository struct {
	db *sqlx.DB
}

// NewSnapshotRepository constructs a snapshot repository.
func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

const snapshotColumns = `student_id, total_days_present, total_days_absent, total_working_days,
overall_attendance_rate, current_attendance_streak, longest_attendance_streak,
current_homework_streak, homework_assigned_total, homework_completed_total,
overall_homework_completion_rate, avg_homework_quality, avg_behavior_rating, avg_participation,
avg_discipline, uniform_compliance_rate, avg_skills, subject_performance, strongest_subjects,
weakest_subjects, improving_subjects, declining_subjects, risk_level, needs_attention,
attention_reasons, intervention_required, flagged_subjects, last_calculated_at,
next_calculation_due, created_at, updated_at`

// GetByStudent fetches a student's snapshot. sql.ErrNoRows is returned
// untouched so callers can treat a first-ever recompute distinctly.
func (r *SnapshotRepository) GetByStudent(ctx context.Context, studentID string) (*models.StudentProgressSnapshot, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_progress_snapshots WHERE student_id = $1`, snapshotColumns)
	var snapshot models.StudentProgressSnapshot
	if err := r.db.GetContext(ctx, &snapshot, query, studentID); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Upsert writes the snapshot keyed on student_id. Overlapping runs race here;
// last write wins.
func (r *SnapshotRepository) Upsert(ctx context.Context, snapshot *models.StudentProgressSnapshot) error {
	now := time.Now().UTC()
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = now
	}
	snapshot.UpdatedAt = now

	query := `INSERT INTO student_progress_snapshots (student_id, total_days_present, total_days_absent,
total_working_days, overall_attendance_rate, current_attendance_streak, longest_attendance_streak,
current_homework_streak, homework_assigned_total, homework_completed_total,
overall_homework_completion_rate, avg_homework_quality, avg_behavior_rating, avg_participation,
avg_discipline, uniform_compliance_rate, avg_skills, subject_performance, strongest_subjects,
weakest_subjects, improving_subjects, declining_subjects, risk_level, needs_attention,
attention_reasons, intervention_required, flagged_subjects, last_calculated_at, next_calculation_due,
created_at, updated_at)
VALUES (:student_id, :total_days_present, :total_days_absent, :total_working_days,
:overall_attendance_rate, :current_attendance_streak, :longest_attendance_streak,
:current_homework_streak, :homework_assigned_total, :homework_completed_total,
:overall_homework_completion_rate, :avg_homework_quality, :avg_behavior_rating, :avg_participation,
:avg_discipline, :uniform_compliance_rate, :avg_skills, :subject_performance, :strongest_subjects,
:weakest_subjects, :improving_subjects, :declining_subjects, :risk_level, :needs_attention,
:attention_reasons, :intervention_required, :flagged_subjects, :last_calculated_at,
:next_calculation_due, :created_at, :updated_at)
ON CONFLICT (student_id) DO UPDATE SET
total_days_present = EXCLUDED.total_days_present,
total_days_absent = EXCLUDED.total_days_absent,
total_working_days = EXCLUDED.total_working_days,
overall_attendance_rate = EXCLUDED.overall_attendance_rate,
current_attendance_streak = EXCLUDED.current_attendance_streak,
longest_attendance_streak = EXCLUDED.longest_attendance_streak,
current_homework_streak = EXCLUDED.current_homework_streak,
homework_assigned_total = EXCLUDED.homework_assigned_total,
homework_completed_total = EXCLUDED.homework_completed_total,
overall_homework_completion_rate = EXCLUDED.overall_homework_completion_rate,
avg_homework_quality = EXCLUDED.avg_homework_quality,
avg_behavior_rating = EXCLUDED.avg_behavior_rating,
avg_participation = EXCLUDED.avg_participation,
avg_discipline = EXCLUDED.avg_discipline,
uniform_compliance_rate = EXCLUDED.uniform_compliance_rate,
avg_skills = EXCLUDED.avg_skills,
subject_performance = EXCLUDED.subject_performance,
strongest_subjects = EXCLUDED.strongest_subjects,
weakest_subjects = EXCLUDED.weakest_subjects,
improving_subjects = EXCLUDED.improving_subjects,
declining_subjects = EXCLUDED.declining_subjects,
risk_level = EXCLUDED.risk_level,
needs_attention = EXCLUDED.needs_attention,
attention_reasons = EXCLUDED.attention_reasons,
intervention_required = EXCLUDED.intervention_required,
flagged_subjects = EXCLUDED.flagged_subjects,
last_calculated_at = EXCLUDED.last_calculated_at,
next_calculation_due = EXCLUDED.next_calculation_due,
updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, snapshot); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

// ListDueStudentIDs returns students whose next_calculation_due has passed.
func (r *SnapshotRepository) ListDueStudentIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	query := `SELECT student_id FROM student_progress_snapshots
WHERE next_calculation_due <= $1 ORDER BY next_calculation_due ASC`
	args := []interface{}{now}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("list due snapshots: %w", err)
	}
	return ids, nil
}

// ListNeedingAttention returns flagged snapshots, optionally scoped to one
// classroom via the current enrollment.
func (r *SnapshotRepository) ListNeedingAttention(ctx context.Context, classroomID string) ([]models.StudentProgressSnapshot, error) {
	var (
		query string
		args  []interface{}
	)
	if classroomID != "" {
		query = fmt.Sprintf(`SELECT %s FROM student_progress_snapshots
WHERE needs_attention = TRUE AND student_id IN (
    SELECT e.student_id FROM enrollments e WHERE e.classroom_id = $1 AND e.status = $2)
ORDER BY overall_attendance_rate ASC`, snapshotColumns)
		args = []interface{}{classroomID, models.EnrollmentStatusActive}
	} else {
		query = fmt.Sprintf(`SELECT %s FROM student_progress_snapshots
WHERE needs_attention = TRUE ORDER BY overall_attendance_rate ASC`, snapshotColumns)
	}
	var snapshots []models.StudentProgressSnapshot
	if err := r.db.SelectContext(ctx, &snapshots, query, args...); err != nil {
		return nil, fmt.Errorf("list snapshots needing attention: %w", err)
	}
	return snapshots, nil
}
