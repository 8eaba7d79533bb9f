package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-progress-api/internal/models"
)

// StudentRepository reads student and enrollment data for the pipeline.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// GetDetail fetches a student together with its current classroom and homeroom
// teacher, when enrolled.
func (r *StudentRepository) GetDetail(ctx context.Context, id string) (*models.StudentDetail, error) {
	const query = `SELECT s.id, s.full_name, s.type, s.active, s.created_at, s.updated_at,
e.classroom_id AS classroom_id, c.teacher_id AS teacher_id
FROM students s
LEFT JOIN enrollments e ON e.student_id = s.id AND e.status = $2
LEFT JOIN classrooms c ON c.id = e.classroom_id
WHERE s.id = $1`
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id, models.EnrollmentStatusActive); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListActiveIDs returns every active, currently-enrolled student of an
// eligible type. Feeds the full-refresh batch run.
func (r *StudentRepository) ListActiveIDs(ctx context.Context) ([]string, error) {
	const query = `SELECT s.id FROM students s
JOIN enrollments e ON e.student_id = s.id AND e.status = $1
WHERE s.active = TRUE AND s.type IN ($2, $3)
ORDER BY s.id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, models.EnrollmentStatusActive,
		models.StudentTypeRegular, models.StudentTypeBoarding); err != nil {
		return nil, fmt.Errorf("list active students: %w", err)
	}
	return ids, nil
}

// ListClassroomStudentIDs returns eligible students currently enrolled in one
// classroom. Feeds the classroom-scoped batch run.
func (r *StudentRepository) ListClassroomStudentIDs(ctx context.Context, classroomID string) ([]string, error) {
	const query = `SELECT s.id FROM students s
JOIN enrollments e ON e.student_id = s.id AND e.status = $2
WHERE e.classroom_id = $1 AND s.active = TRUE AND s.type IN ($3, $4)
ORDER BY s.id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, classroomID, models.EnrollmentStatusActive,
		models.StudentTypeRegular, models.StudentTypeBoarding); err != nil {
		return nil, fmt.Errorf("list classroom students: %w", err)
	}
	return ids, nil
}
