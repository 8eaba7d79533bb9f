package repository

import (
	"context"
	"database/sql"
	"regexp"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sis-progress-api/internal/models"
)

func weeklyRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "student_id", "week_number", "year", "working_days", "days_present", "days_absent",
		"days_late", "days_half", "days_excused", "total_days_present", "attendance_percentage",
		"punctuality_percentage", "subject_performance", "homework_assigned_count",
		"homework_completed_count", "homework_completion_rate", "homework_quality_avg",
		"classwork_completed_count", "classwork_quality_avg", "assessment_count",
		"assessment_total_score", "assessment_total_out_of", "avg_assessment_percentage",
		"avg_behavior_rating", "avg_participation", "avg_discipline", "uniform_compliance_rate",
		"avg_skills", "strength_subjects", "weak_subjects", "highlights", "teacher_comments",
		"action_items", "created_at", "updated_at",
	}).AddRow(
		"week-1", "student-1", 11, 2026, 5, 4, 1,
		0, 0, 0, 4, 80.0,
		100.0, []byte(`[{"subject_id":"math","topics_completed":3,"avg_understanding":4.5}]`), 6,
		5, 83.33, 4.2,
		3, 4.0, 1,
		17, 20, 85.0,
		4.1, 3.8, 4.6, 100.0,
		[]byte(`{"reading":4,"writing":3.5,"listening":0,"speaking":0,"critical_thinking":0}`), "{math}", "{}", nil, nil,
		nil, now, now,
	)
}

func TestWeeklyRepositoryListRecent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWeeklyRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM weekly_progress\\s+WHERE student_id = \\$1 ORDER BY year DESC, week_number DESC LIMIT \\$2").
		WithArgs("student-1", 8).
		WillReturnRows(weeklyRows())

	weeks, err := repo.ListRecent(context.Background(), "student-1", 0)
	require.NoError(t, err)
	require.Len(t, weeks, 1)
	require.Equal(t, 11, weeks[0].WeekNumber)
	require.Len(t, weeks[0].SubjectPerformance, 1)
	require.Equal(t, "math", weeks[0].SubjectPerformance[0].SubjectID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWeeklyRepositoryUpsertPreservesCommentary(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWeeklyRepository(db)

	// The conflict update must not touch the teacher-entered text columns.
	mock.ExpectExec("INSERT INTO weekly_progress (.+) ON CONFLICT \\(student_id, week_number, year\\)").
		WillReturnResult(sqlmock.NewResult(0, 1))

	week := &models.WeeklyProgress{
		StudentID:  "student-1",
		WeekNumber: 11,
		Year:       2026,
	}
	require.NoError(t, repo.Upsert(context.Background(), week))
	require.NotEmpty(t, week.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWeeklyRepositoryUpsertOmitsCommentaryFromUpdate(t *testing.T) {
	parts := strings.SplitN(weeklyUpsertQuery, "DO UPDATE SET", 2)
	require.Len(t, parts, 2)
	require.NotContains(t, parts[1], "highlights")
	require.NotContains(t, parts[1], "teacher_comments")
	require.NotContains(t, parts[1], "action_items")
}

func TestWeeklyRepositoryUpdateCommentary(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWeeklyRepository(db)

	highlights := "Strong week in math"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE weekly_progress SET")).
		WithArgs("week-1", highlights, nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateCommentary(context.Background(), "week-1", models.WeeklyCommentary{Highlights: &highlights})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWeeklyRepositoryUpdateCommentaryMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWeeklyRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE weekly_progress SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateCommentary(context.Background(), "missing", models.WeeklyCommentary{})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
