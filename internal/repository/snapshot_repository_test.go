package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sis-progress-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func snapshotRow() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"student_id", "total_days_present", "total_days_absent", "total_working_days",
		"overall_attendance_rate", "current_attendance_streak", "longest_attendance_streak",
		"current_homework_streak", "homework_assigned_total", "homework_completed_total",
		"overall_homework_completion_rate", "avg_homework_quality", "avg_behavior_rating",
		"avg_participation", "avg_discipline", "uniform_compliance_rate", "avg_skills",
		"subject_performance", "strongest_subjects", "weakest_subjects", "improving_subjects",
		"declining_subjects", "risk_level", "needs_attention", "attention_reasons",
		"intervention_required", "flagged_subjects", "last_calculated_at", "next_calculation_due",
		"created_at", "updated_at",
	}).AddRow(
		"student-1", 42, 3, 45,
		93.33, 5, 12,
		3, 40, 35,
		87.5, 4.1, 4.3,
		3.9, 4.5, 96.0, []byte(`{"reading":4.2,"writing":3.8,"listening":4,"speaking":4.1,"critical_thinking":3.5}`),
		[]byte(`[{"subject_id":"math","percentage":85,"avg_understanding":4.2,"trend":"UP"}]`),
		"{math}", "{}", "{math}",
		"{}", "LOW", false, "{}",
		false, "{}", now, now.Add(24*time.Hour),
		now, now,
	)
}

func TestSnapshotRepositoryGetByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSnapshotRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM student_progress_snapshots WHERE student_id = \\$1").
		WithArgs("student-1").
		WillReturnRows(snapshotRow())

	snapshot, err := repo.GetByStudent(context.Background(), "student-1")
	require.NoError(t, err)
	require.Equal(t, "student-1", snapshot.StudentID)
	require.Equal(t, 12, snapshot.LongestAttendanceStreak)
	require.Equal(t, models.RiskLow, snapshot.RiskLevel)
	require.Len(t, snapshot.SubjectPerformance, 1)
	require.Equal(t, models.TrendUp, snapshot.SubjectPerformance[0].Trend)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepositoryGetByStudentMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSnapshotRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM student_progress_snapshots WHERE student_id = \\$1").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByStudent(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSnapshotRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO student_progress_snapshots")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	snapshot := &models.StudentProgressSnapshot{
		StudentID:          "student-1",
		RiskLevel:          models.RiskLow,
		LastCalculatedAt:   time.Now(),
		NextCalculationDue: time.Now().Add(24 * time.Hour),
	}
	require.NoError(t, repo.Upsert(context.Background(), snapshot))
	require.False(t, snapshot.CreatedAt.IsZero())
	require.False(t, snapshot.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepositoryListDueStudentIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSnapshotRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"student_id"}).AddRow("student-1").AddRow("student-2")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT student_id FROM student_progress_snapshots")).
		WithArgs(now, 50).
		WillReturnRows(rows)

	ids, err := repo.ListDueStudentIDs(context.Background(), now, 50)
	require.NoError(t, err)
	require.Equal(t, []string{"student-1", "student-2"}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepositoryListDueWithoutLimit(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSnapshotRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT student_id FROM student_progress_snapshots")).
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows([]string{"student_id"}))

	ids, err := repo.ListDueStudentIDs(context.Background(), now, 0)
	require.NoError(t, err)
	require.Empty(t, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepositoryListNeedingAttentionScoped(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSnapshotRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM student_progress_snapshots\\s+WHERE needs_attention = TRUE AND student_id IN").
		WithArgs("class-7a", models.EnrollmentStatusActive).
		WillReturnRows(snapshotRow())

	snapshots, err := repo.ListNeedingAttention(context.Background(), "class-7a")
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
