package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sis-progress-api/internal/models"
	appErrors "github.com/noah-isme/sis-progress-api/pkg/errors"
)

type snapRepoStub struct {
	stored  *models.StudentProgressSnapshot
	upserts int
}

func (r *snapRepoStub) GetByStudent(_ context.Context, _ string) (*models.StudentProgressSnapshot, error) {
	if r.stored == nil {
		return nil, sql.ErrNoRows
	}
	copied := *r.stored
	return &copied, nil
}

func (r *snapRepoStub) Upsert(_ context.Context, snapshot *models.StudentProgressSnapshot) error {
	copied := *snapshot
	r.stored = &copied
	r.upserts++
	return nil
}

func (r *snapRepoStub) ListDueStudentIDs(context.Context, time.Time, int) ([]string, error) {
	return nil, nil
}

func (r *snapRepoStub) ListNeedingAttention(context.Context, string) ([]models.StudentProgressSnapshot, error) {
	if r.stored != nil && r.stored.NeedsAttention {
		return []models.StudentProgressSnapshot{*r.stored}, nil
	}
	return nil, nil
}

type studentDetailStub struct {
	detail *models.StudentDetail
	err    error
}

func (r *studentDetailStub) GetDetail(context.Context, string) (*models.StudentDetail, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.detail, nil
}

func (r *studentDetailStub) ListActiveIDs(context.Context) ([]string, error) { return nil, nil }

func (r *studentDetailStub) ListClassroomStudentIDs(context.Context, string) ([]string, error) {
	return nil, nil
}

type weeklyRepoStub struct {
	weeklies []models.WeeklyProgress
}

func (r *weeklyRepoStub) ListRecent(context.Context, string, int) ([]models.WeeklyProgress, error) {
	return r.weeklies, nil
}

func (r *weeklyRepoStub) GetByID(context.Context, string) (*models.WeeklyProgress, error) {
	return nil, sql.ErrNoRows
}

func (r *weeklyRepoStub) Upsert(context.Context, *models.WeeklyProgress) error { return nil }

func (r *weeklyRepoStub) UpdateCommentary(context.Context, string, models.WeeklyCommentary) error {
	return nil
}

type activityRepoStub struct {
	dailies []models.DailyActivityRecord
}

func (r *activityRepoStub) ListByStudentRange(context.Context, string, time.Time, time.Time) ([]models.DailyActivityRecord, error) {
	return r.dailies, nil
}

func (r *activityRepoStub) ListRecentByStudent(context.Context, string, int, time.Time) ([]models.DailyActivityRecord, error) {
	return r.dailies, nil
}

// alertSinkStub mimics the persisted guard: once an alert is emitted, the
// recent-alert check reports true.
type alertSinkStub struct {
	mu       sync.Mutex
	emitted  []models.RiskAlert
	guardErr error
	emitErr  error
}

func (a *alertSinkStub) RecentlyAlerted(context.Context, string, time.Time) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.guardErr != nil {
		return false, a.guardErr
	}
	return len(a.emitted) > 0, nil
}

func (a *alertSinkStub) EmitRiskAlert(_ context.Context, alert models.RiskAlert) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.emitErr != nil {
		return a.emitErr
	}
	a.emitted = append(a.emitted, alert)
	return nil
}

type cacheRepoStub struct {
	mu      sync.Mutex
	deleted []string
}

func (c *cacheRepoStub) Get(context.Context, string, interface{}) error {
	return appErrors.ErrCacheMiss
}

func (c *cacheRepoStub) Set(context.Context, string, interface{}, time.Duration) error { return nil }

func (c *cacheRepoStub) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, key)
	return nil
}

func (c *cacheRepoStub) DeleteByPattern(context.Context, string) error { return nil }

func strPtr(s string) *string { return &s }

func atRiskDetail() *models.StudentDetail {
	return &models.StudentDetail{
		Student: models.Student{
			ID:       "student-1",
			FullName: "Aisha Rahma",
			Type:     models.StudentTypeRegular,
			Active:   true,
		},
		ClassRoomID: strPtr("class-7a"),
		TeacherID:   strPtr("teacher-3"),
	}
}

// atRiskWeeklies produce an intervention-required snapshot (HIGH risk).
func atRiskWeeklies() []models.WeeklyProgress {
	return []models.WeeklyProgress{{
		StudentID:             "student-1",
		WeekNumber:            11,
		Year:                  2026,
		WorkingDays:           5,
		TotalDaysPresent:      3,
		DaysAbsent:            2,
		HomeworkAssignedCount: 10,
		HomeworkCompletedCount: 2,
	}}
}

func newTestSnapshotService(snaps *snapRepoStub, students *studentDetailStub, weeks *weeklyRepoStub, acts *activityRepoStub, alerts RiskAlertSink, cacheRepo *cacheRepoStub) *SnapshotService {
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	svc := NewSnapshotService(snaps, students, weeks, acts, alerts, cacheSvc, nil, SnapshotServiceConfig{
		WeeklyWindow:    8,
		DailyWindowDays: 30,
		RecalcInterval:  24 * time.Hour,
	}, nil)
	svc.now = func() time.Time { return snapshotNow }
	return svc
}

func TestRecalculatePersistsAndInvalidates(t *testing.T) {
	snaps := &snapRepoStub{}
	cacheRepo := &cacheRepoStub{}
	svc := newTestSnapshotService(snaps, &studentDetailStub{detail: atRiskDetail()}, &weeklyRepoStub{weeklies: atRiskWeeklies()}, &activityRepoStub{}, &alertSinkStub{}, cacheRepo)

	snapshot, err := svc.Recalculate(context.Background(), "student-1")
	require.NoError(t, err)

	assert.Equal(t, "student-1", snapshot.StudentID)
	assert.Equal(t, models.RiskHigh, snapshot.RiskLevel)
	assert.Equal(t, snapshotNow.Add(24*time.Hour), snapshot.NextCalculationDue)
	assert.Equal(t, 1, snaps.upserts)
	assert.Contains(t, cacheRepo.deleted, "snapshot:student-1")
}

func TestRecalculateStudentNotFound(t *testing.T) {
	svc := newTestSnapshotService(&snapRepoStub{}, &studentDetailStub{err: sql.ErrNoRows}, &weeklyRepoStub{}, &activityRepoStub{}, &alertSinkStub{}, &cacheRepoStub{})

	_, err := svc.Recalculate(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrStudentNotFound)
}

func TestRecalculateIneligibleStudent(t *testing.T) {
	detail := atRiskDetail()
	detail.Type = models.StudentTypeAlumni
	svc := newTestSnapshotService(&snapRepoStub{}, &studentDetailStub{detail: detail}, &weeklyRepoStub{}, &activityRepoStub{}, &alertSinkStub{}, &cacheRepoStub{})

	_, err := svc.Recalculate(context.Background(), "student-1")
	assert.ErrorIs(t, err, appErrors.ErrNotEligible)
}

func TestRecalculateEmitsSingleAlert(t *testing.T) {
	alerts := &alertSinkStub{}
	svc := newTestSnapshotService(&snapRepoStub{}, &studentDetailStub{detail: atRiskDetail()}, &weeklyRepoStub{weeklies: atRiskWeeklies()}, &activityRepoStub{}, alerts, &cacheRepoStub{})

	_, err := svc.Recalculate(context.Background(), "student-1")
	require.NoError(t, err)
	_, err = svc.Recalculate(context.Background(), "student-1")
	require.NoError(t, err)

	// The second recompute finds the recent alert and suppresses.
	require.Len(t, alerts.emitted, 1)
	alert := alerts.emitted[0]
	assert.Equal(t, "student-1", alert.StudentID)
	assert.Equal(t, "Aisha Rahma", alert.StudentName)
	assert.Equal(t, models.RiskHigh, alert.RiskLevel)
	assert.NotEmpty(t, alert.Reasons)
	require.NotNil(t, alert.TeacherID)
	assert.Equal(t, "teacher-3", *alert.TeacherID)
}

func TestRecalculateAlertFaultsAreSwallowed(t *testing.T) {
	alerts := &alertSinkStub{emitErr: errors.New("queue full")}
	svc := newTestSnapshotService(&snapRepoStub{}, &studentDetailStub{detail: atRiskDetail()}, &weeklyRepoStub{weeklies: atRiskWeeklies()}, &activityRepoStub{}, alerts, &cacheRepoStub{})

	_, err := svc.Recalculate(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Empty(t, alerts.emitted)
}

func TestRecalculateNoAlertWhenHealthy(t *testing.T) {
	healthy := []models.WeeklyProgress{{
		StudentID:              "student-1",
		WeekNumber:             11,
		Year:                   2026,
		WorkingDays:            5,
		TotalDaysPresent:       5,
		HomeworkAssignedCount:  10,
		HomeworkCompletedCount: 9,
	}}
	dailies := []models.DailyActivityRecord{recentDay(0, models.AttendancePresent)}
	alerts := &alertSinkStub{}
	svc := newTestSnapshotService(&snapRepoStub{}, &studentDetailStub{detail: atRiskDetail()}, &weeklyRepoStub{weeklies: healthy}, &activityRepoStub{dailies: dailies}, alerts, &cacheRepoStub{})

	snapshot, err := svc.Recalculate(context.Background(), "student-1")
	require.NoError(t, err)

	assert.Equal(t, models.RiskLow, snapshot.RiskLevel)
	assert.Empty(t, alerts.emitted)
}

func TestRecalculateSeedsLongestStreakFromStored(t *testing.T) {
	snaps := &snapRepoStub{stored: &models.StudentProgressSnapshot{
		StudentID:               "student-1",
		LongestAttendanceStreak: 9,
	}}
	dailies := []models.DailyActivityRecord{
		recentDay(0, models.AttendancePresent),
		recentDay(1, models.AttendanceAbsent),
	}
	svc := newTestSnapshotService(snaps, &studentDetailStub{detail: atRiskDetail()}, &weeklyRepoStub{}, &activityRepoStub{dailies: dailies}, &alertSinkStub{}, &cacheRepoStub{})

	snapshot, err := svc.Recalculate(context.Background(), "student-1")
	require.NoError(t, err)

	assert.Equal(t, 1, snapshot.CurrentAttendanceStreak)
	assert.Equal(t, 9, snapshot.LongestAttendanceStreak)
}

func TestGetSnapshotNotFound(t *testing.T) {
	svc := newTestSnapshotService(&snapRepoStub{}, &studentDetailStub{}, &weeklyRepoStub{}, &activityRepoStub{}, &alertSinkStub{}, &cacheRepoStub{})

	_, err := svc.Get(context.Background(), "student-1")
	assert.ErrorIs(t, err, appErrors.ErrSnapshotNotFound)
}

func TestGetSnapshotReadsStore(t *testing.T) {
	snaps := &snapRepoStub{stored: &models.StudentProgressSnapshot{
		StudentID: "student-1",
		RiskLevel: models.RiskMedium,
	}}
	svc := newTestSnapshotService(snaps, &studentDetailStub{}, &weeklyRepoStub{}, &activityRepoStub{}, &alertSinkStub{}, &cacheRepoStub{})

	snapshot, err := svc.Get(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Equal(t, models.RiskMedium, snapshot.RiskLevel)
}
