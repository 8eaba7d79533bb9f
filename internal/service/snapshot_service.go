package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sis-progress-api/internal/models"
	appErrors "github.com/noah-isme/sis-progress-api/pkg/errors"
)

type snapshotRepository interface {
	GetByStudent(ctx context.Context, studentID string) (*models.StudentProgressSnapshot, error)
	Upsert(ctx context.Context, snapshot *models.StudentProgressSnapshot) error
	ListDueStudentIDs(ctx context.Context, now time.Time, limit int) ([]string, error)
	ListNeedingAttention(ctx context.Context, classroomID string) ([]models.StudentProgressSnapshot, error)
}

type studentRepository interface {
	GetDetail(ctx context.Context, id string) (*models.StudentDetail, error)
	ListActiveIDs(ctx context.Context) ([]string, error)
	ListClassroomStudentIDs(ctx context.Context, classroomID string) ([]string, error)
}

// RiskAlertSink receives risk alerts produced by snapshot recomputation.
type RiskAlertSink interface {
	RecentlyAlerted(ctx context.Context, studentID string, now time.Time) (bool, error)
	EmitRiskAlert(ctx context.Context, alert models.RiskAlert) error
}

// SnapshotServiceConfig tunes the orchestration windows.
type SnapshotServiceConfig struct {
	WeeklyWindow    int
	DailyWindowDays int
	RecalcInterval  time.Duration
	CacheTTL        time.Duration
}

// SnapshotService orchestrates single-student snapshot recomputation:
// fetch inputs, aggregate, upsert, invalidate cache, emit at most one alert.
type SnapshotService struct {
	snapshots  snapshotRepository
	students   studentRepository
	weeks      weeklyRepository
	activities activityRepository
	alerts     RiskAlertSink
	cache      *CacheService
	metrics    *MetricsService
	cfg        SnapshotServiceConfig
	logger     *zap.Logger
	now        func() time.Time
}

// NewSnapshotService constructs the orchestrator.
func NewSnapshotService(
	snapshots snapshotRepository,
	students studentRepository,
	weeks weeklyRepository,
	activities activityRepository,
	alerts RiskAlertSink,
	cache *CacheService,
	metrics *MetricsService,
	cfg SnapshotServiceConfig,
	logger *zap.Logger,
) *SnapshotService {
	if cfg.WeeklyWindow <= 0 {
		cfg.WeeklyWindow = 8
	}
	if cfg.DailyWindowDays <= 0 {
		cfg.DailyWindowDays = 30
	}
	if cfg.RecalcInterval <= 0 {
		cfg.RecalcInterval = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotService{
		snapshots:  snapshots,
		students:   students,
		weeks:      weeks,
		activities: activities,
		alerts:     alerts,
		cache:      cache,
		metrics:    metrics,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// Recalculate recomputes and persists one student's snapshot. Any failure is
// surfaced as a typed error; batch callers isolate it per student.
func (s *SnapshotService) Recalculate(ctx context.Context, studentID string) (*models.StudentProgressSnapshot, error) {
	start := time.Now()
	snapshot, err := s.recalculate(ctx, studentID)
	if s.metrics != nil {
		s.metrics.ObserveRecompute(err == nil, time.Since(start))
	}
	return snapshot, err
}

func (s *SnapshotService) recalculate(ctx context.Context, studentID string) (*models.StudentProgressSnapshot, error) {
	detail, err := s.students.GetDetail(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrStudentNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !detail.Type.Eligible() {
		return nil, appErrors.ErrNotEligible
	}

	now := s.now()

	weeklies, err := s.weeks.ListRecent(ctx, studentID, s.cfg.WeeklyWindow)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weekly history")
	}
	dailies, err := s.activities.ListRecentByStudent(ctx, studentID, s.cfg.DailyWindowDays, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load daily records")
	}

	previous, err := s.snapshots.GetByStudent(ctx, studentID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load previous snapshot")
		}
		previous = nil
	}

	snapshot := BuildSnapshot(studentID, SnapshotInputs{
		Weeklies:       weeklies,
		Dailies:        dailies,
		Previous:       previous,
		Now:            now,
		RecalcInterval: s.cfg.RecalcInterval,
	})

	if err := s.snapshots.Upsert(ctx, &snapshot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upsert snapshot")
	}

	s.cache.Delete(ctx, snapshotCacheKey(studentID))

	if snapshot.InterventionRequired {
		s.maybeEmitAlert(ctx, detail, &snapshot, now)
	}

	return &snapshot, nil
}

// maybeEmitAlert fires a risk alert unless one was already sent within the
// guard window. Alert-layer faults never fail the recomputation.
func (s *SnapshotService) maybeEmitAlert(ctx context.Context, detail *models.StudentDetail, snapshot *models.StudentProgressSnapshot, now time.Time) {
	if s.alerts == nil {
		return
	}
	recently, err := s.alerts.RecentlyAlerted(ctx, detail.ID, now)
	if err != nil {
		s.logger.Warn("risk alert guard check failed", zap.String("student_id", detail.ID), zap.Error(err))
		return
	}
	if recently {
		return
	}
	alert := models.RiskAlert{
		StudentID:   detail.ID,
		StudentName: detail.FullName,
		RiskLevel:   snapshot.RiskLevel,
		Reasons:     append([]string{}, snapshot.AttentionReasons...),
		TeacherID:   detail.TeacherID,
		ClassRoomID: detail.ClassRoomID,
	}
	if err := s.alerts.EmitRiskAlert(ctx, alert); err != nil {
		s.logger.Warn("risk alert emission failed", zap.String("student_id", detail.ID), zap.Error(err))
	}
}

// Get returns a student's snapshot, cache-aside.
func (s *SnapshotService) Get(ctx context.Context, studentID string) (*models.StudentProgressSnapshot, error) {
	cacheKey := snapshotCacheKey(studentID)
	var cached models.StudentProgressSnapshot
	if s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	snapshot, err := s.snapshots.GetByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrSnapshotNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load snapshot")
	}
	s.cache.Set(ctx, cacheKey, snapshot, s.cfg.CacheTTL)
	return snapshot, nil
}

// ListNeedingAttention returns flagged snapshots, optionally classroom-scoped.
func (s *SnapshotService) ListNeedingAttention(ctx context.Context, classroomID string) ([]models.StudentProgressSnapshot, error) {
	snapshots, err := s.snapshots.ListNeedingAttention(ctx, classroomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list flagged snapshots")
	}
	return snapshots, nil
}

func snapshotCacheKey(studentID string) string {
	return fmt.Sprintf("snapshot:%s", studentID)
}
