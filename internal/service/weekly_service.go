package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sis-progress-api/internal/models"
	appErrors "github.com/noah-isme/sis-progress-api/pkg/errors"
)

type activityRepository interface {
	ListByStudentRange(ctx context.Context, studentID string, from, to time.Time) ([]models.DailyActivityRecord, error)
	ListRecentByStudent(ctx context.Context, studentID string, days int, now time.Time) ([]models.DailyActivityRecord, error)
}

type weeklyRepository interface {
	ListRecent(ctx context.Context, studentID string, limit int) ([]models.WeeklyProgress, error)
	GetByID(ctx context.Context, id string) (*models.WeeklyProgress, error)
	Upsert(ctx context.Context, week *models.WeeklyProgress) error
	UpdateCommentary(ctx context.Context, id string, commentary models.WeeklyCommentary) error
}

type workingDaysOracle interface {
	CountWorkingDays(ctx context.Context, start, end time.Time) (int, error)
}

// WeeklyService derives and stores weekly aggregates for single students.
type WeeklyService struct {
	weeks       weeklyRepository
	activities  activityRepository
	workingDays workingDaysOracle
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewWeeklyService constructs the service.
func NewWeeklyService(weeks weeklyRepository, activities activityRepository, workingDays workingDaysOracle, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *WeeklyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeeklyService{
		weeks:       weeks,
		activities:  activities,
		workingDays: workingDays,
		cache:       cache,
		validator:   validate,
		logger:      logger,
	}
}

// GenerateWeeklyRequest identifies the (student, ISO week) to aggregate.
type GenerateWeeklyRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	WeekNumber int    `json:"week_number" validate:"required,min=1,max=53"`
	Year       int    `json:"year" validate:"required,min=2000"`
}

// Generate recomputes one weekly aggregate and upserts it. Teacher commentary
// on an existing row survives the upsert.
func (s *WeeklyService) Generate(ctx context.Context, req GenerateWeeklyRequest) (*models.WeeklyProgress, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	start, end := isoWeekRange(req.Year, req.WeekNumber)
	records, err := s.activities.ListByStudentRange(ctx, req.StudentID, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load daily records")
	}

	workingDays, err := s.workingDays.CountWorkingDays(ctx, start, end)
	if err != nil {
		return nil, err
	}

	week := AggregateWeek(records, workingDays)
	week.StudentID = req.StudentID
	week.WeekNumber = req.WeekNumber
	week.Year = req.Year

	if err := s.weeks.Upsert(ctx, &week); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upsert weekly progress")
	}

	s.cache.Invalidate(ctx, weeklyCachePrefix(req.StudentID))
	s.logger.Debug("weekly progress generated",
		zap.String("student_id", req.StudentID),
		zap.Int("week", req.WeekNumber),
		zap.Int("year", req.Year),
		zap.Int("working_days", workingDays),
	)
	return &week, nil
}

// History returns the most recent weekly aggregates, cache-aside.
func (s *WeeklyService) History(ctx context.Context, studentID string, limit int) ([]models.WeeklyProgress, error) {
	if limit <= 0 {
		limit = 8
	}
	cacheKey := fmt.Sprintf("weekly:%s:recent:%d", studentID, limit)
	var cached []models.WeeklyProgress
	if s.cache.Get(ctx, cacheKey, &cached) {
		return cached, nil
	}

	weeks, err := s.weeks.ListRecent(ctx, studentID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list weekly progress")
	}
	s.cache.Set(ctx, cacheKey, weeks, 0)
	return weeks, nil
}

// UpdateCommentaryRequest carries the teacher-editable fields; nil fields are
// left untouched.
type UpdateCommentaryRequest struct {
	Highlights      *string `json:"highlights"`
	TeacherComments *string `json:"teacher_comments"`
	ActionItems     *string `json:"action_items"`
}

// UpdateCommentary edits the free-text fields on one weekly row.
func (s *WeeklyService) UpdateCommentary(ctx context.Context, id string, req UpdateCommentaryRequest) (*models.WeeklyProgress, error) {
	commentary := models.WeeklyCommentary{
		Highlights:      req.Highlights,
		TeacherComments: req.TeacherComments,
		ActionItems:     req.ActionItems,
	}
	if err := s.weeks.UpdateCommentary(ctx, id, commentary); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "weekly progress not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update commentary")
	}
	week, err := s.weeks.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "weekly progress not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weekly progress")
	}
	s.cache.Invalidate(ctx, weeklyCachePrefix(week.StudentID))
	return week, nil
}

func weeklyCachePrefix(studentID string) string {
	return fmt.Sprintf("weekly:%s:*", studentID)
}

// isoWeekRange returns the Monday and Sunday bounding the given ISO week.
func isoWeekRange(year, week int) (time.Time, time.Time) {
	// January 4th always falls in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	monday := jan4.AddDate(0, 0, -((int(jan4.Weekday()) + 6) % 7))
	start := monday.AddDate(0, 0, (week-1)*7)
	return start, start.AddDate(0, 0, 6)
}
