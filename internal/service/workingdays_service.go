package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sis-progress-api/internal/models"
	appErrors "github.com/noah-isme/sis-progress-api/pkg/errors"
)

const activeConfigCacheKey = "calendar:active-config"

const dayFormat = "2006-01-02"

type calendarRepository interface {
	GetActiveConfig(ctx context.Context) (*models.AcademicConfig, error)
	ListHolidaysInRange(ctx context.Context, start, end time.Time) ([]models.Holiday, error)
}

// WorkingDaysService counts non-weekend, non-holiday days in a date range.
// The active academic configuration is looked up cache-aside with a TTL.
type WorkingDaysService struct {
	repo           calendarRepository
	cache          *CacheService
	configCacheTTL time.Duration
	defaultWeekend []string
	logger         *zap.Logger
}

// NewWorkingDaysService constructs the service. defaultWeekend names weekdays
// (e.g. "Saturday") used when no active configuration exists.
func NewWorkingDaysService(repo calendarRepository, cache *CacheService, configCacheTTL time.Duration, defaultWeekend []string, logger *zap.Logger) *WorkingDaysService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(defaultWeekend) == 0 {
		defaultWeekend = []string{time.Saturday.String(), time.Sunday.String()}
	}
	return &WorkingDaysService{
		repo:           repo,
		cache:          cache,
		configCacheTTL: configCacheTTL,
		defaultWeekend: defaultWeekend,
		logger:         logger,
	}
}

// CountWorkingDays returns the number of working days in [start, end],
// inclusive on both ends.
func (s *WorkingDaysService) CountWorkingDays(ctx context.Context, start, end time.Time) (int, error) {
	startDay := truncateDay(start)
	endDay := truncateDay(end)
	if endDay.Before(startDay) {
		return 0, nil
	}

	weekend, err := s.weekendSet(ctx)
	if err != nil {
		return 0, err
	}

	holidays, err := s.repo.ListHolidaysInRange(ctx, startDay, endDay)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holidays")
	}
	holidayDays := map[string]struct{}{}
	for _, holiday := range holidays {
		for day := truncateDay(holiday.StartDate); !day.After(truncateDay(holiday.EndDate)); day = day.AddDate(0, 0, 1) {
			holidayDays[day.Format(dayFormat)] = struct{}{}
		}
	}

	count := 0
	for day := startDay; !day.After(endDay); day = day.AddDate(0, 0, 1) {
		if _, off := weekend[day.Weekday()]; off {
			continue
		}
		if _, off := holidayDays[day.Format(dayFormat)]; off {
			continue
		}
		count++
	}
	return count, nil
}

func (s *WorkingDaysService) weekendSet(ctx context.Context) (map[time.Weekday]struct{}, error) {
	var cfg models.AcademicConfig
	if s.cache.Get(ctx, activeConfigCacheKey, &cfg) {
		return cfg.WeekendSet(), nil
	}

	loaded, err := s.repo.GetActiveConfig(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("no active academic config, using default weekend days")
			return weekdaysFromNames(s.defaultWeekend), nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic config")
	}

	s.cache.Set(ctx, activeConfigCacheKey, loaded, s.configCacheTTL)
	return loaded.WeekendSet(), nil
}

func weekdaysFromNames(names []string) map[time.Weekday]struct{} {
	set := make(map[time.Weekday]struct{}, len(names))
	for _, name := range names {
		for wd := time.Sunday; wd <= time.Saturday; wd++ {
			if wd.String() == name {
				set[wd] = struct{}{}
			}
		}
	}
	return set
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
