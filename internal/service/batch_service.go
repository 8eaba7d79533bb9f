package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sis-progress-api/internal/models"
	appErrors "github.com/noah-isme/sis-progress-api/pkg/errors"
)

type snapshotRecalculator interface {
	Recalculate(ctx context.Context, studentID string) (*models.StudentProgressSnapshot, error)
}

// BatchServiceConfig tunes batch sizing and inter-batch pauses.
type BatchServiceConfig struct {
	DueBatchSize  int
	DuePause      time.Duration
	DueLimit      int
	FullBatchSize int
	FullPause     time.Duration
}

// BatchService runs snapshot recomputation over student populations. One
// failing student never aborts a run; failures are counted and logged.
type BatchService struct {
	recalc    snapshotRecalculator
	snapshots snapshotRepository
	students  studentRepository
	metrics   *MetricsService
	cfg       BatchServiceConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewBatchService constructs the batch scheduler.
func NewBatchService(
	recalc snapshotRecalculator,
	snapshots snapshotRepository,
	students studentRepository,
	metrics *MetricsService,
	cfg BatchServiceConfig,
	logger *zap.Logger,
) *BatchService {
	if cfg.DueBatchSize <= 0 {
		cfg.DueBatchSize = 20
	}
	if cfg.FullBatchSize <= 0 {
		cfg.FullBatchSize = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchService{
		recalc:    recalc,
		snapshots: snapshots,
		students:  students,
		metrics:   metrics,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// RunDue recalculates students whose snapshots have passed their due time.
func (s *BatchService) RunDue(ctx context.Context) (models.BatchResult, error) {
	ids, err := s.snapshots.ListDueStudentIDs(ctx, s.now(), s.cfg.DueLimit)
	if err != nil {
		return models.BatchResult{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to select due students")
	}
	return s.run(ctx, "due", ids, s.cfg.DueBatchSize, s.cfg.DuePause), nil
}

// RunFull recalculates every active eligible student.
func (s *BatchService) RunFull(ctx context.Context) (models.BatchResult, error) {
	ids, err := s.students.ListActiveIDs(ctx)
	if err != nil {
		return models.BatchResult{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to select active students")
	}
	return s.run(ctx, "full", ids, s.cfg.FullBatchSize, s.cfg.FullPause), nil
}

// RunForClassroom recalculates one classroom's students in a single pass.
func (s *BatchService) RunForClassroom(ctx context.Context, classroomID string) (models.BatchResult, error) {
	ids, err := s.students.ListClassroomStudentIDs(ctx, classroomID)
	if err != nil {
		return models.BatchResult{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to select classroom students")
	}
	return s.run(ctx, "classroom", ids, len(ids), 0), nil
}

func (s *BatchService) run(ctx context.Context, kind string, ids []string, batchSize int, pause time.Duration) models.BatchResult {
	start := time.Now()
	result := models.BatchResult{Total: len(ids)}

	var mu sync.Mutex
	for offset := 0; offset < len(ids); offset += batchSize {
		if offset > 0 && pause > 0 {
			if !sleepCtx(ctx, pause) {
				break
			}
		}
		end := offset + batchSize
		if end > len(ids) {
			end = len(ids)
		}

		var wg sync.WaitGroup
		for _, id := range ids[offset:end] {
			wg.Add(1)
			go func(studentID string) {
				defer wg.Done()
				if _, err := s.recalc.Recalculate(ctx, studentID); err != nil {
					s.logger.Warn("snapshot recalculation failed",
						zap.String("kind", kind),
						zap.String("student_id", studentID),
						zap.Error(err))
					mu.Lock()
					result.Errors++
					mu.Unlock()
					return
				}
				mu.Lock()
				result.Processed++
				mu.Unlock()
			}(id)
		}
		wg.Wait()
	}

	duration := time.Since(start)
	if s.metrics != nil {
		s.metrics.ObserveBatchRun(kind, result.Processed, result.Errors, duration)
	}
	s.logger.Info("batch run finished",
		zap.String("kind", kind),
		zap.Int("total", result.Total),
		zap.Int("processed", result.Processed),
		zap.Int("errors", result.Errors),
		zap.Duration("duration", duration))
	return result
}

// sleepCtx pauses between batches, returning false when the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
