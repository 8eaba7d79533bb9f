package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sis-progress-api/internal/models"
	"github.com/noah-isme/sis-progress-api/pkg/jobs"
)

type alertRepository interface {
	HasRecentRiskAlert(ctx context.Context, studentID string, since time.Time) (bool, error)
	Create(ctx context.Context, notification *models.Notification) error
}

// AlertService records risk alerts and hands delivery to a background queue.
// Delivery transport is external; the pipeline only fires and forgets.
type AlertService struct {
	repo        alertRepository
	queue       *jobs.Queue
	metrics     *MetricsService
	guardWindow time.Duration
	logger      *zap.Logger
}

// NewAlertService constructs the service and its dispatch queue.
func NewAlertService(repo alertRepository, metrics *MetricsService, guardWindow time.Duration, workers int, logger *zap.Logger) *AlertService {
	if guardWindow <= 0 {
		guardWindow = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AlertService{
		repo:        repo,
		metrics:     metrics,
		guardWindow: guardWindow,
		logger:      logger,
	}
	svc.queue = jobs.NewQueue("risk-alerts", svc.dispatch, jobs.QueueConfig{
		Workers: workers,
		Logger:  logger,
	})
	return svc
}

// Start launches the dispatch workers.
func (s *AlertService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the dispatch workers.
func (s *AlertService) Stop() {
	s.queue.Stop()
}

// RecentlyAlerted reports whether a risk alert was created for the student
// within the guard window.
func (s *AlertService) RecentlyAlerted(ctx context.Context, studentID string, now time.Time) (bool, error) {
	return s.repo.HasRecentRiskAlert(ctx, studentID, now.Add(-s.guardWindow))
}

// EmitRiskAlert persists the alert and enqueues delivery.
func (s *AlertService) EmitRiskAlert(ctx context.Context, alert models.RiskAlert) error {
	notification := &models.Notification{
		StudentID: alert.StudentID,
		Type:      models.NotificationTypeRiskAlert,
		Title:     fmt.Sprintf("Student at %s risk", alert.RiskLevel),
		Payload:   alert,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return fmt.Errorf("persist risk alert: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordAlertEmitted()
	}

	if err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: string(models.NotificationTypeRiskAlert), Payload: alert}); err != nil {
		// Delivery is best effort; the persisted row still guards re-emission.
		s.logger.Warn("risk alert enqueue failed", zap.String("student_id", alert.StudentID), zap.Error(err))
	}
	return nil
}

func (s *AlertService) dispatch(_ context.Context, job jobs.Job) error {
	alert, ok := job.Payload.(models.RiskAlert)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}
	// Actual delivery (push, email, in-app) lives in the notification
	// service; this side only records the hand-off.
	s.logger.Info("risk alert dispatched",
		zap.String("student_id", alert.StudentID),
		zap.String("risk_level", string(alert.RiskLevel)),
		zap.Strings("reasons", alert.Reasons),
	)
	return nil
}
