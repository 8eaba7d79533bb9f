package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sis-progress-api/internal/models"
)

// AlertRepository persists risk-alert notifications and answers the
// recent-alert guard query.
type AlertRepository struct {
	db *sqlx.DB
}

// NewAlertRepository constructs an alert repository.
func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// HasRecentRiskAlert reports whether a RISK_ALERT exists for the student since
// the given cutoff.
func (r *AlertRepository) HasRecentRiskAlert(ctx context.Context, studentID string, since time.Time) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM notifications
WHERE student_id = $1 AND type = $2 AND created_at >= $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, studentID, models.NotificationTypeRiskAlert, since); err != nil {
		return false, fmt.Errorf("check recent risk alert: %w", err)
	}
	return exists, nil
}

// Create inserts a notification row.
func (r *AlertRepository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, student_id, type, title, payload, created_at)
VALUES (:id, :student_id, :type, :title, :payload, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, notification); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}
