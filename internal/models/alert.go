package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// NotificationType enumerates supported notification kinds.
type NotificationType string

// NotificationTypeRiskAlert flags a student requiring intervention.
const NotificationTypeRiskAlert NotificationType = "RISK_ALERT"

// RiskAlert is the payload emitted when a snapshot requires intervention.
type RiskAlert struct {
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"student_name"`
	RiskLevel   RiskLevel `json:"risk_level"`
	Reasons     []string  `json:"reasons"`
	TeacherID   *string   `json:"teacher_id,omitempty"`
	ClassRoomID *string   `json:"classroom_id,omitempty"`
}

// Scan implements sql.Scanner for JSONB columns.
func (a *RiskAlert) Scan(src interface{}) error { return scanJSON(src, a) }

// Value implements driver.Valuer for JSONB columns.
func (a RiskAlert) Value() (driver.Value, error) { return json.Marshal(a) }

// Notification is a persisted notification row. The pipeline only writes
// RISK_ALERT rows and reads them back for the 24h emission guard.
type Notification struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"student_id"`
	Type      NotificationType `db:"type" json:"type"`
	Title     string           `db:"title" json:"title"`
	Payload   RiskAlert        `db:"payload" json:"payload"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}
