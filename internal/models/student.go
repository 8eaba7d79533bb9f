package models

import "time"

// StudentType narrows which students participate in the progress pipeline.
type StudentType string

const (
	StudentTypeRegular  StudentType = "REGULAR"
	StudentTypeBoarding StudentType = "BOARDING"
	StudentTypeAlumni   StudentType = "ALUMNI"
)

// Eligible reports whether the type participates in progress tracking.
func (t StudentType) Eligible() bool {
	switch t {
	case StudentTypeRegular, StudentTypeBoarding:
		return true
	default:
		return false
	}
}

// EnrollmentStatus values mirror the enrollment table.
type EnrollmentStatus string

const (
	EnrollmentStatusActive      EnrollmentStatus = "ACTIVE"
	EnrollmentStatusTransferred EnrollmentStatus = "TRANSFERRED"
	EnrollmentStatusGraduated   EnrollmentStatus = "GRADUATED"
)

// Student represents a student row.
type Student struct {
	ID        string      `db:"id" json:"id"`
	FullName  string      `db:"full_name" json:"full_name"`
	Type      StudentType `db:"type" json:"type"`
	Active    bool        `db:"active" json:"active"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}

// StudentDetail extends a student with its current enrollment context.
type StudentDetail struct {
	Student
	ClassRoomID *string `db:"classroom_id" json:"classroom_id,omitempty"`
	TeacherID   *string `db:"teacher_id" json:"teacher_id,omitempty"`
}
