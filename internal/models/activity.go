package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AttendanceStatus represents the status recorded for one school day.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
	AttendanceLate    AttendanceStatus = "LATE"
	AttendanceHalfDay AttendanceStatus = "HALF_DAY"
	AttendanceExcused AttendanceStatus = "EXCUSED"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceHalfDay, AttendanceExcused:
		return true
	default:
		return false
	}
}

// CountsAsPresent reports whether the day contributes to days-present totals.
func (s AttendanceStatus) CountsAsPresent() bool {
	switch s {
	case AttendancePresent, AttendanceLate, AttendanceHalfDay:
		return true
	default:
		return false
	}
}

// CompletionStatus classifies homework and classwork items.
type CompletionStatus string

const (
	CompletionComplete   CompletionStatus = "COMPLETE"
	CompletionPartial    CompletionStatus = "PARTIAL"
	CompletionIncomplete CompletionStatus = "INCOMPLETE"
)

// SubjectStudyEntry captures one subject studied during a day. A zero
// UnderstandingLevel means the teacher did not record one.
type SubjectStudyEntry struct {
	SubjectID          string   `json:"subject_id"`
	TopicsCovered      []string `json:"topics_covered,omitempty"`
	UnderstandingLevel float64  `json:"understanding_level,omitempty"`
}

// SubjectStudyList is a JSONB-embedded list of subject study entries.
type SubjectStudyList []SubjectStudyEntry

// WorkItem captures one homework or classwork item. Quality is 1-5 and 0 when
// not graded.
type WorkItem struct {
	SubjectID        string           `json:"subject_id,omitempty"`
	CompletionStatus CompletionStatus `json:"completion_status,omitempty"`
	Quality          float64          `json:"quality,omitempty"`
}

// WorkItemList is a JSONB-embedded list of work items.
type WorkItemList []WorkItem

// AssessmentItem captures a single assessment taken during a day.
type AssessmentItem struct {
	SubjectID     string  `json:"subject_id"`
	Type          string  `json:"type,omitempty"`
	MarksObtained float64 `json:"marks_obtained"`
	TotalMarks    float64 `json:"total_marks"`
}

// AssessmentList is a JSONB-embedded list of assessments.
type AssessmentList []AssessmentItem

// SkillsSnapshot carries per-skill levels (1-5). Nil values were not assessed
// that day and are excluded from averages rather than counted as zero.
type SkillsSnapshot struct {
	Reading          *float64 `json:"reading,omitempty"`
	Writing          *float64 `json:"writing,omitempty"`
	Listening        *float64 `json:"listening,omitempty"`
	Speaking         *float64 `json:"speaking,omitempty"`
	CriticalThinking *float64 `json:"critical_thinking,omitempty"`
}

// SkillsAverages carries averaged skill levels.
type SkillsAverages struct {
	Reading          float64 `json:"reading"`
	Writing          float64 `json:"writing"`
	Listening        float64 `json:"listening"`
	Speaking         float64 `json:"speaking"`
	CriticalThinking float64 `json:"critical_thinking"`
}

// DailyActivityRecord is the read-only daily input to the progress pipeline.
// At most one record exists per (student, day).
type DailyActivityRecord struct {
	ID                 string           `db:"id" json:"id"`
	StudentID          string           `db:"student_id" json:"student_id"`
	Date               time.Time        `db:"date" json:"date"`
	Status             AttendanceStatus `db:"status" json:"status"`
	ArrivedOnTime      bool             `db:"arrived_on_time" json:"arrived_on_time"`
	SubjectsStudied    SubjectStudyList `db:"subjects_studied" json:"subjects_studied,omitempty"`
	HomeworkAssigned   WorkItemList     `db:"homework_assigned" json:"homework_assigned,omitempty"`
	HomeworkCompleted  WorkItemList     `db:"homework_completed" json:"homework_completed,omitempty"`
	ClassworkCompleted WorkItemList     `db:"classwork_completed" json:"classwork_completed,omitempty"`
	AssessmentsTaken   AssessmentList   `db:"assessments_taken" json:"assessments_taken,omitempty"`
	BehaviorRating     float64          `db:"behavior_rating" json:"behavior_rating,omitempty"`
	ParticipationLevel float64          `db:"participation_level" json:"participation_level,omitempty"`
	DisciplineScore    float64          `db:"discipline_score" json:"discipline_score,omitempty"`
	UniformCompliance  bool             `db:"uniform_compliance" json:"uniform_compliance"`
	Skills             *SkillsSnapshot  `db:"skills" json:"skills,omitempty"`
	CreatedAt          time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time        `db:"updated_at" json:"updated_at"`
}

func scanJSON(src, dest interface{}) error {
	if src == nil {
		return nil
	}
	switch data := src.(type) {
	case []byte:
		return json.Unmarshal(data, dest)
	case string:
		return json.Unmarshal([]byte(data), dest)
	default:
		return fmt.Errorf("unsupported JSONB source type %T", src)
	}
}

// Scan implements sql.Scanner for JSONB columns.
func (l *SubjectStudyList) Scan(src interface{}) error { return scanJSON(src, l) }

// Value implements driver.Valuer for JSONB columns.
func (l SubjectStudyList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for JSONB columns.
func (l *WorkItemList) Scan(src interface{}) error { return scanJSON(src, l) }

// Value implements driver.Valuer for JSONB columns.
func (l WorkItemList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for JSONB columns.
func (l *AssessmentList) Scan(src interface{}) error { return scanJSON(src, l) }

// Value implements driver.Valuer for JSONB columns.
func (l AssessmentList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for JSONB columns.
func (s *SkillsSnapshot) Scan(src interface{}) error { return scanJSON(src, s) }

// Value implements driver.Valuer for JSONB columns.
func (s SkillsSnapshot) Value() (driver.Value, error) { return json.Marshal(s) }

// Scan implements sql.Scanner for JSONB columns.
func (s *SkillsAverages) Scan(src interface{}) error { return scanJSON(src, s) }

// Value implements driver.Valuer for JSONB columns.
func (s SkillsAverages) Value() (driver.Value, error) { return json.Marshal(s) }
