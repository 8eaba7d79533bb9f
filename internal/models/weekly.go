package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// WeeklySubjectEntry aggregates one subject over a single ISO week.
// AssessmentPercentage is nil when the subject had no assessment that week.
type WeeklySubjectEntry struct {
	SubjectID            string  `json:"subject_id"`
	TopicsCompleted      int     `json:"topics_completed"`
	AvgUnderstanding     float64 `json:"avg_understanding"`
	AssessmentPercentage *int    `json:"assessment_percentage,omitempty"`
}

// WeeklySubjectList is a JSONB-embedded list of weekly subject aggregates.
type WeeklySubjectList []WeeklySubjectEntry

// Scan implements sql.Scanner for JSONB columns.
func (l *WeeklySubjectList) Scan(src interface{}) error { return scanJSON(src, l) }

// Value implements driver.Valuer for JSONB columns.
func (l WeeklySubjectList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// WeeklyProgress is the derived weekly aggregate for one (student, week, year).
// Numeric fields are owned by the pipeline and replaced on every recompute;
// the commentary fields persist across recomputation.
type WeeklyProgress struct {
	ID         string `db:"id" json:"id"`
	StudentID  string `db:"student_id" json:"student_id"`
	WeekNumber int    `db:"week_number" json:"week_number"`
	Year       int    `db:"year" json:"year"`

	WorkingDays           int     `db:"working_days" json:"working_days"`
	DaysPresent           int     `db:"days_present" json:"days_present"`
	DaysAbsent            int     `db:"days_absent" json:"days_absent"`
	DaysLate              int     `db:"days_late" json:"days_late"`
	DaysHalf              int     `db:"days_half" json:"days_half"`
	DaysExcused           int     `db:"days_excused" json:"days_excused"`
	TotalDaysPresent      int     `db:"total_days_present" json:"total_days_present"`
	AttendancePercentage  float64 `db:"attendance_percentage" json:"attendance_percentage"`
	PunctualityPercentage float64 `db:"punctuality_percentage" json:"punctuality_percentage"`

	SubjectPerformance WeeklySubjectList `db:"subject_performance" json:"subject_performance"`

	HomeworkAssignedCount  int     `db:"homework_assigned_count" json:"homework_assigned_count"`
	HomeworkCompletedCount int     `db:"homework_completed_count" json:"homework_completed_count"`
	HomeworkCompletionRate float64 `db:"homework_completion_rate" json:"homework_completion_rate"`
	HomeworkQualityAvg     float64 `db:"homework_quality_avg" json:"homework_quality_avg"`
	ClassworkCompletedCount int    `db:"classwork_completed_count" json:"classwork_completed_count"`
	ClassworkQualityAvg    float64 `db:"classwork_quality_avg" json:"classwork_quality_avg"`

	AssessmentCount         int     `db:"assessment_count" json:"assessment_count"`
	AssessmentTotalScore    float64 `db:"assessment_total_score" json:"assessment_total_score"`
	AssessmentTotalOutOf    float64 `db:"assessment_total_out_of" json:"assessment_total_out_of"`
	AvgAssessmentPercentage float64 `db:"avg_assessment_percentage" json:"avg_assessment_percentage"`

	AvgBehaviorRating     float64 `db:"avg_behavior_rating" json:"avg_behavior_rating"`
	AvgParticipation      float64 `db:"avg_participation" json:"avg_participation"`
	AvgDiscipline         float64 `db:"avg_discipline" json:"avg_discipline"`
	UniformComplianceRate float64 `db:"uniform_compliance_rate" json:"uniform_compliance_rate"`

	AvgSkills SkillsAverages `db:"avg_skills" json:"avg_skills"`

	StrengthSubjects pq.StringArray `db:"strength_subjects" json:"strength_subjects"`
	WeakSubjects     pq.StringArray `db:"weak_subjects" json:"weak_subjects"`

	Highlights      *string `db:"highlights" json:"highlights,omitempty"`
	TeacherComments *string `db:"teacher_comments" json:"teacher_comments,omitempty"`
	ActionItems     *string `db:"action_items" json:"action_items,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// WeeklyCommentary carries the teacher-editable free-text fields.
type WeeklyCommentary struct {
	Highlights      *string `json:"highlights,omitempty"`
	TeacherComments *string `json:"teacher_comments,omitempty"`
	ActionItems     *string `json:"action_items,omitempty"`
}
