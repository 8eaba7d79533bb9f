package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// RiskLevel is the ordinal risk classification of a student snapshot.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Trend classifies a subject's recent understanding against its older history.
type Trend string

const (
	TrendUp     Trend = "UP"
	TrendDown   Trend = "DOWN"
	TrendStable Trend = "STABLE"
)

// SubjectPerformance is the per-subject rollup embedded in a snapshot. It is
// derived fresh on every recompute and never persisted independently.
type SubjectPerformance struct {
	SubjectID        string  `json:"subject_id"`
	Percentage       float64 `json:"percentage"`
	AvgUnderstanding float64 `json:"avg_understanding"`
	Trend            Trend   `json:"trend"`
}

// SubjectPerformanceList is a JSONB-embedded list of subject rollups.
type SubjectPerformanceList []SubjectPerformance

// Scan implements sql.Scanner for JSONB columns.
func (l *SubjectPerformanceList) Scan(src interface{}) error { return scanJSON(src, l) }

// Value implements driver.Valuer for JSONB columns.
func (l SubjectPerformanceList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

// StudentProgressSnapshot is the rolling risk-scored profile, one per student.
// It is created on first recompute and mutated only by pipeline upserts.
type StudentProgressSnapshot struct {
	StudentID string `db:"student_id" json:"student_id"`

	TotalDaysPresent      int     `db:"total_days_present" json:"total_days_present"`
	TotalDaysAbsent       int     `db:"total_days_absent" json:"total_days_absent"`
	TotalWorkingDays      int     `db:"total_working_days" json:"total_working_days"`
	OverallAttendanceRate float64 `db:"overall_attendance_rate" json:"overall_attendance_rate"`

	CurrentAttendanceStreak int `db:"current_attendance_streak" json:"current_attendance_streak"`
	LongestAttendanceStreak int `db:"longest_attendance_streak" json:"longest_attendance_streak"`
	CurrentHomeworkStreak   int `db:"current_homework_streak" json:"current_homework_streak"`

	HomeworkAssignedTotal         int     `db:"homework_assigned_total" json:"homework_assigned_total"`
	HomeworkCompletedTotal        int     `db:"homework_completed_total" json:"homework_completed_total"`
	OverallHomeworkCompletionRate float64 `db:"overall_homework_completion_rate" json:"overall_homework_completion_rate"`
	AvgHomeworkQuality            float64 `db:"avg_homework_quality" json:"avg_homework_quality"`

	AvgBehaviorRating     float64 `db:"avg_behavior_rating" json:"avg_behavior_rating"`
	AvgParticipation      float64 `db:"avg_participation" json:"avg_participation"`
	AvgDiscipline         float64 `db:"avg_discipline" json:"avg_discipline"`
	UniformComplianceRate float64 `db:"uniform_compliance_rate" json:"uniform_compliance_rate"`

	AvgSkills SkillsAverages `db:"avg_skills" json:"avg_skills"`

	SubjectPerformance SubjectPerformanceList `db:"subject_performance" json:"subject_performance"`
	StrongestSubjects  pq.StringArray         `db:"strongest_subjects" json:"strongest_subjects"`
	WeakestSubjects    pq.StringArray         `db:"weakest_subjects" json:"weakest_subjects"`
	ImprovingSubjects  pq.StringArray         `db:"improving_subjects" json:"improving_subjects"`
	DecliningSubjects  pq.StringArray         `db:"declining_subjects" json:"declining_subjects"`

	RiskLevel            RiskLevel      `db:"risk_level" json:"risk_level"`
	NeedsAttention       bool           `db:"needs_attention" json:"needs_attention"`
	AttentionReasons     pq.StringArray `db:"attention_reasons" json:"attention_reasons"`
	InterventionRequired bool           `db:"intervention_required" json:"intervention_required"`
	FlaggedSubjects      pq.StringArray `db:"flagged_subjects" json:"flagged_subjects"`

	LastCalculatedAt   time.Time `db:"last_calculated_at" json:"last_calculated_at"`
	NextCalculationDue time.Time `db:"next_calculation_due" json:"next_calculation_due"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
