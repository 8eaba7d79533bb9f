package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/sis-progress-api/internal/models"
)

// Thresholds for snapshot-level classification. The weak-understanding cutoff
// here (2.5) is intentionally different from the weekly one (3.0).
const (
	attendanceCriticalThreshold = 60.0
	attendanceLowThreshold      = 75.0
	homeworkLowThreshold        = 50.0
	behaviorPoorThreshold       = 2.0
	snapshotStrengthThreshold   = 4.0
	snapshotWeakThreshold       = 2.5

	trendDelta        = 0.3
	trendRecentWindow = 3
)

// Attention reason messages surfaced on flagged snapshots.
const (
	reasonCriticalAttendance = "Critically low attendance"
	reasonLowAttendance      = "Low attendance"
	reasonLowHomework        = "Low homework completion"
	reasonPoorBehavior       = "Poor behavior ratings"
	reasonRecentAbsence      = "Recent absence"
)

// SnapshotInputs bundles everything BuildSnapshot consumes. Weeklies hold the
// most recent aggregates (any order; sorted internally), Dailies the trailing
// 30-day record window, Previous the stored snapshot or nil on first compute.
type SnapshotInputs struct {
	Weeklies       []models.WeeklyProgress
	Dailies        []models.DailyActivityRecord
	Previous       *models.StudentProgressSnapshot
	Now            time.Time
	RecalcInterval time.Duration
}

// BuildSnapshot derives a fresh risk-scored snapshot from weekly history and
// the recent daily window. Pure: no I/O, deterministic for a fixed Now.
func BuildSnapshot(studentID string, in SnapshotInputs) models.StudentProgressSnapshot {
	weeklies := make([]models.WeeklyProgress, len(in.Weeklies))
	copy(weeklies, in.Weeklies)
	sort.SliceStable(weeklies, func(i, j int) bool {
		if weeklies[i].Year != weeklies[j].Year {
			return weeklies[i].Year > weeklies[j].Year
		}
		return weeklies[i].WeekNumber > weeklies[j].WeekNumber
	})

	dailies := make([]models.DailyActivityRecord, len(in.Dailies))
	copy(dailies, in.Dailies)
	sort.SliceStable(dailies, func(i, j int) bool {
		return dailies[i].Date.After(dailies[j].Date)
	})

	interval := in.RecalcInterval
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	snapshot := models.StudentProgressSnapshot{
		StudentID:          studentID,
		AvgSkills:          models.SkillsAverages{},
		SubjectPerformance: models.SubjectPerformanceList{},
		StrongestSubjects:  []string{},
		WeakestSubjects:    []string{},
		ImprovingSubjects:  []string{},
		DecliningSubjects:  []string{},
		AttentionReasons:   []string{},
		FlaggedSubjects:    []string{},
		LastCalculatedAt:   in.Now,
		NextCalculationDue: in.Now.Add(interval),
	}
	if in.Previous != nil {
		snapshot.CreatedAt = in.Previous.CreatedAt
	}

	for _, week := range weeklies {
		snapshot.TotalDaysPresent += week.TotalDaysPresent
		snapshot.TotalDaysAbsent += week.DaysAbsent
		snapshot.TotalWorkingDays += week.WorkingDays
		snapshot.HomeworkAssignedTotal += week.HomeworkAssignedCount
		snapshot.HomeworkCompletedTotal += week.HomeworkCompletedCount
	}
	snapshot.OverallAttendanceRate = safeRate(float64(snapshot.TotalDaysPresent), float64(snapshot.TotalWorkingDays))
	snapshot.OverallHomeworkCompletionRate = safeRate(float64(snapshot.HomeworkCompletedTotal), float64(snapshot.HomeworkAssignedTotal))
	snapshot.AvgHomeworkQuality = round2(weeklyFieldAverage(weeklies, func(w models.WeeklyProgress) float64 { return w.HomeworkQualityAvg }))
	snapshot.AvgBehaviorRating = round2(weeklyFieldAverage(weeklies, func(w models.WeeklyProgress) float64 { return w.AvgBehaviorRating }))
	snapshot.AvgParticipation = round2(weeklyFieldAverage(weeklies, func(w models.WeeklyProgress) float64 { return w.AvgParticipation }))
	snapshot.AvgDiscipline = round2(weeklyFieldAverage(weeklies, func(w models.WeeklyProgress) float64 { return w.AvgDiscipline }))
	snapshot.UniformComplianceRate = round2(weeklyFieldAverage(weeklies, func(w models.WeeklyProgress) float64 { return w.UniformComplianceRate }))
	snapshot.AvgSkills = models.SkillsAverages{
		Reading:          round2(weeklyFieldAverage(weeklies, func(w models.WeeklyProgress) float64 { return w.AvgSkills.Reading })),
		Writing:          round2(weeklyFieldAverage(weeklies, func(w models.WeeklyProgress) float64 { return w.AvgSkills.Writing })),
		Listening:        round2(weeklyFieldAverage(weeklies, func(w models.WeeklyProgress) float64 { return w.AvgSkills.Listening })),
		Speaking:         round2(weeklyFieldAverage(weeklies, func(w models.WeeklyProgress) float64 { return w.AvgSkills.Speaking })),
		CriticalThinking: round2(weeklyFieldAverage(weeklies, func(w models.WeeklyProgress) float64 { return w.AvgSkills.CriticalThinking })),
	}

	snapshot.CurrentAttendanceStreak = attendanceStreak(dailies)
	snapshot.CurrentHomeworkStreak = homeworkStreak(dailies)
	snapshot.LongestAttendanceStreak = snapshot.CurrentAttendanceStreak
	if in.Previous != nil && in.Previous.LongestAttendanceStreak > snapshot.LongestAttendanceStreak {
		// Running maximum seeded from the stored value, not a full-history scan.
		snapshot.LongestAttendanceStreak = in.Previous.LongestAttendanceStreak
	}

	classifySubjects(&snapshot, weeklies)
	assessRisk(&snapshot, len(dailies) > 0)

	return snapshot
}

// weeklyFieldAverage averages a weekly field over the weeks that actually
// carry a value; zero-filled weeks are excluded rather than diluting.
func weeklyFieldAverage(weeklies []models.WeeklyProgress, pick func(models.WeeklyProgress) float64) float64 {
	var values []float64
	for _, week := range weeklies {
		if v := pick(week); v > 0 {
			values = append(values, v)
		}
	}
	return mean(values)
}

// attendanceStreak counts consecutive most-recent days attended (PRESENT or
// LATE), breaking at the first day that is neither.
func attendanceStreak(dailies []models.DailyActivityRecord) int {
	streak := 0
	for _, rec := range dailies {
		if rec.Status != models.AttendancePresent && rec.Status != models.AttendanceLate {
			break
		}
		streak++
	}
	return streak
}

// homeworkStreak counts consecutive most-recent days where homework was
// turned in and every item was COMPLETE.
func homeworkStreak(dailies []models.DailyActivityRecord) int {
	streak := 0
	for _, rec := range dailies {
		if len(rec.HomeworkCompleted) == 0 {
			break
		}
		allComplete := true
		for _, item := range rec.HomeworkCompleted {
			if item.CompletionStatus != models.CompletionComplete {
				allComplete = false
				break
			}
		}
		if !allComplete {
			break
		}
		streak++
	}
	return streak
}

type snapshotSubjectAccumulator struct {
	understandings []float64 // in week order, oldest first
	assessments    []float64 // in week order, oldest first
}

func classifySubjects(snapshot *models.StudentProgressSnapshot, weeklies []models.WeeklyProgress) {
	subjects := map[string]*snapshotSubjectAccumulator{}
	var order []string

	// Walk oldest week first so trend windows line up with chronology.
	for i := len(weeklies) - 1; i >= 0; i-- {
		for _, entry := range weeklies[i].SubjectPerformance {
			acc, ok := subjects[entry.SubjectID]
			if !ok {
				acc = &snapshotSubjectAccumulator{}
				subjects[entry.SubjectID] = acc
				order = append(order, entry.SubjectID)
			}
			if entry.AvgUnderstanding > 0 {
				acc.understandings = append(acc.understandings, entry.AvgUnderstanding)
			}
			if entry.AssessmentPercentage != nil {
				acc.assessments = append(acc.assessments, float64(*entry.AssessmentPercentage))
			}
		}
	}

	for _, subjectID := range order {
		acc := subjects[subjectID]
		performance := models.SubjectPerformance{
			SubjectID:        subjectID,
			Percentage:       round2(mean(acc.assessments)),
			AvgUnderstanding: round2(mean(acc.understandings)),
			Trend:            understandingTrend(acc.understandings),
		}
		snapshot.SubjectPerformance = append(snapshot.SubjectPerformance, performance)

		switch {
		case performance.AvgUnderstanding >= snapshotStrengthThreshold:
			snapshot.StrongestSubjects = append(snapshot.StrongestSubjects, subjectID)
		case performance.AvgUnderstanding > 0 && performance.AvgUnderstanding < snapshotWeakThreshold:
			snapshot.WeakestSubjects = append(snapshot.WeakestSubjects, subjectID)
		}
		switch performance.Trend {
		case models.TrendUp:
			snapshot.ImprovingSubjects = append(snapshot.ImprovingSubjects, subjectID)
		case models.TrendDown:
			snapshot.DecliningSubjects = append(snapshot.DecliningSubjects, subjectID)
		}
	}
}

// understandingTrend compares the mean of the last three values against the
// mean of everything before them. Fewer than two samples, or no older window
// to compare against, reads as STABLE.
func understandingTrend(values []float64) models.Trend {
	if len(values) < 2 {
		return models.TrendStable
	}
	split := len(values) - trendRecentWindow
	if split <= 0 {
		return models.TrendStable
	}
	recent := mean(values[split:])
	older := mean(values[:split])
	switch {
	case recent-older > trendDelta:
		return models.TrendUp
	case older-recent > trendDelta:
		return models.TrendDown
	default:
		return models.TrendStable
	}
}

func assessRisk(snapshot *models.StudentProgressSnapshot, hasDailyRecords bool) {
	reasons := []string{}

	attendance := snapshot.OverallAttendanceRate
	switch {
	case attendance < attendanceCriticalThreshold:
		reasons = append(reasons, reasonCriticalAttendance)
	case attendance < attendanceLowThreshold:
		reasons = append(reasons, reasonLowAttendance)
	}
	if snapshot.OverallHomeworkCompletionRate < homeworkLowThreshold {
		reasons = append(reasons, reasonLowHomework)
	}
	if snapshot.AvgBehaviorRating > 0 && snapshot.AvgBehaviorRating < behaviorPoorThreshold {
		reasons = append(reasons, reasonPoorBehavior)
	}
	if hasDailyRecords && snapshot.CurrentAttendanceStreak == 0 {
		reasons = append(reasons, reasonRecentAbsence)
	}
	if n := len(snapshot.WeakestSubjects); n > 0 {
		reasons = append(reasons, fmt.Sprintf("%d subject(s) with weak understanding", n))
		snapshot.FlaggedSubjects = append([]string{}, snapshot.WeakestSubjects...)
	}

	switch {
	case len(reasons) >= 3 || attendance < attendanceCriticalThreshold:
		snapshot.RiskLevel = models.RiskCritical
	case len(reasons) == 2 || attendance < attendanceLowThreshold:
		snapshot.RiskLevel = models.RiskHigh
	case len(reasons) == 1:
		snapshot.RiskLevel = models.RiskMedium
	default:
		snapshot.RiskLevel = models.RiskLow
	}

	snapshot.AttentionReasons = reasons
	snapshot.NeedsAttention = snapshot.RiskLevel != models.RiskLow
	snapshot.InterventionRequired = snapshot.RiskLevel == models.RiskCritical || snapshot.RiskLevel == models.RiskHigh
}
