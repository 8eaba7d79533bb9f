package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sis-progress-api/internal/models"
)

func day(offset int, status models.AttendanceStatus) models.DailyActivityRecord {
	return models.DailyActivityRecord{
		ID:            "rec-" + string(rune('a'+offset)),
		StudentID:     "student-1",
		Date:          time.Date(2026, time.March, 2+offset, 0, 0, 0, 0, time.UTC),
		Status:        status,
		ArrivedOnTime: status == models.AttendancePresent,
	}
}

func floatPtr(v float64) *float64 { return &v }

func TestAggregateWeekEmptyRecords(t *testing.T) {
	week := AggregateWeek(nil, 5)

	assert.Equal(t, 5, week.WorkingDays)
	assert.Zero(t, week.TotalDaysPresent)
	assert.Zero(t, week.AttendancePercentage)
	assert.Empty(t, week.SubjectPerformance)
	assert.Empty(t, week.StrengthSubjects)
	assert.Empty(t, week.WeakSubjects)
}

func TestAggregateWeekZeroWorkingDays(t *testing.T) {
	records := []models.DailyActivityRecord{
		day(0, models.AttendancePresent),
		day(1, models.AttendancePresent),
	}

	week := AggregateWeek(records, 0)

	assert.Equal(t, 2, week.TotalDaysPresent)
	assert.Zero(t, week.AttendancePercentage)
}

func TestAggregateWeekIdempotent(t *testing.T) {
	records := []models.DailyActivityRecord{
		day(0, models.AttendancePresent),
		day(1, models.AttendanceLate),
		day(2, models.AttendanceAbsent),
	}
	records[0].SubjectsStudied = models.SubjectStudyList{
		{SubjectID: "math", TopicsCovered: []string{"fractions"}, UnderstandingLevel: 4.5},
	}
	records[0].HomeworkAssigned = models.WorkItemList{{SubjectID: "math"}}
	records[1].HomeworkCompleted = models.WorkItemList{
		{SubjectID: "math", CompletionStatus: models.CompletionComplete, Quality: 4},
	}

	first := AggregateWeek(records, 5)
	second := AggregateWeek(records, 5)

	require.Equal(t, first, second)
}

func TestAggregateWeekFullAttendance(t *testing.T) {
	records := make([]models.DailyActivityRecord, 0, 5)
	for i := 0; i < 5; i++ {
		records = append(records, day(i, models.AttendancePresent))
	}

	week := AggregateWeek(records, 5)

	assert.Equal(t, 5, week.DaysPresent)
	assert.Equal(t, 5, week.TotalDaysPresent)
	assert.InDelta(t, 100.0, week.AttendancePercentage, 0.001)
	assert.InDelta(t, 100.0, week.PunctualityPercentage, 0.001)
}

func TestAggregateWeekStatusBreakdown(t *testing.T) {
	records := []models.DailyActivityRecord{
		day(0, models.AttendancePresent),
		day(1, models.AttendanceLate),
		day(2, models.AttendanceHalfDay),
		day(3, models.AttendanceAbsent),
		day(4, models.AttendanceExcused),
	}

	week := AggregateWeek(records, 5)

	assert.Equal(t, 1, week.DaysPresent)
	assert.Equal(t, 1, week.DaysLate)
	assert.Equal(t, 1, week.DaysHalf)
	assert.Equal(t, 1, week.DaysAbsent)
	assert.Equal(t, 1, week.DaysExcused)
	// PRESENT + LATE + HALF_DAY count toward attendance.
	assert.Equal(t, 3, week.TotalDaysPresent)
	assert.InDelta(t, 60.0, week.AttendancePercentage, 0.001)
}

func TestAggregateWeekSubjects(t *testing.T) {
	monday := day(0, models.AttendancePresent)
	monday.SubjectsStudied = models.SubjectStudyList{
		{SubjectID: "math", TopicsCovered: []string{"fractions", "decimals"}, UnderstandingLevel: 5},
		{SubjectID: "english", TopicsCovered: []string{"essay"}, UnderstandingLevel: 2},
	}
	tuesday := day(1, models.AttendancePresent)
	tuesday.SubjectsStudied = models.SubjectStudyList{
		{SubjectID: "math", UnderstandingLevel: 4},
		{SubjectID: "english", UnderstandingLevel: 0}, // not recorded, excluded
	}
	tuesday.AssessmentsTaken = models.AssessmentList{
		{SubjectID: "math", MarksObtained: 17, TotalMarks: 20},
		{SubjectID: "science", MarksObtained: 5, TotalMarks: 10}, // no study entry, counted only in totals
	}

	week := AggregateWeek([]models.DailyActivityRecord{monday, tuesday}, 5)

	require.Len(t, week.SubjectPerformance, 2)
	math := week.SubjectPerformance[0]
	assert.Equal(t, "math", math.SubjectID)
	assert.Equal(t, 2, math.TopicsCompleted)
	assert.InDelta(t, 4.5, math.AvgUnderstanding, 0.001)
	require.NotNil(t, math.AssessmentPercentage)
	assert.Equal(t, 85, *math.AssessmentPercentage)

	english := week.SubjectPerformance[1]
	assert.Equal(t, "english", english.SubjectID)
	assert.InDelta(t, 2.0, english.AvgUnderstanding, 0.001)
	assert.Nil(t, english.AssessmentPercentage)

	assert.Equal(t, []string{"math"}, []string(week.StrengthSubjects))
	assert.Equal(t, []string{"english"}, []string(week.WeakSubjects))

	assert.Equal(t, 2, week.AssessmentCount)
	assert.InDelta(t, 22.0, week.AssessmentTotalScore, 0.001)
	assert.InDelta(t, 30.0, week.AssessmentTotalOutOf, 0.001)
	assert.InDelta(t, 73.33, week.AvgAssessmentPercentage, 0.001)
}

func TestAggregateWeekHomework(t *testing.T) {
	rec := day(0, models.AttendancePresent)
	rec.HomeworkAssigned = make(models.WorkItemList, 10)
	rec.HomeworkCompleted = models.WorkItemList{
		{CompletionStatus: models.CompletionComplete, Quality: 4},
		{CompletionStatus: models.CompletionPartial}, // ungraded, excluded from quality
	}

	week := AggregateWeek([]models.DailyActivityRecord{rec}, 5)

	assert.Equal(t, 10, week.HomeworkAssignedCount)
	assert.Equal(t, 2, week.HomeworkCompletedCount)
	assert.InDelta(t, 20.0, week.HomeworkCompletionRate, 0.001)
	assert.InDelta(t, 4.0, week.HomeworkQualityAvg, 0.001)
}

func TestAggregateWeekBehaviorFiltersUnrated(t *testing.T) {
	rated := day(0, models.AttendancePresent)
	rated.BehaviorRating = 4
	rated.ParticipationLevel = 3
	unrated := day(1, models.AttendancePresent)

	week := AggregateWeek([]models.DailyActivityRecord{rated, unrated}, 5)

	assert.InDelta(t, 4.0, week.AvgBehaviorRating, 0.001)
	assert.InDelta(t, 3.0, week.AvgParticipation, 0.001)
	assert.Zero(t, week.AvgDiscipline)
}

func TestAggregateWeekSkills(t *testing.T) {
	first := day(0, models.AttendancePresent)
	first.Skills = &models.SkillsSnapshot{Reading: floatPtr(4), Writing: floatPtr(3)}
	second := day(1, models.AttendancePresent)
	second.Skills = &models.SkillsSnapshot{Reading: floatPtr(5)}
	third := day(2, models.AttendancePresent)

	week := AggregateWeek([]models.DailyActivityRecord{first, second, third}, 5)

	assert.InDelta(t, 4.5, week.AvgSkills.Reading, 0.001)
	assert.InDelta(t, 3.0, week.AvgSkills.Writing, 0.001)
	assert.Zero(t, week.AvgSkills.Listening)
}
