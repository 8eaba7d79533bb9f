package service

import (
	"math"

	"github.com/noah-isme/sis-progress-api/internal/models"
)

// round2 rounds to two decimal places, the convention for every percentage
// and average in the pipeline.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func safeRate(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return round2(numerator / denominator * 100)
}

// weeklyStrengthThreshold and weeklyWeakThreshold classify subject
// understanding at the weekly level. The snapshot level uses a different weak
// threshold (2.5); the two are intentionally distinct.
const (
	weeklyStrengthThreshold = 4.0
	weeklyWeakThreshold     = 3.0
)

type weeklySubjectAccumulator struct {
	topics         int
	understandings []float64
	assessmentPct  *int
}

// AggregateWeek reduces one ISO week of daily activity records into a weekly
// aggregate. It is deterministic and has no side effects; running it twice on
// the same input yields identical output. An empty record list produces a
// zero-filled aggregate carrying only the working-day count.
func AggregateWeek(records []models.DailyActivityRecord, workingDays int) models.WeeklyProgress {
	week := models.WeeklyProgress{
		WorkingDays:        workingDays,
		SubjectPerformance: models.WeeklySubjectList{},
		StrengthSubjects:   []string{},
		WeakSubjects:       []string{},
	}
	if len(records) == 0 {
		return week
	}

	recordCount := float64(len(records))

	var punctualDays, compliantDays int
	for _, rec := range records {
		switch rec.Status {
		case models.AttendancePresent:
			week.DaysPresent++
		case models.AttendanceAbsent:
			week.DaysAbsent++
		case models.AttendanceLate:
			week.DaysLate++
		case models.AttendanceHalfDay:
			week.DaysHalf++
		case models.AttendanceExcused:
			week.DaysExcused++
		}
		if rec.ArrivedOnTime {
			punctualDays++
		}
		if rec.UniformCompliance {
			compliantDays++
		}
	}
	week.TotalDaysPresent = week.DaysPresent + week.DaysLate + week.DaysHalf
	week.AttendancePercentage = safeRate(float64(week.TotalDaysPresent), float64(workingDays))
	week.PunctualityPercentage = safeRate(float64(punctualDays), recordCount)
	week.UniformComplianceRate = safeRate(float64(compliantDays), recordCount)

	// Subject accumulation keeps first-seen order so recomputes are stable.
	subjects := map[string]*weeklySubjectAccumulator{}
	var subjectOrder []string
	for _, rec := range records {
		for _, study := range rec.SubjectsStudied {
			if study.SubjectID == "" {
				continue
			}
			acc, ok := subjects[study.SubjectID]
			if !ok {
				acc = &weeklySubjectAccumulator{}
				subjects[study.SubjectID] = acc
				subjectOrder = append(subjectOrder, study.SubjectID)
			}
			acc.topics += len(study.TopicsCovered)
			if study.UnderstandingLevel > 0 {
				acc.understandings = append(acc.understandings, study.UnderstandingLevel)
			}
		}
	}

	// Assessments are attributed to a subject only when the subject already
	// has a study entry for the week. Percentage is integer-rounded.
	for _, rec := range records {
		for _, assessment := range rec.AssessmentsTaken {
			week.AssessmentCount++
			week.AssessmentTotalScore += assessment.MarksObtained
			week.AssessmentTotalOutOf += assessment.TotalMarks
			if acc, ok := subjects[assessment.SubjectID]; ok && assessment.TotalMarks > 0 {
				pct := int(math.Round(assessment.MarksObtained / assessment.TotalMarks * 100))
				acc.assessmentPct = &pct
			}
		}
	}
	week.AvgAssessmentPercentage = safeRate(week.AssessmentTotalScore, week.AssessmentTotalOutOf)

	for _, subjectID := range subjectOrder {
		acc := subjects[subjectID]
		entry := models.WeeklySubjectEntry{
			SubjectID:            subjectID,
			TopicsCompleted:      acc.topics,
			AvgUnderstanding:     round2(mean(acc.understandings)),
			AssessmentPercentage: acc.assessmentPct,
		}
		week.SubjectPerformance = append(week.SubjectPerformance, entry)
		if entry.AvgUnderstanding >= weeklyStrengthThreshold {
			week.StrengthSubjects = append(week.StrengthSubjects, subjectID)
		} else if entry.AvgUnderstanding > 0 && entry.AvgUnderstanding < weeklyWeakThreshold {
			week.WeakSubjects = append(week.WeakSubjects, subjectID)
		}
	}

	var homeworkQualities, classworkQualities []float64
	for _, rec := range records {
		week.HomeworkAssignedCount += len(rec.HomeworkAssigned)
		week.HomeworkCompletedCount += len(rec.HomeworkCompleted)
		week.ClassworkCompletedCount += len(rec.ClassworkCompleted)
		for _, item := range rec.HomeworkCompleted {
			if item.Quality > 0 {
				homeworkQualities = append(homeworkQualities, item.Quality)
			}
		}
		for _, item := range rec.ClassworkCompleted {
			if item.Quality > 0 {
				classworkQualities = append(classworkQualities, item.Quality)
			}
		}
	}
	week.HomeworkCompletionRate = safeRate(float64(week.HomeworkCompletedCount), float64(week.HomeworkAssignedCount))
	week.HomeworkQualityAvg = round2(mean(homeworkQualities))
	week.ClassworkQualityAvg = round2(mean(classworkQualities))

	var behaviors, participations, disciplines []float64
	for _, rec := range records {
		if rec.BehaviorRating > 0 {
			behaviors = append(behaviors, rec.BehaviorRating)
		}
		if rec.ParticipationLevel > 0 {
			participations = append(participations, rec.ParticipationLevel)
		}
		if rec.DisciplineScore > 0 {
			disciplines = append(disciplines, rec.DisciplineScore)
		}
	}
	week.AvgBehaviorRating = round2(mean(behaviors))
	week.AvgParticipation = round2(mean(participations))
	week.AvgDiscipline = round2(mean(disciplines))

	week.AvgSkills = aggregateSkills(records)

	return week
}

// aggregateSkills averages each skill over the days it was actually assessed.
// A missing value is excluded, never treated as zero.
func aggregateSkills(records []models.DailyActivityRecord) models.SkillsAverages {
	var reading, writing, listening, speaking, critical []float64
	for _, rec := range records {
		if rec.Skills == nil {
			continue
		}
		if v := rec.Skills.Reading; v != nil {
			reading = append(reading, *v)
		}
		if v := rec.Skills.Writing; v != nil {
			writing = append(writing, *v)
		}
		if v := rec.Skills.Listening; v != nil {
			listening = append(listening, *v)
		}
		if v := rec.Skills.Speaking; v != nil {
			speaking = append(speaking, *v)
		}
		if v := rec.Skills.CriticalThinking; v != nil {
			critical = append(critical, *v)
		}
	}
	return models.SkillsAverages{
		Reading:          round2(mean(reading)),
		Writing:          round2(mean(writing)),
		Listening:        round2(mean(listening)),
		Speaking:         round2(mean(speaking)),
		CriticalThinking: round2(mean(critical)),
	}
}
