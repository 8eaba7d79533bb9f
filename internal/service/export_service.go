package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/sis-progress-api/internal/models"
	appErrors "github.com/noah-isme/sis-progress-api/pkg/errors"
	"github.com/noah-isme/sis-progress-api/pkg/export"
)

type snapshotReader interface {
	Get(ctx context.Context, studentID string) (*models.StudentProgressSnapshot, error)
}

type weeklyHistoryReader interface {
	History(ctx context.Context, studentID string, limit int) ([]models.WeeklyProgress, error)
}

// ExportFormat values accepted by the report endpoints.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// ExportedReport is a rendered document ready for download.
type ExportedReport struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders a student's progress report as CSV or PDF.
type ExportService struct {
	snapshots snapshotReader
	weeks     weeklyHistoryReader
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	logger    *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(snapshots snapshotReader, weeks weeklyHistoryReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		snapshots: snapshots,
		weeks:     weeks,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
	}
}

var reportHeaders = []string{
	"Week", "Year", "Working Days", "Days Present", "Attendance %",
	"Punctuality %", "Homework %", "Avg Assessment %", "Behavior", "Participation",
}

// StudentProgressReport renders the student's weekly history plus snapshot
// summary. Format must be one of ExportFormatCSV or ExportFormatPDF.
func (s *ExportService) StudentProgressReport(ctx context.Context, studentID, format string, weeks int) (*ExportedReport, error) {
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	snapshot, err := s.snapshots.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}
	history, err := s.weeks.History(ctx, studentID, weeks)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{Headers: reportHeaders}
	for _, week := range history {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Week":             strconv.Itoa(week.WeekNumber),
			"Year":             strconv.Itoa(week.Year),
			"Working Days":     strconv.Itoa(week.WorkingDays),
			"Days Present":     strconv.Itoa(week.TotalDaysPresent),
			"Attendance %":     formatPercent(week.AttendancePercentage),
			"Punctuality %":    formatPercent(week.PunctualityPercentage),
			"Homework %":       formatPercent(week.HomeworkCompletionRate),
			"Avg Assessment %": formatPercent(week.AvgAssessmentPercentage),
			"Behavior":         formatRating(week.AvgBehaviorRating),
			"Participation":    formatRating(week.AvgParticipation),
		})
	}

	switch format {
	case ExportFormatPDF:
		title := fmt.Sprintf("Progress Report (risk: %s)", snapshot.RiskLevel)
		summary := []string{
			fmt.Sprintf("Overall attendance: %s%% (%d of %d working days)",
				formatPercent(snapshot.OverallAttendanceRate), snapshot.TotalDaysPresent, snapshot.TotalWorkingDays),
			fmt.Sprintf("Homework completion: %s%%", formatPercent(snapshot.OverallHomeworkCompletionRate)),
			fmt.Sprintf("Longest attendance streak: %d day(s)", snapshot.LongestAttendanceStreak),
		}
		content, err := s.pdf.Render(dataset, title, summary)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
		}
		return &ExportedReport{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("progress-%s.pdf", studentID),
		}, nil
	default:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
		}
		return &ExportedReport{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("progress-%s.csv", studentID),
		}, nil
	}
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatRating(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
