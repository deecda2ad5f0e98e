package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/unisupport-api/internal/dto"
	"github.com/noah-isme/unisupport-api/internal/models"
	"github.com/noah-isme/unisupport-api/pkg/export"
)

type wellbeingReader interface {
	MoodHistory(ctx context.Context, actor dto.Actor) ([]models.MoodEntry, error)
	Appointments(ctx context.Context, actor dto.Actor) ([]models.Appointment, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, doc export.PDFDocument) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders a student's ledger as downloadable files.
type ExportService struct {
	wellbeing wellbeingReader
	csv       csvRenderer
	pdf       pdfRenderer
	logger    *zap.Logger
	location  *time.Location
}

// NewExportService constructs an ExportService.
func NewExportService(wellbeing wellbeingReader, location *time.Location, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{wellbeing: wellbeing, csv: csv, pdf: pdf, logger: logger, location: location}
}

// MoodCSV renders the actor's mood history as CSV with date and score columns.
func (s *ExportService) MoodCSV(ctx context.Context, actor dto.Actor) (*ExportFile, error) {
	entries, err := s.wellbeing.MoodHistory(ctx, actor)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{Headers: []string{"date", "score", "mood"}}
	for _, entry := range entries {
		dataset.Append(entry.LoggedAt.In(s.location).Format(time.RFC3339), strconv.Itoa(entry.Score), models.MoodLabel(entry.Score))
	}

	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, fmt.Errorf("render mood csv: %w", err)
	}
	s.logger.Debug("mood history exported", zap.String("user_id", actor.UserID), zap.Int("rows", len(entries)))
	return &ExportFile{
		Filename:    fmt.Sprintf("mood-history-%s.csv", time.Now().In(s.location).Format("20060102")),
		ContentType: "text/csv",
		Payload:     payload,
	}, nil
}

// AppointmentsPDF renders the actor's appointments as a PDF table.
func (s *ExportService) AppointmentsPDF(ctx context.Context, actor dto.Actor) (*ExportFile, error) {
	appointments, err := s.wellbeing.Appointments(ctx, actor)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{Headers: []string{"#", "Service", "Scheduled", "Status"}}
	for _, a := range appointments {
		dataset.Append(strconv.Itoa(a.Sequence), a.ServiceType, a.ScheduledAt.In(s.location).Format("Mon 02 Jan 2006 15:04"), string(a.Status))
	}

	generated := time.Now().In(s.location)
	payload, err := s.pdf.Render(dataset, export.PDFDocument{
		Title:    "Appointments",
		Subtitle: fmt.Sprintf("%s - generated %s", actor.Username, generated.Format("2006-01-02 15:04")),
		Footer:   "UniSupport",
	})
	if err != nil {
		return nil, fmt.Errorf("render appointments pdf: %w", err)
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("appointments-%s.pdf", generated.Format("20060102")),
		ContentType: "application/pdf",
		Payload:     payload,
	}, nil
}
