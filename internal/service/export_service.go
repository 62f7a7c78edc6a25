package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/aac-therapy-api/internal/models"
	"github.com/noah-isme/aac-therapy-api/pkg/export"
	"github.com/noah-isme/aac-therapy-api/pkg/storage"
)

type reportReader interface {
	Get(ctx context.Context, id string) (*models.ProgressReport, error)
}

type fileStorage interface {
	Save(relPath string, data []byte) (string, error)
	Open(relPath string) (*os.File, error)
	Delete(relPath string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       export.Format
	ExpiresAt    time.Time
}

// ExportService renders progress reports into files and signs download links.
type ExportService struct {
	reports   reportReader
	storage   fileStorage
	signer    *storage.SignedURLSigner
	renderers map[export.Format]export.Renderer
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService backed by the CSV, PDF and
// XLSX renderers.
func NewExportService(reports reportReader, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		reports: reports,
		storage: files,
		signer:  signer,
		renderers: map[export.Format]export.Renderer{
			export.FormatCSV:  export.NewCSVExporter(),
			export.FormatPDF:  export.NewPDFExporter(),
			export.FormatXLSX: export.NewXLSXExporter(),
		},
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Generate renders the report referenced by job and stores the file.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	format, err := export.ParseFormat(job.Format)
	if err != nil {
		return nil, err
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, fmt.Errorf("no renderer for %s", format)
	}
	report, err := s.reports.Get(ctx, job.ReportID)
	if err != nil {
		return nil, fmt.Errorf("load report %s: %w", job.ReportID, err)
	}

	payload, err := renderer.Render(reportDataset(report))
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	relPath, err := s.storage.Save(s.buildFilename(report, job, format), payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	s.logger.Debug("report export rendered",
		zap.String("job_id", job.ID),
		zap.String("report_id", report.ID),
		zap.String("format", string(format)),
		zap.Int("bytes", len(payload)),
	)
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/download/%s", prefix, token),
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(report *models.ProgressReport, job *models.ReportExportJob, format export.Format) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s/progress_%s_%s%s", sanitizeFilename(report.PatientID), sanitizeFilename(job.ID), timestamp, format.Extension())
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

// reportDataset flattens a report into one row per goal followed by the
// narrative sections, which keeps every renderer on a single table shape.
func reportDataset(report *models.ProgressReport) export.Dataset {
	headers := []string{"Section", "Goal", "Progress (%)", "Mastery", "Trend", "Data Points"}
	rows := make([][]string, 0, len(report.Goals)+len(report.Recommendations)+len(report.NextSteps)+1)
	for _, g := range report.Goals {
		rows = append(rows, []string{
			"Goal",
			g.Title,
			strconv.FormatFloat(g.Progress, 'f', 1, 64),
			string(g.MasteryStatus),
			string(g.Trend),
			strconv.Itoa(g.DataPoints),
		})
	}
	rows = append(rows, []string{"Summary", report.Summary, "", "", "", ""})
	for _, r := range report.Recommendations {
		rows = append(rows, []string{"Recommendation", r, "", "", "", ""})
	}
	for _, n := range report.NextSteps {
		rows = append(rows, []string{"Next Step", n, "", "", "", ""})
	}
	return export.Dataset{
		Title: fmt.Sprintf("Progress Report %s to %s",
			report.StartDate.UTC().Format("2006-01-02"), report.EndDate.UTC().Format("2006-01-02")),
		Headers: headers,
		Rows:    rows,
	}
}
