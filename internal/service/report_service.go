package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/aac-therapy-api/internal/dto"
	"github.com/noah-isme/aac-therapy-api/internal/models"
	"github.com/noah-isme/aac-therapy-api/pkg/cache"
	appErrors "github.com/noah-isme/aac-therapy-api/pkg/errors"
)

const reportSessionWindow = 50

var (
	improvingRecommendations = []string{
		"Continue the current intervention plan; progress is trending upward.",
		"Gradually fade prompts to build independence.",
		"Reinforce mastered skills at home to support generalisation.",
	}
	stalledRecommendations = []string{
		"Review current strategies; progress has stalled across tracked goals.",
		"Consider adjusting task difficulty or prompting hierarchy.",
		"Increase practice frequency with caregiver involvement.",
	}
	reportNextSteps = []string{
		"Schedule a follow-up session to review progress.",
		"Review goal targets and mastery criteria with the care team.",
		"Consider new goals for mastered skills.",
	}
)

type reportStore interface {
	Create(ctx context.Context, report *models.ProgressReport) error
	GetByID(ctx context.Context, id string) (*models.ProgressReport, error)
	ListByPatient(ctx context.Context, patientID string, limit int) ([]models.ProgressReport, error)
	Latest(ctx context.Context, patientID string) (*models.ProgressReport, error)
}

type sessionLister interface {
	ListByPatient(ctx context.Context, patientID string, limit int) ([]models.TherapySession, error)
}

type goalLister interface {
	ListByPatient(ctx context.Context, patientID string) ([]models.TherapyGoal, error)
}

type reportCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// ReportServiceConfig tunes trend classification and caching.
type ReportServiceConfig struct {
	TrendDelta          float64
	TrendMinPoints      int
	NotStartedThreshold float64
	CacheTTL            time.Duration
}

// ReportService generates immutable progress reports from goals and session
// history.
type ReportService struct {
	reports   reportStore
	goals     goalLister
	sessions  sessionLister
	cache     reportCache
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ReportServiceConfig
	now       func() time.Time
}

// NewReportService constructs the report generator. cache may be nil.
func NewReportService(reports reportStore, goals goalLister, sessions sessionLister, cacheSvc reportCache, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TrendDelta <= 0 {
		cfg.TrendDelta = 5
	}
	if cfg.TrendMinPoints < 2 {
		cfg.TrendMinPoints = 2
	}
	if cfg.NotStartedThreshold <= 0 {
		cfg.NotStartedThreshold = 10
	}
	return &ReportService{
		reports:   reports,
		goals:     goals,
		sessions:  sessions,
		cache:     cacheSvc,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Generate builds and persists a report covering [StartDate, EndDate]. A
// patient without goals gets an empty report.
func (s *ReportService) Generate(ctx context.Context, req dto.GenerateReportRequest) (*models.ProgressReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "endDate must not be before startDate")
	}

	goals, err := s.goals.ListByPatient(ctx, req.PatientID)
	if err != nil {
		return nil, appErrors.Dependency(err, "failed to list goals")
	}
	sessions, err := s.sessions.ListByPatient(ctx, req.PatientID, reportSessionWindow)
	if err != nil {
		return nil, appErrors.Dependency(err, "failed to list sessions")
	}
	previous, err := s.reports.Latest(ctx, req.PatientID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Dependency(err, "failed to load previous report")
	}

	rows := make(models.GoalProgressList, 0, len(goals))
	for i := range goals {
		rows = append(rows, s.goalRow(&goals[i], sessions, req.StartDate, req.EndDate, previous))
	}

	summary, recommendations, outcome := synthesize(rows)
	report := &models.ProgressReport{
		PatientID:       req.PatientID,
		TherapistID:     req.TherapistID,
		StartDate:       req.StartDate.UTC(),
		EndDate:         req.EndDate.UTC(),
		Goals:           rows,
		Summary:         summary,
		Recommendations: recommendations,
		NextSteps:       append([]string{}, reportNextSteps...),
		CreatedAt:       s.now().UTC(),
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, appErrors.Dependency(err, "failed to store report")
	}

	s.metrics.RecordReportGenerated(outcome)
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, cache.PatientReportsPattern(report.PatientID))
		_ = s.cache.Set(ctx, cache.ReportKey(report.ID), report, s.cfg.CacheTTL)
	}
	s.logger.Info("progress report generated",
		zap.String("report_id", report.ID),
		zap.String("patient_id", report.PatientID),
		zap.Int("goals", len(rows)),
		zap.String("outcome", outcome),
	)
	return report, nil
}

// Get returns a stored report, reading through the cache.
func (s *ReportService) Get(ctx context.Context, id string) (*models.ProgressReport, error) {
	key := cache.ReportKey(id)
	if s.cache != nil {
		var cached models.ProgressReport
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Dependency(err, "failed to load report")
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, report, s.cfg.CacheTTL)
	}
	return report, nil
}

// List returns the report history of a patient, newest first.
func (s *ReportService) List(ctx context.Context, patientID string) ([]models.ProgressReport, error) {
	if patientID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "patientId is required")
	}
	key := cache.PatientReportsKey(patientID)
	if s.cache != nil {
		var cached []models.ProgressReport
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}
	reports, err := s.reports.ListByPatient(ctx, patientID, 0)
	if err != nil {
		return nil, appErrors.Dependency(err, "failed to list reports")
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, reports, s.cfg.CacheTTL)
	}
	return reports, nil
}

func (s *ReportService) goalRow(goal *models.TherapyGoal, sessions []models.TherapySession, start, end time.Time, previous *models.ProgressReport) models.GoalProgress {
	filtered := sessionsForGoal(sessions, goal.ID, start, end)
	scores := make([]float64, 0, len(filtered))
	for _, session := range filtered {
		if score, ok := sessionScore(session, goal.ID); ok {
			scores = append(scores, score)
		}
	}
	progress := goalProgress(goal)
	trend := classifyTrend(scores, s.cfg.TrendMinPoints, s.cfg.TrendDelta)

	return models.GoalProgress{
		GoalID:        goal.ID,
		Title:         goal.Title,
		Progress:      progress,
		MasteryStatus: s.masteryStatus(goal, progress, trend, previous),
		DataPoints:    len(filtered),
		Trend:         trend,
	}
}

// masteryStatus checks regression first so a mastered goal that slipped below
// its last reported progress is not hidden by its sticky status.
func (s *ReportService) masteryStatus(goal *models.TherapyGoal, progress float64, trend models.Trend, previous *models.ProgressReport) models.MasteryStatus {
	if trend == models.TrendDeclining && previous != nil {
		if prior, ok := previous.Goals.Find(goal.ID); ok && progress < prior.Progress {
			return models.MasteryRegressed
		}
	}
	if goal.Status == models.GoalStatusMastered {
		return models.MasteryMastered
	}
	if progress < s.cfg.NotStartedThreshold {
		return models.MasteryNotStarted
	}
	return models.MasteryInProgress
}

// synthesize builds the summary and picks the recommendation set. Progress
// counts as stalled when no goal is improving.
func synthesize(rows models.GoalProgressList) (string, []string, string) {
	if len(rows) == 0 {
		return "No goals are being tracked for this patient in the selected period.",
			append([]string{}, stalledRecommendations...), ReportOutcomeEmpty
	}
	var mastered int
	var total float64
	improving := false
	for _, row := range rows {
		if row.MasteryStatus == models.MasteryMastered {
			mastered++
		}
		if row.Trend == models.TrendImproving {
			improving = true
		}
		total += row.Progress
	}
	summary := fmt.Sprintf("%d of %d goals mastered. Average progress %.1f%% across the reporting period.",
		mastered, len(rows), total/float64(len(rows)))
	if improving {
		return summary, append([]string{}, improvingRecommendations...), ReportOutcomeImproving
	}
	return summary, append([]string{}, stalledRecommendations...), ReportOutcomeStalled
}
