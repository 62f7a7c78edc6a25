package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/aac-therapy-api/internal/dto"
	"github.com/noah-isme/aac-therapy-api/internal/models"
	"github.com/noah-isme/aac-therapy-api/pkg/cache"
	appErrors "github.com/noah-isme/aac-therapy-api/pkg/errors"
)

var (
	reportStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	reportEnd   = time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)
)

func reportDay(d int) time.Time { return time.Date(2024, 1, d, 10, 0, 0, 0, time.UTC) }

func scoredSession(id string, day int, goalID string, accuracy, independence float64) models.TherapySession {
	return models.TherapySession{
		ID:          id,
		PatientID:   "patient-1",
		SessionDate: reportDay(day),
		GoalIDs:     []string{goalID},
		Measurements: models.ActivityMeasurements{
			{GoalID: strPtr(goalID), Accuracy: accuracy, Independence: independence},
		},
	}
}

type reportFixture struct {
	goals    *mockGoalRepo
	sessions *mockSessionRepo
	reports  *mockReportRepo
	cache    *mockCache
	svc      *ReportService
}

func newReportFixture(goals ...models.TherapyGoal) *reportFixture {
	f := &reportFixture{
		goals:    newMockGoalRepo(goals...),
		sessions: &mockSessionRepo{},
		reports:  &mockReportRepo{},
		cache:    newMockCache(),
	}
	f.svc = NewReportService(f.reports, f.goals, f.sessions, f.cache, NewMetricsService(), nil, nil, ReportServiceConfig{
		TrendDelta:     5,
		TrendMinPoints: 2,
	})
	return f
}

func (f *reportFixture) generate(t *testing.T) *models.ProgressReport {
	t.Helper()
	report, err := f.svc.Generate(context.Background(), dto.GenerateReportRequest{
		PatientID:   "patient-1",
		TherapistID: "therapist-1",
		StartDate:   reportStart,
		EndDate:     reportEnd,
	})
	require.NoError(t, err)
	return report
}

func goalWithProgress(id string, current float64) models.TherapyGoal {
	g := speechGoal(id, 0)
	g.CurrentProgress.Frequency = current
	return g
}

func TestReportServiceImprovingTrend(t *testing.T) {
	f := newReportFixture(goalWithProgress("goal-1", 5))
	f.sessions.items = []models.TherapySession{
		scoredSession("s1", 3, "goal-1", 40, 40),
		scoredSession("s2", 10, "goal-1", 50, 50),
		scoredSession("s3", 17, "goal-1", 70, 70),
		scoredSession("s4", 24, "goal-1", 80, 80),
		scoredSession("outside", 1, "goal-2", 90, 90),
	}
	f.sessions.items[4].SessionDate = time.Date(2023, 12, 20, 0, 0, 0, 0, time.UTC)

	report := f.generate(t)
	require.Len(t, report.Goals, 1)
	row := report.Goals[0]
	assert.Equal(t, models.TrendImproving, row.Trend)
	assert.Equal(t, 4, row.DataPoints)
	assert.Equal(t, 50.0, row.Progress)
	assert.Equal(t, models.MasteryInProgress, row.MasteryStatus)
	assert.Equal(t, improvingRecommendations, []string(report.Recommendations))
	assert.Equal(t, reportNextSteps, []string(report.NextSteps))
	assert.Equal(t, "0 of 1 goals mastered. Average progress 50.0% across the reporting period.", report.Summary)
	assert.Equal(t, 50, f.sessions.lastLimit)
}

func TestReportServiceZeroSessionsIsStable(t *testing.T) {
	mastered := goalWithProgress("goal-2", 10)
	mastered.Status = models.GoalStatusMastered
	f := newReportFixture(goalWithProgress("goal-1", 0), mastered)

	report := f.generate(t)
	require.Len(t, report.Goals, 2)
	first, ok := report.Goals.Find("goal-1")
	require.True(t, ok)
	assert.Equal(t, 0, first.DataPoints)
	assert.Equal(t, models.TrendStable, first.Trend)
	assert.Equal(t, models.MasteryNotStarted, first.MasteryStatus)
	second, _ := report.Goals.Find("goal-2")
	assert.Equal(t, models.MasteryMastered, second.MasteryStatus)
	assert.Equal(t, stalledRecommendations, []string(report.Recommendations))
	assert.Contains(t, report.Summary, "1 of 2 goals mastered")
}

func TestReportServiceEmptyGoals(t *testing.T) {
	f := newReportFixture()
	report := f.generate(t)
	assert.Empty(t, report.Goals)
	assert.Equal(t, "No goals are being tracked for this patient in the selected period.", report.Summary)
	assert.Len(t, f.reports.items, 1)
}

func TestReportServiceRegression(t *testing.T) {
	f := newReportFixture(goalWithProgress("goal-1", 3))
	f.reports.items = []models.ProgressReport{{
		ID:        "report-old",
		PatientID: "patient-1",
		Goals:     models.GoalProgressList{{GoalID: "goal-1", Progress: 60}},
	}}
	f.sessions.items = []models.TherapySession{
		scoredSession("s1", 3, "goal-1", 90, 90),
		scoredSession("s2", 20, "goal-1", 50, 50),
	}

	report := f.generate(t)
	assert.Equal(t, models.TrendDeclining, report.Goals[0].Trend)
	assert.Equal(t, models.MasteryRegressed, report.Goals[0].MasteryStatus)
}

func TestReportServiceMasteredGoalDeclineIsRegressed(t *testing.T) {
	slipped := goalWithProgress("goal-1", 3)
	slipped.Status = models.GoalStatusMastered
	masteredAt := reportDay(2)
	slipped.MasteredAt = &masteredAt
	f := newReportFixture(slipped)
	f.reports.items = []models.ProgressReport{{
		ID:        "report-old",
		PatientID: "patient-1",
		Goals:     models.GoalProgressList{{GoalID: "goal-1", Progress: 100, MasteryStatus: models.MasteryMastered}},
	}}
	f.sessions.items = []models.TherapySession{
		scoredSession("s1", 3, "goal-1", 90, 90),
		scoredSession("s2", 20, "goal-1", 40, 40),
	}

	report := f.generate(t)
	require.Len(t, report.Goals, 1)
	assert.Equal(t, models.TrendDeclining, report.Goals[0].Trend)
	assert.Equal(t, models.MasteryRegressed, report.Goals[0].MasteryStatus)
	assert.Contains(t, report.Summary, "0 of 1 goals mastered")
}

func TestReportServiceInvalidRange(t *testing.T) {
	f := newReportFixture()
	_, err := f.svc.Generate(context.Background(), dto.GenerateReportRequest{
		PatientID: "patient-1",
		StartDate: reportEnd,
		EndDate:   reportStart,
	})
	require.ErrorIs(t, err, appErrors.ErrInvalidRange)
}

func TestReportServiceStoreFailure(t *testing.T) {
	f := newReportFixture()
	f.reports.createErr = errors.New("disk full")
	_, err := f.svc.Generate(context.Background(), dto.GenerateReportRequest{PatientID: "patient-1", StartDate: reportStart, EndDate: reportEnd})
	require.ErrorIs(t, err, appErrors.ErrDependencyFailure)
}

func TestReportServiceGetReadsThroughCache(t *testing.T) {
	f := newReportFixture(goalWithProgress("goal-1", 5))
	report := f.generate(t)
	ctx := context.Background()

	_, cached := f.cache.entries[cache.ReportKey(report.ID)]
	require.True(t, cached)

	got, err := f.svc.Get(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, report.Summary, got.Summary)
	assert.Zero(t, f.reports.gets)

	delete(f.cache.entries, cache.ReportKey(report.ID))
	_, err = f.svc.Get(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.reports.gets)

	_, err = f.svc.Get(ctx, "missing")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestReportServiceListInvalidatedOnGenerate(t *testing.T) {
	f := newReportFixture(goalWithProgress("goal-1", 5))
	ctx := context.Background()
	f.generate(t)

	list, err := f.svc.List(ctx, "patient-1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	f.generate(t)
	list, err = f.svc.List(ctx, "patient-1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
