package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/aac-therapy-api/internal/models"
)

func TestReportRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	report := &models.ProgressReport{
		PatientID:   "patient-1",
		TherapistID: "therapist-1",
		StartDate:   start,
		EndDate:     end,
		Goals:       models.GoalProgressList{{GoalID: "goal-1", Progress: 50, MasteryStatus: models.MasteryInProgress, DataPoints: 2, Trend: models.TrendImproving}},
		Summary:     "0 of 1 goals mastered",
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO progress_reports")).WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.Create(context.Background(), report))
	require.NotEmpty(t, report.ID)
	require.False(t, report.CreatedAt.IsZero())

	rows := sqlmock.NewRows([]string{"id", "patient_id", "therapist_id", "start_date", "end_date", "goals", "summary", "recommendations", "next_steps", "created_at"}).
		AddRow(report.ID, "patient-1", "therapist-1", start, end,
			`[{"goalId":"goal-1","title":"","progress":50,"masteryStatus":"in_progress","dataPoints":2,"trend":"improving"}]`,
			"0 of 1 goals mastered", `{"Keep going","Add home practice"}`, `{"Schedule follow-up"}`, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM progress_reports WHERE id = $1")).WithArgs(report.ID).WillReturnRows(rows)

	fetched, err := repo.GetByID(context.Background(), report.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Goals, 1)
	assert.Equal(t, models.TrendImproving, fetched.Goals[0].Trend)
	assert.Equal(t, []string{"Keep going", "Add home practice"}, []string(fetched.Recommendations))
	assert.Equal(t, []string{"Schedule follow-up"}, []string(fetched.NextSteps))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryListByPatientDefaultsLimit(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM progress_reports WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2")).
		WithArgs("patient-1", 20).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	reports, err := repo.ListByPatient(context.Background(), "patient-1", 0)
	require.NoError(t, err)
	assert.Empty(t, reports)
	require.NoError(t, mock.ExpectationsWereMet())
}
