package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/aac-therapy-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

const (
	goalID    = "6f1c2d7e-3b4a-4c5d-9e8f-0a1b2c3d4e5f"
	requestID = "0c9d8e7f-6a5b-4c3d-8e2f-1a0b9c8d7e6f"
	missingID = "00000000-0000-4000-8000-000000000000"
)

func floatPtr(v float64) *float64 { return &v }

func TestMalformedIDsNeverReachTheDatabase(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := NewGoalRepository(db).GetByID(ctx, "abc")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.ErrorIs(t, NewGoalRepository(db).UpdateStatus(ctx, "abc", models.GoalStatusPaused, now), sql.ErrNoRows)
	records, err := NewGoalRepository(db).ListMeasurements(ctx, "abc", 10)
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = NewTaskRepository(db).GetByID(ctx, "abc")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	tasks, err := NewTaskRepository(db).ListByGoal(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, tasks)
	tasks, err = NewTaskRepository(db).ListByGoals(ctx, []string{"abc", "def"})
	require.NoError(t, err)
	assert.Empty(t, tasks)
	badGoal := "abc"
	assert.ErrorIs(t, NewTaskRepository(db).Update(ctx, &models.TherapyTask{ID: missingID, GoalID: &badGoal}), sql.ErrNoRows)

	_, err = NewSessionRepository(db).GetByID(ctx, "abc")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, err = NewReportRepository(db).GetByID(ctx, "abc")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, err = NewCollaborationRepository(db).GetRequest(ctx, "abc")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.ErrorIs(t, NewCollaborationRepository(db).Decline(ctx, "abc", now), sql.ErrNoRows)
	_, err = NewExportRepository(db).GetByID(ctx, "abc")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGoalRepositoryGetByIDScansJSONColumns(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGoalRepository(db)

	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "patient_id", "therapist_id", "discipline", "title", "description", "baseline", "target",
		"mastery_criteria", "current_progress", "mastery_streak", "status", "mastered_at", "created_at", "updated_at"}).
		AddRow(goalID, "patient-1", "therapist-1", "speech", "Request items", "",
			`{"frequency":0,"capturedAt":"2024-03-01T10:00:00Z"}`,
			`{"frequency":10,"timeframeDays":30}`,
			`{"consecutiveDays":3,"accuracyThreshold":80,"independenceThreshold":70}`,
			`{"frequency":4,"accuracy":60,"lastUpdated":"2024-03-01T10:00:00Z"}`,
			1, "active", nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM therapy_goals WHERE id = $1")).WithArgs(goalID).WillReturnRows(rows)

	goal, err := repo.GetByID(context.Background(), goalID)
	require.NoError(t, err)
	assert.Equal(t, models.DisciplineSpeech, goal.Discipline)
	assert.Equal(t, 10.0, goal.Target.Frequency)
	assert.Equal(t, 3, goal.MasteryCriteria.ConsecutiveDays)
	require.NotNil(t, goal.CurrentProgress.Accuracy)
	assert.Equal(t, 60.0, *goal.CurrentProgress.Accuracy)
	assert.Nil(t, goal.CurrentProgress.Independence)
	assert.Nil(t, goal.MasteredAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGoalRepositoryGetByIDNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGoalRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM therapy_goals WHERE id = $1")).WithArgs(missingID).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), missingID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func measuredGoal() (*models.TherapyGoal, *models.MeasurementRecord) {
	now := time.Now().UTC()
	goal := &models.TherapyGoal{
		ID:              goalID,
		CurrentProgress: models.CurrentProgress{Frequency: 10, Accuracy: floatPtr(85), Independence: floatPtr(75), LastUpdated: now},
		MasteryStreak:   1,
		Status:          models.GoalStatusMastered,
		MasteredAt:      &now,
		UpdatedAt:       now,
	}
	record := &models.MeasurementRecord{Frequency: floatPtr(10), Accuracy: floatPtr(85), Independence: floatPtr(75), Qualifying: true, RecordedBy: "therapist-1", RecordedAt: now}
	return goal, record
}

func TestGoalRepositoryApplyMeasurementCommits(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGoalRepository(db)
	goal, record := measuredGoal()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE therapy_goals SET current_progress = $1, mastery_streak = $2, status = $3, mastered_at = $4, updated_at = $5 WHERE id = $6")).
		WithArgs(sqlmock.AnyArg(), 1, models.GoalStatusMastered, sqlmock.AnyArg(), goal.UpdatedAt, goalID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO goal_measurements")).
		WithArgs(sqlmock.AnyArg(), goalID, sqlmock.AnyArg(), nil, sqlmock.AnyArg(), sqlmock.AnyArg(), true, "therapist-1", record.RecordedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.ApplyMeasurement(context.Background(), goal, record))
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, goalID, record.GoalID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGoalRepositoryApplyMeasurementMissingGoalRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGoalRepository(db)
	goal, record := measuredGoal()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE therapy_goals SET current_progress")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.ApplyMeasurement(context.Background(), goal, record)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGoalRepositoryApplyMeasurementInsertFailureRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGoalRepository(db)
	goal, record := measuredGoal()
	boom := errors.New("disk full")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE therapy_goals SET current_progress")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO goal_measurements")).WillReturnError(boom)
	mock.ExpectRollback()

	err := repo.ApplyMeasurement(context.Background(), goal, record)
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGoalRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGoalRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE therapy_goals SET status = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(models.GoalStatusPaused, now, goalID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE therapy_goals SET status = $1")).
		WithArgs(models.GoalStatusPaused, now, missingID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdateStatus(context.Background(), goalID, models.GoalStatusPaused, now))
	assert.ErrorIs(t, repo.UpdateStatus(context.Background(), missingID, models.GoalStatusPaused, now), sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
