package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/aac-therapy-api/internal/models"
)

func TestSessionRepositoryListByPatientCapsLimit(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	date := time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "patient_id", "therapist_id", "session_date", "duration_minutes", "goal_ids", "task_ids", "measurements", "notes", "created_at"}).
		AddRow("session-1", "patient-1", "therapist-1", date, 45, `{goal-1,goal-2}`, `{}`,
			`[{"goalId":"goal-1","activity":"snack request","attempts":10,"successes":8,"promptsGiven":2,"independence":70,"accuracy":80}]`,
			"good focus", date)
	mock.ExpectQuery(regexp.QuoteMeta("FROM therapy_sessions WHERE patient_id = $1 ORDER BY session_date DESC LIMIT $2")).
		WithArgs("patient-1", MaxSessionHistory).
		WillReturnRows(rows)

	sessions, err := repo.ListByPatient(context.Background(), "patient-1", 500)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].AddressesGoal("goal-2"))
	assert.False(t, sessions[0].AddressesGoal("goal-3"))
	require.Len(t, sessions[0].Measurements, 1)
	assert.Equal(t, 8, sessions[0].Measurements[0].Successes)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepositoryListByGoalsSkipsEmptyInput(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	tasks, err := repo.ListByGoals(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, tasks)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepositoryUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE therapy_tasks SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.TherapyTask{ID: missingID})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepositoryUpsertUsesConflictClause(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (patient_id) DO UPDATE")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), &models.PatientProfile{
		PatientID:          "patient-1",
		CommunicationLevel: models.DifficultyBeginner,
		CognitiveLevel:     models.DifficultyIntermediate,
		MotorLevel:         models.DifficultyBeginner,
		UpdatedAt:          time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
