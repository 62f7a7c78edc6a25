package database

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func TestMigrateSkipsAppliedVersions(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()
	db := sqlx.NewDb(raw, "postgres")

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT version FROM schema_migrations")).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("0001_therapy_core"))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS progress_reports")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations")).
		WithArgs("0002_reports_collaboration").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ran, err := Migrate(context.Background(), db, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"0002_reports_collaboration"}, ran)
	require.NoError(t, mock.ExpectationsWereMet())
}
