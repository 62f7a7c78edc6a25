package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/aac-therapy-api/internal/dto"
	"github.com/noah-isme/aac-therapy-api/internal/models"
	appErrors "github.com/noah-isme/aac-therapy-api/pkg/errors"
	"github.com/noah-isme/aac-therapy-api/pkg/jobs"
)

type failingGenerator struct{ err error }

func (g failingGenerator) Generate(ctx context.Context, job *models.ReportExportJob) (*ExportResult, error) {
	return nil, g.err
}

func newExportJobFixture(t *testing.T) (*ReportExportService, *mockExportRepo, *mockQueue, *ExportService) {
	t.Helper()
	exporter, _ := newExportServiceForTest(t)
	repo := newMockExportRepo()
	queue := &mockQueue{}
	reports := reportReaderStub{reports: map[string]*models.ProgressReport{"report-1": sampleReport()}}
	svc := NewReportExportService(repo, reports, queue, exporter, nil, ReportExportConfig{ResultTTL: time.Hour})
	return svc, repo, queue, exporter
}

func TestReportExportServiceRequestExport(t *testing.T) {
	svc, repo, queue, _ := newExportJobFixture(t)
	ctx := context.Background()

	resp, err := svc.RequestExport(ctx, "report-1", dto.ExportRequest{Format: "XLSX"}, "therapist-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, resp.Status)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, JobKindReportExport, queue.jobs[0].Kind)
	assert.Equal(t, "xlsx", repo.items[resp.ID].Format)

	_, err = svc.RequestExport(ctx, "report-1", dto.ExportRequest{Format: "docx"}, "therapist-1")
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.RequestExport(ctx, "missing", dto.ExportRequest{Format: "csv"}, "therapist-1")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestReportExportServiceEnqueueFailureMarksJobFailed(t *testing.T) {
	svc, repo, queue, _ := newExportJobFixture(t)
	queue.err = jobs.ErrQueueStopped

	_, err := svc.RequestExport(context.Background(), "report-1", dto.ExportRequest{Format: "csv"}, "therapist-1")
	require.ErrorIs(t, err, appErrors.ErrDependencyFailure)
	for _, job := range repo.items {
		assert.Equal(t, models.ExportStatusFailed, job.Status)
	}
}

func TestExportWorkerLifecycleAndDownload(t *testing.T) {
	svc, repo, queue, exporter := newExportJobFixture(t)
	ctx := context.Background()

	resp, err := svc.RequestExport(ctx, "report-1", dto.ExportRequest{Format: "csv"}, "therapist-1")
	require.NoError(t, err)

	worker := NewExportWorker(repo, exporter, 3, nil)
	require.NoError(t, worker.Handle(ctx, queue.jobs[0]))

	status, err := svc.GetStatus(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFinished, status.Status)
	assert.Equal(t, 100, status.Progress)
	require.NotNil(t, status.DownloadURL)

	download, err := svc.ResolveDownload(ctx, extractToken(*status.DownloadURL))
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, "text/csv", download.ContentType)
	body, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Request items")

	_, err = svc.ResolveDownload(ctx, "garbage")
	require.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestExportWorkerRetriesThenFails(t *testing.T) {
	repo := newMockExportRepo()
	job := &models.ReportExportJob{ReportID: "report-1", Format: "pdf"}
	require.NoError(t, repo.Create(context.Background(), job))
	worker := NewExportWorker(repo, failingGenerator{err: errors.New("renderer crashed")}, 1, nil)

	err := worker.Handle(context.Background(), jobs.Job{ID: job.ID, Attempt: 0})
	require.Error(t, err)
	assert.Equal(t, models.ExportStatusQueued, repo.items[job.ID].Status)

	err = worker.Handle(context.Background(), jobs.Job{ID: job.ID, Attempt: 1})
	require.Error(t, err)
	stored := repo.items[job.ID]
	assert.Equal(t, models.ExportStatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
	assert.Equal(t, "renderer crashed", *stored.ErrorMessage)
	require.NotNil(t, stored.FinishedAt)
}

func TestReportExportServiceRecoverPendingJobs(t *testing.T) {
	svc, repo, queue, _ := newExportJobFixture(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &models.ReportExportJob{ReportID: "report-1", Format: "csv", Status: models.ExportStatusQueued}))
	require.NoError(t, repo.Create(ctx, &models.ReportExportJob{ReportID: "report-1", Format: "csv", Status: models.ExportStatusFinished}))

	assert.Equal(t, 1, svc.RecoverPendingJobs(ctx))
	assert.Len(t, queue.jobs, 1)
}

func TestReportExportServiceCleanupRemovesExpiredFiles(t *testing.T) {
	svc, repo, queue, exporter := newExportJobFixture(t)
	ctx := context.Background()
	resp, err := svc.RequestExport(ctx, "report-1", dto.ExportRequest{Format: "csv"}, "therapist-1")
	require.NoError(t, err)
	require.NoError(t, NewExportWorker(repo, exporter, 0, nil).Handle(ctx, queue.jobs[0]))

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	svc.cleanupExpired(ctx)

	_, _, _, err = exporter.ParseToken(extractToken(*repo.items[resp.ID].ResultURL), true)
	require.NoError(t, err)
	_, err = svc.ResolveDownload(ctx, extractToken(*repo.items[resp.ID].ResultURL))
	require.Error(t, err)
}

func TestReportExportServiceStartCleanupDisabled(t *testing.T) {
	svc, _, _, _ := newExportJobFixture(t)
	stop, err := svc.StartCleanup(context.Background())
	require.NoError(t, err)
	stop()
}
