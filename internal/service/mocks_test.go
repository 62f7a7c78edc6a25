package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/aac-therapy-api/internal/models"
	"github.com/noah-isme/aac-therapy-api/internal/repository"
	"github.com/noah-isme/aac-therapy-api/pkg/jobs"
)

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }

type mockGoalRepo struct {
	items        map[string]*models.TherapyGoal
	measurements []models.MeasurementRecord
	applyErr     error
	seq          int
}

func newMockGoalRepo(goals ...models.TherapyGoal) *mockGoalRepo {
	m := &mockGoalRepo{items: map[string]*models.TherapyGoal{}}
	for i := range goals {
		g := goals[i]
		m.items[g.ID] = &g
	}
	return m
}

func (m *mockGoalRepo) Create(ctx context.Context, goal *models.TherapyGoal) error {
	m.seq++
	if goal.ID == "" {
		goal.ID = fmt.Sprintf("goal-%d", m.seq)
	}
	cp := *goal
	m.items[goal.ID] = &cp
	return nil
}

func (m *mockGoalRepo) GetByID(ctx context.Context, id string) (*models.TherapyGoal, error) {
	goal, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *goal
	return &cp, nil
}

func (m *mockGoalRepo) ListByPatient(ctx context.Context, patientID string) ([]models.TherapyGoal, error) {
	var out []models.TherapyGoal
	for _, g := range m.items {
		if g.PatientID == patientID {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockGoalRepo) ApplyMeasurement(ctx context.Context, goal *models.TherapyGoal, record *models.MeasurementRecord) error {
	if m.applyErr != nil {
		return m.applyErr
	}
	if _, ok := m.items[goal.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *goal
	m.items[goal.ID] = &cp
	m.measurements = append(m.measurements, *record)
	return nil
}

func (m *mockGoalRepo) UpdateStatus(ctx context.Context, id string, status models.GoalStatus, updatedAt time.Time) error {
	goal, ok := m.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	goal.Status = status
	goal.UpdatedAt = updatedAt
	return nil
}

func (m *mockGoalRepo) ListMeasurements(ctx context.Context, goalID string, limit int) ([]models.MeasurementRecord, error) {
	var out []models.MeasurementRecord
	for _, r := range m.measurements {
		if r.GoalID == goalID {
			out = append(out, r)
		}
	}
	return out, nil
}

type mockTaskRepo struct {
	items map[string]*models.TherapyTask
	seq   int
}

func newMockTaskRepo(tasks ...models.TherapyTask) *mockTaskRepo {
	m := &mockTaskRepo{items: map[string]*models.TherapyTask{}}
	for i := range tasks {
		t := tasks[i]
		m.items[t.ID] = &t
	}
	return m
}

func (m *mockTaskRepo) Create(ctx context.Context, task *models.TherapyTask) error {
	m.seq++
	if task.ID == "" {
		task.ID = fmt.Sprintf("task-%d", m.seq)
	}
	cp := *task
	m.items[task.ID] = &cp
	return nil
}

func (m *mockTaskRepo) GetByID(ctx context.Context, id string) (*models.TherapyTask, error) {
	task, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *task
	return &cp, nil
}

func (m *mockTaskRepo) ListByGoal(ctx context.Context, goalID string) ([]models.TherapyTask, error) {
	return m.ListByGoals(ctx, []string{goalID})
}

func (m *mockTaskRepo) ListByGoals(ctx context.Context, goalIDs []string) ([]models.TherapyTask, error) {
	var out []models.TherapyTask
	for _, t := range m.items {
		if t.GoalID != nil && containsString(goalIDs, *t.GoalID) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockTaskRepo) Update(ctx context.Context, task *models.TherapyTask) error {
	if _, ok := m.items[task.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *task
	m.items[task.ID] = &cp
	return nil
}

type mockProfileRepo struct {
	items map[string]*models.PatientProfile
	err   error
}

func (m *mockProfileRepo) Upsert(ctx context.Context, profile *models.PatientProfile) error {
	if m.err != nil {
		return m.err
	}
	if m.items == nil {
		m.items = map[string]*models.PatientProfile{}
	}
	cp := *profile
	m.items[profile.PatientID] = &cp
	return nil
}

func (m *mockProfileRepo) GetByPatientID(ctx context.Context, patientID string) (*models.PatientProfile, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.items[patientID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

type mockSessionRepo struct {
	items     []models.TherapySession
	lastLimit int
	err       error
}

func (m *mockSessionRepo) Create(ctx context.Context, session *models.TherapySession) error {
	if m.err != nil {
		return m.err
	}
	if session.ID == "" {
		session.ID = fmt.Sprintf("session-%d", len(m.items)+1)
	}
	m.items = append(m.items, *session)
	return nil
}

func (m *mockSessionRepo) GetByID(ctx context.Context, id string) (*models.TherapySession, error) {
	for _, s := range m.items {
		if s.ID == id {
			cp := s
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockSessionRepo) ListByPatient(ctx context.Context, patientID string, limit int) ([]models.TherapySession, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastLimit = limit
	var out []models.TherapySession
	for _, s := range m.items {
		if s.PatientID == patientID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionDate.After(out[j].SessionDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type mockReportRepo struct {
	items     []models.ProgressReport
	gets      int
	createErr error
}

func (m *mockReportRepo) Create(ctx context.Context, report *models.ProgressReport) error {
	if m.createErr != nil {
		return m.createErr
	}
	if report.ID == "" {
		report.ID = fmt.Sprintf("report-%d", len(m.items)+1)
	}
	m.items = append(m.items, *report)
	return nil
}

func (m *mockReportRepo) GetByID(ctx context.Context, id string) (*models.ProgressReport, error) {
	m.gets++
	for _, r := range m.items {
		if r.ID == id {
			cp := r
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockReportRepo) ListByPatient(ctx context.Context, patientID string, limit int) ([]models.ProgressReport, error) {
	var out []models.ProgressReport
	for i := len(m.items) - 1; i >= 0; i-- {
		if m.items[i].PatientID == patientID {
			out = append(out, m.items[i])
		}
	}
	return out, nil
}

func (m *mockReportRepo) Latest(ctx context.Context, patientID string) (*models.ProgressReport, error) {
	for i := len(m.items) - 1; i >= 0; i-- {
		if m.items[i].PatientID == patientID {
			cp := m.items[i]
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

type mockCache struct {
	entries map[string]interface{}
	sets    int
}

func newMockCache() *mockCache {
	return &mockCache{entries: map[string]interface{}{}}
}

func (m *mockCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	v, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	switch d := dest.(type) {
	case *models.ProgressReport:
		*d = *(v.(*models.ProgressReport))
	case *[]models.ProgressReport:
		*d = v.([]models.ProgressReport)
	}
	return true, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.sets++
	m.entries[key] = value
	return nil
}

func (m *mockCache) Invalidate(ctx context.Context, pattern string) error {
	prefix := pattern
	if n := len(prefix); n > 0 && prefix[n-1] == '*' {
		prefix = prefix[:n-1]
	}
	for k := range m.entries {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(m.entries, k)
		}
	}
	return nil
}

type mockCollaborationRepo struct {
	requests      map[string]*models.CollaborationRequest
	relationships []models.TherapistPatientRelationship
	acceptErr     error
	seq           int
}

func newMockCollaborationRepo() *mockCollaborationRepo {
	return &mockCollaborationRepo{requests: map[string]*models.CollaborationRequest{}}
}

func (m *mockCollaborationRepo) CreateRequest(ctx context.Context, req *models.CollaborationRequest) error {
	m.seq++
	if req.ID == "" {
		req.ID = fmt.Sprintf("request-%d", m.seq)
	}
	cp := *req
	m.requests[req.ID] = &cp
	return nil
}

func (m *mockCollaborationRepo) GetRequest(ctx context.Context, id string) (*models.CollaborationRequest, error) {
	r, ok := m.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *r
	return &cp, nil
}

func (m *mockCollaborationRepo) HasPendingRequest(ctx context.Context, patientID, therapistID string) (bool, error) {
	for _, r := range m.requests {
		if r.PatientID == patientID && r.TherapistID == therapistID && r.Status == models.RequestStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCollaborationRepo) HasActiveRelationship(ctx context.Context, therapistID, patientID string) (bool, error) {
	for _, r := range m.relationships {
		if r.TherapistID == therapistID && r.PatientID == patientID && r.Status == models.RelationshipActive {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCollaborationRepo) ListRequests(ctx context.Context, filter models.RequestFilter) ([]models.CollaborationRequest, error) {
	var out []models.CollaborationRequest
	for _, r := range m.requests {
		if filter.TherapistID != "" && r.TherapistID != filter.TherapistID {
			continue
		}
		if filter.TherapistID == "" && filter.PatientID != "" && r.PatientID != filter.PatientID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockCollaborationRepo) ListRelationships(ctx context.Context, therapistID string) ([]models.TherapistPatientRelationship, error) {
	var out []models.TherapistPatientRelationship
	for _, r := range m.relationships {
		if r.TherapistID == therapistID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockCollaborationRepo) Decline(ctx context.Context, id string, updatedAt time.Time) error {
	r, ok := m.requests[id]
	if !ok || r.Status != models.RequestStatusPending {
		return sql.ErrNoRows
	}
	r.Status = models.RequestStatusDeclined
	r.UpdatedAt = updatedAt
	return nil
}

// Accept mimics the transactional repository: nothing is written when the
// insert fails.
func (m *mockCollaborationRepo) Accept(ctx context.Context, requestID string, updatedAt time.Time, rel *models.TherapistPatientRelationship) error {
	r, ok := m.requests[requestID]
	if !ok || r.Status != models.RequestStatusPending {
		return sql.ErrNoRows
	}
	if m.acceptErr != nil {
		return m.acceptErr
	}
	r.Status = models.RequestStatusAccepted
	r.UpdatedAt = updatedAt
	m.seq++
	rel.ID = fmt.Sprintf("relationship-%d", m.seq)
	rel.RequestID = &requestID
	m.relationships = append(m.relationships, *rel)
	return nil
}

type mockExportRepo struct {
	mu    sync.Mutex
	items map[string]*models.ReportExportJob
	seq   int
}

func newMockExportRepo() *mockExportRepo {
	return &mockExportRepo{items: map[string]*models.ReportExportJob{}}
}

func (m *mockExportRepo) Create(ctx context.Context, job *models.ReportExportJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	if job.ID == "" {
		job.ID = fmt.Sprintf("export-%d", m.seq)
	}
	cp := *job
	m.items[job.ID] = &cp
	return nil
}

func (m *mockExportRepo) GetByID(ctx context.Context, id string) (*models.ReportExportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *job
	return &cp, nil
}

func (m *mockExportRepo) Update(ctx context.Context, id string, params repository.UpdateExportParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (m *mockExportRepo) ListQueued(ctx context.Context, limit int) ([]models.ReportExportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ReportExportJob
	for _, job := range m.items {
		if job.Status == models.ExportStatusQueued {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (m *mockExportRepo) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportExportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ReportExportJob
	for _, job := range m.items {
		if job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			out = append(out, *job)
		}
	}
	return out, nil
}

type mockQueue struct {
	jobs []jobs.Job
	err  error
}

func (m *mockQueue) Enqueue(job jobs.Job) error {
	if m.err != nil {
		return m.err
	}
	m.jobs = append(m.jobs, job)
	return nil
}
