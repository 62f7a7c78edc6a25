package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/aac-therapy-api/internal/models"
)

// ProfileRepository persists patient skill profiles.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs the repository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Upsert inserts or replaces the profile of a patient.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *models.PatientProfile) error {
	const query = `INSERT INTO patient_profiles (patient_id, display_name, communication_level, cognitive_level, motor_level, updated_at)
VALUES (:patient_id, :display_name, :communication_level, :cognitive_level, :motor_level, :updated_at)
ON CONFLICT (patient_id) DO UPDATE SET display_name = EXCLUDED.display_name,
	communication_level = EXCLUDED.communication_level, cognitive_level = EXCLUDED.cognitive_level,
	motor_level = EXCLUDED.motor_level, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("upsert patient profile: %w", err)
	}
	return nil
}

// GetByPatientID fetches a profile. sql.ErrNoRows is returned unwrapped.
func (r *ProfileRepository) GetByPatientID(ctx context.Context, patientID string) (*models.PatientProfile, error) {
	const query = `SELECT patient_id, display_name, communication_level, cognitive_level, motor_level, updated_at
FROM patient_profiles WHERE patient_id = $1`
	var profile models.PatientProfile
	if err := r.db.GetContext(ctx, &profile, query, patientID); err != nil {
		return nil, err
	}
	return &profile, nil
}
