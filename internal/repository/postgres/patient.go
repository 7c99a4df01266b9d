package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/postoppal-api/internal/model"
	"github.com/jwalitptl/postoppal-api/internal/repository"
)

type patientRepository struct {
	BaseRepository
}

func NewPatientRepository(base BaseRepository) repository.PatientRepository {
	return &patientRepository{base}
}

const patientColumns = `id, name, email, emergency_contact, blood_group, allergies, doctor_id, status, created_at, updated_at`

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) (err error) {
	start := time.Now()
	defer func() { r.observe("patient_create", start, err) }()

	query := `
		INSERT INTO patients (` + patientColumns + `)
		VALUES (:id, :name, :email, :emergency_contact, :blood_group, :allergies, :doctor_id, :status, :created_at, :updated_at)
	`
	now := time.Now().UTC()
	patient.CreatedAt = now
	patient.UpdatedAt = now
	if patient.Status == "" {
		patient.Status = string(model.PatientStatusActive)
	}
	if patient.Allergies == nil {
		patient.Allergies = []string{}
	}

	if _, err = r.db.NamedExecContext(ctx, query, patient); err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id string) (patient *model.Patient, err error) {
	start := time.Now()
	defer func() { r.observe("patient_get", start, err) }()

	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`
	var p model.Patient
	if err = r.db.GetContext(ctx, &p, query, id); err != nil {
		return nil, fmt.Errorf("failed to get patient %s: %w", id, notFound(err))
	}
	return &p, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) (err error) {
	start := time.Now()
	defer func() { r.observe("patient_update", start, err) }()

	query := `
		UPDATE patients
		SET name = :name, email = :email, emergency_contact = :emergency_contact,
		    blood_group = :blood_group, allergies = :allergies, doctor_id = :doctor_id,
		    status = :status, updated_at = :updated_at
		WHERE id = :id
	`
	patient.UpdatedAt = time.Now().UTC()
	if patient.Allergies == nil {
		patient.Allergies = []string{}
	}

	res, err := r.db.NamedExecContext(ctx, query, patient)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = fmt.Errorf("failed to update patient %s: %w", patient.ID, repository.ErrNotFound)
		return err
	}
	return nil
}

func (r *patientRepository) List(ctx context.Context, page model.Pagination) (patients []*model.Patient, err error) {
	start := time.Now()
	defer func() { r.observe("patient_list", start, err) }()

	query := `SELECT ` + patientColumns + ` FROM patients ORDER BY name, id LIMIT $1 OFFSET $2`
	if err = r.db.SelectContext(ctx, &patients, query, page.Limit(), page.Offset()); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}
