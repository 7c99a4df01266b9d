package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/postoppal-api/internal/model"
	"github.com/jwalitptl/postoppal-api/internal/repository"
)

type facilityRepository struct {
	BaseRepository
}

func NewFacilityRepository(base BaseRepository) repository.FacilityRepository {
	return &facilityRepository{base}
}

const facilityColumns = `id, name, department, location, contact, created_at, updated_at`

func (r *facilityRepository) Create(ctx context.Context, facility *model.Facility) (err error) {
	start := time.Now()
	defer func() { r.observe("facility_create", start, err) }()

	query := `
		INSERT INTO facilities (` + facilityColumns + `)
		VALUES (:id, :name, :department, :location, :contact, :created_at, :updated_at)
	`
	now := time.Now().UTC()
	facility.CreatedAt = now
	facility.UpdatedAt = now

	if _, err = r.db.NamedExecContext(ctx, query, facility); err != nil {
		return fmt.Errorf("failed to create facility: %w", err)
	}
	return nil
}

func (r *facilityRepository) Get(ctx context.Context, id string) (facility *model.Facility, err error) {
	start := time.Now()
	defer func() { r.observe("facility_get", start, err) }()

	query := `SELECT ` + facilityColumns + ` FROM facilities WHERE id = $1`
	var f model.Facility
	if err = r.db.GetContext(ctx, &f, query, id); err != nil {
		return nil, fmt.Errorf("failed to get facility %s: %w", id, notFound(err))
	}
	return &f, nil
}

func (r *facilityRepository) List(ctx context.Context, page model.Pagination) (facilities []*model.Facility, err error) {
	start := time.Now()
	defer func() { r.observe("facility_list", start, err) }()

	query := `SELECT ` + facilityColumns + ` FROM facilities ORDER BY name, id LIMIT $1 OFFSET $2`
	if err = r.db.SelectContext(ctx, &facilities, query, page.Limit(), page.Offset()); err != nil {
		return nil, fmt.Errorf("failed to list facilities: %w", err)
	}
	return facilities, nil
}
