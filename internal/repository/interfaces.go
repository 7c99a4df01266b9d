package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jwalitptl/postoppal-api/internal/model"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// All repository interfaces in one file
type (
	// PatientRepository reads and maintains the patient directory
	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id string) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		List(ctx context.Context, page model.Pagination) ([]*model.Patient, error)
	}

	// FacilityRepository reads and maintains the facility directory
	FacilityRepository interface {
		Create(ctx context.Context, facility *model.Facility) error
		Get(ctx context.Context, id string) (*model.Facility, error)
		List(ctx context.Context, page model.Pagination) ([]*model.Facility, error)
	}

	// ScanEventRepository is the append-only scan audit log
	ScanEventRepository interface {
		Create(ctx context.Context, event *model.ScanEvent) error
		List(ctx context.Context, filters *model.ScanEventFilters) ([]*model.ScanEvent, error)
		Cleanup(ctx context.Context, before time.Time) (int64, error)
	}
)
