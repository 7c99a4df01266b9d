package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/postoppal-api/internal/model"
	"github.com/jwalitptl/postoppal-api/internal/repository"
)

type scanEventRepository struct {
	BaseRepository
}

func NewScanEventRepository(base BaseRepository) repository.ScanEventRepository {
	return &scanEventRepository{base}
}

func (r *scanEventRepository) Create(ctx context.Context, event *model.ScanEvent) (err error) {
	start := time.Now()
	defer func() { r.observe("scan_event_create", start, err) }()

	query := `
		INSERT INTO qr_scan_events (id, scanned_by, request_id, kind, subject_id, valid, errors, created_at)
		VALUES (:id, :scanned_by, :request_id, :kind, :subject_id, :valid, :errors, :created_at)
	`
	if event.Errors == nil {
		event.Errors = []string{}
	}
	if _, err = r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("failed to record scan event: %w", err)
	}
	return nil
}

func (r *scanEventRepository) List(ctx context.Context, filters *model.ScanEventFilters) (events []*model.ScanEvent, err error) {
	start := time.Now()
	defer func() { r.observe("scan_event_list", start, err) }()

	query := `SELECT id, scanned_by, request_id, kind, subject_id, valid, errors, created_at FROM qr_scan_events WHERE 1=1`
	var args []interface{}

	if filters.SubjectID != "" {
		args = append(args, filters.SubjectID)
		query += fmt.Sprintf(" AND subject_id = $%d", len(args))
	}
	if filters.ScannedBy != "" {
		args = append(args, filters.ScannedBy)
		query += fmt.Sprintf(" AND scanned_by = $%d", len(args))
	}

	args = append(args, filters.Limit(), filters.Offset())
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	if err = r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list scan events: %w", err)
	}
	return events, nil
}

func (r *scanEventRepository) Cleanup(ctx context.Context, before time.Time) (n int64, err error) {
	start := time.Now()
	defer func() { r.observe("scan_event_cleanup", start, err) }()

	query := `
        DELETE FROM qr_scan_events
        WHERE created_at < $1
    `
	res, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup scan events: %w", err)
	}
	return res.RowsAffected()
}
