package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ScanEvent records one scanned QR code for the audit trail.
type ScanEvent struct {
	ID        uuid.UUID      `db:"id" json:"id"`
	ScannedBy string         `db:"scanned_by" json:"scanned_by"`
	RequestID string         `db:"request_id" json:"request_id,omitempty"`
	Kind      string         `db:"kind" json:"kind"`
	SubjectID string         `db:"subject_id" json:"subject_id,omitempty"`
	Valid     bool           `db:"valid" json:"valid"`
	Errors    pq.StringArray `db:"errors" json:"errors"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

type ScanEventFilters struct {
	Pagination
	SubjectID string `form:"subject_id"`
	ScannedBy string `form:"scanned_by"`
}
