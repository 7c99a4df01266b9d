package printing

import (
	"time"

	"github.com/google/uuid"
)

// PrintJob is a rendered document queued for a print station.
type PrintJob struct {
	ID          uuid.UUID `json:"id"`
	Station     string    `json:"station,omitempty"`
	Document    string    `json:"document"`
	RequestedAt time.Time `json:"requested_at"`
}
