package domain

import "time"

// TicketEvidence is metadata for a file attached to a ticket. StoragePath is
// the blob key and never leaves the service.
type TicketEvidence struct {
	ID          string
	TicketID    string
	FileName    string
	ContentType string
	SizeBytes   int64
	StoragePath string
	UploadedBy  string
	UploadedAt  time.Time
	Comment     *string
	SortOrder   int
}

// SLARule overrides the fallback resolution target for a priority.
type SLARule struct {
	Priority  TicketPriority
	Hours     int
	UpdatedAt time.Time
}
