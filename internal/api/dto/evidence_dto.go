package dto

import (
	"time"

	"github.com/servicedesk/ticket-service/internal/domain"
)

// EvidenceResponse is evidence metadata. The storage key is never exposed.
type EvidenceResponse struct {
	ID          string    `json:"id"`
	TicketID    string    `json:"ticket_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedBy  string    `json:"uploaded_by"`
	UploadedAt  time.Time `json:"uploaded_at"`
	Comment     *string   `json:"comment"`
	SortOrder   int       `json:"sort_order"`
}

// UploadFailureResponse names a file that could not be stored.
type UploadFailureResponse struct {
	FileName string `json:"file_name"`
	Reason   string `json:"reason"`
}

// UploadResponse reports a multi-file upload.
type UploadResponse struct {
	Uploaded []EvidenceResponse      `json:"uploaded"`
	Failed   []UploadFailureResponse `json:"failed"`
}

// NewEvidenceResponse maps evidence metadata.
func NewEvidenceResponse(ev *domain.TicketEvidence) EvidenceResponse {
	return EvidenceResponse{
		ID:          ev.ID,
		TicketID:    ev.TicketID,
		FileName:    ev.FileName,
		ContentType: ev.ContentType,
		SizeBytes:   ev.SizeBytes,
		UploadedBy:  ev.UploadedBy,
		UploadedAt:  ev.UploadedAt,
		Comment:     ev.Comment,
		SortOrder:   ev.SortOrder,
	}
}

// NewEvidenceList maps a list of evidence.
func NewEvidenceList(items []domain.TicketEvidence) []EvidenceResponse {
	out := make([]EvidenceResponse, 0, len(items))
	for i := range items {
		out = append(out, NewEvidenceResponse(&items[i]))
	}
	return out
}
