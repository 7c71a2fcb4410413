package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/servicedesk/ticket-service/internal/domain"
)

type evidenceRepository struct {
	db DBTX
}

// NewEvidenceRepository creates the evidence metadata repository.
func NewEvidenceRepository(db DBTX) EvidenceRepository {
	return &evidenceRepository{db: db}
}

const evidenceColumns = `id, ticket_id, file_name, content_type, size_bytes, storage_path,
               uploaded_by, uploaded_at, comment, sort_order`

func (r *evidenceRepository) Create(ctx context.Context, evidence *domain.TicketEvidence) error {
	const query = `
        INSERT INTO ticket_evidences (id, ticket_id, file_name, content_type, size_bytes, storage_path,
            uploaded_by, uploaded_at, comment, sort_order)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err := r.db.Exec(ctx, query,
		evidence.ID,
		evidence.TicketID,
		evidence.FileName,
		evidence.ContentType,
		evidence.SizeBytes,
		evidence.StoragePath,
		evidence.UploadedBy,
		evidence.UploadedAt,
		evidence.Comment,
		evidence.SortOrder,
	)
	return mapError(err)
}

func (r *evidenceRepository) GetByID(ctx context.Context, id string) (*domain.TicketEvidence, error) {
	row := r.db.QueryRow(ctx, `SELECT `+evidenceColumns+` FROM ticket_evidences WHERE id=$1`, id)
	evidence, err := scanEvidence(row)
	if err != nil {
		return nil, mapError(err)
	}
	return evidence, nil
}

func (r *evidenceRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketEvidence, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+evidenceColumns+` FROM ticket_evidences WHERE ticket_id=$1 ORDER BY uploaded_at DESC, sort_order DESC`,
		ticketID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	return scanEvidenceRows(rows)
}

func (r *evidenceRepository) ListAll(ctx context.Context) ([]domain.TicketEvidence, error) {
	rows, err := r.db.Query(ctx, `SELECT `+evidenceColumns+` FROM ticket_evidences ORDER BY uploaded_at`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	return scanEvidenceRows(rows)
}

func (r *evidenceRepository) ExistsByStoragePath(ctx context.Context, path string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM ticket_evidences WHERE storage_path=$1)`, path).Scan(&exists)
	return exists, mapError(err)
}

func (r *evidenceRepository) CountByTicket(ctx context.Context, ticketID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM ticket_evidences WHERE ticket_id=$1`, ticketID).Scan(&count)
	return count, mapError(err)
}

func (r *evidenceRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM ticket_evidences WHERE id=$1`, id)
	if err != nil {
		return mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanEvidence(row pgx.Row) (*domain.TicketEvidence, error) {
	var e domain.TicketEvidence
	if err := row.Scan(
		&e.ID,
		&e.TicketID,
		&e.FileName,
		&e.ContentType,
		&e.SizeBytes,
		&e.StoragePath,
		&e.UploadedBy,
		&e.UploadedAt,
		&e.Comment,
		&e.SortOrder,
	); err != nil {
		return nil, err
	}
	e.UploadedAt = e.UploadedAt.UTC()
	return &e, nil
}

func scanEvidenceRows(rows pgx.Rows) ([]domain.TicketEvidence, error) {
	var result []domain.TicketEvidence
	for rows.Next() {
		e, err := scanEvidence(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}
