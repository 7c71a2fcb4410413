package repository

import (
	"context"

	"github.com/servicedesk/ticket-service/internal/domain"
)

type ticketEventRepository struct {
	db DBTX
}

// NewTicketEventRepository creates the raw audit log repository.
func NewTicketEventRepository(db DBTX) TicketEventRepository {
	return &ticketEventRepository{db: db}
}

func (r *ticketEventRepository) Append(ctx context.Context, event *domain.TicketEvent) error {
	const query = `
        INSERT INTO ticket_events (id, ticket_id, type, message, created_by, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := r.db.Exec(ctx, query, event.ID, event.TicketID, event.Type, event.Message, event.By, event.CreatedAt)
	return mapError(err)
}

func (r *ticketEventRepository) ListByTicket(ctx context.Context, ticketID, eventType string) ([]domain.TicketEvent, error) {
	query := `SELECT id, ticket_id, type, message, created_by, created_at FROM ticket_events WHERE ticket_id=$1`
	args := []any{ticketID}
	if eventType != "" {
		args = append(args, eventType)
		query += ` AND type=$2`
	}
	query += ` ORDER BY created_at DESC, seq DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var result []domain.TicketEvent
	for rows.Next() {
		var ev domain.TicketEvent
		if err := rows.Scan(&ev.ID, &ev.TicketID, &ev.Type, &ev.Message, &ev.By, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.CreatedAt = ev.CreatedAt.UTC()
		result = append(result, ev)
	}
	return result, rows.Err()
}
