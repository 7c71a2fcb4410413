package repository

import (
	"context"

	"github.com/servicedesk/ticket-service/internal/domain"
)

type slaRuleRepository struct {
	db DBTX
}

// NewSLARuleRepository creates the SLA override repository.
func NewSLARuleRepository(db DBTX) SLARuleRepository {
	return &slaRuleRepository{db: db}
}

func (r *slaRuleRepository) Get(ctx context.Context, priority domain.TicketPriority) (*domain.SLARule, error) {
	var rule domain.SLARule
	err := r.db.QueryRow(ctx,
		`SELECT hours, updated_at FROM sla_rules WHERE priority=$1`,
		priority.Ordinal(),
	).Scan(&rule.Hours, &rule.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	rule.Priority = priority
	rule.UpdatedAt = rule.UpdatedAt.UTC()
	return &rule, nil
}

func (r *slaRuleRepository) List(ctx context.Context) ([]domain.SLARule, error) {
	rows, err := r.db.Query(ctx, `SELECT priority, hours, updated_at FROM sla_rules ORDER BY priority`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var result []domain.SLARule
	for rows.Next() {
		var (
			rule     domain.SLARule
			priority int
		)
		if err := rows.Scan(&priority, &rule.Hours, &rule.UpdatedAt); err != nil {
			return nil, err
		}
		if rule.Priority, err = domain.PriorityFromOrdinal(priority); err != nil {
			return nil, err
		}
		rule.UpdatedAt = rule.UpdatedAt.UTC()
		result = append(result, rule)
	}
	return result, rows.Err()
}

func (r *slaRuleRepository) Upsert(ctx context.Context, rule *domain.SLARule) error {
	const query = `
        INSERT INTO sla_rules (priority, hours, updated_at) VALUES ($1,$2,$3)
        ON CONFLICT (priority) DO UPDATE SET hours=EXCLUDED.hours, updated_at=EXCLUDED.updated_at`
	_, err := r.db.Exec(ctx, query, rule.Priority.Ordinal(), rule.Hours, rule.UpdatedAt)
	return mapError(err)
}
