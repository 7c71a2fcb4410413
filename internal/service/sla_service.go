package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/servicedesk/ticket-service/internal/domain"
	"github.com/servicedesk/ticket-service/internal/repository"
	"github.com/servicedesk/ticket-service/pkg/util"
)

// FallbackSLAHours is the resolution target used when no rule overrides a
// priority.
func FallbackSLAHours(p domain.TicketPriority) int {
	switch p {
	case domain.TicketPriorityP1:
		return 4
	case domain.TicketPriorityP2:
		return 24
	default:
		return 72
	}
}

// SLARuleView is one priority row of the admin SLA table.
type SLARuleView struct {
	Priority  domain.TicketPriority
	Hours     int
	IsDefault bool
	UpdatedAt *time.Time
}

// SLAService resolves and administers SLA targets.
type SLAService struct {
	store  repository.Store
	logger *zap.Logger
	clock  clock
}

// NewSLAService constructs the service. now may be nil.
func NewSLAService(store repository.Store, logger *zap.Logger, now func() time.Time) *SLAService {
	return &SLAService{store: store, logger: logger, clock: now}
}

// ResolveHours returns the override for p or its fallback. It is never
// cached so rule edits apply to the next resolution.
func (s *SLAService) ResolveHours(ctx context.Context, p domain.TicketPriority) (int, error) {
	return s.resolve(ctx, s.store.Repos(), p)
}

func (s *SLAService) resolve(ctx context.Context, uow repository.UnitOfWork, p domain.TicketPriority) (int, error) {
	rule, err := uow.SLARules().Get(ctx, p)
	switch {
	case err == nil:
		return rule.Hours, nil
	case errors.Is(err, repository.ErrNotFound):
		return FallbackSLAHours(p), nil
	default:
		return 0, err
	}
}

// List returns one row per priority in ordinal order.
func (s *SLAService) List(ctx context.Context) ([]SLARuleView, error) {
	rules, err := s.store.Repos().SLARules().List(ctx)
	if err != nil {
		return nil, storeError(err, "sla rule")
	}
	byPriority := make(map[domain.TicketPriority]domain.SLARule, len(rules))
	for _, r := range rules {
		byPriority[r.Priority] = r
	}
	out := make([]SLARuleView, 0, len(domain.AllPriorities()))
	for _, p := range domain.AllPriorities() {
		rule, ok := byPriority[p]
		if !ok {
			out = append(out, SLARuleView{Priority: p, Hours: FallbackSLAHours(p), IsDefault: true})
			continue
		}
		updated := rule.UpdatedAt
		out = append(out, SLARuleView{Priority: p, Hours: rule.Hours, UpdatedAt: &updated})
	}
	return out, nil
}

// Upsert sets the override for a priority.
func (s *SLAService) Upsert(ctx context.Context, rawPriority string, hours int) (*domain.SLARule, error) {
	priority, err := domain.ParseTicketPriority(rawPriority)
	if err != nil {
		return nil, fieldError("priority", err.Error())
	}
	if hours < domain.MinSLAHours || hours > domain.MaxSLAHours {
		return nil, util.NewValidationError("hours must be between 1 and 720", map[string]any{"field": "hours", "value": hours})
	}
	rule := &domain.SLARule{Priority: priority, Hours: hours, UpdatedAt: s.clock.now()}
	if err := s.store.Repos().SLARules().Upsert(ctx, rule); err != nil {
		return nil, storeError(err, "sla rule")
	}
	s.logger.Info("sla rule updated", zap.String("priority", string(priority)), zap.Int("hours", hours))
	return rule, nil
}
