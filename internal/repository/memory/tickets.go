package memory

import (
	"context"
	"sort"
	"time"

	"github.com/servicedesk/ticket-service/internal/domain"
	"github.com/servicedesk/ticket-service/internal/repository"
)

type ticketRepo struct {
	with access
}

func (r *ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	return r.with(func(st *state) error {
		if _, exists := st.tickets[ticket.ID]; exists {
			return repository.ErrDuplicate
		}
		ticket.Version = 1
		st.tickets[ticket.ID] = *ticket
		return nil
	})
}

func (r *ticketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	return r.with(func(st *state) error {
		current, ok := st.tickets[ticket.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if current.Version != ticket.Version {
			return repository.ErrConflict
		}
		ticket.Version++
		st.tickets[ticket.ID] = *ticket
		return nil
	})
}

func (r *ticketRepo) Touch(_ context.Context, id string, at time.Time) error {
	return r.with(func(st *state) error {
		current, ok := st.tickets[id]
		if !ok {
			return repository.ErrNotFound
		}
		next := current.UpdatedAt.Add(time.Microsecond)
		if at.After(next) {
			next = at
		}
		current.UpdatedAt = next
		current.Version++
		st.tickets[id] = current
		return nil
	})
}

func (r *ticketRepo) GetByID(_ context.Context, id string, includeDeleted bool) (*domain.Ticket, error) {
	var out *domain.Ticket
	err := r.with(func(st *state) error {
		t, ok := st.tickets[id]
		if !ok || (t.IsDeleted && !includeDeleted) {
			return repository.ErrNotFound
		}
		out = &t
		return nil
	})
	return out, err
}

func (r *ticketRepo) Search(_ context.Context, q repository.TicketQuery) ([]domain.Ticket, int, error) {
	var matched []domain.Ticket
	err := r.with(func(st *state) error {
		for _, t := range st.tickets {
			if q.Matches(&t) {
				matched = append(matched, t)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(matched, func(i, j int) bool {
		return q.Sort.Compare(&matched[i], &matched[j]) < 0
	})

	total := len(matched)
	start := q.Page.Offset()
	if start >= total {
		return []domain.Ticket{}, total, nil
	}
	end := start + q.Page.Size
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}
