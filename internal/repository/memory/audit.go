package memory

import (
	"context"
	"sort"

	"github.com/servicedesk/ticket-service/internal/domain"
)

type eventRepo struct {
	with access
}

func (r *eventRepo) Append(_ context.Context, event *domain.TicketEvent) error {
	return r.with(func(st *state) error {
		st.events = append(st.events, *event)
		return nil
	})
}

// ListByTicket walks the log backwards so entries written in the same
// instant keep their reverse insertion order.
func (r *eventRepo) ListByTicket(_ context.Context, ticketID, eventType string) ([]domain.TicketEvent, error) {
	var out []domain.TicketEvent
	err := r.with(func(st *state) error {
		for i := len(st.events) - 1; i >= 0; i-- {
			ev := st.events[i]
			if ev.TicketID != ticketID || (eventType != "" && ev.Type != eventType) {
				continue
			}
			out = append(out, ev)
		}
		return nil
	})
	sortNewestFirst(out, func(e domain.TicketEvent) int64 { return e.CreatedAt.UnixNano() })
	return out, err
}

type activityRepo struct {
	with access
}

func (r *activityRepo) Append(_ context.Context, activity *domain.TicketActivity) error {
	return r.with(func(st *state) error {
		st.activities = append(st.activities, *activity)
		return nil
	})
}

func (r *activityRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketActivity, error) {
	var out []domain.TicketActivity
	err := r.with(func(st *state) error {
		for i := len(st.activities) - 1; i >= 0; i-- {
			if st.activities[i].TicketID == ticketID {
				out = append(out, st.activities[i])
			}
		}
		return nil
	})
	sortNewestFirst(out, func(a domain.TicketActivity) int64 { return a.CreatedAt.UnixNano() })
	return out, err
}

// sortNewestFirst orders by key descending, keeping the relative order of
// equal keys.
func sortNewestFirst[T any](items []T, key func(T) int64) {
	sort.SliceStable(items, func(i, j int) bool { return key(items[i]) > key(items[j]) })
}
