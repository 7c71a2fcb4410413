// Package memory is a map-backed repository.Store used when no database is
// configured and in tests. A transaction runs against a private copy of the
// state which replaces the shared state only on success.
package memory

import (
	"context"
	"sync"

	"github.com/servicedesk/ticket-service/internal/domain"
	"github.com/servicedesk/ticket-service/internal/repository"
)

type state struct {
	tickets    map[string]domain.Ticket
	events     []domain.TicketEvent
	activities []domain.TicketActivity
	evidence   []domain.TicketEvidence
	slaRules   map[domain.TicketPriority]domain.SLARule
	users      map[string]domain.User
}

func newState() *state {
	return &state{
		tickets:  make(map[string]domain.Ticket),
		slaRules: make(map[domain.TicketPriority]domain.SLARule),
		users:    make(map[string]domain.User),
	}
}

func (s *state) clone() *state {
	c := &state{
		tickets:    make(map[string]domain.Ticket, len(s.tickets)),
		events:     append([]domain.TicketEvent(nil), s.events...),
		activities: append([]domain.TicketActivity(nil), s.activities...),
		evidence:   append([]domain.TicketEvidence(nil), s.evidence...),
		slaRules:   make(map[domain.TicketPriority]domain.SLARule, len(s.slaRules)),
		users:      make(map[string]domain.User, len(s.users)),
	}
	for k, v := range s.tickets {
		c.tickets[k] = v
	}
	for k, v := range s.slaRules {
		c.slaRules[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	return c
}

var _ repository.Store = (*Store)(nil)

// Store is the in-memory repository.Store.
type Store struct {
	mu    sync.Mutex
	state *state
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{state: newState()}
}

// access runs fn against a state snapshot.
type access func(fn func(*state) error) error

func (s *Store) locked(fn func(*state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

// Repos returns repositories that lock per call.
func (s *Store) Repos() repository.UnitOfWork {
	return newUnit(s.locked)
}

// WithTx holds the store lock for the whole unit of work. Nested calls on
// the same store deadlock.
func (s *Store) WithTx(ctx context.Context, fn func(repository.UnitOfWork) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.state.clone()
	err := fn(newUnit(func(f func(*state) error) error { return f(draft) }))
	if err != nil {
		return err
	}
	s.state = draft
	return nil
}

type unit struct {
	tickets    *ticketRepo
	events     *eventRepo
	activities *activityRepo
	evidence   *evidenceRepo
	slaRules   *slaRuleRepo
	users      *userRepo
}

func newUnit(a access) *unit {
	return &unit{
		tickets:    &ticketRepo{with: a},
		events:     &eventRepo{with: a},
		activities: &activityRepo{with: a},
		evidence:   &evidenceRepo{with: a},
		slaRules:   &slaRuleRepo{with: a},
		users:      &userRepo{with: a},
	}
}

func (u *unit) Tickets() repository.TicketRepository { return u.tickets }
func (u *unit) Events() repository.TicketEventRepository { return u.events }
func (u *unit) Activities() repository.TicketActivityRepository { return u.activities }
func (u *unit) Evidence() repository.EvidenceRepository { return u.evidence }
func (u *unit) SLARules() repository.SLARuleRepository { return u.slaRules }
func (u *unit) Users() repository.UserRepository { return u.users }
