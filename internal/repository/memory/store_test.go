package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicedesk/ticket-service/internal/domain"
	"github.com/servicedesk/ticket-service/internal/repository"
)

var base = time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

func newTicket(i int) *domain.Ticket {
	return &domain.Ticket{
		ID:        fmt.Sprintf("00000000-0000-0000-0000-%012d", i),
		Title:     fmt.Sprintf("ticket %02d", i),
		Status:    domain.TicketStatusOpen,
		Priority:  domain.AllPriorities()[i%3],
		Category:  domain.TicketCategoryHardware,
		Type:      domain.TicketTypeIncidencia,
		SLAHours:  72,
		CreatedBy: "ana",
		CreatedAt: base.Add(time.Duration(i%4) * time.Hour),
		UpdatedAt: base.Add(time.Duration(i%4) * time.Hour),
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(uow repository.UnitOfWork) error {
		require.NoError(t, uow.Tickets().Create(ctx, newTicket(1)))
		require.NoError(t, uow.Events().Append(ctx, &domain.TicketEvent{ID: "e1", TicketID: newTicket(1).ID}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = store.Repos().Tickets().GetByID(ctx, newTicket(1).ID, true)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	events, err := store.Repos().Events().ListByTicket(ctx, newTicket(1).ID, "")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestUpdateComparesVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Repos().Tickets()

	ticket := newTicket(1)
	require.NoError(t, repo.Create(ctx, ticket))
	assert.EqualValues(t, 1, ticket.Version)

	stale := *ticket
	ticket.Title = "first writer"
	require.NoError(t, repo.Update(ctx, ticket))
	assert.EqualValues(t, 2, ticket.Version)

	stale.Title = "second writer"
	assert.ErrorIs(t, repo.Update(ctx, &stale), repository.ErrConflict)

	stored, err := repo.GetByID(ctx, ticket.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "first writer", stored.Title)

	missing := newTicket(99)
	assert.ErrorIs(t, repo.Update(ctx, missing), repository.ErrNotFound)
}

func TestTouchStrictlyIncreases(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Repos().Tickets()
	ticket := newTicket(1)
	require.NoError(t, repo.Create(ctx, ticket))

	require.NoError(t, repo.Touch(ctx, ticket.ID, ticket.UpdatedAt.Add(-time.Hour)))
	stored, err := repo.GetByID(ctx, ticket.ID, false)
	require.NoError(t, err)
	assert.True(t, stored.UpdatedAt.After(ticket.UpdatedAt))
	assert.EqualValues(t, 2, stored.Version)
}

func TestGetByIDHidesDeleted(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Repos().Tickets()
	ticket := newTicket(1)
	ticket.IsDeleted = true
	require.NoError(t, repo.Create(ctx, ticket))

	_, err := repo.GetByID(ctx, ticket.ID, false)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	got, err := repo.GetByID(ctx, ticket.ID, true)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
}

func TestSearchPagesConcatenateToFullResult(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Repos().Tickets()
	for i := 1; i <= 23; i++ {
		ticket := newTicket(i)
		if i%5 == 0 {
			ticket.IsDeleted = true
		}
		require.NoError(t, repo.Create(ctx, ticket))
	}

	filter := repository.TicketFilter{}
	sorts := []repository.Sort{
		repository.NewSort("createdAt", "desc", repository.TicketSortKeys),
		repository.NewSort("priority", "asc", repository.TicketSortKeys),
		repository.NewSort("title", "ASC", repository.TicketSortKeys),
	}
	for _, s := range sorts {
		all, total, err := repo.Search(ctx, repository.TicketQuery{
			Predicates: filter.Predicates(),
			Sort:       s,
			Page:       repository.NewPage(1, 100),
		})
		require.NoError(t, err)
		require.Equal(t, 19, total)
		require.Len(t, all, 19)

		var concatenated []domain.Ticket
		for page := 1; page <= 4; page++ {
			items, pageTotal, err := repo.Search(ctx, repository.TicketQuery{
				Predicates: filter.Predicates(),
				Sort:       s,
				Page:       repository.NewPage(page, 6),
			})
			require.NoError(t, err)
			assert.Equal(t, total, pageTotal)
			concatenated = append(concatenated, items...)
		}
		assert.Equal(t, all, concatenated, "sort %s", s.Key)
		for _, ticket := range concatenated {
			assert.False(t, ticket.IsDeleted)
		}
	}
}

func TestSearchPastLastPageIsEmpty(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Repos().Tickets()
	require.NoError(t, repo.Create(ctx, newTicket(1)))

	items, total, err := repo.Search(ctx, repository.TicketQuery{
		Predicates: repository.TicketFilter{}.Predicates(),
		Sort:       repository.NewSort("", "", repository.TicketSortKeys),
		Page:       repository.NewPage(5, 20),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Empty(t, items)
}

func TestEventsNewestFirstWithStableTies(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	ticketID := newTicket(1).ID

	err := store.WithTx(ctx, func(uow repository.UnitOfWork) error {
		for i, typ := range []string{domain.EventStatusChanged, domain.EventPriorityChanged, domain.EventCommentAdded} {
			ev := &domain.TicketEvent{ID: fmt.Sprint(i), TicketID: ticketID, Type: typ, CreatedAt: base}
			if err := uow.Events().Append(ctx, ev); err != nil {
				return err
			}
		}
		return uow.Events().Append(ctx, &domain.TicketEvent{ID: "old", TicketID: ticketID, Type: domain.EventCreated, CreatedAt: base.Add(-time.Minute)})
	})
	require.NoError(t, err)

	events, err := store.Repos().Events().ListByTicket(ctx, ticketID, "")
	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, []string{"2", "1", "0", "old"}, []string{events[0].ID, events[1].ID, events[2].ID, events[3].ID})

	comments, err := store.Repos().Events().ListByTicket(ctx, ticketID, domain.EventCommentAdded)
	require.NoError(t, err)
	require.Len(t, comments, 1)
}

func TestUserUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Repos().Users()
	email := "Ana@Example.com"
	require.NoError(t, repo.Create(ctx, &domain.User{ID: "1", Username: "ana", Email: &email}))

	assert.ErrorIs(t, repo.Create(ctx, &domain.User{ID: "2", Username: "ana"}), repository.ErrDuplicate)
	other := "ana@example.com"
	assert.ErrorIs(t, repo.Create(ctx, &domain.User{ID: "3", Username: "bob", Email: &other}), repository.ErrDuplicate)

	got, err := repo.GetByLogin(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "1", got.ID)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
