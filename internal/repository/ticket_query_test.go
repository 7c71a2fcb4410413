package repository

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicedesk/ticket-service/internal/domain"
)

func TestNewPageClamps(t *testing.T) {
	tests := []struct {
		page, size       int
		wantPage, wantSz int
		wantOffset       int
	}{
		{0, 0, 1, 20, 0},
		{-3, 10, 1, 10, 0},
		{3, 10, 3, 10, 20},
		{2, 100, 2, 100, 100},
		{2, 101, 2, 20, 20},
		{1, -5, 1, 20, 0},
		{math.MaxInt, 20, MaxPageNumber, 20, (MaxPageNumber - 1) * 20},
		{math.MaxInt, 100, MaxPageNumber, 100, (MaxPageNumber - 1) * 100},
	}
	for _, tt := range tests {
		p := NewPage(tt.page, tt.size)
		assert.Equal(t, tt.wantPage, p.Number)
		assert.Equal(t, tt.wantSz, p.Size)
		assert.Equal(t, tt.wantOffset, p.Offset())
		assert.GreaterOrEqual(t, p.Offset(), 0)
	}
}

func TestParseSortKey(t *testing.T) {
	tests := []struct {
		raw  string
		want SortKey
	}{
		{"", SortCreatedAt},
		{"updatedAt", SortUpdatedAt},
		{"UPDATED_AT", SortUpdatedAt},
		{"updated", SortUpdatedAt},
		{"assigned-to", SortAssignedTo},
		{"priority", SortPriority},
		{"deletedAt", SortCreatedAt},
		{"bogus", SortCreatedAt},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseSortKey(tt.raw, TicketSortKeys), tt.raw)
	}

	assert.Equal(t, SortDeletedAt, ParseSortKey("createdBy", DeletedSortKeys))
	assert.Equal(t, SortDeletedBy, ParseSortKey("deleted_by", DeletedSortKeys))
}

func TestNewSortDirection(t *testing.T) {
	assert.True(t, NewSort("title", "", TicketSortKeys).Desc)
	assert.True(t, NewSort("title", "sideways", TicketSortKeys).Desc)
	assert.False(t, NewSort("title", "ASC", TicketSortKeys).Desc)
	assert.Equal(t, `title COLLATE "C" DESC NULLS LAST, id DESC`, NewSort("title", "desc", TicketSortKeys).SQL())
	assert.Equal(t, `assigned_to COLLATE "C" ASC NULLS FIRST, id ASC`, NewSort("assignedTo", "asc", TicketSortKeys).SQL())
	assert.Equal(t, "created_at DESC NULLS LAST, id DESC", NewSort("", "", TicketSortKeys).SQL())
	assert.Equal(t, "priority ASC NULLS FIRST, id ASC", NewSort("priority", "asc", TicketSortKeys).SQL())
}

func TestTextSortIsByteOrder(t *testing.T) {
	upper := &domain.Ticket{ID: "a", Title: "Zeta"}
	lower := &domain.Ticket{ID: "b", Title: "alpha"}
	accented := &domain.Ticket{ID: "c", Title: "Ábaco"}

	asc := NewSort("title", "asc", TicketSortKeys)
	assert.Negative(t, asc.Compare(upper, lower))
	assert.Negative(t, asc.Compare(lower, accented))
}

func TestSortCompareNullsAndOrdinals(t *testing.T) {
	ana := "ana"
	a := &domain.Ticket{ID: "a", Priority: domain.TicketPriorityP3}
	b := &domain.Ticket{ID: "b", Priority: domain.TicketPriorityP1, AssignedTo: &ana}

	asc := NewSort("assignedTo", "asc", TicketSortKeys)
	assert.Negative(t, asc.Compare(a, b))
	desc := NewSort("assignedTo", "desc", TicketSortKeys)
	assert.Positive(t, desc.Compare(a, b))

	byPriority := NewSort("priority", "asc", TicketSortKeys)
	assert.Positive(t, byPriority.Compare(a, b))
}

func TestDayBounds(t *testing.T) {
	start := DayStart("2024-03-15")
	end := DayEnd("2024-03-15")
	require.NotNil(t, start)
	require.NotNil(t, end)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), *start)
	assert.Equal(t, time.Date(2024, 3, 15, 23, 59, 59, 999_000_000, time.UTC), *end)

	assert.Nil(t, DayStart("15/03/2024"))
	assert.Nil(t, DayEnd("not a date"))
	assert.Nil(t, DayEnd(""))

	fromTimestamp := DayStart("2024-03-15T22:30:00-05:00")
	require.NotNil(t, fromTimestamp)
	assert.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), *fromTimestamp)
}

func TestCreatedToBoundaryIsInclusiveToTheMillisecond(t *testing.T) {
	end := DayEnd("2024-03-15")
	require.NotNil(t, end)
	filter := TicketFilter{CreatedTo: end}
	q := TicketQuery{Predicates: filter.Predicates()}

	atBoundary := &domain.Ticket{CreatedAt: time.Date(2024, 3, 15, 23, 59, 59, 999_000_000, time.UTC)}
	justAfter := &domain.Ticket{CreatedAt: atBoundary.CreatedAt.Add(time.Microsecond)}

	assert.True(t, q.Matches(atBoundary))
	assert.False(t, q.Matches(justAfter))
}

func TestTicketFilterPredicates(t *testing.T) {
	status := domain.TicketStatusOpen
	category := domain.TicketCategoryRedes
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	filter := TicketFilter{
		Status:      &status,
		Category:    &category,
		Search:      " 50%_off ",
		AssignedTo:  "bob",
		CreatedFrom: &from,
	}

	where, args := TicketQuery{Predicates: filter.Predicates()}.Where()
	assert.Equal(t,
		`1=1 AND is_deleted = $1 AND status = $2 AND category = $3 AND `+
			`(LOWER(title) LIKE $4 ESCAPE '\' OR LOWER(description) LIKE $4 ESCAPE '\') AND `+
			`LOWER(assigned_to) LIKE $5 ESCAPE '\' AND created_at >= $6`,
		where)
	assert.Equal(t, []any{false, 0, 2, `%50\%\_off%`, "%bob%", from}, args)
}

func TestPredicatesMatchInMemory(t *testing.T) {
	desc := "Toner is EMPTY"
	bob := "Bob Smith"
	ticket := &domain.Ticket{
		Title:       "Printer",
		Description: &desc,
		Status:      domain.TicketStatusInProgress,
		Priority:    domain.TicketPriorityP2,
		Category:    domain.TicketCategoryHardware,
		Type:        domain.TicketTypeSolicitud,
		CreatedBy:   "ana.lopez",
		AssignedTo:  &bob,
		CreatedAt:   time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	match := func(p Predicate) bool { return p.Matches(ticket) }
	assert.True(t, match(TitleOrDescriptionContains("empty")))
	assert.True(t, match(CreatedByContains("LOPEZ")))
	assert.True(t, match(AssignedToContains("smith")))
	assert.True(t, match(StatusIs(domain.TicketStatusInProgress)))
	assert.False(t, match(PriorityIs(domain.TicketPriorityP1)))
	assert.True(t, match(TypeIs(domain.TicketTypeSolicitud)))
	assert.False(t, match(IsDeleted(true)))
	assert.False(t, match(DeletedByContains("ana")))
	assert.False(t, match(DeletedFrom(time.Time{})))

	noAssignee := *ticket
	noAssignee.AssignedTo = nil
	assert.False(t, AssignedToContains("bob").Matches(&noAssignee))
}

func TestDeletedFilterPredicates(t *testing.T) {
	reason := "duplicate of #12"
	by := "admin"
	at := time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)
	ticket := &domain.Ticket{Title: "VPN", IsDeleted: true, DeleteReason: &reason, DeletedBy: &by, DeletedAt: &at}

	filter := DeletedTicketFilter{Search: "DUPLICATE", DeletedBy: "adm", DeletedFrom: DayStart("2024-04-02"), DeletedTo: DayEnd("2024-04-02")}
	q := TicketQuery{Predicates: filter.Predicates()}
	assert.True(t, q.Matches(ticket))

	live := *ticket
	live.IsDeleted = false
	assert.False(t, q.Matches(&live))
}
