package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/servicedesk/ticket-service/internal/auth"
	"github.com/servicedesk/ticket-service/internal/domain"
	"github.com/servicedesk/ticket-service/internal/repository"
	"github.com/servicedesk/ticket-service/pkg/util"
)

func TestSLAListFillsDefaults(t *testing.T) {
	ctx := context.Background()
	f := newTicketFixture(t, nil)

	rows, err := f.sla.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for i, want := range []int{4, 24, 72} {
		assert.Equal(t, want, rows[i].Hours)
		assert.True(t, rows[i].IsDefault)
		assert.Nil(t, rows[i].UpdatedAt)
	}

	_, err = f.sla.Upsert(ctx, "2", 48)
	require.NoError(t, err)
	rows, err = f.sla.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketPriorityP3, rows[2].Priority)
	assert.Equal(t, 48, rows[2].Hours)
	assert.False(t, rows[2].IsDefault)
	require.NotNil(t, rows[2].UpdatedAt)
	assert.Equal(t, fixedNow, *rows[2].UpdatedAt)

	hours, err := f.sla.ResolveHours(ctx, domain.TicketPriorityP3)
	require.NoError(t, err)
	assert.Equal(t, 48, hours)
}

func TestSLAUpsertValidation(t *testing.T) {
	f := newTicketFixture(t, nil)
	for _, tc := range []struct {
		priority string
		hours    int
	}{
		{"P1", 0},
		{"P1", 721},
		{"P7", 10},
		{"", 10},
	} {
		_, err := f.sla.Upsert(context.Background(), tc.priority, tc.hours)
		assert.True(t, util.IsCode(err, "VALIDATION_FAILED"), "%s/%d", tc.priority, tc.hours)
	}
	_, err := f.sla.Upsert(context.Background(), "p1", 720)
	assert.NoError(t, err)
}

func newUserService(store repository.Store) *UserService {
	return NewUserService(store, bcrypt.MinCost, zap.NewNop(), nil)
}

func TestUserLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newTicketFixture(t, nil)
	users := newUserService(f.store)

	_, err := users.Create(ctx, CreateUserInput{Username: "", DisplayName: "", Password: "short", Role: "Root", Email: ptr("nope")})
	require.Error(t, err)
	details := util.ToDomainError(err).Details
	for _, field := range []string{"username", "display_name", "password", "role", "email"} {
		assert.Contains(t, details, field)
	}

	created, err := users.Create(ctx, CreateUserInput{Username: "Maria", DisplayName: "Maria Lopez", Password: "s3cretpass", Email: ptr("Maria@Example.com")})
	require.NoError(t, err)
	assert.Equal(t, "maria", created.Username)
	assert.Equal(t, "maria@example.com", *created.Email)
	assert.Equal(t, domain.UserRoleAgent, created.Role)
	assert.True(t, created.IsActive)
	assert.NotEqual(t, "s3cretpass", created.PasswordHash)

	_, err = users.Create(ctx, CreateUserInput{Username: "maria", DisplayName: "Other", Password: "s3cretpass"})
	assert.True(t, util.IsCode(err, "CONFLICT"))

	updated, err := users.Update(ctx, created.ID, UpdateUserInput{DisplayName: "Maria L.", Role: "admin", IsActive: false})
	require.NoError(t, err)
	assert.Equal(t, domain.UserRoleAdmin, updated.Role)
	assert.False(t, updated.IsActive)
	assert.Nil(t, updated.Email)
	assert.Equal(t, created.PasswordHash, updated.PasswordHash)

	list, err := users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, users.Delete(ctx, created.ID))
	_, err = users.Get(ctx, created.ID)
	assert.True(t, util.IsCode(err, "NOT_FOUND"))
	assert.True(t, util.IsCode(users.Delete(ctx, created.ID), "NOT_FOUND"))
}

func TestBootstrapAdminOnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	f := newTicketFixture(t, nil)
	users := newUserService(f.store)

	created, err := users.EnsureBootstrapAdmin(ctx, "", "")
	require.NoError(t, err)
	assert.False(t, created)

	created, err = users.EnsureBootstrapAdmin(ctx, "admin", "changeme123")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = users.EnsureBootstrapAdmin(ctx, "root", "changeme123")
	require.NoError(t, err)
	assert.False(t, created)

	list, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.UserRoleAdmin, list[0].Role)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newTicketFixture(t, nil)
	users := newUserService(f.store)
	tokens := auth.NewTokenManager("test-secret", "ticket-service", "ticket-clients", 30)
	login := NewAuthService(f.store, tokens, zap.NewNop())

	user, err := users.Create(ctx, CreateUserInput{Username: "luis", DisplayName: "Luis", Password: "password123", Email: ptr("luis@example.com")})
	require.NoError(t, err)

	res, err := login.Login(ctx, "LUIS@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, res.User.ID)
	claims, err := tokens.ParseToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Subject)
	assert.Equal(t, domain.UserRoleAgent, claims.Role)

	_, err = login.Login(ctx, "luis", "wrong-password")
	assert.True(t, util.IsCode(err, "UNAUTHORIZED"))
	_, err = login.Login(ctx, "ghost", "password123")
	assert.True(t, util.IsCode(err, "UNAUTHORIZED"))
	_, err = login.Login(ctx, "", "")
	assert.True(t, util.IsCode(err, "VALIDATION_FAILED"))

	_, err = users.Update(ctx, user.ID, UpdateUserInput{DisplayName: "Luis", Role: "Agent", IsActive: false})
	require.NoError(t, err)
	_, err = login.Login(ctx, "luis", "password123")
	assert.True(t, util.IsCode(err, "FORBIDDEN"))
}

func TestExportTickets(t *testing.T) {
	ctx := context.Background()
	f := newTicketFixture(t, nil)
	f.create(t, CreateTicketInput{Title: "Laptop fan noise", Priority: "P2", AssignedTo: ptr("carlos")})
	f.create(t, CreateTicketInput{Title: "Mail quota"})
	f.create(t, CreateTicketInput{Title: "Badge reader"})

	export := NewExportService(f.tickets, 2, zap.NewNop())
	data, truncated, err := export.ExportTickets(ctx, repository.TicketFilter{}, repository.NewSort("title", "asc", repository.TicketSortKeys))
	require.NoError(t, err)
	assert.True(t, truncated)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, exportColumns, rows[0])
	assert.Equal(t, "Badge reader", rows[1][1])
	assert.Equal(t, "Laptop fan noise", rows[2][1])
	assert.Equal(t, "carlos", rows[2][8])
	assert.Equal(t, "24", rows[2][6])

	data, truncated, err = NewExportService(f.tickets, 0, zap.NewNop()).ExportTickets(ctx, repository.TicketFilter{Search: "mail"}, repository.NewSort("", "", repository.TicketSortKeys))
	require.NoError(t, err)
	assert.False(t, truncated)
	book2, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book2.Close()
	rows, err = book2.GetRows(exportSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
