package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresStore struct {
	pool  *pgxpool.Pool
	repos UnitOfWork
}

// NewPostgresStore builds a Store backed by a pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool, repos: newPostgresUnit(pool)}
}

func (s *postgresStore) Repos() UnitOfWork { return s.repos }

func (s *postgresStore) WithTx(ctx context.Context, fn func(UnitOfWork) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(newPostgresUnit(tx))
	})
}

type postgresUnit struct {
	tickets    TicketRepository
	events     TicketEventRepository
	activities TicketActivityRepository
	evidence   EvidenceRepository
	slaRules   SLARuleRepository
	users      UserRepository
}

func newPostgresUnit(db DBTX) *postgresUnit {
	return &postgresUnit{
		tickets:    NewTicketRepository(db),
		events:     NewTicketEventRepository(db),
		activities: NewTicketActivityRepository(db),
		evidence:   NewEvidenceRepository(db),
		slaRules:   NewSLARuleRepository(db),
		users:      NewUserRepository(db),
	}
}

func (u *postgresUnit) Tickets() TicketRepository { return u.tickets }
func (u *postgresUnit) Events() TicketEventRepository { return u.events }
func (u *postgresUnit) Activities() TicketActivityRepository { return u.activities }
func (u *postgresUnit) Evidence() EvidenceRepository { return u.evidence }
func (u *postgresUnit) SLARules() SLARuleRepository { return u.slaRules }
func (u *postgresUnit) Users() UserRepository { return u.users }

const uniqueViolation = "23505"

// mapError translates driver errors into repository sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}
