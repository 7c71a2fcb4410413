package memory

import (
	"context"

	"github.com/servicedesk/ticket-service/internal/domain"
	"github.com/servicedesk/ticket-service/internal/repository"
)

type evidenceRepo struct {
	with access
}

func (r *evidenceRepo) Create(_ context.Context, evidence *domain.TicketEvidence) error {
	return r.with(func(st *state) error {
		for _, e := range st.evidence {
			if e.ID == evidence.ID || e.StoragePath == evidence.StoragePath {
				return repository.ErrDuplicate
			}
		}
		st.evidence = append(st.evidence, *evidence)
		return nil
	})
}

func (r *evidenceRepo) GetByID(_ context.Context, id string) (*domain.TicketEvidence, error) {
	var out *domain.TicketEvidence
	err := r.with(func(st *state) error {
		for _, e := range st.evidence {
			if e.ID == id {
				found := e
				out = &found
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *evidenceRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketEvidence, error) {
	var out []domain.TicketEvidence
	err := r.with(func(st *state) error {
		for i := len(st.evidence) - 1; i >= 0; i-- {
			if st.evidence[i].TicketID == ticketID {
				out = append(out, st.evidence[i])
			}
		}
		return nil
	})
	sortNewestFirst(out, func(e domain.TicketEvidence) int64 { return e.UploadedAt.UnixNano() })
	return out, err
}

func (r *evidenceRepo) ListAll(_ context.Context) ([]domain.TicketEvidence, error) {
	var out []domain.TicketEvidence
	err := r.with(func(st *state) error {
		out = append(out, st.evidence...)
		return nil
	})
	return out, err
}

func (r *evidenceRepo) ExistsByStoragePath(_ context.Context, path string) (bool, error) {
	var exists bool
	err := r.with(func(st *state) error {
		for _, e := range st.evidence {
			if e.StoragePath == path {
				exists = true
				break
			}
		}
		return nil
	})
	return exists, err
}

func (r *evidenceRepo) CountByTicket(_ context.Context, ticketID string) (int, error) {
	count := 0
	err := r.with(func(st *state) error {
		for _, e := range st.evidence {
			if e.TicketID == ticketID {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *evidenceRepo) Delete(_ context.Context, id string) error {
	return r.with(func(st *state) error {
		for i, e := range st.evidence {
			if e.ID == id {
				st.evidence = append(st.evidence[:i:i], st.evidence[i+1:]...)
				return nil
			}
		}
		return repository.ErrNotFound
	})
}
