package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/servicedesk/ticket-service/internal/domain"
	"github.com/servicedesk/ticket-service/internal/repository"
)

type slaRuleRepo struct {
	with access
}

func (r *slaRuleRepo) Get(_ context.Context, priority domain.TicketPriority) (*domain.SLARule, error) {
	var out *domain.SLARule
	err := r.with(func(st *state) error {
		rule, ok := st.slaRules[priority]
		if !ok {
			return repository.ErrNotFound
		}
		out = &rule
		return nil
	})
	return out, err
}

func (r *slaRuleRepo) List(_ context.Context) ([]domain.SLARule, error) {
	var out []domain.SLARule
	err := r.with(func(st *state) error {
		for _, rule := range st.slaRules {
			out = append(out, rule)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Priority.Ordinal() < out[j].Priority.Ordinal() })
	return out, err
}

func (r *slaRuleRepo) Upsert(_ context.Context, rule *domain.SLARule) error {
	return r.with(func(st *state) error {
		st.slaRules[rule.Priority] = *rule
		return nil
	})
}

type userRepo struct {
	with access
}

func emailKey(u domain.User) string {
	if u.Email == nil {
		return ""
	}
	return strings.ToLower(*u.Email)
}

func checkUnique(st *state, user *domain.User) error {
	for id, existing := range st.users {
		if id == user.ID {
			continue
		}
		if existing.Username == user.Username {
			return repository.ErrDuplicate
		}
		if key := emailKey(*user); key != "" && key == emailKey(existing) {
			return repository.ErrDuplicate
		}
	}
	return nil
}

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	return r.with(func(st *state) error {
		if _, exists := st.users[user.ID]; exists {
			return repository.ErrDuplicate
		}
		if err := checkUnique(st, user); err != nil {
			return err
		}
		st.users[user.ID] = *user
		return nil
	})
}

func (r *userRepo) Update(_ context.Context, user *domain.User) error {
	return r.with(func(st *state) error {
		if _, exists := st.users[user.ID]; !exists {
			return repository.ErrNotFound
		}
		if err := checkUnique(st, user); err != nil {
			return err
		}
		st.users[user.ID] = *user
		return nil
	})
}

func (r *userRepo) Delete(_ context.Context, id string) error {
	return r.with(func(st *state) error {
		if _, exists := st.users[id]; !exists {
			return repository.ErrNotFound
		}
		delete(st.users, id)
		return nil
	})
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	var out *domain.User
	err := r.with(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepo) GetByLogin(_ context.Context, login string) (*domain.User, error) {
	var out *domain.User
	err := r.with(func(st *state) error {
		var byEmail *domain.User
		for _, u := range st.users {
			u := u
			if u.Username == login {
				out = &u
				return nil
			}
			if byEmail == nil && emailKey(u) == strings.ToLower(login) {
				byEmail = &u
			}
		}
		if byEmail == nil {
			return repository.ErrNotFound
		}
		out = byEmail
		return nil
	})
	return out, err
}

func (r *userRepo) List(_ context.Context) ([]domain.User, error) {
	var out []domain.User
	err := r.with(func(st *state) error {
		for _, u := range st.users {
			out = append(out, u)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, err
}

func (r *userRepo) Count(_ context.Context) (int, error) {
	count := 0
	err := r.with(func(st *state) error {
		count = len(st.users)
		return nil
	})
	return count, err
}
