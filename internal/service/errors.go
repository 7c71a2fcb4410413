package service

import (
	"errors"

	"github.com/google/uuid"

	"github.com/servicedesk/ticket-service/internal/repository"
	"github.com/servicedesk/ticket-service/pkg/util"
)

// storeError translates repository sentinels into domain errors. Errors that
// are already domain errors pass through.
func storeError(err error, resource string) error {
	if err == nil {
		return nil
	}
	var domainErr *util.DomainError
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return util.NewNotFound(resource, nil)
	case errors.Is(err, repository.ErrConflict):
		return util.NewConflict(resource+" was modified concurrently, please retry", nil)
	case errors.Is(err, repository.ErrDuplicate):
		return util.NewConflict(resource+" already exists", nil)
	}
	return util.NewStorageError("unable to persist "+resource, err)
}

// validID reports whether id is a well formed UUID. Malformed ids cannot
// exist in the store and are reported as not found.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func notFound(resource, id string) error {
	return util.NewNotFound(resource, map[string]any{"id": id})
}

func fieldError(field, message string) error {
	return util.NewValidationError(message, map[string]any{"field": field})
}
