package graph

import (
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
)

// Category constants follow the same package-scoped goerrors.Category
// pattern the teacher's dependency chain uses (repository.CategoryDatabaseNotFound).
const (
	CategorySelfLink goerrors.Category = "self_link_rejected"
)

// NotFoundError is returned when an entity, observation, or relation cannot
// be located, mirroring the teacher's internal/environments.NotFoundError.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: resource, Key: key}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}
