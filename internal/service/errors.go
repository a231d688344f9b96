package service

import (
	"errors"

	"github.com/fjod/thread-storefront/domain"
	"github.com/fjod/thread-storefront/internal/repository"
)

// storeError turns a storage failure into the domain taxonomy. A missing
// document becomes NotFoundError for kind/id.
func storeError(op string, err error, kind, id string) error {
	if errors.Is(err, repository.ErrDocumentNotFound) {
		return &domain.NotFoundError{Kind: kind, ID: id}
	}
	return domain.Remote(op, err)
}
