package repository

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/alldopamine/catalog/internal/domain"
)

// translate maps gorm errors onto the domain error types. TranslateError
// must be enabled on the connection for duplicate keys to surface.
func translate(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NotFoundError{Resource: resource}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ConcurrencyConflict{Key: resource, Cause: err}
	}
	return errors.Wrap(err, resource)
}
