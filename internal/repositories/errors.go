package repositories

import (
	"example.com/restaurant-pos/internal/database"

	"github.com/pkg/errors"
)

// Common repository errors
var (
	ErrNotFound = errors.New("record not found")
)

// translate maps driver level errors to repository errors and wraps the rest
func translate(err error, msg string) error {
	if err == nil {
		return nil
	}
	if database.IsRecordNotFoundError(err) {
		return ErrNotFound
	}
	return errors.Wrap(err, msg)
}
