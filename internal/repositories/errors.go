package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// IsNotFoundError reports whether err is a record-not-found from the database
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
