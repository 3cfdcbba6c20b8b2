package postgres

import (
	"fmt"

	"gorm.io/gorm"
)

// handleDBError is a package-level helper for handling database errors.
// Record-not-found passes through unwrapped so callers can test for it.
func handleDBError(err error, operation string) error {
	if err == nil {
		return nil
	}

	if err == gorm.ErrRecordNotFound {
		return err
	}

	return fmt.Errorf("%s failed: %w", operation, err)
}
