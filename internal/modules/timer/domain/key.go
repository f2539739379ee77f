package domain

import (
	"fmt"
	"regexp"

	apperrors "timekit/internal/platform/errors"
)

var keyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{0,63}$`)

// ValidateKey checks a timer key. Keys double as storage names, so they
// are restricted to lower-case file-safe characters.
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("timer key %q: %w", key, apperrors.ErrInvalidInput)
	}
	return nil
}
