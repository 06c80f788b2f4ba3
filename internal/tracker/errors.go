package tracker

import (
	"errors"
	"fmt"

	"github.com/adamscao/certwatch/internal/db/repository"
	"github.com/adamscao/certwatch/internal/policy"
)

// Errors returned by the service. Detail is joined onto them, so test with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrStorage    = errors.New("storage error")
)

// storageError classifies a repository error
func storageError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return errors.Join(ErrNotFound, err)
	}
	return errors.Join(ErrStorage, err)
}

func validationError(msg string) error {
	return errors.Join(ErrValidation, errors.New(msg))
}

func durationError() error {
	return validationError(fmt.Sprintf("duration must be between 1 and %d days", policy.MaxDurationDays))
}
