package errs

import (
	"errors"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("vehicle is not available for the requested dates")
	ErrInvalidRange     = errors.New("invalid date range")
	ErrAlreadyStarted   = errors.New("cannot cancel on or after the start date")
	ErrAlreadyConfirmed = errors.New("reservation already confirmed with a different amount")
)
