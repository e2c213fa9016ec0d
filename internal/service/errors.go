package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound                     = errors.New("not found")
	ErrApplicationNotFound          = fmt.Errorf("application %w", ErrNotFound)
	ErrPlacementApplicationNotFound = fmt.Errorf("placement application %w", ErrNotFound)
	ErrPlacementRequestNotFound     = fmt.Errorf("placement request %w", ErrNotFound)
	ErrSpaceBookingNotFound         = fmt.Errorf("space booking %w", ErrNotFound)
	ErrNotificationNotFound         = fmt.Errorf("notification %w", ErrNotFound)

	ErrForbidden = errors.New("forbidden")

	// ErrInvalidState is returned when a row changed under us or the requested transition
	// does not apply to the row's current state.
	ErrInvalidState = errors.New("invalid state")
)
