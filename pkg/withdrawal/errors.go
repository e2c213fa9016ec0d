package withdrawal

import (
	"errors"
	"fmt"
)

var (
	// ErrBlocked is returned when a booking below the target has an arrival or a non-arrival recorded.
	ErrBlocked             = errors.New("withdrawal blocked")
	ErrBlockedByArrival    = fmt.Errorf("%w: 1 or more placements have an arrival", ErrBlocked)
	ErrBlockedByNonArrival = fmt.Errorf("%w: 1 or more placements have a non-arrival", ErrBlocked)

	// ErrNotWithdrawable is returned when the target is already in a terminal state.
	ErrNotWithdrawable  = errors.New("not withdrawable")
	ErrAlreadyWithdrawn = fmt.Errorf("%w: already withdrawn", ErrNotWithdrawable)
	ErrReallocated      = fmt.Errorf("%w: reallocated", ErrNotWithdrawable)
	ErrParentInactive   = fmt.Errorf("%w: raised from a placement application that is no longer active", ErrNotWithdrawable)
	ErrNotSubmitted     = fmt.Errorf("%w: placement application is unsubmitted or automatic", ErrNotWithdrawable)

	ErrUnknownNode = errors.New("node does not belong to application")
)

func blockedError(reason BlockingReason) error {
	if reason == BlockingNonArrival {
		return ErrBlockedByNonArrival
	}
	return ErrBlockedByArrival
}
