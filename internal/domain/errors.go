package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("stays: not found")
	ErrInventoryResolution = errors.New("stays: inventory resolution failed")
	ErrNoRoomsSelected     = errors.New("stays: no rooms selected")
	ErrInventoryUpdate     = errors.New("stays: inventory update failed")
	ErrReservationCreation = errors.New("stays: reservation creation failed")
	ErrMalformedDateRange  = errors.New("stays: check-out must be after check-in")
	ErrRoomUnavailable     = errors.New("stays: room unavailable for the requested dates")
	ErrUnknownRoom         = errors.New("stays: unknown room")
	ErrUnknownOrigin       = errors.New("stays: unknown catalog origin")
	ErrSessionNotFound     = errors.New("stays: booking session not found")
)

// ResolutionError is returned when neither catalog holds the hotel.
type ResolutionError struct {
	HotelID string
	Err     error // last upstream failure
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("hotel %s not found in any catalog: %v", e.HotelID, e.Err)
	}
	return fmt.Sprintf("hotel %s not found in any catalog", e.HotelID)
}

func (e *ResolutionError) Is(target error) bool { return target == ErrInventoryResolution }

func (e *ResolutionError) Unwrap() error { return e.Err }

// UpstreamError is a non-2xx answer from a backend collaborator. Message is
// the upstream text, unmodified.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %d: %s", e.Status, e.Message)
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrNotFound && e.Status == 404
}

// CommitError reports a failed commit. Kind is ErrInventoryUpdate or
// ErrReservationCreation; Locks is the per-room batch report, after any
// compensation.
type CommitError struct {
	Kind    error
	Message string
	Locks   []LockOutcome
}

func (e *CommitError) Error() string { return e.Kind.Error() + ": " + e.Message }

func (e *CommitError) Unwrap() error { return e.Kind }

// UpstreamMessage extracts the collaborator's message from err.
func UpstreamMessage(err error) string {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Message
	}
	return err.Error()
}
