package reservation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrNotAuthenticated     = errors.New("session required")
	ErrEmptySelection       = errors.New("select at least one room")
	ErrProfileIncomplete    = errors.New("client profile is incomplete")
	ErrClientLookup         = errors.New("could not resolve client profile")
	ErrSubmissionInProgress = errors.New("a reservation is already being submitted")
	ErrRoomsUnavailable     = errors.New("some selected rooms are no longer available")
	ErrReservationCreate    = errors.New("could not create reservation")
	ErrMissingReservationID = errors.New("backend did not assign a reservation id")
	ErrPartialFailure       = errors.New("reservation was created only partially")
	ErrLedger               = errors.New("could not record submission")
	ErrReservationNotFound  = errors.New("reservation not found")
	ErrNotOwner             = errors.New("reservation belongs to another client")
	ErrInvalidTransition    = errors.New("status transition not allowed")
	ErrInvalidEstado        = errors.New("invalid reservation state")
	ErrBackend              = errors.New("hotel backend request failed")
)

// RoomsUnavailableError lists the rooms that failed the availability re-check
type RoomsUnavailableError struct {
	RoomIDs []int64
}

func (e *RoomsUnavailableError) Error() string {
	return fmt.Sprintf("%s: %s", ErrRoomsUnavailable.Error(), joinIDs(e.RoomIDs))
}

func (e *RoomsUnavailableError) Is(target error) bool {
	return target == ErrRoomsUnavailable
}

// PartialFailureError is returned when the header was created but some details were not.
// RolledBack is true when the header was deleted or cancelled.
type PartialFailureError struct {
	ReservaID  int64
	Requested  int
	Created    int
	RolledBack bool
	Err        error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s: reserva=%d details=%d/%d rolled_back=%t: %v",
		ErrPartialFailure.Error(), e.ReservaID, e.Created, e.Requested, e.RolledBack, e.Err)
}

func (e *PartialFailureError) Is(target error) bool {
	return target == ErrPartialFailure
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
