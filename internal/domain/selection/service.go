package selection

import (
	"context"
	"errors"
	"fmt"

	"github.com/hotelreservas/booking-gateway/internal/domain/availability"
	"github.com/hotelreservas/booking-gateway/internal/pkg/hotelapi"
	"github.com/hotelreservas/booking-gateway/internal/pkg/session"
)

const maxToggleAttempts = 3

// errRangeChanged aborts a toggle whose room was resolved for a range that has since been replaced.
var errRangeChanged = errors.New("selection range changed")

// Service manages the stored selection of the caller. Only Toggle reads the backend, to resolve
// the room being added; the accumulator itself never does.
type Service struct {
	store        Store
	availability *availability.Service
}

// NewService creates selection service
func NewService(store Store, availability *availability.Service) *Service {
	return &Service{store: store, availability: availability}
}

// Get returns the caller's selection
func (s *Service) Get(ctx context.Context, sess *session.Session) (*Selection, error) {
	if sess == nil {
		return nil, ErrNotAuthenticated
	}
	return s.store.Get(ctx, sess.UserID)
}

// SetRange validates and stores the search range. Selected rooms are kept.
func (s *Service) SetRange(ctx context.Context, sess *session.Session, start, end string) (*Selection, error) {
	if sess == nil {
		return nil, ErrNotAuthenticated
	}
	r, err := s.availability.ParseRange(start, end, sess.Loc())
	if err != nil {
		return nil, err
	}

	return s.store.Update(ctx, sess.UserID, func(sel *Selection) error {
		sel.SetRange(r.StartDate(), r.EndDate())
		return nil
	})
}

// Toggle removes roomID when selected; otherwise it resolves the room from the availability of the
// stored range and appends it. A failed availability query leaves the selection untouched.
// The backend is read outside the store update; the write only applies the add or remove decided
// from the first read, so concurrent toggles of different rooms all land.
func (s *Service) Toggle(ctx context.Context, sess *session.Session, roomID int64) (*Selection, bool, error) {
	if sess == nil {
		return nil, false, ErrNotAuthenticated
	}

	for attempt := 0; attempt < maxToggleAttempts; attempt++ {
		current, err := s.store.Get(ctx, sess.UserID)
		if err != nil {
			return nil, false, err
		}

		if current.Contains(roomID) {
			sel, err := s.store.Update(ctx, sess.UserID, func(sel *Selection) error {
				sel.Remove(roomID)
				return nil
			})
			if err != nil {
				return nil, false, err
			}
			return sel, false, nil
		}

		room, err := s.resolveRoom(ctx, sess, current, roomID)
		if err != nil {
			return nil, false, err
		}

		sel, err := s.store.Update(ctx, sess.UserID, func(sel *Selection) error {
			if sel.Start != current.Start || sel.End != current.End {
				return errRangeChanged
			}
			sel.Add(room)
			return nil
		})
		if errors.Is(err, errRangeChanged) {
			continue
		}
		if err != nil {
			return nil, false, err
		}
		return sel, true, nil
	}
	return nil, false, ErrConcurrentUpdate
}

// resolveRoom finds roomID among the rooms available for the range stored in sel.
func (s *Service) resolveRoom(ctx context.Context, sess *session.Session, sel *Selection, roomID int64) (hotelapi.Room, error) {
	if !sel.HasRange() {
		return hotelapi.Room{}, ErrRangeRequired
	}
	r, err := s.availability.ParseRange(sel.Start, sel.End, sess.Loc())
	if err != nil {
		return hotelapi.Room{}, err
	}

	rooms, err := s.availability.Available(ctx, sess, r, 0)
	if err != nil {
		return hotelapi.Room{}, err
	}
	for _, room := range rooms {
		if room.ID == roomID {
			return room, nil
		}
	}
	return hotelapi.Room{}, fmt.Errorf("room %d: %w", roomID, ErrRoomNotAvailable)
}

// Clear empties the caller's room set
func (s *Service) Clear(ctx context.Context, sess *session.Session) (*Selection, error) {
	if sess == nil {
		return nil, ErrNotAuthenticated
	}
	return s.ClearUser(ctx, sess.UserID)
}

// ClearUser empties the room set of userID, keeping the search range.
func (s *Service) ClearUser(ctx context.Context, userID int64) (*Selection, error) {
	return s.store.Update(ctx, userID, func(sel *Selection) error {
		sel.Clear()
		return nil
	})
}

// Response maps a selection for the browser, resolving image urls.
func (s *Service) Response(ctx context.Context, sel *Selection) SelectionResponse {
	resp := SelectionResponse{
		Start:  sel.Start,
		End:    sel.End,
		Nights: sel.Nights(),
		Total:  sel.Total(),
		Count:  len(sel.Rooms),
		Rooms:  make([]availability.RoomResponse, 0, len(sel.Rooms)),
	}
	for _, r := range sel.Rooms {
		resp.Rooms = append(resp.Rooms, availability.RoomResponseFromRoom(r, s.availability.ImageURL(ctx, r.Imagen)))
	}
	return resp
}
