package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/hotelreservas/booking-gateway/internal/pkg/errorhandler"
	"github.com/hotelreservas/booking-gateway/internal/pkg/hotelapi"
	"github.com/hotelreservas/booking-gateway/internal/pkg/logger"
	"github.com/hotelreservas/booking-gateway/internal/pkg/session"
	"github.com/hotelreservas/booking-gateway/internal/pkg/storage"
)

// RoomLister is the backend availability query
type RoomLister interface {
	ListAvailableRooms(ctx context.Context, token, fechaInicio, fechaFin string, size int) ([]hotelapi.Room, error)
}

// Service resolves free rooms for a date range
type Service struct {
	rooms    RoomLister
	signer   storage.ImageSigner
	pageSize int
	now      func() time.Time
}

// NewService creates availability service. signer may be nil.
func NewService(rooms RoomLister, signer storage.ImageSigner, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Service{
		rooms:    rooms,
		signer:   signer,
		pageSize: pageSize,
		now:      time.Now,
	}
}

// Now returns the service clock.
func (s *Service) Now() time.Time {
	return s.now()
}

// ParseRange validates a range against the service clock.
func (s *Service) ParseRange(start, end string, loc *time.Location) (DateRange, error) {
	return ParseRange(start, end, loc, s.now())
}

// Available returns the rooms free for the whole range, in backend order.
func (s *Service) Available(ctx context.Context, sess *session.Session, r DateRange, pageSize int) ([]hotelapi.Room, error) {
	if pageSize <= 0 {
		pageSize = s.pageSize
	}

	token := ""
	if sess != nil {
		token = sess.Token
	}

	rooms, err := s.rooms.ListAvailableRooms(ctx, token, r.WireStart(), r.WireEnd(), pageSize)
	if err != nil {
		status, body := hotelapi.StatusOf(err)
		errorhandler.LogExternalServiceError(ctx, "hotel-api", "GET /habitaciones/disponibles", status, err, body)
		return nil, fmt.Errorf("%w: %w", ErrAvailabilityUnavailable, err)
	}
	return rooms, nil
}

// Search validates the raw dates, queries availability and maps rooms for the browser.
func (s *Service) Search(ctx context.Context, sess *session.Session, start, end string, pageSize int) (*SearchResponse, error) {
	r, err := s.ParseRange(start, end, sess.Loc())
	if err != nil {
		return nil, err
	}

	rooms, err := s.Available(ctx, sess, r, pageSize)
	if err != nil {
		return nil, err
	}

	resp := &SearchResponse{
		Start:     r.StartDate(),
		End:       r.EndDate(),
		WireStart: r.WireStart(),
		WireEnd:   r.WireEnd(),
		Nights:    r.Nights(),
		Rooms:     make([]RoomResponse, 0, len(rooms)),
	}
	for _, room := range rooms {
		resp.Rooms = append(resp.Rooms, RoomResponseFromRoom(room, s.ImageURL(ctx, room.Imagen)))
	}
	return resp, nil
}

// ImageURL resolves a stored image reference into a loadable URL. Absolute URLs are returned as
// is; keys are presigned when a signer is configured.
func (s *Service) ImageURL(ctx context.Context, ref string) string {
	if ref == "" || storage.IsAbsoluteURL(ref) {
		return ref
	}
	if s.signer == nil {
		return ""
	}
	url, err := s.signer.SignedURL(ctx, ref)
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("image", ref).Msg("failed to sign room image url")
		return ""
	}
	return url
}
