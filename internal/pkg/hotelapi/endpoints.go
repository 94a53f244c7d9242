package hotelapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ListAvailableRooms returns the rooms free for the whole [fechaInicio, fechaFin) interval in
// backend order. Dates are wire instants (YYYY-MM-DDT00:00:00Z).
func (c *Client) ListAvailableRooms(ctx context.Context, token, fechaInicio, fechaFin string, size int) ([]Room, error) {
	q := url.Values{}
	q.Set("fechaInicio", fechaInicio)
	q.Set("fechaFin", fechaFin)
	if size > 0 {
		q.Set("size", strconv.Itoa(size))
	}

	raw, err := c.do(ctx, "availability", token, http.MethodGet, "/habitaciones/disponibles", q, nil)
	if err != nil {
		return nil, err
	}
	rooms, err := decodeList[Room](raw)
	if err != nil {
		return nil, fmt.Errorf("hotelapi availability decode error: %w", err)
	}
	return rooms, nil
}

// CreateReservation posts a reservation header and returns the backend echo.
func (c *Client) CreateReservation(ctx context.Context, token string, r Reserva) (*Reserva, error) {
	var out Reserva
	if err := c.doJSON(ctx, "create reservation", token, http.MethodPost, "/reservas", nil, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateReservationDetail posts one room assignment.
func (c *Client) CreateReservationDetail(ctx context.Context, token string, d ReservaDetalle) (*ReservaDetalle, error) {
	var out ReservaDetalle
	if err := c.doJSON(ctx, "create detail", token, http.MethodPost, "/reserva-detalles", nil, d, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateReservationStatus sends {id, estado}. The returned reservation is nil when the backend
// answers without a body.
func (c *Client) UpdateReservationStatus(ctx context.Context, token string, id int64, estado Estado) (*Reserva, error) {
	var out Reserva
	path := "/reservas/" + strconv.FormatInt(id, 10)
	if err := c.doJSON(ctx, "update reservation", token, http.MethodPatch, path, nil, statusPatch{ID: id, Estado: estado}, &out); err != nil {
		return nil, err
	}
	if out.ID == 0 {
		return nil, nil
	}
	return &out, nil
}

// DeleteReservation removes a reservation header.
func (c *Client) DeleteReservation(ctx context.Context, token string, id int64) error {
	_, err := c.do(ctx, "delete reservation", token, http.MethodDelete, "/reservas/"+strconv.FormatInt(id, 10), nil, nil)
	return err
}

// DeleteReservationDetail removes one room assignment.
func (c *Client) DeleteReservationDetail(ctx context.Context, token string, id int64) error {
	_, err := c.do(ctx, "delete detail", token, http.MethodDelete, "/reserva-detalles/"+strconv.FormatInt(id, 10), nil, nil)
	return err
}

// GetReservation fetches one reservation.
func (c *Client) GetReservation(ctx context.Context, token string, id int64) (*Reserva, error) {
	var out Reserva
	if err := c.doJSON(ctx, "get reservation", token, http.MethodGet, "/reservas/"+strconv.FormatInt(id, 10), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListReservationDetails returns the details of one reservation.
func (c *Client) ListReservationDetails(ctx context.Context, token string, reservaID int64) ([]ReservaDetalle, error) {
	q := url.Values{}
	q.Set("reservaId", strconv.FormatInt(reservaID, 10))

	raw, err := c.do(ctx, "list details", token, http.MethodGet, "/reserva-detalles", q, nil)
	if err != nil {
		return nil, err
	}
	details, err := decodeList[ReservaDetalle](raw)
	if err != nil {
		return nil, fmt.Errorf("hotelapi list details decode error: %w", err)
	}
	return details, nil
}

// ListClientReservations returns the reservations owned by clienteID.
func (c *Client) ListClientReservations(ctx context.Context, token string, clienteID int64) ([]Reserva, error) {
	q := url.Values{}
	q.Set("clienteId", strconv.FormatInt(clienteID, 10))

	raw, err := c.do(ctx, "list reservations", token, http.MethodGet, "/reservas", q, nil)
	if err != nil {
		return nil, err
	}
	items, err := decodeList[Reserva](raw)
	if err != nil {
		return nil, fmt.Errorf("hotelapi list reservations decode error: %w", err)
	}
	return items, nil
}

// GetClientByUserID resolves the guest profile of a user account. A missing profile is
// reported as ErrNotFound.
func (c *Client) GetClientByUserID(ctx context.Context, token string, userID int64) (*Cliente, error) {
	var out Cliente
	if err := c.doJSON(ctx, "get client", token, http.MethodGet, "/clientes/usuario/"+strconv.FormatInt(userID, 10), nil, nil, &out); err != nil {
		return nil, err
	}
	if out.ID == 0 {
		return nil, fmt.Errorf("hotelapi get client: %w", ErrNotFound)
	}
	return &out, nil
}
