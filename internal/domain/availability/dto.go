package availability

import "github.com/hotelreservas/booking-gateway/internal/pkg/hotelapi"

// RoomResponse is a room as shown to the browser
type RoomResponse struct {
	ID           int64   `json:"id"`
	Numero       string  `json:"numero"`
	Capacidad    int     `json:"capacidad"`
	Descripcion  string  `json:"descripcion,omitempty"`
	Imagen       string  `json:"imagen,omitempty"`
	ImagenURL    string  `json:"imagen_url,omitempty"`
	Activo       bool    `json:"activo"`
	Categoria    string  `json:"categoria"`
	PrecioNoche  float64 `json:"precio_noche"`
	EstadoActual string  `json:"estado,omitempty"`
}

// SearchResponse is the availability answer for one date range
type SearchResponse struct {
	Start     string         `json:"start"`
	End       string         `json:"end"`
	WireStart string         `json:"fecha_inicio"`
	WireEnd   string         `json:"fecha_fin"`
	Nights    int            `json:"nights"`
	Rooms     []RoomResponse `json:"rooms"`
}

// RoomResponseFromRoom maps a backend room; imageURL may be empty.
func RoomResponseFromRoom(r hotelapi.Room, imageURL string) RoomResponse {
	resp := RoomResponse{
		ID:          r.ID,
		Numero:      r.Numero,
		Capacidad:   r.Capacidad,
		Descripcion: r.Descripcion,
		Imagen:      r.Imagen,
		ImagenURL:   imageURL,
		Activo:      r.Activo,
		Categoria:   r.CategoryName(),
		PrecioNoche: r.NightlyPrice(),
	}
	if r.EstadoHabitacion != nil {
		resp.EstadoActual = r.EstadoHabitacion.Nombre
	}
	return resp
}
