package hotelapi

import (
	"encoding/json"
	"strings"
	"time"
)

// Estado is a reservation lifecycle state.
type Estado string

const (
	EstadoPendiente  Estado = "PENDIENTE"
	EstadoConfirmada Estado = "CONFIRMADA"
	EstadoCancelada  Estado = "CANCELADA"
	EstadoCheckIn    Estado = "CHECK_IN"
	EstadoCheckOut   Estado = "CHECK_OUT"
	EstadoFinalizada Estado = "FINALIZADA"
)

var estados = map[Estado]bool{
	EstadoPendiente:  true,
	EstadoConfirmada: true,
	EstadoCancelada:  true,
	EstadoCheckIn:    true,
	EstadoCheckOut:   true,
	EstadoFinalizada: true,
}

// NormalizeEstado trims, upper-cases and maps '-' and spaces to '_'.
func NormalizeEstado(s string) Estado {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	return Estado(s)
}

// Valid reports whether e is a known state.
func (e Estado) Valid() bool {
	return estados[e]
}

func (e *Estado) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*e = NormalizeEstado(s)
	return nil
}

// Timestamp decodes both RFC3339 instants and zone-less local date-times (read as UTC) and always
// encodes RFC3339 in UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed.UTC()
			return nil
		}
		lastErr = err
	}
	return lastErr
}

// Categoria is a room category (CategoriaHabitacion).
type Categoria struct {
	ID          int64    `json:"id,omitempty"`
	Nombre      string   `json:"nombre"`
	Descripcion string   `json:"descripcion,omitempty"`
	PrecioBase  *float64 `json:"precioBase,omitempty"`
}

// EstadoHabitacion is the room occupancy state (DISPONIBLE, OCUPADA, ...).
type EstadoHabitacion struct {
	ID     int64  `json:"id,omitempty"`
	Nombre string `json:"nombre"`
}

// Room is a Habitacion.
type Room struct {
	ID                  int64             `json:"id"`
	Numero              string            `json:"numero"`
	Capacidad           int               `json:"capacidad"`
	Descripcion         string            `json:"descripcion,omitempty"`
	Imagen              string            `json:"imagen,omitempty"`
	Activo              bool              `json:"activo"`
	CategoriaHabitacion *Categoria        `json:"categoriaHabitacion,omitempty"`
	EstadoHabitacion    *EstadoHabitacion `json:"estadoHabitacion,omitempty"`
}

// NightlyPrice is the category base price, 0 when the category or its price is missing.
func (r Room) NightlyPrice() float64 {
	if r.CategoriaHabitacion == nil || r.CategoriaHabitacion.PrecioBase == nil {
		return 0
	}
	return *r.CategoriaHabitacion.PrecioBase
}

// CategoryName is the category name or "General".
func (r Room) CategoryName() string {
	if r.CategoriaHabitacion == nil || strings.TrimSpace(r.CategoriaHabitacion.Nombre) == "" {
		return "General"
	}
	return r.CategoriaHabitacion.Nombre
}

// Ref is an {id} reference to another backend entity.
type Ref struct {
	ID int64 `json:"id"`
}

// Reserva is a reservation header.
type Reserva struct {
	ID           int64     `json:"id,omitempty"`
	FechaReserva Timestamp `json:"fechaReserva"`
	FechaInicio  Timestamp `json:"fechaInicio"`
	FechaFin     Timestamp `json:"fechaFin"`
	Estado       Estado    `json:"estado"`
	Activo       bool      `json:"activo"`
	Cliente      *Ref      `json:"cliente,omitempty"`
}

// ClienteID returns the owner id or 0.
func (r Reserva) ClienteID() int64 {
	if r.Cliente == nil {
		return 0
	}
	return r.Cliente.ID
}

// ReservaDetalle assigns one room to a reservation.
type ReservaDetalle struct {
	ID             int64   `json:"id,omitempty"`
	PrecioUnitario float64 `json:"precioUnitario"`
	Nota           string  `json:"nota,omitempty"`
	Activo         bool    `json:"activo"`
	Reserva        *Ref    `json:"reserva,omitempty"`
	Habitacion     *Room   `json:"habitacion,omitempty"`
}

// Cliente is the guest profile linked to a user account.
type Cliente struct {
	ID        int64  `json:"id"`
	Nombre    string `json:"nombre,omitempty"`
	Apellido  string `json:"apellido,omitempty"`
	Email     string `json:"email,omitempty"`
	Telefono  string `json:"telefono,omitempty"`
	Documento string `json:"documento,omitempty"`
}

type statusPatch struct {
	ID     int64  `json:"id"`
	Estado Estado `json:"estado"`
}
