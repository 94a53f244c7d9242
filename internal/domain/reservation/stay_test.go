package reservation

import (
	"testing"
	"time"

	"github.com/hotelreservas/booking-gateway/internal/domain/availability"
	"github.com/hotelreservas/booking-gateway/internal/pkg/hotelapi"
)

func TestStayInstantsKeepCalendarDates(t *testing.T) {
	loc := time.FixedZone("UTC-6", -6*60*60)
	r, err := availability.ParseRange("2099-06-01", "2099-06-04", loc, time.Date(2099, 5, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("parse range: %v", err)
	}

	in, out := StayInstants(r, loc)
	if !in.Equal(time.Date(2099, 6, 1, 21, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected check-in %v", in)
	}
	if !out.Equal(time.Date(2099, 6, 4, 17, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected check-out %v", out)
	}
	if in.In(loc).Day() != 1 || out.In(loc).Day() != 4 {
		t.Fatal("local calendar dates must be preserved")
	}
	if n := StayNights(in, out); n != 3 {
		t.Fatalf("expected 3 nights, got %d", n)
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to hotelapi.Estado
		ok       bool
	}{
		{hotelapi.EstadoPendiente, hotelapi.EstadoConfirmada, true},
		{hotelapi.EstadoPendiente, hotelapi.EstadoCancelada, true},
		{hotelapi.EstadoPendiente, hotelapi.EstadoCheckIn, false},
		{hotelapi.EstadoConfirmada, hotelapi.EstadoCheckIn, true},
		{hotelapi.EstadoCheckIn, hotelapi.EstadoCheckOut, true},
		{hotelapi.EstadoCheckIn, hotelapi.EstadoCancelada, false},
		{hotelapi.EstadoCheckOut, hotelapi.EstadoFinalizada, true},
		{hotelapi.EstadoFinalizada, hotelapi.EstadoPendiente, false},
		{hotelapi.EstadoCancelada, hotelapi.EstadoConfirmada, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.ok {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestNewViewSingleNightMinimum(t *testing.T) {
	at := time.Date(2099, 6, 1, 15, 0, 0, 0, time.UTC)
	v := NewView(&hotelapi.Reserva{
		ID:          1,
		FechaInicio: hotelapi.NewTimestamp(at),
		FechaFin:    hotelapi.NewTimestamp(at),
	}, []hotelapi.ReservaDetalle{{PrecioUnitario: 90}})

	if v.Nights != 1 || v.Total != 90 {
		t.Fatalf("expected 1 night totalling 90, got %d / %v", v.Nights, v.Total)
	}
}
