package reservation

import (
	"time"

	"github.com/hotelreservas/booking-gateway/internal/domain/availability"
)

// Local clock times the stay is anchored to. Midnight would move the calendar date across the
// UTC day boundary for zones behind UTC.
const (
	CheckInHour  = 15
	CheckOutHour = 11
)

// StayInstants returns check-in (start date 15:00 in loc) and check-out (end date 11:00 in loc)
// as UTC instants.
func StayInstants(r availability.DateRange, loc *time.Location) (checkIn, checkOut time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	checkIn = time.Date(r.Start.Year(), r.Start.Month(), r.Start.Day(), CheckInHour, 0, 0, 0, loc).UTC()
	checkOut = time.Date(r.End.Year(), r.End.Month(), r.End.Day(), CheckOutHour, 0, 0, 0, loc).UTC()
	return checkIn, checkOut
}

// StayNights derives billable nights from stored instants: max(1, ceil(hours/24)).
func StayNights(checkIn, checkOut time.Time) int {
	return availability.Nights(checkIn, checkOut)
}
