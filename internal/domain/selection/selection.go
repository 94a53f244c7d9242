package selection

import (
	"github.com/hotelreservas/booking-gateway/internal/domain/availability"
	"github.com/hotelreservas/booking-gateway/internal/pkg/hotelapi"
)

// Selection is the set of rooms a user picked for the active search range. Rooms are unique by
// id; order follows insertion and carries no meaning.
type Selection struct {
	Rooms []hotelapi.Room `json:"rooms"`
	Start string          `json:"start,omitempty"`
	End   string          `json:"end,omitempty"`
}

// Toggle removes room when it is selected and appends it otherwise. It reports whether the room
// is selected afterwards.
func (s *Selection) Toggle(room hotelapi.Room) bool {
	for i, r := range s.Rooms {
		if r.ID == room.ID {
			s.Rooms = append(s.Rooms[:i:i], s.Rooms[i+1:]...)
			return false
		}
	}
	s.Rooms = append(s.Rooms, room)
	return true
}

// Add appends room unless a room with the same id is selected. It reports whether it was added.
func (s *Selection) Add(room hotelapi.Room) bool {
	if s.Contains(room.ID) {
		return false
	}
	s.Rooms = append(s.Rooms, room)
	return true
}

// Remove drops the room with id. It reports whether it was selected.
func (s *Selection) Remove(id int64) bool {
	for i, r := range s.Rooms {
		if r.ID == id {
			s.Rooms = append(s.Rooms[:i:i], s.Rooms[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the room set. The search range is kept.
func (s *Selection) Clear() {
	s.Rooms = nil
}

// SetRange stores the active search dates (YYYY-MM-DD).
func (s *Selection) SetRange(start, end string) {
	s.Start = start
	s.End = end
}

// Contains reports whether room id is selected.
func (s Selection) Contains(id int64) bool {
	for _, r := range s.Rooms {
		if r.ID == id {
			return true
		}
	}
	return false
}

// IsEmpty reports whether no room is selected.
func (s Selection) IsEmpty() bool {
	return len(s.Rooms) == 0
}

// RoomIDs returns the selected ids in selection order.
func (s Selection) RoomIDs() []int64 {
	ids := make([]int64, 0, len(s.Rooms))
	for _, r := range s.Rooms {
		ids = append(ids, r.ID)
	}
	return ids
}

// HasRange reports whether both dates are set.
func (s Selection) HasRange() bool {
	return s.Start != "" && s.End != ""
}

// Nights is max(1, ceil(days)) for the stored range, 0 when either date is unset or unreadable.
func (s Selection) Nights() int {
	if !s.HasRange() {
		return 0
	}
	start, err := availability.ParseDate(s.Start)
	if err != nil {
		return 0
	}
	end, err := availability.ParseDate(s.End)
	if err != nil {
		return 0
	}
	return availability.Nights(start, end)
}

// Total is the sum of nightly prices times Nights. Rooms without a price count as 0.
func (s Selection) Total() float64 {
	nights := s.Nights()
	if nights == 0 {
		return 0
	}
	var total float64
	for _, r := range s.Rooms {
		total += r.NightlyPrice() * float64(nights)
	}
	return total
}

// Clone returns a copy that does not share the room slice.
func (s Selection) Clone() Selection {
	out := s
	if s.Rooms != nil {
		out.Rooms = append([]hotelapi.Room(nil), s.Rooms...)
	}
	return out
}
