package selection

import "github.com/hotelreservas/booking-gateway/internal/domain/availability"

// SetRangeRequest represents PUT /selection/range body
type SetRangeRequest struct {
	Start string `json:"start" validate:"required,date_ymd"`
	End   string `json:"end" validate:"required,date_ymd"`
}

// ToggleRequest represents POST /selection/rooms/toggle body
type ToggleRequest struct {
	RoomID int64 `json:"room_id" validate:"required,gt=0"`
}

// SelectionResponse is the selection with derived pricing
type SelectionResponse struct {
	Rooms    []availability.RoomResponse `json:"rooms"`
	Start    string                      `json:"start,omitempty"`
	End      string                      `json:"end,omitempty"`
	Nights   int                         `json:"nights"`
	Total    float64                     `json:"total"`
	Count    int                         `json:"count"`
	Selected *bool                       `json:"selected,omitempty"`
}
