package selection

import "errors"

var (
	ErrRangeRequired    = errors.New("select a date range first")
	ErrRoomNotAvailable = errors.New("room is not available for the selected dates")
	ErrNotAuthenticated = errors.New("session required")
)
