package availability

import "errors"

var (
	ErrAvailabilityUnavailable = errors.New("could not verify availability")
)
