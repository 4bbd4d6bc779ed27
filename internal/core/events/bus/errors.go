package bus

import "errors"

var (
	ErrEmptyEventType = errors.New("event type must not be empty")
	ErrNilHandler     = errors.New("event handler must not be nil")
)
