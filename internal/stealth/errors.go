package stealth

import (
	"errors"
	"fmt"
)

var (
	ErrNavigationTimeout = errors.New("navigation timed out")
	ErrNoResponse        = errors.New("navigation produced no response")
	ErrClosed            = errors.New("browser client closed")
	ErrInvalidJSON       = errors.New("response body is not valid JSON")
)

// LaunchError is returned to every caller, pending or future, once the shared
// browser failed to start. It stays in place until Reset.
type LaunchError struct {
	Err error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("browser launch failed: %v", e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}
