package server

import (
	"context"
	"errors"
	"net/http"

	"bf6-tracker/internal/api"
	"bf6-tracker/internal/platform"
	"bf6-tracker/internal/stealth"

	"connectrpc.com/connect"
)

// CodeOf maps a service error onto the Connect code clients see.
func CodeOf(err error) connect.Code {
	var (
		launchErr *stealth.LaunchError
		statusErr *api.StatusError
		parseErr  *api.ParseError
	)
	switch {
	case errors.Is(err, api.ErrMissingPlayerID),
		errors.Is(err, api.ErrUnsupportedStat),
		errors.Is(err, platform.ErrUnknownPlatform):
		return connect.CodeInvalidArgument
	case errors.As(err, &launchErr), errors.Is(err, stealth.ErrClosed):
		return connect.CodeUnavailable
	case errors.Is(err, stealth.ErrNavigationTimeout),
		errors.Is(err, stealth.ErrNoResponse),
		errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	case errors.As(err, &statusErr):
		switch statusErr.Code {
		case http.StatusNotFound:
			return connect.CodeNotFound
		case http.StatusTooManyRequests:
			return connect.CodeResourceExhausted
		default:
			return connect.CodeUnavailable
		}
	case errors.As(err, &parseErr):
		return connect.CodeInternal
	default:
		return connect.CodeInternal
	}
}
