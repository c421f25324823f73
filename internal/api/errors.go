package api

import (
	"fmt"
	"net/http"
)

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Endpoint string
	Code     int
	Text     string
}

func (e *StatusError) Error() string {
	text := e.Text
	if text == "" {
		text = http.StatusText(e.Code)
	}
	return fmt.Sprintf("upstream %s returned %d %s", e.Endpoint, e.Code, text)
}

func (e *StatusError) NotFound() bool {
	return e.Code == http.StatusNotFound
}

// ParseError reports an upstream body that could not be decoded.
type ParseError struct {
	Endpoint string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("decode %s response: %v", e.Endpoint, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
