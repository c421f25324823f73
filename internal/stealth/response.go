package stealth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/textproto"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// Response is what a fetch hands back: the status line, sanitized headers
// and the full body with a few typed accessors.
type Response struct {
	Status     int
	StatusText string
	Header     http.Header
	URL        string

	body []byte
}

func NewResponse(status int, statusText string, header http.Header, body []byte) *Response {
	if statusText == "" {
		statusText = http.StatusText(status)
	}
	if header == nil {
		header = http.Header{}
	}
	return &Response{
		Status:     status,
		StatusText: statusText,
		Header:     header,
		body:       body,
	}
}

func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

func (r *Response) Text() string {
	return string(r.body)
}

func (r *Response) Bytes() []byte {
	return r.body
}

func (r *Response) ContentType() string {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/json"
}

func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return nil
}

// SanitizeHeaders converts a loosely typed header map into an http.Header,
// silently dropping anything that is not a valid header field. Chrome joins
// repeated headers with newlines, so each line is checked on its own.
func SanitizeHeaders(raw map[string]any) http.Header {
	out := make(http.Header, len(raw))
	for name, v := range raw {
		if !httpguts.ValidHeaderFieldName(name) {
			continue
		}
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		key := textproto.CanonicalMIMEHeaderKey(name)
		for _, line := range strings.Split(s, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || !httpguts.ValidHeaderFieldValue(line) {
				continue
			}
			out[key] = append(out[key], line)
		}
	}
	return out
}

// sanitizeRequestHeaders applies the same rules to outgoing headers.
func sanitizeRequestHeaders(in map[string]string) map[string]any {
	out := make(map[string]any, len(in))
	for name, v := range in {
		if v == "" || !httpguts.ValidHeaderFieldName(name) || !httpguts.ValidHeaderFieldValue(v) {
			continue
		}
		out[name] = v
	}
	return out
}
