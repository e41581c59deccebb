package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized matches any 401 from the API. The session store has
// already been cleared when a caller sees it: the session has ended.
var ErrUnauthorized = errors.New("session ended")

// Error is a non-2xx response from the API.
type Error struct {
	Status int
	Detail string // server-provided detail, empty when absent
	Method string
	Path   string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// Is makes errors.Is(err, ErrUnauthorized) hold for 401 responses.
func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// Detail returns the server's detail message carried by err, or fallback.
func Detail(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

// IsStatus reports whether err is an API error with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// parseDetail extracts a string "detail" field. Structured details
// (validation arrays) are not user-facing and are ignored.
func parseDetail(body []byte) string {
	var out struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &out); err != nil || len(out.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(out.Detail, &s); err != nil {
		return ""
	}
	return s
}
