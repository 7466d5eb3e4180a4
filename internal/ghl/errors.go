package ghl

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNotFound matches 404 responses
	ErrNotFound = errors.New("ghl resource not found")
	// ErrUnauthorized matches 401 and 403 responses
	ErrUnauthorized = errors.New("ghl request unauthorized")
	// ErrRateLimited matches 429 responses that survived every retry
	ErrRateLimited = errors.New("ghl rate limit exceeded")
)

// APIError is a non-2xx response from the API
type APIError struct {
	StatusCode int
	Message    string
	Method     string
	Path       string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("ghl %s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("ghl %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Is lets errors.Is match the package sentinels by status code
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// errorBody covers both {"message": "..."} and {"message": ["...", "..."]}
type errorBody struct {
	Message json.RawMessage `json:"message"`
	Error   string          `json:"error"`
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Method: method, Path: path}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		if len(apiErr.Message) > 200 {
			apiErr.Message = apiErr.Message[:200]
		}
		return apiErr
	}

	var single string
	var many []string
	switch {
	case json.Unmarshal(parsed.Message, &single) == nil && single != "":
		apiErr.Message = single
	case json.Unmarshal(parsed.Message, &many) == nil && len(many) > 0:
		apiErr.Message = strings.Join(many, "; ")
	default:
		apiErr.Message = parsed.Error
	}
	return apiErr
}
