package atclient

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Error returned by the API host for a non-2xx response.
type APIError struct {
	StatusCode int
	Name       string
	Message    string
}

func (ae *APIError) Error() string {
	if ae.StatusCode > 0 {
		if ae.Name != "" && ae.Message != "" {
			return fmt.Sprintf("API request failed (HTTP %d): %s: %s", ae.StatusCode, ae.Name, ae.Message)
		} else if ae.Name != "" {
			return fmt.Sprintf("API request failed (HTTP %d): %s", ae.StatusCode, ae.Name)
		}
		return fmt.Sprintf("API request failed (HTTP %d)", ae.StatusCode)
	}
	return "API request failed"
}

// Case-insensitive check of the error name and message for a substring.
func (ae *APIError) Mentions(s string) bool {
	s = strings.ToLower(s)
	return strings.Contains(strings.ToLower(ae.Name), s) || strings.Contains(strings.ToLower(ae.Message), s)
}

// JSON body of API error responses
type ErrorBody struct {
	Name    string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (eb *ErrorBody) APIError(statusCode int) error {
	return &APIError{
		StatusCode: statusCode,
		Name:       eb.Name,
		Message:    eb.Message,
	}
}

// parses an error response body; falls back to a bare status error if the body isn't JSON
func readAPIError(statusCode int, body io.Reader) error {
	var eb ErrorBody
	if err := json.NewDecoder(body).Decode(&eb); err != nil {
		return &APIError{StatusCode: statusCode}
	}
	return eb.APIError(statusCode)
}
