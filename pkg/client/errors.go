package client

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorBody is the decoded body of an error response.
type ErrorBody struct {
	// Message is the "message" field of the JSON body, or the HTTP status
	// text when the body carries none.
	Message string

	// Raw is the undecoded response body.
	Raw json.RawMessage
}

// TransportError is returned for every response with status >= 400.
type TransportError struct {
	StatusCode int
	ErrorClass ErrorClass
	Body       ErrorBody
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("marketplace %s error (status %d): %s",
		e.ErrorClass, e.StatusCode, e.Body.Message)
}

// AsTransportError reports whether err carries a *TransportError.
func AsTransportError(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// parseErrorBody extracts the message field from a JSON error body.
func parseErrorBody(data []byte, fallback string) ErrorBody {
	body := ErrorBody{Message: fallback}
	if json.Valid(data) {
		body.Raw = json.RawMessage(data)
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Message != "" {
		body.Message = payload.Message
	}

	return body
}
