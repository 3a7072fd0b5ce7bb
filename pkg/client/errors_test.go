package client

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected ErrorClass
	}{
		{name: "bad request", status: 400, expected: ErrorClassClient},
		{name: "unauthorized", status: 401, expected: ErrorClassClient},
		{name: "not found", status: 404, expected: ErrorClassClient},
		{name: "internal error", status: 500, expected: ErrorClassServer},
		{name: "service unavailable", status: 503, expected: ErrorClassServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyStatus(tt.status); got != tt.expected {
				t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.expected)
			}
		})
	}
}

func TestTransportError_Error(t *testing.T) {
	err := &TransportError{
		StatusCode: 401,
		ErrorClass: ErrorClassClient,
		Body:       ErrorBody{Message: "auth_failed"},
	}

	expected := "marketplace client error (status 401): auth_failed"
	if got := err.Error(); got != expected {
		t.Errorf("Error() = %q, want %q", got, expected)
	}
}

func TestAsTransportError(t *testing.T) {
	original := &TransportError{StatusCode: 500, ErrorClass: ErrorClassServer}
	wrapped := fmt.Errorf("fetch page: %w", original)

	te, ok := AsTransportError(wrapped)
	if !ok {
		t.Fatal("Expected wrapped TransportError to be found")
	}
	if te != original {
		t.Error("Expected the original TransportError")
	}

	if _, ok := AsTransportError(errors.New("plain")); ok {
		t.Error("Plain error should not match")
	}
}

func TestParseErrorBody(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		wantMessage string
		wantRaw     bool
	}{
		{name: "message field", data: `{"message":"nope"}`, wantMessage: "nope", wantRaw: true},
		{name: "no message field", data: `{"error":"x"}`, wantMessage: "fallback", wantRaw: true},
		{name: "empty body", data: ``, wantMessage: "fallback", wantRaw: false},
		{name: "html body", data: `<h1>oops</h1>`, wantMessage: "fallback", wantRaw: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := parseErrorBody([]byte(tt.data), "fallback")
			if body.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", body.Message, tt.wantMessage)
			}
			if (body.Raw != nil) != tt.wantRaw {
				t.Errorf("Raw present = %v, want %v", body.Raw != nil, tt.wantRaw)
			}
		})
	}
}
