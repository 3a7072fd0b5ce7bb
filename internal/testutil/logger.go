package testutil

import (
	"github.com/stretchr/testify/mock"
)

// MockLogger is a testify mock of the Log/Error logging sink.
type MockLogger struct {
	mock.Mock
}

// NewMockLogger returns a MockLogger that accepts any Log call.
// Error calls must be expected explicitly.
func NewMockLogger() *MockLogger {
	m := &MockLogger{}
	m.On("Log", mock.Anything).Maybe()
	return m
}

func (m *MockLogger) Log(message string) {
	m.Called(message)
}

func (m *MockLogger) Error(message string, fields map[string]any) {
	m.Called(message, fields)
}
