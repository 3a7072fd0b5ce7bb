package logging

import (
	"github.com/rs/zerolog"
)

// Sink is a fire-and-forget message logger backed by zerolog.
// It satisfies the Logger interfaces of the auction and monitor packages.
type Sink struct {
	logger zerolog.Logger
}

// NewSink wraps logger.
func NewSink(logger zerolog.Logger) *Sink {
	return &Sink{logger: logger}
}

// NewComponentSink returns a Sink over NewLogger(component).
func NewComponentSink(component string) *Sink {
	return NewSink(NewLogger(component))
}

// Log writes message at info level.
func (s *Sink) Log(message string) {
	s.logger.Info().Msg(message)
}

// Error writes message at error level. Fields are nested under "context"
// so keys such as "message" cannot clash with the entry's own fields.
func (s *Sink) Error(message string, fields map[string]any) {
	event := s.logger.Error()
	if len(fields) > 0 {
		event = event.Dict("context", zerolog.Dict().Fields(fields))
	}
	event.Msg(message)
}

// With returns a Sink whose entries carry key=value.
func (s *Sink) With(key, value string) *Sink {
	return &Sink{logger: s.logger.With().Str(key, value).Logger()}
}

// Logger exposes the underlying zerolog logger.
func (s *Sink) Logger() zerolog.Logger {
	return s.logger
}
