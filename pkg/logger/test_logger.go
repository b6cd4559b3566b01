package logger

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// LogMessage is one entry captured by a TestLogger.
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// TestLogger captures log messages so tests can assert that non-fatal
// pipeline errors were reported through the diagnostics sink. Loggers
// derived via WithField/WithFields/WithError append into the root logger.
type TestLogger struct {
	root    *TestLogger // nil for the root logger itself
	fields  map[string]interface{}
	zerolog *zerolog.Logger

	mu       sync.Mutex
	messages []LogMessage
}

// NewTestLogger creates a capturing logger for tests.
func NewTestLogger() *TestLogger {
	nop := zerolog.Nop()
	return &TestLogger{zerolog: &nop}
}

func (l *TestLogger) sink() *TestLogger {
	if l.root != nil {
		return l.root
	}
	return l
}

func (l *TestLogger) log(level, msg string, fields map[string]interface{}) {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	s := l.sink()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, LogMessage{Level: level, Message: msg, Fields: merged})
}

func (l *TestLogger) child(fields map[string]interface{}) *TestLogger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &TestLogger{root: l.sink(), fields: merged, zerolog: l.zerolog}
}

func (l *TestLogger) Debug(msg string) { l.log("DEBUG", msg, nil) }
func (l *TestLogger) Info(msg string)  { l.log("INFO", msg, nil) }
func (l *TestLogger) Warn(msg string)  { l.log("WARN", msg, nil) }
func (l *TestLogger) Error(msg string) { l.log("ERROR", msg, nil) }
func (l *TestLogger) Fatal(msg string) { l.log("FATAL", msg, nil) }

func (l *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.log("DEBUG", msg, fields)
}
func (l *TestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.log("INFO", msg, fields)
}
func (l *TestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.log("WARN", msg, fields)
}
func (l *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.log("ERROR", msg, fields)
}
func (l *TestLogger) FatalWithFields(msg string, fields map[string]interface{}) {
	l.log("FATAL", msg, fields)
}

func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return l.child(map[string]interface{}{key: value})
}

func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	return l.child(fields)
}

func (l *TestLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return l.child(map[string]interface{}{"error": err.Error()})
}

func (l *TestLogger) WithContext(ctx context.Context) Logger { return l }

func (l *TestLogger) GetZerolog() *zerolog.Logger { return l.zerolog }

// Messages returns a copy of all captured log messages.
func (l *TestLogger) Messages() []LogMessage {
	s := l.sink()
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]LogMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// MessagesByLevel returns captured messages of the given level.
func (l *TestLogger) MessagesByLevel(level string) []LogMessage {
	var filtered []LogMessage
	for _, msg := range l.Messages() {
		if msg.Level == level {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

// HasMessage reports whether a message with the given text was logged.
func (l *TestLogger) HasMessage(text string) bool {
	for _, msg := range l.Messages() {
		if msg.Message == text {
			return true
		}
	}
	return false
}
