package errors

import "fmt"

// ErrorType classifies pipeline errors by the stage that produced them.
type ErrorType string

const (
	// ErrorTypeParse marks a payload or embedded-script span that is not
	// valid JSON. Non-fatal; the observation is dropped.
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypeChannelTimeout marks a bounded wait that expired without a
	// matching network response. Non-fatal; remaining channels still run.
	ErrorTypeChannelTimeout ErrorType = "channel_timeout"
	// ErrorTypeNormalization marks a payload with no locatable user
	// structure. Non-fatal; the payload contributes no candidate.
	ErrorTypeNormalization ErrorType = "normalization_miss"
	// ErrorTypeReconciliation marks a run that produced zero usable
	// candidates across all channels. Fatal for the run.
	ErrorTypeReconciliation ErrorType = "reconciliation"
	// ErrorTypePostDetail marks a navigation, evaluation, or parse failure
	// while augmenting one post. Isolated to that post.
	ErrorTypePostDetail ErrorType = "post_detail"
	// ErrorTypeBrowser marks a browser-driver fault (launch, navigation,
	// page evaluation).
	ErrorTypeBrowser ErrorType = "browser"
)

// Error represents a pipeline error with stage information.
type Error struct {
	Type    ErrorType
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// New creates a typed pipeline error.
func New(errorType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errorType,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsFatal reports whether an error type aborts the whole pipeline run.
// Everything except a reconciliation failure degrades in place: the
// observation, candidate, or post detail is lost but the run continues.
func IsFatal(errorType ErrorType) bool {
	return errorType == ErrorTypeReconciliation
}
