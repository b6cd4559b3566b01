package browser

import (
	"context"
	"encoding/json"
	"time"
)

// Response is one intercepted network response, already read as text.
type Response struct {
	URL  string
	Body []byte
}

// Driver is the capability one pipeline run needs from a rendered page.
// The capture pipeline depends only on this interface; the rod-backed
// implementation lives in this package, fakes live next to the tests.
type Driver interface {
	// Navigate loads the URL and waits for network activity to settle,
	// bounded by timeout. A settle wait that expires is not an error;
	// only a failed navigation is.
	Navigate(ctx context.Context, url string, timeout time.Duration) error

	// OnResponse streams every response whose URL satisfies match to fn,
	// in the order the originating events complete. The returned stop
	// function detaches the listener. A delivery already in flight when
	// stop is called may still reach fn; callers must tolerate one late
	// invocation.
	OnResponse(match func(url string) bool, fn func(Response)) (stop func())

	// WaitResponse blocks until a response matching match is observed or
	// the timeout expires, in which case a channel_timeout error is
	// returned.
	WaitResponse(ctx context.Context, match func(url string) bool, timeout time.Duration) error

	// Eval runs a script in the page context (one round trip, promises
	// awaited) and returns the JSON-encoded result.
	Eval(ctx context.Context, script string, args ...interface{}) (json.RawMessage, error)

	// Close releases the underlying page.
	Close() error
}

// Factory produces one fresh Driver per pipeline run. Runs never share a
// page: every invocation is an independent session against the browser.
type Factory interface {
	NewSession(ctx context.Context) (Driver, error)
}
