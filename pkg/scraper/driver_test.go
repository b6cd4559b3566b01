package scraper

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"igprofiler/pkg/browser"
	"igprofiler/pkg/errors"
)

// fakeDriver is a scripted page session. Navigating to a URL replays the
// responses scripted for it through whatever listeners are attached, and
// evaluations are answered from a script-substring lookup table.
type fakeDriver struct {
	mu        sync.Mutex
	listeners []listener

	// responses to replay per navigated URL
	responses map[string][]browser.Response
	// eval results keyed by a substring of the script
	evalResults map[string]interface{}
	// eval errors keyed by a substring of the script, checked per URL
	evalErrors map[string]map[string]error
	// navErrors fails navigation for specific URLs
	navErrors map[string]error

	// lateResponse, when set, is handed to every registered listener on
	// the next Eval call even if its stop function has already returned,
	// mimicking a delivery that was in flight during detach.
	lateResponse *browser.Response

	navigated []string
	current   string
	closed    bool
}

type listener struct {
	match func(url string) bool
	fn    func(browser.Response)
	done  bool
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		responses:   make(map[string][]browser.Response),
		evalResults: make(map[string]interface{}),
		evalErrors:  make(map[string]map[string]error),
		navErrors:   make(map[string]error),
	}
}

func (d *fakeDriver) Navigate(_ context.Context, url string, _ time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.navigated = append(d.navigated, url)
	d.current = url
	if err := d.navErrors[url]; err != nil {
		return err
	}
	for _, resp := range d.responses[url] {
		for i := range d.listeners {
			l := &d.listeners[i]
			if !l.done && l.match(resp.URL) {
				l.fn(resp)
			}
		}
	}
	return nil
}

func (d *fakeDriver) OnResponse(match func(url string) bool, fn func(browser.Response)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, listener{match: match, fn: fn})
	idx := len(d.listeners) - 1
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.listeners[idx].done = true
	}
}

func (d *fakeDriver) WaitResponse(_ context.Context, match func(url string) bool, timeout time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, resps := range d.responses {
		for _, r := range resps {
			if match(r.URL) {
				return nil
			}
		}
	}
	return errors.New(errors.ErrorTypeChannelTimeout, "no matching network response within %s", timeout)
}

func (d *fakeDriver) Eval(_ context.Context, script string, _ ...interface{}) (json.RawMessage, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lateResponse != nil {
		resp := *d.lateResponse
		d.lateResponse = nil
		for _, l := range d.listeners {
			if l.match(resp.URL) {
				l.fn(resp)
			}
		}
	}
	for key, byURL := range d.evalErrors {
		if strings.Contains(script, key) {
			if err, ok := byURL[d.current]; ok {
				return nil, err
			}
		}
	}
	for key, result := range d.evalResults {
		if strings.Contains(script, key) {
			return json.Marshal(result)
		}
	}
	return json.RawMessage("null"), nil
}

func (d *fakeDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

type fakeFactory struct {
	driver *fakeDriver
	err    error
}

func (f *fakeFactory) NewSession(context.Context) (browser.Driver, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.driver, nil
}
