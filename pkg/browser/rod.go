package browser

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"igprofiler/pkg/config"
	"igprofiler/pkg/errors"
	"igprofiler/pkg/logger"
)

// Browser owns the single browser process for the lifetime of the service
// and hands out one fresh page per pipeline run.
type Browser struct {
	browser *rod.Browser
	cfg     config.BrowserConfig
	logger  logger.Logger
}

// Launch starts the configured browser executable and connects to it.
func Launch(cfg config.BrowserConfig, log logger.Logger) (*Browser, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox).
		Set("disable-blink-features", "AutomationControlled")

	if cfg.ExecutablePath != "" {
		l = l.Bin(cfg.ExecutablePath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, errors.New(errors.ErrorTypeBrowser, "failed to launch browser: %v", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, errors.New(errors.ErrorTypeBrowser, "failed to connect to browser: %v", err)
	}

	log.DebugWithFields("browser launched", map[string]interface{}{
		"control_url": controlURL,
		"executable":  cfg.ExecutablePath,
		"headless":    cfg.Headless,
	})

	return &Browser{browser: browser, cfg: cfg, logger: log}, nil
}

// NewSession creates a fresh page with stealth, headers, viewport and the
// optional session cookie applied, ready for a pipeline run.
func (b *Browser) NewSession(ctx context.Context) (Driver, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, errors.New(errors.ErrorTypeBrowser, "failed to open page: %v", err)
	}

	// Stealth JS must be installed before the first navigation; it masks
	// navigator.webdriver and friends for every subsequent load.
	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		b.logger.WithError(err).Warn("stealth injection failed, proceeding without stealth")
	}

	if b.cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      b.cfg.UserAgent,
			AcceptLanguage: "en-US,en;q=0.9",
		}); err != nil {
			b.logger.WithError(err).Warn("failed to set user agent")
		}
	}

	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: proto.NetworkHeaders{"Accept-Language": gson.New("en-US,en;q=0.9")},
	}.Call(page)

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1200,
		Height:            800,
		DeviceScaleFactor: 1,
	}); err != nil {
		b.logger.WithError(err).Warn("failed to set viewport")
	}

	if b.cfg.SessionID != "" {
		_, _ = proto.NetworkSetCookie{
			Name:   "sessionid",
			Value:  b.cfg.SessionID,
			Domain: ".instagram.com",
			Path:   "/",
		}.Call(page)
	}

	return &session{page: page, logger: b.logger}, nil
}

// Close kills the browser process. Call on graceful shutdown to prevent
// zombie renderer processes.
func (b *Browser) Close() error {
	return b.browser.Close()
}

// session implements Driver on top of one rod page.
type session struct {
	page   *rod.Page
	logger logger.Logger
}

func (s *session) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	p := s.page.Context(tctx)

	// The idle waiter has to be registered before Navigate, otherwise the
	// initial burst of requests is missed and the wait returns instantly.
	waitIdle := p.WaitRequestIdle(300*time.Millisecond, nil, nil, nil)

	if err := p.Navigate(url); err != nil {
		return errors.New(errors.ErrorTypeBrowser, "navigation to %s failed: %v", url, err)
	}

	// A settle wait cut short by the deadline is fine: the pipeline
	// proceeds with whatever was captured.
	waitIdle()
	return nil
}

func (s *session) OnResponse(match func(url string) bool, fn func(Response)) func() {
	lctx, cancel := context.WithCancel(s.page.GetContext())
	p := s.page.Context(lctx)

	wait := p.EachEvent(func(e *proto.NetworkResponseReceived) {
		if !match(e.Response.URL) {
			return
		}

		body, err := proto.NetworkGetResponseBody{RequestID: e.RequestID}.Call(p)
		if err != nil {
			s.logger.DebugWithFields("failed to read response body", map[string]interface{}{
				"url":   e.Response.URL,
				"error": err.Error(),
			})
			return
		}

		content := []byte(body.Body)
		if body.Base64Encoded {
			decoded, err := base64.StdEncoding.DecodeString(body.Body)
			if err != nil {
				s.logger.DebugWithFields("failed to decode response body", map[string]interface{}{
					"url":   e.Response.URL,
					"error": err.Error(),
				})
				return
			}
			content = decoded
		}

		fn(Response{URL: e.Response.URL, Body: content})
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		wait()
	}()

	// Detaching must be synchronous: a handler mid-flight may still call
	// fn, so the stop function waits for the event loop to exit before
	// returning control to the caller.
	return func() {
		cancel()
		<-done
	}
}

func (s *session) WaitResponse(ctx context.Context, match func(url string) bool, timeout time.Duration) error {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	p := s.page.Context(tctx)

	seen := false
	p.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if match(e.Response.URL) {
			seen = true
			return true
		}
		return false
	})()

	if !seen {
		return errors.New(errors.ErrorTypeChannelTimeout,
			"no matching network response within %s", timeout)
	}
	return nil
}

func (s *session) Eval(ctx context.Context, script string, args ...interface{}) (json.RawMessage, error) {
	p := s.page.Context(ctx)

	res, err := p.Eval(script, args...)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeBrowser, "page evaluation failed: %v", err)
	}

	raw, err := json.Marshal(res.Value)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeBrowser, "failed to encode evaluation result: %v", err)
	}
	return raw, nil
}

func (s *session) Close() error {
	if err := s.page.Close(); err != nil {
		return fmt.Errorf("failed to close page: %w", err)
	}
	return nil
}
