package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"igprofiler/pkg/browser"
	"igprofiler/pkg/errors"
	"igprofiler/pkg/instagram"
	"igprofiler/pkg/logger"
)

// Path substrings that identify profile-bearing responses. Anything else
// on the wire is ignored.
var capturePaths = []string{
	"/api/v1/users/web_profile_info",
	"/api/graphql/",
	"/graphql/",
}

// Synthetic source URLs for observations that do not come off the wire.
const (
	sourceFallbackFetch  = "web_profile_info_fallback"
	sourceEmbeddedScript = "embedded_script"
)

// observationBuffer bounds how many captured responses a single page load
// can queue before older ones are dropped at the sender.
const observationBuffer = 64

const fallbackFetchScript = `async (uname) => {
	try {
		const resp = await fetch('https://i.instagram.com/api/v1/users/web_profile_info/?username=' + encodeURIComponent(uname), {
			headers: { 'x-ig-app-id': '1217981644879628', 'accept': '*/*' },
			credentials: 'include'
		});
		const t = await resp.text();
		try { return JSON.parse(t); } catch (e) { return { _text: t.slice(0, 1000) }; }
	} catch (err) {
		return { _err: String(err && err.message) };
	}
}`

const embeddedScanScript = `() => {
	const scripts = Array.from(document.scripts || []);
	for (const s of scripts) {
		const txt = (s.textContent || '').trim();
		if (!txt || txt.length < 200) continue;
		if (txt.includes('edge_owner_to_timeline_media') || txt.includes('ProfilePage') || txt.includes('graphql')) {
			const first = txt.indexOf('{');
			const last = txt.lastIndexOf('}');
			if (first >= 0 && last > first) {
				const candidate = txt.slice(first, last + 1);
				try { return JSON.parse(candidate); } catch (e) {}
			}
		}
	}
	return null;
}`

// Collector gathers raw profile observations from one page load through
// three channels: intercepted network responses, an in-page fallback fetch
// and a scan of inline script tags. Channel failures degrade the run, they
// never abort it.
type Collector struct {
	driver browser.Driver
	logger logger.Logger

	navigationTimeout time.Duration
	responseWait      time.Duration
	graceDelay        time.Duration
}

// NewCollector wires a collector to an active page session.
func NewCollector(driver browser.Driver, log logger.Logger, navTimeout, responseWait, graceDelay time.Duration) *Collector {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Collector{
		driver:            driver,
		logger:            log,
		navigationTimeout: navTimeout,
		responseWait:      responseWait,
		graceDelay:        graceDelay,
	}
}

// matchCapturePath reports whether a URL belongs to one of the
// profile-bearing endpoints.
func matchCapturePath(u string) bool {
	for _, p := range capturePaths {
		if strings.Contains(u, p) {
			return true
		}
	}
	return false
}

// Collect loads the profile page for username and returns every usable
// observation in capture order. Navigation failure is the only fatal
// condition here.
func (c *Collector) Collect(ctx context.Context, username string) ([]instagram.RawObservation, error) {
	profileURL := fmt.Sprintf("https://www.instagram.com/%s/", url.PathEscape(username))

	captured := make(chan instagram.RawObservation, observationBuffer)
	stop := c.driver.OnResponse(matchCapturePath, func(resp browser.Response) {
		obs, ok := c.parseNetworkResponse(resp)
		if !ok {
			return
		}
		select {
		case captured <- obs:
		default:
			c.logger.WarnWithFields("observation buffer full, dropping response", map[string]interface{}{
				"url": resp.URL,
			})
		}
	})

	c.logger.InfoWithFields("navigating to profile", map[string]interface{}{
		"username": username,
		"url":      profileURL,
	})
	if err := c.driver.Navigate(ctx, profileURL, c.navigationTimeout); err != nil {
		stop()
		return nil, err
	}

	// Wait for at least one targeted response; expiry just means the
	// fallback channels carry the run.
	if err := c.driver.WaitResponse(ctx, matchCapturePath, c.responseWait); err != nil {
		c.logger.WithError(err).Info("no targeted response observed, proceeding to fallbacks")
	}

	// Late responses still in flight get a short grace window.
	select {
	case <-time.After(c.graceDelay):
	case <-ctx.Done():
	}

	stop()

	// The channel is never closed: detaching the listener is asynchronous
	// and an event handler already in flight may still deliver after stop
	// returns. Such a late send lands in the buffer and is discarded here.
	var observations []instagram.RawObservation
drain:
	for {
		select {
		case obs := <-captured:
			observations = append(observations, obs)
		default:
			break drain
		}
	}
	c.logger.DebugWithFields("network capture complete", map[string]interface{}{
		"captured": len(observations),
	})

	if obs, ok := c.fallbackFetch(ctx, username); ok {
		observations = append(observations, obs)
	}
	if obs, ok := c.embeddedScan(ctx); ok {
		observations = append(observations, obs)
	}

	return observations, nil
}

// parseNetworkResponse turns one intercepted body into an observation.
// Non-JSON bodies are normal page noise and are only worth a debug line.
func (c *Collector) parseNetworkResponse(resp browser.Response) (instagram.RawObservation, bool) {
	trimmed := bytes.TrimSpace(resp.Body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		c.logger.DebugWithFields("skipping non-json response", map[string]interface{}{
			"url":  resp.URL,
			"size": len(resp.Body),
		})
		return instagram.RawObservation{}, false
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		parseErr := errors.New(errors.ErrorTypeParse, "%s: %v", resp.URL, err)
		c.logger.DebugWithFields("unparseable captured response", map[string]interface{}{
			"url":   resp.URL,
			"error": parseErr.Error(),
		})
		return instagram.RawObservation{}, false
	}

	c.logger.DebugWithFields("captured json response", map[string]interface{}{
		"url": resp.URL,
	})
	return instagram.RawObservation{
		Provenance: instagram.ProvenanceNetworkCapture,
		SourceURL:  resp.URL,
		Payload:    payload,
	}, true
}

// fallbackFetch asks the page itself to call the web_profile_info endpoint.
// The result is usable only when it carries a data key; anything else is a
// blocked or errored fetch and stays diagnostic.
func (c *Collector) fallbackFetch(ctx context.Context, username string) (instagram.RawObservation, bool) {
	raw, err := c.driver.Eval(ctx, fallbackFetchScript, username)
	if err != nil {
		c.logger.WithError(err).Warn("fallback fetch failed")
		return instagram.RawObservation{}, false
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil || payload == nil {
		c.logger.Debug("fallback fetch returned no json object")
		return instagram.RawObservation{}, false
	}
	if _, ok := payload["data"]; !ok {
		c.logger.DebugWithFields("fallback fetch returned non-data payload", map[string]interface{}{
			"keys": topKeys(payload, 6),
		})
		return instagram.RawObservation{}, false
	}

	c.logger.Debug("fallback fetch produced a candidate")
	return instagram.RawObservation{
		Provenance: instagram.ProvenanceFallbackFetch,
		SourceURL:  sourceFallbackFetch,
		Payload:    payload,
	}, true
}

// embeddedScan looks for profile JSON inlined in script tags.
func (c *Collector) embeddedScan(ctx context.Context) (instagram.RawObservation, bool) {
	raw, err := c.driver.Eval(ctx, embeddedScanScript)
	if err != nil {
		c.logger.WithError(err).Warn("embedded script scan failed")
		return instagram.RawObservation{}, false
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil || payload == nil {
		c.logger.Debug("no embedded json candidate found")
		return instagram.RawObservation{}, false
	}

	c.logger.Debug("embedded script scan produced a candidate")
	return instagram.RawObservation{
		Provenance: instagram.ProvenanceEmbeddedScript,
		SourceURL:  sourceEmbeddedScript,
		Payload:    payload,
	}, true
}

func topKeys(m map[string]interface{}, n int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
