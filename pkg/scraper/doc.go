// Package scraper orchestrates one profile capture run: it drives a page
// session through the observation channels (network capture, in-page
// fallback fetch, embedded script scan), normalizes and reconciles the
// captured payloads, enriches the sampled posts with permalink details and
// computes engagement analytics over them.
//
// The package depends on the browser.Driver interface only; tests run the
// whole pipeline against a scripted fake session.
package scraper
