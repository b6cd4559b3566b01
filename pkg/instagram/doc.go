// Package instagram holds the schema-tolerant core of the profiler: the
// canonical data model, the shape normalizer that projects payloads of
// unknown schema into it, the reconciler that selects one candidate across
// observation channels, and the bounded-sample analytics aggregator.
//
// Everything in this package is pure: no I/O, no browser, no clock. The
// upstream API returns inconsistent payload shapes across channels, so each
// logical field is read through an ordered list of extractor rules rather
// than a fixed struct mapping.
//
// Example usage:
//
//	profile := instagram.Normalize(payload)
//	if profile == nil {
//	    // payload contributed no candidate
//	}
//
//	canonical, err := instagram.Reconcile(candidates)
//	if err != nil {
//	    // zero usable candidates across all channels
//	}
//
//	analytics := instagram.ComputeAnalytics(canonical.Posts, canonical.Followers, 12)
package instagram
