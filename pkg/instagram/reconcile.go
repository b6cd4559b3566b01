package instagram

import "igprofiler/pkg/errors"

// Candidate pairs a normalized profile with the source it came from.
type Candidate struct {
	Profile *Profile
	Source  string
}

// Reconcile selects the single canonical profile from the normalized
// candidates, in arrival order. The first candidate carrying both follower
// and following counts wins immediately; later candidates are never
// considered once that condition is met. When no candidate is complete the
// first one is retained as a fallback. Zero candidates is a fatal
// reconciliation failure.
func Reconcile(candidates []Candidate) (*Profile, error) {
	var fallback *Profile

	for _, c := range candidates {
		if c.Profile == nil {
			continue
		}
		if c.Profile.Followers != nil && c.Profile.Following != nil {
			c.Profile.Source = c.Source
			return c.Profile, nil
		}
		if fallback == nil {
			c.Profile.Source = c.Source
			fallback = c.Profile
		}
	}

	if fallback == nil {
		return nil, errors.New(errors.ErrorTypeReconciliation,
			"unable to locate profile data: no captured payload contained user info")
	}
	return fallback, nil
}
