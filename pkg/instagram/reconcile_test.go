package instagram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igprofiler/pkg/errors"
)

func intPtr(n int) *int { return &n }

func TestReconcilePrefersFirstCompleteCandidate(t *testing.T) {
	partialA := &Profile{Username: strPtr("a"), Followers: intPtr(10)}
	completeB := &Profile{Username: strPtr("b"), Followers: intPtr(20), Following: intPtr(5)}
	partialC := &Profile{Username: strPtr("c"), Followers: intPtr(30), Following: intPtr(7)}

	profile, err := Reconcile([]Candidate{
		{Profile: partialA, Source: "network-capture"},
		{Profile: completeB, Source: "fallback-fetch"},
		{Profile: partialC, Source: "embedded-script"},
	})
	require.NoError(t, err)

	// complete-B wins; partial-A arrived first but lacks the following
	// count, and partial-C is never considered after the early exit.
	assert.Equal(t, "b", *profile.Username)
	assert.Equal(t, "fallback-fetch", profile.Source)
}

func TestReconcileFallsBackToFirstCandidate(t *testing.T) {
	first := &Profile{Username: strPtr("first"), Followers: intPtr(10)}
	second := &Profile{Username: strPtr("second")}

	profile, err := Reconcile([]Candidate{
		{Profile: first, Source: "network-capture"},
		{Profile: second, Source: "embedded-script"},
	})
	require.NoError(t, err)

	assert.Equal(t, "first", *profile.Username)
	assert.Equal(t, "network-capture", profile.Source)
}

func TestReconcileArrivalOrderIsAuthoritative(t *testing.T) {
	// Two complete candidates: the earlier one wins regardless of how
	// much richer the later one is.
	early := &Profile{Username: strPtr("early"), Followers: intPtr(1), Following: intPtr(1)}
	late := &Profile{
		Username:  strPtr("late"),
		Followers: intPtr(9999),
		Following: intPtr(9999),
		Posts:     []Post{{ID: "p1"}},
	}

	profile, err := Reconcile([]Candidate{
		{Profile: early, Source: "fallback-fetch"},
		{Profile: late, Source: "embedded-script"},
	})
	require.NoError(t, err)
	assert.Equal(t, "early", *profile.Username)
}

func TestReconcileSkipsNilCandidates(t *testing.T) {
	only := &Profile{Username: strPtr("only"), Followers: intPtr(2), Following: intPtr(3)}

	profile, err := Reconcile([]Candidate{
		{Profile: nil, Source: "network-capture"},
		{Profile: only, Source: "fallback-fetch"},
	})
	require.NoError(t, err)
	assert.Equal(t, "only", *profile.Username)
}

func TestReconcileZeroCandidates(t *testing.T) {
	profile, err := Reconcile(nil)
	assert.Nil(t, profile)
	require.Error(t, err)

	var typed *errors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, errors.ErrorTypeReconciliation, typed.Type)
}

func strPtr(s string) *string { return &s }
