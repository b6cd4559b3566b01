package instagram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeAnalyticsExample(t *testing.T) {
	posts := []Post{
		{ID: "1", Likes: intPtr(10), Comments: intPtr(2)},
		{ID: "2", Likes: intPtr(20), Comments: intPtr(4)},
	}

	got := ComputeAnalytics(posts, intPtr(120), 5)

	assert.Equal(t, 2, got.SampleSize)
	assert.Equal(t, 15, got.AvgLikes)
	assert.Equal(t, 3, got.AvgComments)
	require.NotNil(t, got.EngagementRatePct)
	assert.Equal(t, 15.0, *got.EngagementRatePct)
}

func TestComputeAnalyticsMissingCountsAreZero(t *testing.T) {
	posts := []Post{
		{ID: "1", Likes: intPtr(30)},
		{ID: "2"}, // no likes field at all
	}

	got := ComputeAnalytics(posts, nil, 2)
	assert.Equal(t, 15, got.AvgLikes)
	assert.Equal(t, 0, got.AvgComments)
}

func TestComputeAnalyticsSampleBounds(t *testing.T) {
	posts := []Post{
		{ID: "1", Likes: intPtr(10)},
		{ID: "2", Likes: intPtr(20)},
		{ID: "3", Likes: intPtr(30)},
	}

	tests := []struct {
		name       string
		sampleSize int
		wantSize   int
		wantLikes  int
	}{
		{"zero sample", 0, 0, 0},
		{"prefix of one", 1, 1, 10},
		{"exact length", 3, 3, 20},
		{"larger than available", 50, 3, 20},
		{"negative treated as zero", -2, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeAnalytics(posts, intPtr(1000), tt.sampleSize)
			assert.Equal(t, tt.wantSize, got.SampleSize)
			assert.Equal(t, tt.wantLikes, got.AvgLikes)
		})
	}
}

func TestComputeAnalyticsEngagementRateDefinition(t *testing.T) {
	posts := []Post{{ID: "1", Likes: intPtr(10), Comments: intPtr(5)}}

	tests := []struct {
		name      string
		followers *int
		want      *float64
	}{
		{"nil followers", nil, nil},
		{"zero followers", intPtr(0), nil},
		{"negative followers", intPtr(-10), nil},
		{"positive followers", intPtr(1000), floatPtr(1.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeAnalytics(posts, tt.followers, 1)
			if tt.want == nil {
				assert.Nil(t, got.EngagementRatePct)
			} else {
				require.NotNil(t, got.EngagementRatePct)
				assert.Equal(t, *tt.want, *got.EngagementRatePct)
			}
		})
	}
}

func TestComputeAnalyticsRounding(t *testing.T) {
	// 7+8+9 likes over 3 posts averages exactly 8; 1+1+2 comments
	// averages 1.33 and rounds to 1. Rate = (8+1)/700*100 = 1.2857 → 1.29.
	posts := []Post{
		{ID: "1", Likes: intPtr(7), Comments: intPtr(1)},
		{ID: "2", Likes: intPtr(8), Comments: intPtr(1)},
		{ID: "3", Likes: intPtr(9), Comments: intPtr(2)},
	}

	got := ComputeAnalytics(posts, intPtr(700), 3)
	assert.Equal(t, 8, got.AvgLikes)
	assert.Equal(t, 1, got.AvgComments)
	require.NotNil(t, got.EngagementRatePct)
	assert.Equal(t, 1.29, *got.EngagementRatePct)
}

func TestComputeAnalyticsEmptyPosts(t *testing.T) {
	got := ComputeAnalytics(nil, intPtr(500), 12)
	assert.Equal(t, 0, got.SampleSize)
	assert.Equal(t, 0, got.AvgLikes)
	assert.Equal(t, 0, got.AvgComments)
	// Averages of zero still yield a defined (zero) rate when followers
	// are known.
	require.NotNil(t, got.EngagementRatePct)
	assert.Equal(t, 0.0, *got.EngagementRatePct)
}

func floatPtr(f float64) *float64 { return &f }
