package instagram

import "math"

// ComputeAnalytics derives bounded-sample engagement statistics from a post
// list. The sample is the order-preserving prefix of at most sampleSize
// posts; missing like/comment counts are treated as zero. The engagement
// rate is defined only when the follower count is known and positive.
func ComputeAnalytics(posts []Post, followers *int, sampleSize int) Analytics {
	if sampleSize < 0 {
		sampleSize = 0
	}
	if sampleSize > len(posts) {
		sampleSize = len(posts)
	}
	sample := posts[:sampleSize]

	var likeSum, commentSum int
	for _, p := range sample {
		if p.Likes != nil {
			likeSum += *p.Likes
		}
		if p.Comments != nil {
			commentSum += *p.Comments
		}
	}

	avgLikes := roundedMean(likeSum, len(sample))
	avgComments := roundedMean(commentSum, len(sample))

	var engagementRate *float64
	if followers != nil && *followers > 0 {
		rate := round2(float64(avgLikes+avgComments) / float64(*followers) * 100)
		engagementRate = &rate
	}

	return Analytics{
		SampleSize:        len(sample),
		AvgLikes:          avgLikes,
		AvgComments:       avgComments,
		EngagementRatePct: engagementRate,
	}
}

func roundedMean(sum, n int) int {
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
