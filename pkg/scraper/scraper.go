package scraper

import (
	"context"
	"time"

	"igprofiler/pkg/browser"
	"igprofiler/pkg/config"
	"igprofiler/pkg/errors"
	"igprofiler/pkg/instagram"
	"igprofiler/pkg/logger"
)

// Meta records where the winning observation came from and when the run
// finished.
type Meta struct {
	Source    string `json:"source"`
	ScrapedAt string `json:"scraped_at"`
}

// ReportPost is one sampled post as exposed to API consumers.
type ReportPost struct {
	ID        string  `json:"id"`
	Caption   *string `json:"caption"`
	Thumbnail *string `json:"thumbnail"`
	Likes     *int    `json:"likes"`
	Comments  *int    `json:"comments"`
}

// Report is the final product of one pipeline run.
type Report struct {
	Name           *string             `json:"name"`
	Username       *string             `json:"username"`
	ProfilePicture *string             `json:"profile_picture"`
	Followers      *int                `json:"followers"`
	Following      *int                `json:"following"`
	PostsCount     *int                `json:"posts_count"`
	Analytics      instagram.Analytics `json:"analytics"`
	RecentPosts    []ReportPost        `json:"recent_posts"`
	Meta           Meta                `json:"_meta"`
}

// Scraper runs the capture pipeline: collect observations, normalize and
// reconcile them, then enrich and analyze the sampled posts.
type Scraper struct {
	factory browser.Factory
	cfg     config.ScrapeConfig
	logger  logger.Logger
	now     func() time.Time
}

// New creates a Scraper backed by the given session factory.
func New(factory browser.Factory, cfg config.ScrapeConfig, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Scraper{
		factory: factory,
		cfg:     cfg,
		logger:  log,
		now:     time.Now,
	}
}

// Scrape captures one profile and returns its report. Each call gets a
// fresh page session, closed before returning. There are no retries: a
// failed run surfaces its error and the caller decides what to do.
func (s *Scraper) Scrape(ctx context.Context, username string, sampleSize int) (*Report, error) {
	if sampleSize <= 0 {
		sampleSize = s.cfg.DefaultSampleSize
	}

	log := s.logger.WithFields(map[string]interface{}{
		"username":    username,
		"sample_size": sampleSize,
	})
	log.Info("starting profile scrape")
	start := s.now()

	driver, err := s.factory.NewSession(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := driver.Close(); err != nil {
			log.WithError(err).Warn("failed to close page session")
		}
	}()

	collector := NewCollector(driver, s.logger, s.cfg.NavigationTimeout, s.cfg.ResponseWait, s.cfg.GraceDelay)
	observations, err := collector.Collect(ctx, username)
	if err != nil {
		return nil, err
	}
	log.InfoWithFields("capture complete", map[string]interface{}{
		"observations": len(observations),
	})

	candidates := make([]instagram.Candidate, 0, len(observations))
	for _, obs := range observations {
		profile := instagram.Normalize(obs.Payload)
		if profile == nil {
			missErr := errors.New(errors.ErrorTypeNormalization, "no user structure in payload from %s", obs.SourceURL)
			log.DebugWithFields("observation yielded no profile", map[string]interface{}{
				"source": obs.SourceURL,
				"error":  missErr.Error(),
			})
			continue
		}
		candidates = append(candidates, instagram.Candidate{
			Profile: profile,
			Source:  obs.SourceURL,
		})
	}

	profile, err := instagram.Reconcile(candidates)
	if err != nil {
		return nil, err
	}
	log.InfoWithFields("profile reconciled", map[string]interface{}{
		"source":    profile.Source,
		"followers": intOrNil(profile.Followers),
		"following": intOrNil(profile.Following),
	})

	sample := samplePosts(profile.Posts, sampleSize)

	augmenter := NewAugmenter(driver, s.logger, s.cfg.PostDetailTimeout)
	augmenter.Augment(ctx, sample)

	analytics := instagram.ComputeAnalytics(sample, profile.Followers, sampleSize)

	report := &Report{
		Name:           profile.DisplayName,
		Username:       profile.Username,
		ProfilePicture: profile.ProfilePic,
		Followers:      profile.Followers,
		Following:      profile.Following,
		PostsCount:     profile.PostsCount,
		Analytics:      analytics,
		RecentPosts:    reportPosts(sample),
		Meta: Meta{
			Source:    profile.Source,
			ScrapedAt: s.now().UTC().Format(time.RFC3339),
		},
	}

	log.InfoWithFields("scrape finished", map[string]interface{}{
		"duration_ms":  s.now().Sub(start).Milliseconds(),
		"sampled":      len(sample),
		"posts_count":  intOrNil(profile.PostsCount),
		"avg_likes":    analytics.AvgLikes,
		"avg_comments": analytics.AvgComments,
	})
	return report, nil
}

// samplePosts keeps the id-bearing prefix of posts, truncated to n.
func samplePosts(posts []instagram.Post, n int) []instagram.Post {
	sample := make([]instagram.Post, 0, n)
	for _, p := range posts {
		if p.ID == "" {
			continue
		}
		sample = append(sample, p)
		if len(sample) == n {
			break
		}
	}
	return sample
}

func reportPosts(posts []instagram.Post) []ReportPost {
	out := make([]ReportPost, 0, len(posts))
	for _, p := range posts {
		out = append(out, ReportPost{
			ID:        p.ID,
			Caption:   p.Caption,
			Thumbnail: p.Thumbnail,
			Likes:     p.Likes,
			Comments:  p.Comments,
		})
	}
	return out
}

func intOrNil(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
