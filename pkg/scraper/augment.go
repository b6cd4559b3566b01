package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"igprofiler/pkg/browser"
	"igprofiler/pkg/errors"
	"igprofiler/pkg/instagram"
	"igprofiler/pkg/logger"
)

// postDetailScript gathers everything a permalink page can say about its
// post in one round trip: open-graph tags, the document title, any visible
// caption element and the inline post JSON if present.
const postDetailScript = `() => {
	const meta = (prop) => {
		const el = document.querySelector('meta[property="' + prop + '"]');
		return el ? el.getAttribute('content') : null;
	};
	let embedded = null;
	const scripts = Array.from(document.scripts || []);
	for (const s of scripts) {
		const txt = (s.textContent || '').trim();
		if (!txt || txt.length < 200) continue;
		if (txt.includes('edge_media_to_caption') || txt.includes('shortcode_media') || txt.includes('display_url')) {
			const first = txt.indexOf('{');
			const last = txt.lastIndexOf('}');
			if (first >= 0 && last > first) {
				try { embedded = JSON.parse(txt.slice(first, last + 1)); break; } catch (e) {}
			}
		}
	}
	const captionEl = document.querySelector('h1') || document.querySelector('article span');
	return {
		ogImage: meta('og:image'),
		title: meta('og:title') || document.title || null,
		domCaption: captionEl ? captionEl.textContent : null,
		embedded: embedded
	};
}`

// postDetail is the raw result of postDetailScript.
type postDetail struct {
	OgImage    *string                `json:"ogImage"`
	Title      *string                `json:"title"`
	DomCaption *string                `json:"domCaption"`
	Embedded   map[string]interface{} `json:"embedded"`
}

// Augmenter visits each sampled post's permalink and fills in caption and
// thumbnail. Posts are visited one at a time; a failure on one post leaves
// the others untouched.
type Augmenter struct {
	driver  browser.Driver
	logger  logger.Logger
	timeout time.Duration
}

// NewAugmenter wires an augmenter to an active page session.
func NewAugmenter(driver browser.Driver, log logger.Logger, timeout time.Duration) *Augmenter {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Augmenter{driver: driver, logger: log, timeout: timeout}
}

// Augment enriches posts in place. Every post keeps its counters even when
// its permalink visit fails.
func (a *Augmenter) Augment(ctx context.Context, posts []instagram.Post) {
	for i := range posts {
		if err := a.augmentOne(ctx, &posts[i]); err != nil {
			detailErr := errors.New(errors.ErrorTypePostDetail, "post %s: %v", posts[i].ID, err)
			a.logger.WarnWithFields("post detail augmentation failed", map[string]interface{}{
				"post_id": posts[i].ID,
				"error":   detailErr.Error(),
			})
		}
	}
}

func (a *Augmenter) augmentOne(ctx context.Context, post *instagram.Post) error {
	ref := post.Shortcode
	if ref == "" {
		ref = post.ID
	}
	if ref == "" {
		return nil
	}

	permalink := fmt.Sprintf("https://www.instagram.com/p/%s/", ref)
	if err := a.driver.Navigate(ctx, permalink, a.timeout); err != nil {
		return err
	}

	raw, err := a.driver.Eval(ctx, postDetailScript)
	if err != nil {
		return err
	}

	var detail postDetail
	if err := json.Unmarshal(raw, &detail); err != nil {
		return fmt.Errorf("failed to decode post detail: %w", err)
	}

	applyDetail(post, &detail)
	return nil
}

// applyDetail resolves the per-field precedence between the channels the
// detail script reports on.
func applyDetail(post *instagram.Post, detail *postDetail) {
	if thumb := firstNonEmpty(detail.OgImage, embeddedDisplayURL(detail.Embedded)); thumb != nil {
		post.Thumbnail = thumb
	}
	if caption := firstNonEmpty(
		embeddedCaption(detail.Embedded),
		captionFromTitle(detail.Title),
		detail.DomCaption,
	); caption != nil {
		post.Caption = caption
	}
}

// embeddedDisplayURL digs display_url out of an inline post payload.
func embeddedDisplayURL(payload map[string]interface{}) *string {
	if media := shortcodeMedia(payload); media != nil {
		if u, ok := media["display_url"].(string); ok && u != "" {
			return &u
		}
	}
	return nil
}

// embeddedCaption walks the edge_media_to_caption edge list of an inline
// post payload.
func embeddedCaption(payload map[string]interface{}) *string {
	media := shortcodeMedia(payload)
	if media == nil {
		return nil
	}
	edgeObj, ok := media["edge_media_to_caption"].(map[string]interface{})
	if !ok {
		return nil
	}
	edges, ok := edgeObj["edges"].([]interface{})
	if !ok || len(edges) == 0 {
		return nil
	}
	first, ok := edges[0].(map[string]interface{})
	if !ok {
		return nil
	}
	node, ok := first["node"].(map[string]interface{})
	if !ok {
		return nil
	}
	if text, ok := node["text"].(string); ok && text != "" {
		return &text
	}
	return nil
}

// shortcodeMedia finds the media object in the common inline shapes.
func shortcodeMedia(payload map[string]interface{}) map[string]interface{} {
	if payload == nil {
		return nil
	}
	if m, ok := payload["shortcode_media"].(map[string]interface{}); ok {
		return m
	}
	if g, ok := payload["graphql"].(map[string]interface{}); ok {
		if m, ok := g["shortcode_media"].(map[string]interface{}); ok {
			return m
		}
	}
	if d, ok := payload["data"].(map[string]interface{}); ok {
		return shortcodeMedia(d)
	}
	if _, ok := payload["display_url"]; ok {
		return payload
	}
	return nil
}

// captionFromTitle extracts the caption Instagram embeds in page titles of
// the form `Name on Instagram: "caption"`.
func captionFromTitle(title *string) *string {
	if title == nil {
		return nil
	}
	_, after, found := strings.Cut(*title, " on Instagram: ")
	if !found {
		return nil
	}
	caption := strings.Trim(strings.TrimSpace(after), "\"“”")
	if caption == "" {
		return nil
	}
	return &caption
}

func firstNonEmpty(values ...*string) *string {
	for _, v := range values {
		if v != nil && strings.TrimSpace(*v) != "" {
			return v
		}
	}
	return nil
}
