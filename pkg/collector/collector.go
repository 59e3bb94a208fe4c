package collector

import (
	"context"
	"fmt"

	"jdscraper/pkg/browser"
	"jdscraper/pkg/config"
	errs "jdscraper/pkg/errors"
	"jdscraper/pkg/extract"
	"jdscraper/pkg/jd"
	"jdscraper/pkg/logger"
	"jdscraper/pkg/ratelimit"
)

// ScrollScript jumps the viewport to the bottom of the document, which
// is what triggers the storefront's lazy loading.
const ScrollScript = "window.scrollTo(0, document.body.scrollHeight)"

// Snapshot is the result of one collection run: the last fully parsed,
// non-corrupt field tuple plus loop accounting.
type Snapshot struct {
	Fields     *extract.Fields
	Iterations int
	NewItems   bool
}

// Records returns the number of complete records in the snapshot.
func (s *Snapshot) Records() int {
	if s == nil || s.Fields == nil {
		return 0
	}
	return s.Fields.Min()
}

// Collector drives the infinite-scroll loop against a browser session
// and an extraction function.
//
// The loop runs a bounded number of iterations. Each one clicks the
// load-more affordance if present, scrolls to the bottom, re-extracts,
// and paces itself with a random delay so iterations never form a
// fixed cadence. It performs no retries; recovery decisions belong to
// the guard that inspects the result.
type Collector struct {
	maxIterations int
	loadMore      string
	breakPatterns []string
	pacer         *ratelimit.RandomPacer
	log           logger.Logger
}

// New creates a collector from scroll configuration. breakPatterns are
// location substrings that end the loop early, typically the login
// wall and challenge service patterns.
func New(cfg *config.ScrollConfig, breakPatterns []string, log logger.Logger) *Collector {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Collector{
		maxIterations: cfg.MaxIterations,
		loadMore:      cfg.LoadMoreSelector,
		breakPatterns: breakPatterns,
		pacer:         ratelimit.NewRandomPacer(cfg.MinDelay.Duration, cfg.MaxDelay.Duration),
		log:           log,
	}
}

// Collect runs the scroll loop and returns the last good snapshot.
//
// Termination, in order of precedence:
//   - an extraction yields an empty field sequence: the storefront has
//     no more data, the prior snapshot is returned unchanged
//   - the session's location matches a break pattern: the current
//     snapshot is returned and the guard decides what happens next
//   - the iteration budget is exhausted
//
// A corrupt extraction (unbalanced sequences) is logged and discarded;
// the loop keeps the last balanced snapshot and continues.
func (c *Collector) Collect(ctx context.Context, sess browser.Session, parse extract.Func) (*Snapshot, error) {
	current, err := c.grab(ctx, sess, parse)
	if err != nil {
		return nil, err
	}

	if !current.Balanced() {
		corrupt := errs.NewExtractionCorruption(current.Counts())
		c.log.WithError(corrupt).WarnWithFields("Discarding corrupt extraction", map[string]interface{}{
			"iteration": 0,
		})
		current = extract.Empty()
	}

	snapshot := &Snapshot{Fields: current}

	for i := 0; i < c.maxIterations; i++ {
		snapshot.Iterations = i + 1

		c.clickLoadMore(ctx, sess)
		c.scrollToBottom(ctx, sess)

		fresh, err := c.grab(ctx, sess, parse)
		if err != nil {
			return nil, err
		}

		if fresh.HasEmpty() {
			c.log.DebugWithFields("Scroll yielded an empty sequence, keeping prior snapshot", map[string]interface{}{
				"iteration": i + 1,
				"records":   snapshot.Records(),
			})
			return snapshot, nil
		}

		if !fresh.Balanced() {
			corrupt := errs.NewExtractionCorruption(fresh.Counts())
			c.log.WithError(corrupt).WarnWithFields("Discarding corrupt extraction", map[string]interface{}{
				"iteration": i + 1,
			})
		} else {
			if fresh.Min() > snapshot.Fields.Min() {
				snapshot.NewItems = true
			}
			snapshot.Fields = fresh
		}

		if err := c.pacer.Sleep(ctx); err != nil {
			return nil, fmt.Errorf("scroll pacing interrupted: %w", err)
		}

		c.clickLoadMore(ctx, sess)

		if c.locationDiverted(ctx, sess) {
			break
		}
	}

	return snapshot, nil
}

// grab reads the rendered document and parses it.
func (c *Collector) grab(ctx context.Context, sess browser.Session, parse extract.Func) (*extract.Fields, error) {
	html, err := sess.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read rendered page: %w", err)
	}

	fields, err := parse(html)
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	c.log.DebugWithFields("Extracted field sequences", map[string]interface{}{
		"counts": fields.Counts(),
	})
	return fields, nil
}

// clickLoadMore triggers the load-more affordance. Its absence is
// normal on fully loaded pages, so failures are not errors.
func (c *Collector) clickLoadMore(ctx context.Context, sess browser.Session) {
	if c.loadMore == "" {
		return
	}
	if err := sess.Click(ctx, c.loadMore); err != nil {
		c.log.WithError(err).Debug("Load-more affordance not clickable")
	}
}

// scrollToBottom is likewise best effort. If scrolling breaks, the
// next extraction simply stops growing and the loop ends on its own.
func (c *Collector) scrollToBottom(ctx context.Context, sess browser.Session) {
	if _, err := sess.Eval(ctx, ScrollScript); err != nil {
		c.log.WithError(err).Debug("Scroll script failed")
	}
}

// locationDiverted reports whether the session has been bounced off
// the results page onto a login or challenge location.
func (c *Collector) locationDiverted(ctx context.Context, sess browser.Session) bool {
	location, err := sess.CurrentURL(ctx)
	if err != nil {
		c.log.WithError(err).Debug("Could not read current location")
		return false
	}
	if jd.MatchesAny(location, c.breakPatterns) {
		c.log.WarnWithFields("Session diverted off the results page", map[string]interface{}{
			"location": location,
		})
		return true
	}
	return false
}
