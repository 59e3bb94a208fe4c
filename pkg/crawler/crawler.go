package crawler

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"jdscraper/internal/fetcher"
	"jdscraper/pkg/browser"
	"jdscraper/pkg/checkpoint"
	"jdscraper/pkg/collector"
	"jdscraper/pkg/config"
	errs "jdscraper/pkg/errors"
	"jdscraper/pkg/extract"
	"jdscraper/pkg/guard"
	"jdscraper/pkg/jd"
	"jdscraper/pkg/listing"
	"jdscraper/pkg/logger"
	"jdscraper/pkg/metadata"
	"jdscraper/pkg/normalizer"
	"jdscraper/pkg/ratelimit"
	"jdscraper/pkg/retry"
	"jdscraper/pkg/session"
	"jdscraper/pkg/storage"
	"jdscraper/pkg/ui"
)

// Stats summarizes one crawl run.
type Stats struct {
	PagesCompleted int
	PagesFailed    int
	Records        int
	MediaFetched   int
	MediaFailed    int
	Normalized     int
}

// Crawler orchestrates the storefront harvest: page tasks in bounded
// batches, scroll collection, anti-bot classification, listing
// persistence, and the media pipeline.
type Crawler struct {
	config     *config.Config
	tokens     *session.TokenSet
	sessions   browser.SessionSource
	collector  *collector.Collector
	guard      *guard.Guard
	store      *listing.Store
	storage    *storage.Manager
	fetcher    *fetcher.Fetcher
	normalizer *normalizer.Normalizer
	notifier   *ui.Notifier
	progress   *ui.ProgressDisplay
	tui        ui.TUI
	logger     logger.Logger

	checkpointMgr *checkpoint.Manager

	mu    sync.Mutex
	stats Stats
}

// New creates a Crawler. tokens are the bootstrapped session cookies;
// the crawler snapshots its own copy so mutation of the caller's set
// cannot reach running page tasks. sessions hands out browser pages.
func New(cfg *config.Config, tokens *session.TokenSet, sessions browser.SessionSource, log logger.Logger) (*Crawler, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	tokens = tokens.Clone()

	outputDir := cfg.Output.BaseDirectory
	if cfg.Output.CreateKeywordFolders {
		outputDir = filepath.Join(outputDir, extract.SanitizeName(cfg.Target.Keyword))
	}

	storageManager, err := storage.NewManager(filepath.Join(outputDir, cfg.Output.MediaDirectory))
	if err != nil {
		return nil, fmt.Errorf("failed to create storage manager: %w", err)
	}

	var limiter ratelimit.Limiter
	if cfg.RateLimit.RequestsPerMinute > 0 {
		limiter = ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, time.Minute)
	}

	client := fetcher.NewClient(cfg.Media.FetchTimeout.Duration, tokens, jd.HomeURL, log)

	return &Crawler{
		config:     cfg,
		tokens:     tokens,
		sessions:   sessions,
		collector:  collector.New(&cfg.Scroll, cfg.Target.BreakPatterns(), log),
		guard:      guard.New(&cfg.Target, sessions, log),
		store:      listing.NewStore(filepath.Join(outputDir, cfg.Output.ListingsFile)),
		storage:    storageManager,
		fetcher:    fetcher.New(client, storageManager, limiter, cfg.Media.BatchSize, log),
		normalizer: normalizer.New(&cfg.Media, log),
		notifier:   ui.NewNotifier(),
		logger:     log,
	}, nil
}

// SetTUI sets the terminal UI for the crawler.
func (c *Crawler) SetTUI(t ui.TUI) {
	c.tui = t
}

// AcknowledgeChallenge signals that a human has completed the current
// verification challenge. Safe to call from UI key bindings.
func (c *Crawler) AcknowledgeChallenge() {
	c.guard.Acknowledge()
}

// Stats returns a copy of the run statistics.
func (c *Crawler) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Run crawls every configured page for the configured keyword.
func (c *Crawler) Run(ctx context.Context) error {
	return c.RunWithResume(ctx, false, false)
}

// RunWithResume crawls with checkpoint support. resume continues a
// previous interrupted run; forceRestart discards any existing
// checkpoint first.
func (c *Crawler) RunWithResume(ctx context.Context, resume, forceRestart bool) error {
	keyword := c.config.Target.Keyword
	start := time.Now()

	if c.tui != nil {
		c.tui.LogInfo("Starting crawl for keyword: %s", keyword)
	} else {
		ui.PrintHighlight("\n[INITIATING HARVEST SEQUENCE]\n")
	}

	cp, err := c.prepareCheckpoint(keyword, resume, forceRestart)
	if err != nil {
		return err
	}

	if c.tui == nil {
		debugMode := strings.ToLower(c.config.Logging.Level) == "debug"
		c.progress = ui.NewProgressDisplay(keyword, c.config.Target.Pages, debugMode)
		if cp != nil && len(cp.CompletedPages) > 0 {
			c.progress.SetCompletedPages(len(cp.CompletedPages))
		}
	}

	c.logger.InfoWithFields("Starting crawl", map[string]interface{}{
		"keyword": keyword,
		"pages":   c.config.Target.Pages,
		"action":  "crawl_start",
		"resume":  resume && cp != nil,
	})

	// Page tasks run in fixed batches. The batch is a barrier: every
	// task in batch N settles, success or failure, before batch N+1
	// starts. Failures never cancel sibling tasks.
	batchSize := c.config.Target.PageBatchSize
	if batchSize < 1 {
		batchSize = 1
	}
	totalPages := c.config.Target.Pages

	for batchStart := 0; batchStart < totalPages; batchStart += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		batchEnd := batchStart + batchSize
		if batchEnd > totalPages {
			batchEnd = totalPages
		}

		var wg sync.WaitGroup
		for page := batchStart; page < batchEnd; page++ {
			if cp != nil && cp.IsPageCompleted(page) {
				c.logger.DebugWithFields("Skipping page completed in a previous run", map[string]interface{}{
					"keyword": keyword,
					"page":    page,
				})
				continue
			}

			wg.Add(1)
			go func(page int) {
				defer wg.Done()
				c.runPageTask(ctx, cp, page)
			}(page)
		}
		wg.Wait()

		logger.LogCrawlProgress(keyword, batchEnd, totalPages)
	}

	return c.finish(keyword, start)
}

// prepareCheckpoint applies the resume and force-restart policies and
// returns the active checkpoint, creating one when needed.
func (c *Crawler) prepareCheckpoint(keyword string, resume, forceRestart bool) (*checkpoint.Checkpoint, error) {
	mgr, err := checkpoint.NewManager(keyword)
	if err != nil {
		c.logger.WithError(err).WithField("keyword", keyword).Error("Failed to create checkpoint manager")
		return nil, fmt.Errorf("failed to create checkpoint manager: %w", err)
	}
	c.checkpointMgr = mgr

	if forceRestart && mgr.Exists() {
		if err := mgr.Delete(); err != nil {
			c.logger.WithError(err).Warn("Failed to delete existing checkpoint")
		}
		ui.PrintInfo("Force restart", "Ignoring existing checkpoint")
	} else if resume && mgr.Exists() {
		cp, err := mgr.Load()
		if err != nil {
			c.logger.WithError(err).Error("Failed to load checkpoint")
			return nil, fmt.Errorf("failed to load checkpoint: %w", err)
		}
		if cp != nil {
			ui.PrintInfo("Resuming from checkpoint", fmt.Sprintf("Completed: %d pages", len(cp.CompletedPages)))
			c.logger.InfoWithFields("Resuming from checkpoint", map[string]interface{}{
				"keyword":         keyword,
				"completed_pages": len(cp.CompletedPages),
				"total_records":   cp.TotalRecords,
			})
			return cp, nil
		}
	} else if mgr.Exists() && !resume {
		info, _ := mgr.GetCheckpointInfo()
		if info != nil {
			if !ui.IsQuietMode() {
				fmt.Printf("\n%s Previous crawl found (%v pages)\n", ui.Yellow("►"), info["completed_pages"])
				fmt.Printf("  Use: %s to continue where you left off\n", ui.Green("--resume"))
				fmt.Printf("  Use: %s to start fresh\n\n", ui.Yellow("--force-restart"))
			}
			return nil, fmt.Errorf("checkpoint exists - use --resume to continue or --force-restart to start fresh")
		}
	}

	cp, err := mgr.Create(keyword)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to create checkpoint, continuing without one")
		return &checkpoint.Checkpoint{
			Keyword:        keyword,
			CompletedPages: make(map[int]int),
		}, nil
	}
	return cp, nil
}

// runPageTask executes one page task including login-wall recovery.
// Errors end at the task boundary: the page is marked failed and the
// crawl moves on.
func (c *Crawler) runPageTask(ctx context.Context, cp *checkpoint.Checkpoint, page int) {
	keyword := c.config.Target.Keyword

	if c.tui != nil {
		c.tui.StartPage(page)
	} else if c.progress != nil {
		c.progress.StartPage(page)
	}

	var records, media int
	attempt := 0
	op := func() error {
		attempt++
		r, m, err := c.attemptPage(ctx, page)
		logger.LogPageTask(keyword, page, r, attempt, err)
		if err != nil {
			return err
		}
		records, media = r, m
		return nil
	}

	var err error
	if c.config.Retry.Enabled {
		retrier := retry.NewRedirectRetrier(c.config.Retry.MaxAttempts, c.logger).WithContext(ctx)
		if base := c.config.Retry.BaseDelay.Duration; base > 0 {
			retrier = retrier.WithBackoff(&retry.ExponentialBackoff{
				BaseDelay:    base,
				MaxDelay:     c.config.Retry.MaxDelay.Duration,
				Multiplier:   c.config.Retry.Multiplier,
				JitterFactor: c.config.Retry.JitterFactor,
			})
		}
		err = retrier.Do(op)
	} else {
		err = op()
	}

	if err != nil {
		taskErr := errs.NewTaskFailure(page, err)
		c.logger.WithError(taskErr).ErrorWithFields("Page task failed", map[string]interface{}{
			"keyword":  keyword,
			"page":     page,
			"attempts": attempt,
		})
		c.mu.Lock()
		c.stats.PagesFailed++
		c.mu.Unlock()

		if c.tui != nil {
			c.tui.FailPage(page, err)
		} else if c.progress != nil {
			c.progress.FailPage(page, err)
		}
		if c.config.Notifications.Enabled && c.config.Notifications.OnError {
			c.notifier.SendError("PAGE FAILED", fmt.Sprintf("Page %d: %v", page, err))
		}
		return
	}

	c.mu.Lock()
	c.stats.PagesCompleted++
	c.stats.Records += records
	c.stats.MediaFetched += media
	c.mu.Unlock()

	if cp != nil && c.checkpointMgr != nil {
		if err := c.checkpointMgr.RecordPage(cp, page, records, media); err != nil {
			c.logger.WithError(err).Warn("Failed to record page in checkpoint")
		}
	}

	if c.tui != nil {
		c.tui.CompletePage(page, records, media)
	} else if c.progress != nil {
		c.progress.CompletePage(page, records, media)
	}
}

// attemptPage performs one full page fetch: navigate, scroll-collect,
// classify, persist. A login-wall classification discards everything
// and surfaces a retryable error; a challenge blocks on human recovery
// and then restarts the fetch from navigation.
func (c *Crawler) attemptPage(ctx context.Context, page int) (int, int, error) {
	sess, err := c.sessions.Session(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open a browser session: %w", err)
	}
	defer sess.Close()

	if c.tokens != nil {
		if err := sess.SetCookies(ctx, c.tokens.Tokens); err != nil {
			return 0, 0, fmt.Errorf("failed to install session tokens: %w", err)
		}
	}

	pageURL := jd.BuildSearchURL(c.config.Target.SearchEndpoint, c.config.Target.Keyword, page)

	for {
		if err := sess.Navigate(ctx, pageURL); err != nil {
			return 0, 0, fmt.Errorf("navigation failed: %w", err)
		}
		if delay := c.config.Browser.SettleDelay.Duration; delay > 0 {
			if err := retry.Wait(ctx, delay); err != nil {
				return 0, 0, err
			}
		}

		snapshot, err := c.collector.Collect(ctx, sess, jd.ParseListings)
		if err != nil {
			return 0, 0, err
		}

		location, err := sess.CurrentURL(ctx)
		if err != nil {
			return 0, 0, fmt.Errorf("could not read final location: %w", err)
		}

		state := c.guard.Classify(location, snapshot.Fields)
		logger.LogGuardState(page, state.String(), location)

		switch state {
		case guard.LoginRedirect:
			return 0, 0, errs.NewAntiBotRedirect(page, location)

		case guard.CaptchaChallenge:
			if c.tui != nil {
				c.tui.ChallengeDetected(page, location)
			} else if c.progress != nil {
				c.progress.ChallengeWait(page)
			}
			if c.config.Notifications.Enabled && c.config.Notifications.OnChallenge {
				c.notifier.SendNotification("VERIFICATION REQUIRED",
					fmt.Sprintf("Page %d hit a challenge wall, waiting for a human", page))
			}

			if err := c.guard.AwaitChallengeClearance(ctx, sess, location); err != nil {
				return 0, 0, errs.NewAntiBotChallenge(page, location).WithField("cause", err.Error())
			}

			if c.tui != nil {
				c.tui.ChallengeCleared(page)
			}
			// The snapshot that led here is untrustworthy; refetch the
			// page from navigation now that the client is cleared.
			continue

		case guard.Accepted:
			return c.persist(ctx, page, snapshot)
		}
	}
}

// persist writes the snapshot's records and runs the media pipeline.
// It returns the record and fetched-media counts.
func (c *Crawler) persist(ctx context.Context, page int, snapshot *collector.Snapshot) (int, int, error) {
	records := listing.FromFields(snapshot.Fields)
	if len(records) == 0 {
		c.logger.InfoWithFields("Page yielded no records", map[string]interface{}{
			"page":       page,
			"iterations": snapshot.Iterations,
		})
		return 0, 0, nil
	}

	if err := c.store.Append(records); err != nil {
		return 0, 0, fmt.Errorf("failed to persist listings: %w", err)
	}

	c.logger.InfoWithFields("Listings persisted", map[string]interface{}{
		"page":       page,
		"records":    len(records),
		"iterations": snapshot.Iterations,
	})

	fetched := c.fetchMedia(ctx, page, records)
	return len(records), fetched, nil
}

// fetchMedia downloads the records' images in fixed batches, writes
// their sidecars, and normalizes the files to PNG. Media failures are
// logged but never fail the page: the listings are already saved.
func (c *Crawler) fetchMedia(ctx context.Context, page int, records []listing.Record) int {
	items := fetcher.ItemsFromRecords(records)
	if len(items) == 0 {
		return 0
	}

	if c.tui != nil {
		for _, item := range items {
			c.tui.StartFetch(item.URL, item.Key, item.Key+"."+fetcher.ExtensionFromURL(item.URL), 0)
		}
	}

	results := c.fetcher.FetchAll(ctx, items)

	var paths []string
	fetchedBy := make(map[string]fetcher.Result, len(results))
	for _, res := range results {
		if res.Err != nil {
			c.mu.Lock()
			c.stats.MediaFailed++
			c.mu.Unlock()
			if c.tui != nil {
				c.tui.FailFetch(res.Item.URL, res.Err)
			}
			continue
		}
		if c.tui != nil {
			c.tui.CompleteFetch(res.Item.URL)
		}
		if c.progress != nil {
			c.progress.MediaFetched(res.Size)
		}
		paths = append(paths, res.Path)
		fetchedBy[res.Path] = res
	}

	finalPath := make(map[string]string, len(paths))
	normalized := make(map[string]bool, len(paths))
	for _, p := range paths {
		finalPath[p] = p
	}

	if c.config.Media.Normalize && len(paths) > 0 {
		for _, outcome := range c.normalizer.NormalizeAll(paths) {
			if outcome.Err != nil {
				c.logger.WithError(outcome.Err).WithField("path", outcome.Path).
					Warn("Media normalization failed, keeping original file")
				continue
			}
			finalPath[outcome.Path] = outcome.OutPath
			normalized[outcome.Path] = true
			if outcome.Removed {
				c.storage.Forget(outcome.Path)
				c.storage.Record(outcome.OutPath)
			}
			c.mu.Lock()
			c.stats.Normalized++
			c.mu.Unlock()
		}
	}

	for _, p := range paths {
		res := fetchedBy[p]
		meta := metadata.FromRecord(res.Item.Record, res.Item.Key, res.Size)
		meta.Keyword = c.config.Target.Keyword
		meta.Page = page
		if normalized[p] {
			meta.MarkNormalized()
		}
		if err := meta.Save(finalPath[p]); err != nil {
			c.logger.WithError(err).WithField("path", finalPath[p]).Warn("Failed to write metadata sidecar")
		}
	}

	return len(paths)
}

// finish logs the run summary, notifies, and clears the checkpoint.
func (c *Crawler) finish(keyword string, start time.Time) error {
	elapsed := time.Since(start)
	stats := c.Stats()

	logger.LogCrawlDuration(keyword, elapsed)
	c.logger.InfoWithFields("Crawl completed", map[string]interface{}{
		"keyword":         keyword,
		"pages_completed": stats.PagesCompleted,
		"pages_failed":    stats.PagesFailed,
		"records":         stats.Records,
		"media_fetched":   stats.MediaFetched,
		"action":          "crawl_complete",
	})

	// The checkpoint survives when any page failed, so --resume can
	// retry just the failed pages.
	if stats.PagesFailed == 0 && c.checkpointMgr != nil && c.checkpointMgr.Exists() {
		if err := c.checkpointMgr.Delete(); err != nil {
			c.logger.WithError(err).Warn("Failed to delete checkpoint")
		} else {
			c.logger.Info("Checkpoint deleted after successful completion")
		}
	}

	if c.config.Notifications.Enabled && c.config.Notifications.OnComplete {
		c.notifier.SendSuccess("HARVEST COMPLETE",
			fmt.Sprintf("%d records from %d pages for %q", stats.Records, stats.PagesCompleted, keyword))
	}

	if c.tui != nil {
		c.tui.LogSuccess("Crawl completed for keyword: %s", keyword)
	} else if c.progress != nil {
		c.progress.Complete()
	} else {
		ui.PrintSuccess("\n[HARVEST COMPLETED SUCCESSFULLY]\n")
	}
	return nil
}
