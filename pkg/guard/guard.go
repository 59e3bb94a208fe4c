package guard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jdscraper/pkg/browser"
	"jdscraper/pkg/config"
	"jdscraper/pkg/extract"
	"jdscraper/pkg/jd"
	"jdscraper/pkg/logger"
)

// State is the guard's classification of a finished collection run.
type State int

const (
	// Collected is the entry state: a snapshot exists but has not
	// been classified yet.
	Collected State = iota

	// LoginRedirect means the storefront silently served the login
	// wall instead of results. The snapshot is untrustworthy and the
	// whole page task must be retried.
	LoginRedirect

	// CaptchaChallenge means the session was bounced to the
	// verification service. Only a human can clear it.
	CaptchaChallenge

	// Accepted means the snapshot is trustworthy and may be persisted.
	Accepted
)

func (s State) String() string {
	switch s {
	case Collected:
		return "collected"
	case LoginRedirect:
		return "login_redirect"
	case CaptchaChallenge:
		return "captcha_challenge"
	case Accepted:
		return "accepted"
	default:
		return "unknown"
	}
}

// ErrChallengeTimeout is returned when a verification challenge is not
// cleared before the configured deadline.
var ErrChallengeTimeout = errors.New("challenge not cleared before timeout")

// challengePrompt is shown inside the visible browser window.
const challengePrompt = `alert("Verification required. Complete the challenge in this window, the crawl resumes automatically.")`

// Guard classifies collection outcomes and drives challenge recovery.
type Guard struct {
	redirectPatterns  []string
	challengePatterns []string
	minFieldLength    int
	challengeTimeout  time.Duration
	pollInterval      time.Duration

	sessions browser.SessionSource
	log      logger.Logger
	ack      chan struct{}
}

// New creates a guard. sessions is used to open the visible window
// during challenge recovery.
func New(cfg *config.TargetConfig, sessions browser.SessionSource, log logger.Logger) *Guard {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Guard{
		redirectPatterns:  cfg.RedirectPatterns,
		challengePatterns: cfg.ChallengePatterns,
		minFieldLength:    cfg.MinFieldLength,
		challengeTimeout:  cfg.ChallengeTimeout.Duration,
		pollInterval:      500 * time.Millisecond,
		sessions:          sessions,
		log:               log,
		ack:               make(chan struct{}, 1),
	}
}

// Classify inspects the session's final location and the collected
// snapshot.
//
// A login-wall location alone is not enough for LoginRedirect: a run
// that already collected a full page of data before being bounced is
// still useful, so the snapshot is only discarded when its smallest
// field sequence is short. The challenge service, by contrast, always
// wins because its presence blocks every subsequent request.
func (g *Guard) Classify(location string, fields *extract.Fields) State {
	if jd.MatchesAny(location, g.redirectPatterns) && fields.Min() < g.minFieldLength {
		return LoginRedirect
	}
	if jd.MatchesAny(location, g.challengePatterns) {
		return CaptchaChallenge
	}
	return Accepted
}

// Acknowledge signals that a human has completed the verification
// challenge. It never blocks, so it is safe to call from signal
// handlers and UI key bindings.
func (g *Guard) Acknowledge() {
	select {
	case g.ack <- struct{}{}:
	default:
	}
}

// AwaitChallengeClearance opens exactly one visible browser window on
// the challenge location and blocks until the challenge is cleared.
//
// Clearance is detected three ways, whichever comes first:
//   - the diverted session's location stops matching the challenge
//     patterns (the challenge page redirects back once the client is
//     cleared)
//   - Acknowledge is called
//   - the context is cancelled or the timeout expires, both of which
//     fail the wait
func (g *Guard) AwaitChallengeClearance(ctx context.Context, diverted browser.Session, location string) error {
	visible, err := g.sessions.VisibleSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to open a visible window for the challenge: %w", err)
	}
	defer visible.Close()

	if err := visible.Navigate(ctx, location); err != nil {
		return fmt.Errorf("failed to load the challenge page: %w", err)
	}
	if _, err := visible.Eval(ctx, challengePrompt); err != nil {
		g.log.WithError(err).Debug("Could not raise the challenge prompt")
	}

	g.log.WarnWithFields("Verification challenge raised, waiting for a human", map[string]interface{}{
		"location": location,
		"timeout":  g.challengeTimeout.String(),
	})

	// An acknowledgement from before this challenge started must not
	// clear it.
	select {
	case <-g.ack:
	default:
	}

	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(g.challengeTimeout)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return ErrChallengeTimeout
		case <-g.ack:
			g.log.Info("Challenge acknowledged by operator")
			return nil
		case <-ticker.C:
			loc, err := diverted.CurrentURL(ctx)
			if err != nil {
				g.log.WithError(err).Debug("Could not poll the diverted session")
				continue
			}
			if !jd.MatchesAny(loc, g.challengePatterns) {
				g.log.InfoWithFields("Challenge cleared", map[string]interface{}{
					"location": loc,
				})
				return nil
			}
		}
	}
}
