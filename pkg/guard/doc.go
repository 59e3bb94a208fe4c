// Package guard classifies anti-bot outcomes and recovers from them.
//
// The storefront defends itself two ways. It may silently serve the
// login portal instead of search results to a client it distrusts (a
// soft redirect), or it may bounce the session to a verification
// service that demands a human solve a challenge. The guard is the one
// place that tells these apart and decides what a page task does next.
//
// Classification:
//
//	state := g.Classify(location, snapshot.Fields)
//	switch state {
//	case guard.Accepted:
//	    // persist the snapshot
//	case guard.LoginRedirect:
//	    // discard and retry the whole page task, bounded
//	case guard.CaptchaChallenge:
//	    // block on AwaitChallengeClearance, then retry the task
//	}
//
// A soft redirect only invalidates the snapshot when the collected
// data is thin (fewer than the configured minimum records in any
// sequence). Redirect retries must be bounded by the caller; the
// storefront can keep serving the login wall indefinitely and an
// unbounded retry would loop forever.
//
// Challenge recovery opens exactly one visible browser window so a
// human can solve the puzzle, and resumes when the diverted session
// leaves the challenge location, when Acknowledge is called, or fails
// after the configured timeout.
package guard
