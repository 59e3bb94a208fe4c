package browser

import (
	"context"

	"jdscraper/pkg/session"
)

// SessionSource hands out browser sessions. The crawler depends on
// this interface rather than on Factory so tests can feed it scripted
// sessions.
type SessionSource interface {
	// Session returns a page on the shared crawl browser.
	Session(ctx context.Context) (Session, error)

	// VisibleSession returns a page on a browser with a visible
	// window, for flows that need a human at the keyboard.
	VisibleSession(ctx context.Context) (Session, error)

	// Close shuts down all browsers this source has launched.
	Close() error
}

// Session defines the interface for driving a single browser page.
//
// The collector, guard, and bootstrap flows all speak to the storefront
// through this interface, so tests can substitute a scripted session
// without launching a real browser.
type Session interface {
	// Navigate loads the given URL and waits for the initial page load.
	Navigate(ctx context.Context, url string) error

	// HTML returns the current rendered document markup.
	HTML(ctx context.Context) (string, error)

	// Eval runs a JavaScript expression in the page and returns the
	// string form of its result.
	Eval(ctx context.Context, js string) (string, error)

	// Click dispatches a left click on the first element matching the
	// CSS selector. It returns an error if no element matches.
	Click(ctx context.Context, selector string) error

	// CurrentURL returns the page's current location, which may differ
	// from the navigated URL after storefront redirects.
	CurrentURL(ctx context.Context) (string, error)

	// Cookies returns the cookies visible to the current page.
	Cookies(ctx context.Context) ([]session.RawCookie, error)

	// SetCookies installs session tokens into the browser before
	// navigation so the storefront sees an authenticated visitor.
	SetCookies(ctx context.Context, tokens []session.Token) error

	// Close releases the underlying page.
	Close() error
}
