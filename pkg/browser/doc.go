// Package browser manages Chrome sessions for storefront crawling.
//
// The package wraps go-rod behind a small Session interface so the
// rest of the crawler never touches browser internals. A Factory owns
// the browser processes:
//
//   - One shared headless browser backs all crawl sessions. Each page
//     task gets its own page on it.
//   - One visible browser is launched lazily for flows that need a
//     human, such as solving a verification challenge or logging in
//     during bootstrap.
//
// Every session installs the go-rod/stealth script before navigation
// and applies the configured desktop user agent, since the storefront
// fingerprints headless Chrome aggressively.
//
// Usage:
//
//	factory := browser.NewFactory(cfg, logger.GetLogger())
//	defer factory.Close()
//
//	sess, err := factory.Session(ctx)
//	if err != nil {
//	    return err
//	}
//	defer sess.Close()
//
//	if err := sess.SetCookies(ctx, tokens.Tokens); err != nil {
//	    return err
//	}
//	if err := sess.Navigate(ctx, pageURL); err != nil {
//	    return err
//	}
//	html, err := sess.HTML(ctx)
//
// Testing:
//
// MockSession plays back scripted HTML and URL frames, records every
// click and script evaluation, and can inject errors per method.
// MockFactory hands out prepared sessions in order, with a separate
// script for visible sessions.
package browser
