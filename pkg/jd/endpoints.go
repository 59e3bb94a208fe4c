package jd

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// DefaultSearchEndpoint is the storefront's search results page.
	DefaultSearchEndpoint = "https://search.jd.com/Search"

	// HomeURL is the storefront landing page, used to establish the
	// cookie domain before injecting session tokens.
	HomeURL = "https://www.jd.com/"

	// LoginURL is the login portal used during session bootstrap.
	LoginURL = "https://passport.jd.com/new/login.aspx?ReturnUrl=https%3A%2F%2Fwww.jd.com%2F"

	// CookieDomain is the domain session tokens are pinned to.
	CookieDomain = ".jd.com"

	// LoginRedirectPattern marks a soft redirect to the login wall.
	LoginRedirectPattern = "passport.jd"

	// ChallengePattern marks a redirect to the verification service.
	ChallengePattern = "cfe.m.jd"

	// PageStride is the storefront's internal pagination granularity.
	// Each visible results page advances the page parameter by two.
	PageStride = 2
)

// BuildSearchURL constructs the search URL for a zero-based page index.
// The storefront counts two internal pages per visible page, so index 0
// maps to page=1, index 1 to page=3, and so on.
func BuildSearchURL(endpoint, keyword string, pageIndex int) string {
	return fmt.Sprintf("%s?keyword=%s&page=%d",
		endpoint, url.QueryEscape(keyword), pageIndex*PageStride+1)
}

// MatchesAny reports whether the location contains any of the given
// patterns. Redirect and challenge detection both run on substring
// matches because the storefront varies query parameters per visit.
func MatchesAny(location string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(location, p) {
			return true
		}
	}
	return false
}
