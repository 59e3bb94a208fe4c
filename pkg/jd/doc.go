// Package jd holds everything specific to the JD.com storefront: URL
// construction, anti-bot location patterns, and the search results
// extractor.
//
// The rest of the crawler is storefront agnostic. It consumes this
// package through three narrow points:
//
//   - BuildSearchURL maps a keyword and zero-based page index onto the
//     storefront's doubled page parameter.
//   - MatchesAny classifies current browser locations against the
//     login-wall and challenge-service patterns.
//   - ParseListings turns rendered search markup into the six parallel
//     field sequences the collector accumulates.
//
// Usage:
//
//	url := jd.BuildSearchURL(jd.DefaultSearchEndpoint, "明日方舟", 0)
//	// https://search.jd.com/Search?keyword=%E6%98%8E%E6%97%A5%E6%96%B9%E8%88%9F&page=1
//
//	fields, err := jd.ParseListings(html)
//	if err != nil {
//	    return err
//	}
//	if !fields.Balanced() {
//	    // snapshot is corrupt, fall back to the last good one
//	}
//
// Extraction notes:
//
// Each of the six sequences is collected by an independent selector
// pass over the document. Scheme-relative image and detail references
// are upgraded to https. Listing names pass through the filename
// sanitizer at extraction time, matching what media naming expects.
package jd
