// Package crawler orchestrates the full storefront harvest.
//
// A crawl walks the configured number of search result pages for one
// keyword. Pages run as independent tasks in fixed-size batches; a
// batch fully settles before the next one starts, and a failed task
// never cancels its siblings. Each task navigates a browser session to
// the page, drives the infinite-scroll collection loop, classifies the
// outcome against the anti-bot guard, and on acceptance persists the
// listings and runs the media pipeline: batched image downloads,
// metadata sidecars, and PNG normalization.
//
// Login-wall bounces restart the whole page task through the retry
// layer with fresh backoff. Verification challenges block the task on
// human recovery and then refetch the page. Progress is checkpointed
// per page so an interrupted crawl can resume without refetching
// completed pages.
package crawler
