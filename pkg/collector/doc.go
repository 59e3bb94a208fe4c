// Package collector implements the scroll-driven extraction loop.
//
// A search results page initially renders thirty listings and loads
// the remainder as the viewport approaches the bottom. The collector
// repeatedly nudges that machinery (click the load-more link, scroll
// to the bottom), re-extracts the six field sequences from the
// rendered document, and keeps the last balanced tuple as its
// snapshot.
//
// Loop behavior:
//
//   - Iterations are capped (twelve by default). Each one sleeps a
//     uniformly random interval so the timing never looks mechanical.
//   - An extraction with an empty sequence means the storefront has
//     nothing more to give; the prior snapshot is returned as is.
//   - An unbalanced extraction is corrupt. It is logged and dropped,
//     and the loop carries on with the last good snapshot.
//   - If the browser gets bounced to a login or challenge location the
//     loop ends early; classifying and recovering from that condition
//     is the guard's job, not the collector's.
//
// Usage:
//
//	col := collector.New(&cfg.Scroll, cfg.Target.BreakPatterns(), log)
//	snapshot, err := col.Collect(ctx, sess, jd.ParseListings)
//	if err != nil {
//	    return err
//	}
//	records := listing.FromFields(snapshot.Fields)
//
// The collector performs no retries and no classification. It hands
// whatever it collected, along with loop accounting, to the caller.
package collector
