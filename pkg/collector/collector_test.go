package collector

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"jdscraper/pkg/browser"
	"jdscraper/pkg/config"
	"jdscraper/pkg/extract"
)

// frameParse interprets scripted frames: a number yields that many
// balanced records, "corrupt" yields mismatched sequences, "end"
// yields the all-empty tuple.
func frameParse(html string) (*extract.Fields, error) {
	switch html {
	case "end":
		return extract.Empty(), nil
	case "corrupt":
		f := balancedFields(3)
		f.Comments = f.Comments[:1]
		return f, nil
	case "fail":
		return nil, errors.New("parser exploded")
	default:
		n, err := strconv.Atoi(html)
		if err != nil {
			return nil, fmt.Errorf("bad frame %q", html)
		}
		return balancedFields(n), nil
	}
}

func balancedFields(n int) *extract.Fields {
	f := extract.Empty()
	for i := 0; i < n; i++ {
		f.Names = append(f.Names, fmt.Sprintf("item-%d", i))
		f.Prices = append(f.Prices, "99.00")
		f.DetailURLs = append(f.DetailURLs, fmt.Sprintf("https://item.jd.com/%d.html", i))
		f.Comments = append(f.Comments, "100+")
		f.Shops = append(f.Shops, "shop")
		f.ImageURLs = append(f.ImageURLs, fmt.Sprintf("https://img10.360buyimg.com/%d.jpg", i))
	}
	return f
}

func testCollector(patterns ...string) *Collector {
	cfg := &config.ScrollConfig{
		MaxIterations:    12,
		MinDelay:         config.NewDuration(time.Millisecond),
		MaxDelay:         config.NewDuration(2 * time.Millisecond),
		LoadMoreSelector: "#J_scroll_loading span a",
	}
	return New(cfg, patterns, nil)
}

func frames(counts ...int) []string {
	out := make([]string, len(counts))
	for i, n := range counts {
		out[i] = strconv.Itoa(n)
	}
	return out
}

func TestCollectRunsFullIterationBudget(t *testing.T) {
	sess := browser.NewMockSession()
	sess.HTMLFrames = frames(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13)
	sess.URLFrames = []string{"https://search.jd.com/Search?keyword=x&page=1"}

	snapshot, err := testCollector("passport.jd", "cfe.m.jd").Collect(context.Background(), sess, frameParse)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if snapshot.Iterations != 12 {
		t.Errorf("Expected 12 iterations, got %d", snapshot.Iterations)
	}
	if snapshot.Records() != 13 {
		t.Errorf("Expected 13 records from the final frame, got %d", snapshot.Records())
	}
	if !snapshot.NewItems {
		t.Error("Growing page should set NewItems")
	}
	// Two load-more clicks per iteration
	if sess.ClickCount() != 24 {
		t.Errorf("Expected 24 clicks, got %d", sess.ClickCount())
	}
	// One scroll per iteration
	if len(sess.EvalScripts) != 12 {
		t.Errorf("Expected 12 scroll evaluations, got %d", len(sess.EvalScripts))
	}
}

func TestCollectReturnsPriorSnapshotOnEmptySequence(t *testing.T) {
	sess := browser.NewMockSession()
	sess.HTMLFrames = []string{"5", "end"}

	snapshot, err := testCollector().Collect(context.Background(), sess, frameParse)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if snapshot.Records() != 5 {
		t.Errorf("Expected the prior snapshot with 5 records, got %d", snapshot.Records())
	}
	if snapshot.Iterations != 1 {
		t.Errorf("Expected termination on iteration 1, got %d", snapshot.Iterations)
	}
}

func TestCollectKeepsLastGoodSnapshotThroughCorruption(t *testing.T) {
	sess := browser.NewMockSession()
	sess.HTMLFrames = []string{"3", "corrupt"}

	snapshot, err := testCollector().Collect(context.Background(), sess, frameParse)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if snapshot.Records() != 3 {
		t.Errorf("Expected the last balanced snapshot with 3 records, got %d", snapshot.Records())
	}
	// Corruption is not a terminal signal, the loop runs its budget
	if snapshot.Iterations != 12 {
		t.Errorf("Expected the full iteration budget, got %d", snapshot.Iterations)
	}
	if snapshot.NewItems {
		t.Error("Corrupt frames must not count as new items")
	}
}

func TestCollectDiscardsCorruptInitialExtraction(t *testing.T) {
	sess := browser.NewMockSession()
	// Every grab is corrupt; the last frame repeats
	sess.HTMLFrames = []string{"corrupt"}

	snapshot, err := testCollector().Collect(context.Background(), sess, frameParse)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if !snapshot.Fields.Balanced() {
		t.Fatalf("Accepted snapshot must be balanced, got counts %v", snapshot.Fields.Counts())
	}
	if snapshot.Records() != 0 {
		t.Errorf("With no balanced extraction the snapshot should be empty, got %d records", snapshot.Records())
	}
}

func TestCollectRecoversFromCorruptInitialExtraction(t *testing.T) {
	sess := browser.NewMockSession()
	sess.HTMLFrames = []string{"corrupt", "4", "end"}

	snapshot, err := testCollector().Collect(context.Background(), sess, frameParse)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if snapshot.Records() != 4 {
		t.Errorf("Expected the first balanced frame with 4 records, got %d", snapshot.Records())
	}
	if !snapshot.NewItems {
		t.Error("Growth over the discarded initial frame should set NewItems")
	}
}

func TestCollectBreaksWhenDiverted(t *testing.T) {
	sess := browser.NewMockSession()
	sess.HTMLFrames = frames(30, 30, 30)
	sess.URLFrames = []string{"https://passport.jd.com/new/login.aspx"}

	snapshot, err := testCollector("passport.jd", "cfe.m.jd").Collect(context.Background(), sess, frameParse)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if snapshot.Iterations != 1 {
		t.Errorf("Expected early break on iteration 1, got %d", snapshot.Iterations)
	}
	if snapshot.Records() != 30 {
		t.Errorf("Snapshot collected before the break should survive, got %d records", snapshot.Records())
	}
}

func TestCollectStaticPageYieldsNoNewItems(t *testing.T) {
	sess := browser.NewMockSession()
	sess.HTMLFrames = frames(30)

	snapshot, err := testCollector().Collect(context.Background(), sess, frameParse)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if snapshot.NewItems {
		t.Error("Static page should not set NewItems")
	}
	if snapshot.Records() != 30 {
		t.Errorf("Expected 30 records, got %d", snapshot.Records())
	}
}

func TestCollectPropagatesReadErrors(t *testing.T) {
	sess := browser.NewMockSession()
	sess.HTMLError = errors.New("page crashed")

	_, err := testCollector().Collect(context.Background(), sess, frameParse)
	if err == nil {
		t.Fatal("Expected error when the page cannot be read")
	}
}

func TestCollectPropagatesParserErrors(t *testing.T) {
	sess := browser.NewMockSession()
	sess.HTMLFrames = []string{"fail"}

	_, err := testCollector().Collect(context.Background(), sess, frameParse)
	if err == nil {
		t.Fatal("Expected error when extraction fails")
	}
}

func TestCollectStopsOnCancelledContext(t *testing.T) {
	sess := browser.NewMockSession()
	sess.HTMLFrames = frames(1, 2, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testCollector().Collect(ctx, sess, frameParse)
	if err == nil {
		t.Fatal("Expected error from cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled in chain, got %v", err)
	}
}
