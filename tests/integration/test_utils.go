package integration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"jdscraper/pkg/browser"
	"jdscraper/pkg/config"
)

// TestHelper bundles the scaffolding a crawl integration test needs:
// an isolated output directory, an isolated checkpoint home, the image
// server, and a crawl configuration pointed at both.
type TestHelper struct {
	t          *testing.T
	mockServer *MockStorefrontServer
	outputDir  string
}

// NewTestHelper creates a helper with isolated directories. Checkpoint
// state is redirected so parallel test packages never share runs.
func NewTestHelper(t *testing.T) *TestHelper {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	h := &TestHelper{
		t:          t,
		mockServer: NewMockStorefrontServer(),
		outputDir:  t.TempDir(),
	}
	t.Cleanup(h.mockServer.Close)
	return h
}

// Server returns the image server.
func (h *TestHelper) Server() *MockStorefrontServer {
	return h.mockServer
}

// OutputDir returns the harvest output directory.
func (h *TestHelper) OutputDir() string {
	return h.outputDir
}

// Config builds a crawl configuration with fast test timings.
func (h *TestHelper) Config() *config.Config {
	return &config.Config{
		Target: config.TargetConfig{
			SearchEndpoint:    "https://search.jd.com/Search",
			Keyword:           "figures",
			Pages:             1,
			PageBatchSize:     2,
			RedirectPatterns:  []string{"passport.jd"},
			ChallengePatterns: []string{"cfe.m.jd"},
			MinFieldLength:    20,
			ChallengeTimeout:  config.NewDuration(5 * time.Second),
		},
		Browser: config.BrowserConfig{Headless: true},
		Scroll: config.ScrollConfig{
			MaxIterations: 3,
			MinDelay:      config.NewDuration(time.Millisecond),
			MaxDelay:      config.NewDuration(2 * time.Millisecond),
		},
		Media: config.MediaConfig{
			BatchSize:    3,
			FetchTimeout: config.NewDuration(5 * time.Second),
			Normalize:    true,
		},
		Retry: config.RetryConfig{
			Enabled:     true,
			MaxAttempts: 3,
			BaseDelay:   config.NewDuration(time.Millisecond),
			MaxDelay:    config.NewDuration(5 * time.Millisecond),
			Multiplier:  1.5,
		},
		Output: config.OutputConfig{
			BaseDirectory:  h.outputDir,
			MediaDirectory: "media",
			ListingsFile:   "listings.json",
		},
		Logging: config.LoggingConfig{Level: "error"},
	}
}

// ResultsPage renders a search results page with one grid item per
// image name, each image hosted on the mock server.
func (h *TestHelper) ResultsPage(shop string, imageNames ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="J_goodsList"><ul>`)
	for i, name := range imageNames {
		fmt.Fprintf(&b, `<li><div>`+
			`<div><a href="//item.jd.com/%d.html"><img src="%s"/></a></div>`+
			`<div><strong><i>%d9.00</i></strong></div>`+
			`<div><a><em>Item %s</em></a></div>`+
			`<div><strong><a>1000+</a></strong></div>`+
			`<div><span><a>%s</a></span></div>`+
			`</div></li>`, i+1, h.mockServer.ImageURL(name), i+1, name, shop)
	}
	b.WriteString(`</ul></div></body></html>`)
	return b.String()
}

// EmptyPage is a page with no grid at all, which ends the scroll loop.
const EmptyPage = `<html><body></body></html>`

// PageSession scripts a browser session that renders the given page,
// stops growing, and stays on the results location.
func (h *TestHelper) PageSession(pageHTML string) *browser.MockSession {
	return &browser.MockSession{
		HTMLFrames: []string{pageHTML, EmptyPage},
		URLFrames:  []string{"https://search.jd.com/Search?keyword=figures&page=1"},
	}
}

// BouncedSession scripts a session that lands on the login wall with a
// starved page.
func (h *TestHelper) BouncedSession() *browser.MockSession {
	return &browser.MockSession{
		HTMLFrames: []string{EmptyPage},
		URLFrames:  []string{"https://passport.jd.com/new/login.aspx"},
	}
}

// MediaFiles returns the non-sidecar files in the harvest media
// directory.
func (h *TestHelper) MediaFiles() []string {
	h.t.Helper()
	entries, err := os.ReadDir(filepath.Join(h.outputDir, "media"))
	if err != nil {
		h.t.Fatalf("Failed to read media directory: %v", err)
	}
	var files []string
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".json") {
			files = append(files, e.Name())
		}
	}
	return files
}
