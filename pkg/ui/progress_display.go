package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// ProgressDisplay provides a clean, minimal progress display for a
// keyword crawl.
type ProgressDisplay struct {
	mu              sync.Mutex
	keyword         string
	totalPages      int
	completedPages  int
	records         int
	mediaFetched    int
	bytesDownloaded int64
	startTime       time.Time
	lastUpdate      time.Time
	errors          int
	isDebug         bool
}

// NewProgressDisplay creates a new progress display
func NewProgressDisplay(keyword string, totalPages int, debug bool) *ProgressDisplay {
	return &ProgressDisplay{
		keyword:    keyword,
		totalPages: totalPages,
		startTime:  time.Now(),
		lastUpdate: time.Now(),
		isDebug:    debug,
	}
}

// StartPage marks the start of a page task
func (p *ProgressDisplay) StartPage(page int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastUpdate = time.Now()

	if p.isDebug {
		fmt.Printf("\n%s Fetching page %d...\n", Magenta("→"), page)
	}
}

// CompletePage marks a page as fully processed
func (p *ProgressDisplay) CompletePage(page, records, media int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.completedPages++
	p.records += records
	p.mediaFetched += media
	p.lastUpdate = time.Now()

	if !p.isDebug {
		p.printProgress()
	} else {
		fmt.Printf("\n%s page %d • %d records • %d media files\n",
			Green("✓"), page, records, media)
	}
}

// FailPage marks a page task as failed
func (p *ProgressDisplay) FailPage(page int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.errors++
	p.lastUpdate = time.Now()

	if !p.isDebug {
		p.printProgress()
	} else {
		fmt.Printf("\n%s Failed: page %d - %v\n", Red("✗"), page, err)
	}
}

// MediaFetched records downloaded bytes outside a page completion.
func (p *ProgressDisplay) MediaFetched(size int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.bytesDownloaded += size
}

// ChallengeWait announces that the crawl is paused on a verification
// wall and needs a human in the visible browser window.
func (p *ProgressDisplay) ChallengeWait(page int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Printf("\n%s Verification challenge on page %d. Solve it in the browser window, then press Enter.\n",
		Yellow("⚠"), page)
}

// printProgress prints the minimal progress line
func (p *ProgressDisplay) printProgress() {
	if IsQuietMode() {
		return
	}

	elapsed := time.Since(p.startTime)
	rate := float64(p.completedPages) / elapsed.Minutes()
	eta := p.calculateETA()

	// Build progress bar
	total := p.totalPages
	if total == 0 {
		total = 1
	}
	progress := float64(p.completedPages) / float64(total)
	barWidth := 20
	filled := int(progress * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)

	line := fmt.Sprintf("\r%s [%s] %d/%d pages • %d records • %.1f pg/min • %s • %s",
		Cyan(p.keyword),
		bar,
		p.completedPages,
		p.totalPages,
		p.records,
		rate,
		p.formatBytes(p.bytesDownloaded),
		eta,
	)

	if p.errors > 0 {
		line += fmt.Sprintf(" • %s", Red(fmt.Sprintf("%d errors", p.errors)))
	}

	// Clear line and print
	fmt.Printf("\r%s\r%s", strings.Repeat(" ", 120), line)
}

// Complete marks the entire operation as complete
func (p *ProgressDisplay) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if IsQuietMode() {
		return
	}

	elapsed := time.Since(p.startTime)

	fmt.Printf("\n\n%s Harvested %d records for %q\n",
		Green("✓"),
		p.records,
		p.keyword,
	)

	// Summary stats
	fmt.Printf("  %s %d pages, %d media files, %s in %s\n",
		Dim("•"),
		p.completedPages,
		p.mediaFetched,
		p.formatBytes(p.bytesDownloaded),
		p.formatDuration(elapsed),
	)

	if p.errors > 0 {
		fmt.Printf("  %s %d page tasks failed\n",
			Dim("•"),
			p.errors,
		)
	}
}

// calculateETA estimates time remaining
func (p *ProgressDisplay) calculateETA() string {
	if p.completedPages == 0 {
		return "calculating..."
	}

	remaining := p.totalPages - p.completedPages
	elapsed := time.Since(p.startTime)
	rate := float64(p.completedPages) / elapsed.Seconds()

	if rate == 0 {
		return "calculating..."
	}

	etaSeconds := float64(remaining) / rate
	eta := time.Duration(etaSeconds) * time.Second

	return p.formatDuration(eta)
}

// formatDuration formats a duration in a human-readable way
func (p *ProgressDisplay) formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	} else {
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

// formatBytes formats bytes in a human-readable way
func (p *ProgressDisplay) formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// SetCompletedPages sets the initial completed page count (for resume)
func (p *ProgressDisplay) SetCompletedPages(count int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.completedPages = count
}
