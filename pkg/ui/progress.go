package ui

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// StatusTracker keeps track of crawl progress across pages.
type StatusTracker struct {
	TotalPages     int
	CompletedPages int
	TotalRecords   int
	TotalMedia     int
	StartTime      time.Time
}

// NewStatusTracker creates a new status tracker
func NewStatusTracker(totalPages int) *StatusTracker {
	return &StatusTracker{
		TotalPages: totalPages,
		StartTime:  time.Now(),
	}
}

// PageCompleted records a finished page along with its yields.
func (st *StatusTracker) PageCompleted(records, media int) {
	st.CompletedPages++
	st.TotalRecords += records
	st.TotalMedia += media
}

// GetPageProgress returns a formatted progress bar over pages.
func (st *StatusTracker) GetPageProgress() string {
	const width = 20
	total := st.TotalPages
	if total == 0 {
		total = 1
	}
	progress := float64(st.CompletedPages) / float64(total)
	filled := int(progress * float64(width))
	if filled > width {
		filled = width
	}

	bar := strings.Repeat(ProgressBar, filled) +
		strings.Repeat(ProgressEmpty, width-filled)

	return fmt.Sprintf("[%s] %d/%d", bar, st.CompletedPages, st.TotalPages)
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.StartTime)
}

// GetPageRate returns the average page completion rate (pages per minute)
func (st *StatusTracker) GetPageRate() float64 {
	elapsed := st.GetElapsedTime().Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(st.CompletedPages) / elapsed
}

// PrintProgress prints the current progress status
func (st *StatusTracker) PrintProgress() {
	if IsQuietMode() {
		return
	}
	fmt.Printf("\r%s Pages: %s | Records: %d | Media: %d",
		Green("[HARVESTED]"),
		st.GetPageProgress(),
		st.TotalRecords,
		st.TotalMedia)
}

// SetCompletedPages sets the completed page count (used for resuming)
func (st *StatusTracker) SetCompletedPages(count int) {
	st.CompletedPages = count
}
