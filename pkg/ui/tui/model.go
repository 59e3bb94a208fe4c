package tui

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TaskState represents the state of a page task or media fetch
type TaskState int

const (
	TaskPending TaskState = iota
	TaskActive
	TaskCompleted
	TaskFailed
)

// PageItem represents one result-page task
type PageItem struct {
	Page      int
	State     TaskState
	Records   int
	Media     int
	StartTime time.Time
	Error     error
}

// FetchItem represents a single media download
type FetchItem struct {
	ID        string
	Key       string
	Filename  string
	Size      int64
	State     TaskState
	StartTime time.Time
	Error     error
}

// Model represents the TUI model
type Model struct {
	// UI components
	spinner      spinner.Model
	progressBars map[string]progress.Model

	// Page task state
	pages     map[int]*PageItem
	pageOrder []int

	// Media fetch state
	fetches       map[string]*FetchItem
	fetchOrder    []string
	activeFetches int
	maxConcurrent int

	// Stats
	totalRecords     int
	totalMedia       int
	totalBytes       int64
	sessionStartTime time.Time

	// Challenge wall state
	challengeActive   bool
	challengePage     int
	challengeLocation string
	onChallengeAck    func()

	// UI state
	width          int
	height         int
	showHelp       bool
	isPaused       bool
	logMessages    []LogMessage
	maxLogMessages int

	// Mutex for thread safety
	mu sync.RWMutex
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// NewModel creates a new TUI model. onChallengeAck is invoked when the
// user presses "c" while a verification wall is active.
func NewModel(maxConcurrent int, onChallengeAck func()) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(neonCyan)

	return Model{
		spinner:          s,
		progressBars:     make(map[string]progress.Model),
		pages:            make(map[int]*PageItem),
		pageOrder:        []int{},
		fetches:          make(map[string]*FetchItem),
		fetchOrder:       []string{},
		maxConcurrent:    maxConcurrent,
		onChallengeAck:   onChallengeAck,
		sessionStartTime: time.Now(),
		logMessages:      []LogMessage{},
		maxLogMessages:   50,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// StartPage marks a page task as active
func (m *Model) StartPage(page int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.pages[page]; !ok {
		m.pageOrder = append(m.pageOrder, page)
	}
	m.pages[page] = &PageItem{
		Page:      page,
		State:     TaskActive,
		StartTime: time.Now(),
	}
}

// CompletePage marks a page task as completed with its yields
func (m *Model) CompletePage(page, records, media int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if item, ok := m.pages[page]; ok {
		item.State = TaskCompleted
		item.Records = records
		item.Media = media
	}
	m.totalRecords += records
	m.totalMedia += media
}

// FailPage marks a page task as failed
func (m *Model) FailPage(page int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if item, ok := m.pages[page]; ok {
		item.State = TaskFailed
		item.Error = err
	}
}

// AddFetch adds a new media fetch
func (m *Model) AddFetch(id, key, filename string, size int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fetches[id] = &FetchItem{
		ID:        id,
		Key:       key,
		Filename:  filename,
		Size:      size,
		State:     TaskActive,
		StartTime: time.Now(),
	}
	m.fetchOrder = append(m.fetchOrder, id)
	m.activeFetches++

	p := progress.New(progress.WithDefaultGradient())
	p.Width = 40
	m.progressBars[id] = p
}

// CompleteFetch marks a media fetch as completed
func (m *Model) CompleteFetch(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if fetch, ok := m.fetches[id]; ok {
		fetch.State = TaskCompleted
		m.activeFetches--
		m.totalBytes += fetch.Size
	}
}

// FailFetch marks a media fetch as failed
func (m *Model) FailFetch(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if fetch, ok := m.fetches[id]; ok {
		fetch.State = TaskFailed
		fetch.Error = err
		m.activeFetches--
	}
}

// SetChallenge records an active verification wall
func (m *Model) SetChallenge(page int, location string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.challengeActive = true
	m.challengePage = page
	m.challengeLocation = location
}

// ClearChallenge removes the verification banner
func (m *Model) ClearChallenge() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.challengeActive = false
	m.challengeLocation = ""
}

// AddLogMessage adds a log message
func (m *Model) AddLogMessage(level, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	color := dimWhite
	switch level {
	case "ERROR":
		color = lipgloss.Color("#FF0000")
	case "WARN":
		color = neonOrange
	case "SUCCESS":
		color = neonGreen
	case "INFO":
		color = neonCyan
	}

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Color:   color,
	})

	// Keep only the last N messages
	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// GetActivePages returns the page tasks currently running
func (m *Model) GetActivePages() []*PageItem {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var active []*PageItem
	for _, page := range m.pageOrder {
		if item := m.pages[page]; item != nil && item.State == TaskActive {
			active = append(active, item)
		}
	}
	return active
}

// GetCompletedPages returns the finished page tasks
func (m *Model) GetCompletedPages() []*PageItem {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var completed []*PageItem
	for _, page := range m.pageOrder {
		if item := m.pages[page]; item != nil && item.State == TaskCompleted {
			completed = append(completed, item)
		}
	}
	return completed
}

// GetFailedPages returns the failed page tasks
func (m *Model) GetFailedPages() []*PageItem {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var failed []*PageItem
	for _, page := range m.pageOrder {
		if item := m.pages[page]; item != nil && item.State == TaskFailed {
			failed = append(failed, item)
		}
	}
	return failed
}

// GetActiveFetches returns the media fetches currently running
func (m *Model) GetActiveFetches() []*FetchItem {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var active []*FetchItem
	for _, id := range m.fetchOrder {
		if fetch := m.fetches[id]; fetch != nil && fetch.State == TaskActive {
			active = append(active, fetch)
		}
	}
	return active
}

// GetFetchStats returns completed fetch counts and byte totals
func (m *Model) GetFetchStats() (completed, failed int, bytes int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, fetch := range m.fetches {
		switch fetch.State {
		case TaskCompleted:
			completed++
		case TaskFailed:
			failed++
		}
	}
	return completed, failed, m.totalBytes
}

// FormatBytes formats bytes to human readable format
func FormatBytes(bytes int64) string {
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
