package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Message types for the TUI

// PageStartMsg is sent when a page task starts
type PageStartMsg struct {
	Page int
}

// PageCompleteMsg is sent when a page task finishes
type PageCompleteMsg struct {
	Page    int
	Records int
	Media   int
}

// PageErrorMsg is sent when a page task fails
type PageErrorMsg struct {
	Page  int
	Error error
}

// FetchStartMsg is sent when a media fetch starts
type FetchStartMsg struct {
	ID       string
	Key      string
	Filename string
	Size     int64
}

// FetchCompleteMsg is sent when a media fetch completes
type FetchCompleteMsg struct {
	ID string
}

// FetchErrorMsg is sent when a media fetch fails
type FetchErrorMsg struct {
	ID    string
	Error error
}

// ChallengeMsg is sent when a verification wall blocks the crawl
type ChallengeMsg struct {
	Page     int
	Location string
}

// ChallengeClearedMsg is sent once the wall has been passed
type ChallengeClearedMsg struct {
	Page int
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// TickMsg is sent periodically to update the UI
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		// Regular UI update tick
		return m, tea.Batch(
			tickCmd(),
			m.spinner.Tick,
		)

	case PageStartMsg:
		m.StartPage(msg.Page)
		m.AddLogMessage("INFO", fmt.Sprintf("Fetching page %d", msg.Page))
		return m, nil

	case PageCompleteMsg:
		m.CompletePage(msg.Page, msg.Records, msg.Media)
		m.AddLogMessage("SUCCESS", fmt.Sprintf("Page %d done: %d records, %d media", msg.Page, msg.Records, msg.Media))
		return m, nil

	case PageErrorMsg:
		m.FailPage(msg.Page, msg.Error)
		m.AddLogMessage("ERROR", fmt.Sprintf("Page %d failed: %v", msg.Page, msg.Error))
		return m, nil

	case FetchStartMsg:
		m.AddFetch(msg.ID, msg.Key, msg.Filename, msg.Size)
		return m, nil

	case FetchCompleteMsg:
		m.CompleteFetch(msg.ID)
		return m, nil

	case FetchErrorMsg:
		m.FailFetch(msg.ID, msg.Error)
		if fetch, ok := m.fetches[msg.ID]; ok {
			m.AddLogMessage("ERROR", "Fetch failed: "+fetch.Filename+" - "+msg.Error.Error())
		}
		return m, nil

	case ChallengeMsg:
		m.SetChallenge(msg.Page, msg.Location)
		m.AddLogMessage("WARN", fmt.Sprintf("Verification wall on page %d. Solve it in the browser window, then press 'c'", msg.Page))
		return m, nil

	case ChallengeClearedMsg:
		m.ClearChallenge()
		m.AddLogMessage("SUCCESS", fmt.Sprintf("Verification cleared, resuming page %d", msg.Page))
		return m, nil

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		return m, tea.Quit

	case "c", "C":
		m.mu.RLock()
		active := m.challengeActive
		ack := m.onChallengeAck
		m.mu.RUnlock()
		if active {
			m.AddLogMessage("INFO", "Challenge acknowledged, verifying...")
			if ack != nil {
				ack()
			}
		}
		return m, nil

	case "p", "P":
		m.isPaused = !m.isPaused
		if m.isPaused {
			m.AddLogMessage("WARN", "Crawl paused by user")
		} else {
			m.AddLogMessage("INFO", "Crawl resumed by user")
		}
		return m, nil

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		// Clear logs
		m.mu.Lock()
		m.logMessages = []LogMessage{}
		m.mu.Unlock()
		return m, nil
	}

	return m, nil
}

// Commands

// tickCmd returns a command that sends a tick message
func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
