package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TUI represents the terminal user interface
type TUI struct {
	program *tea.Program
	model   *Model
}

// NewTUI creates a new TUI instance. onChallengeAck runs when the user
// presses "c" to confirm they solved a verification wall in the
// browser window.
func NewTUI(maxConcurrent int, onChallengeAck func()) *TUI {
	model := NewModel(maxConcurrent, onChallengeAck)
	program := tea.NewProgram(&model, tea.WithAltScreen())

	return &TUI{
		program: program,
		model:   &model,
	}
}

// Start starts the TUI
func (t *TUI) Start() error {
	go func() {
		// Send initial tick to start the spinner
		time.Sleep(100 * time.Millisecond)
		t.program.Send(TickMsg(time.Now()))
	}()

	_, err := t.program.Run()
	return err
}

// Stop stops the TUI gracefully
func (t *TUI) Stop() {
	t.program.Quit()
}

// Send sends a message to the TUI
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

// StartPage notifies the TUI that a page task has started
func (t *TUI) StartPage(page int) {
	t.Send(PageStartMsg{Page: page})
}

// CompletePage notifies the TUI that a page task has finished
func (t *TUI) CompletePage(page, records, media int) {
	t.Send(PageCompleteMsg{Page: page, Records: records, Media: media})
}

// FailPage notifies the TUI that a page task has failed
func (t *TUI) FailPage(page int, err error) {
	t.Send(PageErrorMsg{Page: page, Error: err})
}

// StartFetch notifies the TUI that a media fetch has started
func (t *TUI) StartFetch(id, key, filename string, size int64) {
	t.Send(FetchStartMsg{ID: id, Key: key, Filename: filename, Size: size})
}

// CompleteFetch notifies the TUI that a media fetch has completed
func (t *TUI) CompleteFetch(id string) {
	t.Send(FetchCompleteMsg{ID: id})
}

// FailFetch notifies the TUI that a media fetch has failed
func (t *TUI) FailFetch(id string, err error) {
	t.Send(FetchErrorMsg{ID: id, Error: err})
}

// ChallengeDetected shows the verification banner
func (t *TUI) ChallengeDetected(page int, location string) {
	t.Send(ChallengeMsg{Page: page, Location: location})
}

// ChallengeCleared removes the verification banner
func (t *TUI) ChallengeCleared(page int) {
	t.Send(ChallengeClearedMsg{Page: page})
}

// Log sends a log message to the TUI
func (t *TUI) Log(level, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	t.Send(LogMsg{Level: level, Message: message})
}

// LogInfo logs an info message
func (t *TUI) LogInfo(format string, args ...interface{}) {
	t.Log("INFO", format, args...)
}

// LogSuccess logs a success message
func (t *TUI) LogSuccess(format string, args ...interface{}) {
	t.Log("SUCCESS", format, args...)
}

// LogWarning logs a warning message
func (t *TUI) LogWarning(format string, args ...interface{}) {
	t.Log("WARN", format, args...)
}

// LogError logs an error message
func (t *TUI) LogError(format string, args ...interface{}) {
	t.Log("ERROR", format, args...)
}

// IsPaused returns whether the crawl is paused
func (t *TUI) IsPaused() bool {
	t.model.mu.RLock()
	defer t.model.mu.RUnlock()
	return t.model.isPaused
}
