package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func keyMsg(key string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func TestModel(t *testing.T) {
	model := NewModel(5, nil)

	// Test page task lifecycle
	model.StartPage(0)
	model.StartPage(1)

	if len(model.pages) != 2 {
		t.Errorf("Expected 2 page tasks, got %d", len(model.pages))
	}
	if len(model.GetActivePages()) != 2 {
		t.Errorf("Expected 2 active page tasks, got %d", len(model.GetActivePages()))
	}

	model.CompletePage(0, 30, 28)
	if len(model.GetCompletedPages()) != 1 {
		t.Errorf("Expected 1 completed page, got %d", len(model.GetCompletedPages()))
	}
	if model.totalRecords != 30 {
		t.Errorf("Expected 30 records, got %d", model.totalRecords)
	}
	if model.totalMedia != 28 {
		t.Errorf("Expected 28 media files, got %d", model.totalMedia)
	}

	model.FailPage(1, errors.New("login wall"))
	if len(model.GetFailedPages()) != 1 {
		t.Errorf("Expected 1 failed page, got %d", len(model.GetFailedPages()))
	}

	// Test media fetch lifecycle
	model.AddFetch("f1", "shop item", "shop item.jpg", 1024*1024)
	model.AddFetch("f2", "shop item 2", "shop item 2.jpg", 2*1024*1024)
	if model.activeFetches != 2 {
		t.Errorf("Expected 2 active fetches, got %d", model.activeFetches)
	}

	model.CompleteFetch("f1")
	model.FailFetch("f2", errors.New("404"))
	completed, failed, bytes := model.GetFetchStats()
	if completed != 1 {
		t.Errorf("Expected 1 completed fetch, got %d", completed)
	}
	if failed != 1 {
		t.Errorf("Expected 1 failed fetch, got %d", failed)
	}
	if bytes != 1024*1024 {
		t.Errorf("Expected %d bytes, got %d", 1024*1024, bytes)
	}

	// Test log messages
	model.AddLogMessage("INFO", "Test message")
	if len(model.logMessages) != 1 {
		t.Errorf("Expected 1 log message, got %d", len(model.logMessages))
	}
}

func TestChallengeBanner(t *testing.T) {
	model := NewModel(5, nil)

	model.SetChallenge(7, "https://cfe.m.jd.com/verify")
	if !model.challengeActive {
		t.Error("Expected challenge to be active")
	}
	if model.challengePage != 7 {
		t.Errorf("Expected challenge page 7, got %d", model.challengePage)
	}

	model.ClearChallenge()
	if model.challengeActive {
		t.Error("Expected challenge to be cleared")
	}
}

func TestChallengeAckKeybinding(t *testing.T) {
	acked := false
	model := NewModel(5, func() { acked = true })

	// Pressing c with no active challenge does nothing
	model.handleKeyPress(keyMsg("c"))
	if acked {
		t.Error("Ack callback should not fire without an active challenge")
	}

	model.SetChallenge(3, "https://cfe.m.jd.com/verify")
	model.handleKeyPress(keyMsg("c"))
	if !acked {
		t.Error("Ack callback should fire when a challenge is active")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{500, "500 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1024 * 1024, "1.0 MB"},
		{5 * 1024 * 1024 * 1024, "5.0 GB"},
	}

	for _, test := range tests {
		result := FormatBytes(test.bytes)
		if result != test.expected {
			t.Errorf("FormatBytes(%d) = %s, expected %s", test.bytes, result, test.expected)
		}
	}
}
