package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// View renders the entire TUI
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	// Build the UI layout
	var sections []string

	// Logo
	sections = append(sections, m.renderLogo())

	// Challenge banner sits above everything when active
	if m.challengeActive {
		sections = append(sections, m.renderChallengeBanner())
	}

	// Main content area with two columns
	leftColumn := m.renderLeftColumn()
	rightColumn := m.renderRightColumn()

	mainContent := lipgloss.JoinHorizontal(
		lipgloss.Top,
		leftColumn,
		"  ", // spacing
		rightColumn,
	)
	sections = append(sections, mainContent)

	// Help
	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help"))
	}

	// Join all sections vertically
	return baseStyle.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

// renderLogo renders the application banner
func (m Model) renderLogo() string {
	logo := `
╔═══════════════════════════════════════════════════════════╗
║    ██╗██████╗ ███████╗ ██████╗██████╗  █████╗ ██████╗      ║
║    ██║██╔══██╗██╔════╝██╔════╝██╔══██╗██╔══██╗██╔══██╗     ║
║    ██║██║  ██║███████╗██║     ██████╔╝███████║██████╔╝     ║
║ ██╗██║██║  ██║╚════██║██║     ██╔══██╗██╔══██║██╔═══╝      ║
║ ╚████║██████╔╝███████║╚██████╗██║  ██║██║  ██║██║          ║
║  ╚═══╝╚═════╝ ╚══════╝ ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝╚═╝          ║
║        STOREFRONT LISTING HARVESTER v1.0                   ║
╚═══════════════════════════════════════════════════════════╝`

	return logoStyle.Width(m.width).Render(logo)
}

// renderChallengeBanner renders the verification wall notice
func (m Model) renderChallengeBanner() string {
	m.mu.RLock()
	page := m.challengePage
	location := m.challengeLocation
	m.mu.RUnlock()

	text := fmt.Sprintf("⚠  VERIFICATION REQUIRED on page %d\n   %s\n   Solve the challenge in the browser window, then press 'c'",
		page, location)

	return challengeBannerStyle.Width(m.width - 4).Render(text)
}

// renderLeftColumn renders the left side of the UI
func (m Model) renderLeftColumn() string {
	width := (m.width - 4) / 2

	var sections []string

	// Stats panel
	sections = append(sections, m.renderStatsPanel(width))

	// Active page tasks panel
	sections = append(sections, m.renderPagePanel(width))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderRightColumn renders the right side of the UI
func (m Model) renderRightColumn() string {
	width := (m.width - 4) / 2

	var sections []string

	// Media fetch panel
	sections = append(sections, m.renderFetchPanel(width))

	// Logs panel
	sections = append(sections, m.renderLogsPanel(width))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderStatsPanel renders the statistics panel
func (m Model) renderStatsPanel(width int) string {
	m.mu.RLock()
	elapsed := time.Since(m.sessionStartTime)
	totalRecords := m.totalRecords
	totalMedia := m.totalMedia
	totalBytes := m.totalBytes
	paused := m.isPaused
	m.mu.RUnlock()

	title := titleStyle.Render(" CRAWL STATS ")

	completed := len(m.GetCompletedPages())
	failed := len(m.GetFailedPages())

	stats := []string{
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Session Time:"), statsValueStyle.Render(formatDuration(elapsed))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Pages Done:"), statsValueStyle.Render(fmt.Sprintf("%d", completed))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Records:"), statsValueStyle.Render(fmt.Sprintf("%d", totalRecords))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Media Files:"), statsValueStyle.Render(fmt.Sprintf("%d", totalMedia))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Downloaded:"), statsValueStyle.Render(FormatBytes(totalBytes))),
	}

	if failed > 0 {
		stats = append(stats, fmt.Sprintf("%s %s", statsLabelStyle.Render("Failed Pages:"), errorStyle.Render(fmt.Sprintf("%d", failed))))
	}

	if paused {
		stats = append(stats, warningStyle.Render("⏸  PAUSED"))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, stats...)

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderPagePanel renders the page task overview
func (m Model) renderPagePanel(width int) string {
	title := titleStyle.Render(" PAGE TASKS ")

	active := m.GetActivePages()
	completed := m.GetCompletedPages()
	failed := m.GetFailedPages()

	var items []string

	if len(active) > 0 {
		items = append(items, warningStyle.Render(fmt.Sprintf("%s %d in flight", m.spinner.View(), len(active))))
		for _, item := range active {
			items = append(items, queueItemActiveStyle.Render(fmt.Sprintf("• page %d", item.Page)))
		}
	} else {
		items = append(items, lipgloss.NewStyle().Foreground(dimWhite).Render("No active page tasks"))
	}

	// Show recent completed
	completedCount := len(completed)
	if completedCount > 0 {
		items = append(items, "", successStyle.Render(fmt.Sprintf("✓ %d completed", completedCount)))
		start := completedCount - 3
		if start < 0 {
			start = 0
		}
		for i := start; i < completedCount; i++ {
			item := completed[i]
			items = append(items, queueItemCompletedStyle.Render(
				fmt.Sprintf("✓ page %d (%d records)", item.Page, item.Records)))
		}
	}

	if len(failed) > 0 {
		items = append(items, "", errorStyle.Render(fmt.Sprintf("✗ %d failed", len(failed))))
		for _, item := range failed {
			items = append(items, queueItemStyle.Render(fmt.Sprintf("✗ page %d", item.Page)))
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Left, items...)

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderFetchPanel renders the media fetch status
func (m Model) renderFetchPanel(width int) string {
	title := titleStyle.Render(" MEDIA FETCHES ")

	active := m.GetActiveFetches()
	completed, failed, bytes := m.GetFetchStats()

	var items []string

	if len(active) == 0 {
		items = append(items, lipgloss.NewStyle().Foreground(dimWhite).Render("No active fetches"))
	} else {
		for _, fetch := range active {
			name := fetch.Filename
			maxLen := width - 10
			if maxLen > 3 && len(name) > maxLen {
				name = name[:maxLen-3] + "..."
			}
			items = append(items, queueItemActiveStyle.Render(m.spinner.View()+" "+name))
		}
	}

	items = append(items, "",
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Fetched:"),
			successStyle.Render(fmt.Sprintf("%d (%s)", completed, FormatBytes(bytes)))))
	if failed > 0 {
		items = append(items, fmt.Sprintf("%s %s", statsLabelStyle.Render("Failed:"),
			errorStyle.Render(fmt.Sprintf("%d", failed))))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, items...)

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderLogsPanel renders the logs panel
func (m Model) renderLogsPanel(width int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	title := titleStyle.Render(" SYSTEM LOGS ")

	// Get recent logs
	start := len(m.logMessages) - 10
	if start < 0 {
		start = 0
	}

	var logs []string
	for i := start; i < len(m.logMessages); i++ {
		log := m.logMessages[i]
		timestamp := logTimestampStyle.Render(log.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(log.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level))
		message := logMessageStyle.Render(log.Message)

		// Truncate message if too long
		maxMsgLen := width - 25
		if maxMsgLen > 3 && len(message) > maxMsgLen {
			message = message[:maxMsgLen-3] + "..."
		}

		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, message))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = lipgloss.NewStyle().Foreground(dimWhite).Render("No logs yet...")
	}

	// Calculate height for logs panel to fill remaining space
	logsHeight := m.height - 35 // Approximate calculation
	if logsHeight < 5 {
		logsHeight = 5
	}

	return panelStyle.Width(width).Height(logsHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderHelp renders the help panel
func (m Model) renderHelp() string {
	help := `
  Navigation:
    q/Q      - Quit the application
    p/P      - Pause/Resume the crawl
    c/C      - Confirm a solved verification challenge
    ?        - Toggle this help

  Status Indicators:
    ` + successStyle.Render("Green") + `    - Active/Healthy
    ` + warningStyle.Render("Orange") + `   - Warning/Pending
    ` + errorStyle.Render("Red") + `      - Error/Critical

  Icons:
    ✓        - Completed task
    ✗        - Failed task
    ⏸        - Paused
    ⚠        - Verification wall
`

	return panelStyle.Width(m.width).Render(help)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
