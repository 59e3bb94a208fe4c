package tui_test

import (
	"fmt"
	"time"

	"jdscraper/pkg/ui/tui"
)

func ExampleTUI() {
	// Create a new TUI with max 5 concurrent fetches. The callback runs
	// when the user confirms a solved verification challenge.
	terminal := tui.NewTUI(5, func() {
		fmt.Println("challenge acknowledged")
	})

	// Start the TUI in a goroutine
	go func() {
		if err := terminal.Start(); err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
	}()

	// Simulate page tasks
	for page := 0; page < 6; page++ {
		terminal.StartPage(page)

		go func(p int) {
			time.Sleep(300 * time.Millisecond)
			if p == 3 {
				terminal.FailPage(p, fmt.Errorf("simulated login wall"))
				return
			}
			// Fetch the images the page yielded
			for i := 0; i < 3; i++ {
				id := fmt.Sprintf("page%d_img%d", p, i)
				terminal.StartFetch(id, "shop item", fmt.Sprintf("item%d.jpg", i), 512*1024)
				time.Sleep(100 * time.Millisecond)
				terminal.CompleteFetch(id)
			}
			terminal.CompletePage(p, 30, 3)
		}(page)

		time.Sleep(200 * time.Millisecond) // Stagger starts
	}

	// Simulate a verification wall
	terminal.ChallengeDetected(4, "https://cfe.m.jd.com/pc/index")
	time.Sleep(time.Second)
	terminal.ChallengeCleared(4)

	// Add some logs
	terminal.LogInfo("Starting crawl session")
	terminal.LogWarning("Pacing between scroll rounds")
	terminal.LogError("Page task failed")
	terminal.LogSuccess("Listings saved")

	// Keep running for demo
	time.Sleep(5 * time.Second)
	terminal.Stop()
}
