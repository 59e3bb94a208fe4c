// Package ui provides terminal UI components for the storefront crawler
// This file demonstrates example usage of the UI components
package ui

/*
Example usage of the UI components:

// Terminal colors and output
ui.PrintLogo()                                   // Print ASCII logo
ui.PrintInfo("Keyword", "mechanical keyboard")   // Cyan info message
ui.PrintSuccess("Crawl completed!")              // Green success message
ui.PrintError("Failed to fetch page: %v", err)   // Red error message
ui.PrintWarning("Verification wall detected")    // Yellow warning message
ui.PrintHighlight("[PROCESSING]")                // Magenta highlight message

// Progress tracking
tracker := ui.NewStatusTracker(150)
tracker.PageCompleted(30, 28)                    // Record a finished page
tracker.PrintProgress()                          // Print progress bar

// Notifications (cross-platform)
notifier := ui.NewNotifier()
notifier.SendNotification("Crawl Complete", "All pages harvested successfully")
notifier.SendError("Error", "Page task failed")
notifier.SendSuccess("Success", "Listings saved")

// Direct color usage
fmt.Printf("%s: %s\n", ui.Cyan("Keyword"), ui.Yellow("desk lamp"))
fmt.Println(ui.Green("✓ Success"))
fmt.Println(ui.Red("✗ Failed"))
*/
