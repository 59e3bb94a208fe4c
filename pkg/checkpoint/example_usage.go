package checkpoint

import (
	"fmt"
	"log"
)

func ExampleManager() {
	// Create checkpoint manager for a search keyword
	mgr, err := NewManager("mechanical keyboard")
	if err != nil {
		log.Fatal(err)
	}

	// Check if checkpoint exists
	if mgr.Exists() {
		// Load existing checkpoint
		cp, err := mgr.Load()
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Resuming from checkpoint: %d pages done\n", len(cp.CompletedPages))
	} else {
		// Create new checkpoint
		cp, err := mgr.Create("mechanical keyboard")
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println("Starting fresh crawl")

		// Record pages as they complete
		err = mgr.RecordPage(cp, 0, 30, 28)
		if err != nil {
			log.Fatal(err)
		}
	}

	// When the crawl completes successfully, delete the checkpoint
	err = mgr.Delete()
	if err != nil {
		log.Printf("Failed to delete checkpoint: %v", err)
	}
}

func ExampleCheckpoint_IsPageCompleted() {
	mgr, _ := NewManager("desk lamp")
	cp, _ := mgr.Create("desk lamp")

	// Record some completed pages
	mgr.RecordPage(cp, 0, 30, 30)
	mgr.RecordPage(cp, 1, 28, 27)

	// Check pages before scheduling them
	if cp.IsPageCompleted(0) {
		fmt.Println("page 0 already crawled, skipping")
	}

	if !cp.IsPageCompleted(2) {
		fmt.Println("page 2 not crawled yet, will fetch")
	}

	// Output:
	// page 0 already crawled, skipping
	// page 2 not crawled yet, will fetch
}
