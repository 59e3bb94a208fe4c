package checkpoint

import (
	"os"
	"testing"
)

func TestCheckpointManager(t *testing.T) {
	// Create a temporary directory for testing
	tempDir, err := os.MkdirTemp("", "checkpoint_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	// Set environment variable to use temp directory
	os.Setenv("XDG_DATA_HOME", tempDir)
	defer os.Unsetenv("XDG_DATA_HOME")

	keyword := "test keyword"

	t.Run("CreateAndLoad", func(t *testing.T) {
		mgr, err := NewManager(keyword)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		// Create checkpoint
		cp, err := mgr.Create(keyword)
		if err != nil {
			t.Fatalf("Failed to create checkpoint: %v", err)
		}

		if cp.Keyword != keyword {
			t.Errorf("Expected keyword %s, got %s", keyword, cp.Keyword)
		}

		// Load checkpoint
		loaded, err := mgr.Load()
		if err != nil {
			t.Fatalf("Failed to load checkpoint: %v", err)
		}
		if loaded == nil {
			t.Fatal("Expected checkpoint, got nil")
		}
		if loaded.Keyword != keyword {
			t.Errorf("Expected loaded keyword %s, got %s", keyword, loaded.Keyword)
		}
	})

	t.Run("RecordPage", func(t *testing.T) {
		mgr, err := NewManager(keyword)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		cp, err := mgr.Create(keyword)
		if err != nil {
			t.Fatalf("Failed to create checkpoint: %v", err)
		}

		// Record completed pages
		if err := mgr.RecordPage(cp, 0, 30, 28); err != nil {
			t.Fatalf("Failed to record page: %v", err)
		}
		if err := mgr.RecordPage(cp, 3, 25, 25); err != nil {
			t.Fatalf("Failed to record page: %v", err)
		}

		// Verify completion checks
		if !cp.IsPageCompleted(0) {
			t.Error("Expected page 0 to be completed")
		}
		if !cp.IsPageCompleted(3) {
			t.Error("Expected page 3 to be completed")
		}
		if cp.IsPageCompleted(1) {
			t.Error("Expected page 1 to not be completed")
		}
		if cp.TotalRecords != 55 {
			t.Errorf("Expected 55 records, got %d", cp.TotalRecords)
		}
		if cp.TotalMedia != 53 {
			t.Errorf("Expected 53 media files, got %d", cp.TotalMedia)
		}

		// Verify the counts survive a reload
		loaded, err := mgr.Load()
		if err != nil {
			t.Fatalf("Failed to load checkpoint: %v", err)
		}
		if loaded.CompletedPages[0] != 30 {
			t.Errorf("Expected page 0 to hold 30 records, got %d", loaded.CompletedPages[0])
		}
		if loaded.TotalRecords != 55 {
			t.Errorf("Expected 55 records after reload, got %d", loaded.TotalRecords)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		mgr, err := NewManager(keyword)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		_, err = mgr.Create(keyword)
		if err != nil {
			t.Fatalf("Failed to create checkpoint: %v", err)
		}

		// Verify exists
		if !mgr.Exists() {
			t.Error("Expected checkpoint to exist")
		}

		// Delete
		err = mgr.Delete()
		if err != nil {
			t.Fatalf("Failed to delete checkpoint: %v", err)
		}

		// Verify deleted
		if mgr.Exists() {
			t.Error("Expected checkpoint to not exist after deletion")
		}
	})

	t.Run("ConcurrentRecordPage", func(t *testing.T) {
		mgr, err := NewManager(keyword)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		cp, err := mgr.Create(keyword)
		if err != nil {
			t.Fatalf("Failed to create checkpoint: %v", err)
		}

		// Simulate concurrent page tasks finishing at once
		done := make(chan bool, 10)
		for i := 0; i < 10; i++ {
			go func(page int) {
				mgr.RecordPage(cp, page, 10, 9)
				done <- true
			}(i)
		}

		for i := 0; i < 10; i++ {
			<-done
		}

		// Verify checkpoint is still valid
		loaded, err := mgr.Load()
		if err != nil {
			t.Fatalf("Failed to load checkpoint after concurrent saves: %v", err)
		}
		if loaded == nil {
			t.Fatal("Checkpoint corrupted after concurrent saves")
		}
		if len(loaded.CompletedPages) != 10 {
			t.Errorf("Expected 10 completed pages, got %d", len(loaded.CompletedPages))
		}
		if loaded.TotalRecords != 100 {
			t.Errorf("Expected 100 records, got %d", loaded.TotalRecords)
		}
	})

	t.Run("BackupCheckpoint", func(t *testing.T) {
		mgr, err := NewManager(keyword)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		cp, err := mgr.Create(keyword)
		if err != nil {
			t.Fatalf("Failed to create checkpoint: %v", err)
		}

		// Add some data
		cp.TotalRecords = 42
		mgr.Save(cp)

		// Create backup
		err = mgr.BackupCheckpoint()
		if err != nil {
			t.Fatalf("Failed to backup checkpoint: %v", err)
		}

		// Verify backup exists
		backupPath := mgr.checkpointPath + ".backup"
		if _, err := os.Stat(backupPath); os.IsNotExist(err) {
			t.Error("Backup file not created")
		}
	})
}

func TestGetDataDirectory(t *testing.T) {
	// Test actual implementation
	dir, err := getDataDirectory()
	if err != nil {
		t.Fatalf("Failed to get data directory: %v", err)
	}

	// Verify it's a valid path
	if dir == "" {
		t.Error("Data directory is empty")
	}

	// Verify it can be created
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		t.Errorf("Cannot create data directory: %v", err)
	}
}
