// Package storage provides media file management for the crawler.
//
// The storage package handles:
//   - Creating and managing the media directory
//   - Reserving collision-free file names before a download starts
//   - Saving media with atomic write operations
//   - Thread-safe name bookkeeping
//
// The Manager type is the primary interface for storage operations. File
// names derive from listing text, so different items can collide on the
// same key. Reserve resolves a collision by probing numeric suffixes
// (key.ext, key_0.ext, key_1.ext, ...) and pins the chosen name with an
// empty placeholder file. A reserved name is never re-issued and an
// existing file is never overwritten.
//
// Features:
//   - Placeholder files created with O_EXCL before any network work
//   - Atomic file writes using temporary files and rename
//   - Automatic scanning of existing files on initialization
//   - In-memory name index shared across concurrent downloads
//
// Usage:
//
//	manager, err := storage.NewManager("media_directory")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	path, err := manager.Reserve("ShopName ItemName", "jpg")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := manager.Save(path, body); err != nil {
//	    manager.Discard(path)
//	}
package storage
