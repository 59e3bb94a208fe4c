package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Manager owns the media directory: it derives collision-free file
// names and writes downloaded content atomically.
//
// Names are reserved before any network work starts. A reservation
// creates an empty placeholder on disk and records the name in memory,
// so two concurrent downloads whose keys collide can never resolve to
// the same path.
type Manager struct {
	mediaDir string
	taken    map[string]bool
	mu       sync.Mutex
}

// NewManager creates a media storage manager rooted at mediaDir,
// creating the directory if needed and indexing any existing files.
func NewManager(mediaDir string) (*Manager, error) {
	if err := os.MkdirAll(mediaDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}

	m := &Manager{
		mediaDir: mediaDir,
		taken:    make(map[string]bool),
	}

	if err := m.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan media directory: %w", err)
	}

	return m, nil
}

// scanExistingFiles indexes names already on disk so reservations
// never collide with files from earlier runs.
func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.mediaDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			m.taken[entry.Name()] = true
		}
	}

	return nil
}

// Reserve claims a unique file name derived from key and ext and
// returns its full path. If the plain name is taken, numeric suffixes
// are probed in order until a free one is found. The returned path
// holds an empty placeholder file until Save fills it or Discard
// releases it.
func (m *Manager) Reserve(key, ext string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := fileName(key, -1, ext)
	for i := 0; m.taken[name]; i++ {
		name = fileName(key, i, ext)
	}

	path := filepath.Join(m.mediaDir, name)
	placeholder, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to reserve %s: %w", name, err)
	}
	if err := placeholder.Close(); err != nil {
		return "", fmt.Errorf("failed to close placeholder: %w", err)
	}

	m.taken[name] = true
	return path, nil
}

// Save writes content to a previously reserved path, replacing the
// placeholder atomically.
func (m *Manager) Save(path string, r io.Reader) error {
	tempFile := path + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to save media data: %w", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to replace placeholder: %w", err)
	}

	return nil
}

// Discard removes the placeholder of a reservation whose download
// failed. The name stays indexed so it is not re-issued this run.
func (m *Manager) Discard(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove placeholder: %w", err)
	}
	return nil
}

// Forget drops a name from the in-memory index. Used when a saved
// file is later replaced by its normalized form under a new name.
func (m *Manager) Forget(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.taken, filepath.Base(path))
}

// Record indexes a name created outside Reserve, such as the output
// of a format conversion, so later reservations cannot collide with it.
func (m *Manager) Record(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.taken[filepath.Base(path)] = true
}

// MediaDir returns the managed directory path.
func (m *Manager) MediaDir() string {
	return m.mediaDir
}

// Count returns the number of names currently indexed.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.taken)
}

// fileName composes "key.ext", or "key_N.ext" when probing suffix N.
func fileName(key string, suffix int, ext string) string {
	name := key
	if suffix >= 0 {
		name = fmt.Sprintf("%s_%d", key, suffix)
	}
	if ext != "" {
		name += "." + ext
	}
	return name
}
