package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jdscraper/pkg/listing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	mediaPath := filepath.Join(dir, "shop item.png")
	require.NoError(t, os.WriteFile(mediaPath, []byte("png"), 0o644))

	rec := listing.Record{
		Name:     "Arknights Figure",
		Price:    "299.00",
		Shop:     "Model Shop",
		Comment:  "2000+",
		URL:      "https://item.example.com/100.html",
		ImageURL: "https://img.example.com/100.jpg",
	}

	meta := FromRecord(rec, "shop item", 1024)
	meta.Keyword = "figure"
	meta.Page = 3
	require.NoError(t, meta.Save(mediaPath))

	assert.True(t, MetadataExists(mediaPath))

	loaded, err := Load(mediaPath)
	require.NoError(t, err)
	assert.Equal(t, "Arknights Figure", loaded.ListingName)
	assert.Equal(t, "299.00", loaded.Price)
	assert.Equal(t, int64(1024), loaded.FileSize)
	assert.Equal(t, 3, loaded.Page)
	assert.False(t, loaded.DownloadedAt.IsZero())
}

func TestRenameFollowsMedia(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "item.jpg")
	newPath := filepath.Join(dir, "item.png")
	require.NoError(t, os.WriteFile(oldPath+".json", []byte("{}"), 0o644))

	require.NoError(t, Rename(oldPath, newPath))

	assert.False(t, MetadataExists(oldPath))
	assert.True(t, MetadataExists(newPath))

	// Renaming when no sidecar exists is a no-op.
	assert.NoError(t, Rename(filepath.Join(dir, "missing.jpg"), newPath))
}

func TestCleanOrphanedMetadata(t *testing.T) {
	dir := t.TempDir()
	kept := filepath.Join(dir, "kept.png")
	require.NoError(t, os.WriteFile(kept, []byte("png"), 0o644))
	require.NoError(t, os.WriteFile(kept+".json", []byte("{}"), 0o644))
	orphan := filepath.Join(dir, "gone.png.json")
	require.NoError(t, os.WriteFile(orphan, []byte("{}"), 0o644))

	require.NoError(t, CleanOrphanedMetadata(dir))

	assert.True(t, MetadataExists(kept))
	_, err := os.Stat(orphan)
	assert.True(t, os.IsNotExist(err))
}
