package service

import (
	"fmt"
	"os"

	"github.com/voyagen/guidevault/internal/fetcher"
	"github.com/voyagen/guidevault/internal/models"
)

// parsePlaylistFile streams the cached playlist from disk.
func parsePlaylistFile(path string) ([]models.ChannelEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("playlist: open %s: %w", path, err)
	}
	defer f.Close()
	entries, err := fetcher.ParsePlaylist(f)
	if err != nil {
		return nil, fmt.Errorf("playlist: parse %s: %w", path, err)
	}
	return entries, nil
}
