package fetcher

import (
	"bufio"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/voyagen/guidevault/internal/models"
)

var (
	reTvgID   = regexp.MustCompile(`tvg-id="([^"]*)"`)
	reTvgName = regexp.MustCompile(`tvg-name="([^"]*)"`)
	reTvgLogo = regexp.MustCompile(`tvg-logo="([^"]*)"`)
	reGroup   = regexp.MustCompile(`group-title="([^"]*)"`)
	reCountry = regexp.MustCompile(`tvg-country="([^"]*)"`)
)

// FromPlaylistLine parses one #EXTINF attribute line into a partial
// ChannelEntry. URL and CreatedAt are left unset; the caller assigns them
// when the entry's URL line arrives. Attribute extraction is best-effort:
// absent or unparseable attributes default to the empty string.
func FromPlaylistLine(extinf string) models.ChannelEntry {
	return models.ChannelEntry{
		TvgID:      matchFirst(reTvgID, extinf),
		TvgName:    matchFirst(reTvgName, extinf),
		TvgLogo:    matchFirst(reTvgLogo, extinf),
		GroupTitle: matchFirst(reGroup, extinf),
		Country:    matchFirst(reCountry, extinf),
	}
}

// ParsePlaylist reads an M3U playlist from r. Each entry is two physical
// lines: an #EXTINF attribute line followed by a non-comment URL line. An
// #EXTINF with no URL line before the next #EXTINF (or end of input) emits
// nothing; only the latest pending attribute line is kept.
func ParsePlaylist(r io.Reader) ([]models.ChannelEntry, error) {
	scanner := bufio.NewScanner(r)
	// Some playlists carry very long EXTINF lines.
	const maxSize = 1024 * 1024
	scanner.Buffer(make([]byte, 0, 64*1024), maxSize)

	var entries []models.ChannelEntry
	var pending *models.ChannelEntry

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "#EXTINF:"):
			ch := FromPlaylistLine(line)
			pending = &ch
		case line == "" || strings.HasPrefix(line, "#"):
			// Blank lines and other directives do not consume the pending entry.
		default:
			if pending == nil {
				continue
			}
			pending.URL = line
			pending.CreatedAt = time.Now()
			entries = append(entries, *pending)
			pending = nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func matchFirst(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}
