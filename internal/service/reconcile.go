// Package service sequences the refresh pipeline: fetch, parse, reconcile,
// persist.
package service

import "github.com/voyagen/guidevault/internal/models"

// Reconcile merges playlist-derived channel records into the existing channel
// set, keyed by tvg-id.
//
// A playlist entry that matches an existing tvg-id overwrites that record's
// URL unconditionally; group title and country are overwritten only when the
// playlist value is non-empty, so XMLTV-sourced metadata survives a playlist
// that omits the field. Unmatched playlist entries are inserted under their
// own key (tvg-id, else tvg-name, else a per-batch ordinal). Existing entries
// without a tvg-id cannot be matched but are retained in the result, as are
// existing entries the current playlist never references. The result holds at
// most one entry per tvg-id; when the existing set repeats one, the last
// occurrence wins. Output order is not significant.
func Reconcile(existing, playlist []models.ChannelEntry) []models.ChannelEntry {
	byID := make(map[string]*models.ChannelEntry, len(existing))
	// unkeyed holds existing entries with no tvg-id; they pass through untouched.
	var unkeyed []models.ChannelEntry

	retained := make([]*models.ChannelEntry, 0, len(existing))
	for i := range existing {
		c := existing[i]
		if c.TvgID == "" {
			unkeyed = append(unkeyed, c)
			continue
		}
		if cur, ok := byID[c.TvgID]; ok {
			// A repeated tvg-id collapses to its last occurrence.
			*cur = c
			continue
		}
		entry := c
		byID[entry.TvgID] = &entry
		retained = append(retained, &entry)
	}

	var added []models.ChannelEntry
	addedKeys := make(map[string]int)
	for i := range playlist {
		p := playlist[i]
		if p.TvgID != "" {
			if cur, ok := byID[p.TvgID]; ok {
				cur.URL = p.URL
				if p.GroupTitle != "" {
					cur.GroupTitle = p.GroupTitle
				}
				if p.Country != "" {
					cur.Country = p.Country
				}
				continue
			}
		}
		key := p.Key(i)
		if j, ok := addedKeys[key]; ok {
			added[j] = p
			continue
		}
		addedKeys[key] = len(added)
		added = append(added, p)
	}

	out := make([]models.ChannelEntry, 0, len(retained)+len(unkeyed)+len(added))
	for _, c := range retained {
		out = append(out, *c)
	}
	out = append(out, unkeyed...)
	out = append(out, added...)
	return out
}
