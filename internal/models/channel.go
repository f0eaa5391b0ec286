package models

import (
	"fmt"
	"time"
)

// ChannelEntry is one channel in the unified record set. XMLTV supplies the
// metadata fields, the playlist supplies the stream URL; reconciliation merges
// the two by TvgID.
type ChannelEntry struct {
	XuiID      int       `json:"xui_id"`
	TvgID      string    `json:"tvg_id"`
	TvgName    string    `json:"tvg_name"`
	TvgLogo    string    `json:"tvg_logo"`
	GroupTitle string    `json:"group_title"`
	URL        string    `json:"url"`
	Country    string    `json:"country"`
	CreatedAt  time.Time `json:"created_at"`
}

// Key returns the reconciliation key for the entry: tvg-id when present,
// else tvg-name, else a synthetic per-batch ordinal key.
func (c ChannelEntry) Key(ordinal int) string {
	if c.TvgID != "" {
		return c.TvgID
	}
	if c.TvgName != "" {
		return c.TvgName
	}
	return fmt.Sprintf("channel-%d", ordinal)
}
