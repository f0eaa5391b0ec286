package models

import "time"

// ProgrammeEntry is one scheduled programme from the XMLTV feed. Channel is a
// foreign key to ChannelEntry.TvgID. Start/Stop carry both the parsed time and
// its truncated epoch seconds so downstream consumers can pick either form.
type ProgrammeEntry struct {
	Start           time.Time `json:"start"`
	Stop            time.Time `json:"stop"`
	StartEpoch      int64     `json:"start_epoch"`
	StopEpoch       int64     `json:"stop_epoch"`
	Channel         string    `json:"channel"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	Subtitle        string    `json:"subtitle"`
	EpisodeNum      string    `json:"episode_num"`
	Season          *int      `json:"season,omitempty"`
	Episode         *int      `json:"episode,omitempty"`
	Icon            string    `json:"icon"`
	Image           string    `json:"image"`
	Date            string    `json:"date"`
	PreviouslyShown bool      `json:"previously_shown"`
	CreatedAt       time.Time `json:"created_at"`
}

// XMLTVDocument is the transient result of a full XMLTV parse. It is consumed
// once by the refresh cycle and never persisted as a unit.
type XMLTVDocument struct {
	Channels   []ChannelEntry
	Programmes []ProgrammeEntry
}
