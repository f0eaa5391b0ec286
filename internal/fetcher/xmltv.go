package fetcher

import (
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/voyagen/guidevault/internal/metrics"
	"github.com/voyagen/guidevault/internal/models"
)

// XMLTV timestamp layouts. Most feeds carry a zone offset; a few omit it, in
// which case UTC is assumed.
const (
	xmltvTimeLayout     = "20060102150405 -0700"
	xmltvTimeLayoutBare = "20060102150405"
)

var (
	reOnscreen = regexp.MustCompile(`(?i)^S(\d+)\s*E(\d+)`)
	reNumeric  = regexp.MustCompile(`^\d+$`)
)

// xmltvChannel mirrors a <channel> element.
type xmltvChannel struct {
	ID           string    `xml:"id,attr"`
	DisplayNames []string  `xml:"display-name"`
	Icon         xmltvIcon `xml:"icon"`
}

// xmltvProgramme mirrors a <programme> element. Optional children decode to
// zero values; absent text becomes the empty string.
type xmltvProgramme struct {
	Start           string            `xml:"start,attr"`
	Stop            string            `xml:"stop,attr"`
	Channel         string            `xml:"channel,attr"`
	Title           string            `xml:"title"`
	SubTitle        string            `xml:"sub-title"`
	Desc            string            `xml:"desc"`
	Categories      []string          `xml:"category"`
	Date            string            `xml:"date"`
	Icon            xmltvIcon         `xml:"icon"`
	Image           string            `xml:"image"`
	EpisodeNums     []xmltvEpisodeNum `xml:"episode-num"`
	PreviouslyShown *struct{}         `xml:"previously-shown"`
}

type xmltvIcon struct {
	Src string `xml:"src,attr"`
}

type xmltvEpisodeNum struct {
	System string `xml:"system,attr"`
	Value  string `xml:",chardata"`
}

// ParseXMLTVFull parses the XMLTV document at path into channel and programme
// entries. streamTemplate, when non-empty, derives each channel's stream URL
// by substituting the channel number into its {channel} placeholder.
//
// This is a partial-success parser: a decode failure on one element drops
// that element, logs it, and continues with the rest. Only a structurally
// broken document fails the parse as a whole.
func (f *Fetcher) ParseXMLTVFull(path, streamTemplate string) (*models.XMLTVDocument, error) {
	return f.parseXMLTV(path, true, streamTemplate)
}

// ParseXMLTV is the programmes-only variant for refresh cycles that do not
// re-derive channels.
func (f *Fetcher) ParseXMLTV(path string) ([]models.ProgrammeEntry, error) {
	doc, err := f.parseXMLTV(path, false, "")
	if err != nil {
		return nil, err
	}
	return doc.Programmes, nil
}

func (f *Fetcher) parseXMLTV(path string, withChannels bool, streamTemplate string) (*models.XMLTVDocument, error) {
	logger := f.logger()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("xmltv: open %s: %w", path, err)
	}
	defer file.Close()

	doc := &models.XMLTVDocument{}
	now := time.Now()

	dec := xml.NewDecoder(file)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xmltv: decode %s: %w", path, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "channel":
			if !withChannels {
				if err := dec.Skip(); err != nil {
					return nil, fmt.Errorf("xmltv: decode %s: %w", path, err)
				}
				continue
			}
			var raw xmltvChannel
			if err := dec.DecodeElement(&raw, &start); err != nil {
				metrics.ParseErrors.WithLabelValues("xmltv_channel").Inc()
				logger.Printf("xmltv: skipping channel: %v", err)
				continue
			}
			entry, err := channelFromXMLTV(raw, streamTemplate, now)
			if err != nil {
				metrics.ParseErrors.WithLabelValues("xmltv_channel").Inc()
				logger.Printf("xmltv: skipping channel %q: %v", raw.ID, err)
				continue
			}
			doc.Channels = append(doc.Channels, entry)
		case "programme":
			var raw xmltvProgramme
			if err := dec.DecodeElement(&raw, &start); err != nil {
				metrics.ParseErrors.WithLabelValues("xmltv_programme").Inc()
				logger.Printf("xmltv: skipping programme: %v", err)
				continue
			}
			entry, err := programmeFromXMLTV(raw, now)
			if err != nil {
				metrics.ParseErrors.WithLabelValues("xmltv_programme").Inc()
				logger.Printf("xmltv: skipping programme %q (channel %q): %v", raw.Title, raw.Channel, err)
				continue
			}
			if entry.Start.Equal(entry.Stop) {
				logger.Printf("xmltv: programme %q (channel %q) has start == stop", entry.Title, entry.Channel)
			}
			doc.Programmes = append(doc.Programmes, entry)
		}
	}

	logProgrammeStats(logger, doc.Programmes)
	return doc, nil
}

// channelFromXMLTV builds a ChannelEntry from a decoded <channel> element.
// The first display-name is the canonical name; the first purely numeric
// display-name is the channel number used for XuiID and the stream URL.
func channelFromXMLTV(raw xmltvChannel, streamTemplate string, now time.Time) (models.ChannelEntry, error) {
	entry := models.ChannelEntry{
		TvgID:     strings.TrimSpace(raw.ID),
		TvgLogo:   strings.TrimSpace(raw.Icon.Src),
		CreatedAt: now,
	}
	if len(raw.DisplayNames) > 0 {
		entry.TvgName = strings.TrimSpace(raw.DisplayNames[0])
	}
	for _, name := range raw.DisplayNames {
		name = strings.TrimSpace(name)
		if !reNumeric.MatchString(name) {
			continue
		}
		n, err := strconv.Atoi(name)
		if err != nil {
			continue
		}
		entry.XuiID = n
		if streamTemplate != "" {
			entry.URL = strings.ReplaceAll(streamTemplate, "{channel}", name)
		}
		break
	}
	if entry.TvgID == "" && entry.TvgName == "" {
		return entry, fmt.Errorf("channel has neither id nor display-name")
	}
	return entry, nil
}

// programmeFromXMLTV builds a ProgrammeEntry from a decoded <programme>
// element. start and stop are mandatory; everything else defaults.
func programmeFromXMLTV(raw xmltvProgramme, now time.Time) (models.ProgrammeEntry, error) {
	entry := models.ProgrammeEntry{
		Channel:         strings.TrimSpace(raw.Channel),
		Title:           strings.TrimSpace(raw.Title),
		Description:     strings.TrimSpace(raw.Desc),
		Category:        strings.TrimSpace(firstCategory(raw.Categories)),
		Subtitle:        strings.TrimSpace(raw.SubTitle),
		Icon:            strings.TrimSpace(raw.Icon.Src),
		Image:           strings.TrimSpace(raw.Image),
		Date:            strings.TrimSpace(raw.Date),
		PreviouslyShown: raw.PreviouslyShown != nil,
		CreatedAt:       now,
	}

	start, err := parseXMLTVTime(raw.Start)
	if err != nil {
		return entry, fmt.Errorf("start attribute: %w", err)
	}
	stop, err := parseXMLTVTime(raw.Stop)
	if err != nil {
		return entry, fmt.Errorf("stop attribute: %w", err)
	}
	entry.Start, entry.StartEpoch = start, start.Unix()
	entry.Stop, entry.StopEpoch = stop, stop.Unix()

	applyEpisodeNums(&entry, raw.EpisodeNums)
	return entry, nil
}

// firstCategory picks the first <category> when a programme carries several.
func firstCategory(cats []string) string {
	if len(cats) == 0 {
		return ""
	}
	return cats[0]
}

func parseXMLTVTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("missing value")
	}
	if t, err := time.Parse(xmltvTimeLayout, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(xmltvTimeLayoutBare, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q", s)
	}
	return t, nil
}

// applyEpisodeNums decodes the two recognised episode-num encodings, which
// may co-occur on one element. onscreen ("S2E27") wins; xmltv_ns
// ("1.26.0/1", zero-indexed) only applies when onscreen set no season.
func applyEpisodeNums(entry *models.ProgrammeEntry, nums []xmltvEpisodeNum) {
	for _, en := range nums {
		value := strings.TrimSpace(en.Value)
		switch strings.ToLower(strings.TrimSpace(en.System)) {
		case "onscreen":
			m := reOnscreen.FindStringSubmatch(value)
			if m == nil {
				continue
			}
			season, _ := strconv.Atoi(m[1])
			episode, _ := strconv.Atoi(m[2])
			entry.EpisodeNum = value
			entry.Season = &season
			entry.Episode = &episode
		case "xmltv_ns":
			if entry.Season != nil {
				continue
			}
			parts := strings.Split(value, ".")
			if len(parts) < 2 {
				continue
			}
			if s, err := strconv.Atoi(strings.TrimSpace(parts[0])); err == nil {
				season := s + 1
				entry.Season = &season
			}
			if e, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
				episode := e + 1
				entry.Episode = &episode
			}
			if entry.EpisodeNum == "" {
				entry.EpisodeNum = value
			}
		}
	}
}

// logProgrammeStats logs distinct channel count and the start-time span of
// the parsed programme set. Observability only; never gates the parse.
func logProgrammeStats(logger *log.Logger, programmes []models.ProgrammeEntry) {
	if len(programmes) == 0 {
		logger.Printf("xmltv: parsed 0 programmes")
		return
	}
	channels := make(map[string]struct{}, 64)
	minStart, maxStart := programmes[0].Start, programmes[0].Start
	for _, p := range programmes {
		channels[p.Channel] = struct{}{}
		if p.Start.Before(minStart) {
			minStart = p.Start
		}
		if p.Start.After(maxStart) {
			maxStart = p.Start
		}
	}
	logger.Printf("xmltv: parsed %d programmes across %d channels (starts %s .. %s)",
		len(programmes), len(channels),
		minStart.Format(time.RFC3339), maxStart.Format(time.RFC3339))
}
