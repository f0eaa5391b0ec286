package fetcher

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

const testXMLTV = `<?xml version="1.0" encoding="UTF-8"?>
<tv source-info-name="test">
  <channel id="one.example">
    <display-name>Channel One</display-name>
    <display-name>101</display-name>
    <icon src="http://logo/one.png"/>
  </channel>
  <channel id="two.example">
    <display-name>Channel Two</display-name>
  </channel>
  <programme start="20260101180000 +0000" stop="20260101190000 +0000" channel="one.example">
    <title lang="en">Evening News</title>
    <sub-title>Late edition</sub-title>
    <desc>Headlines of the day</desc>
    <category>News</category>
    <date>2026</date>
    <icon src="http://img/news.png"/>
    <episode-num system="xmltv_ns">1.26.0/1</episode-num>
    <episode-num system="onscreen">S2E27</episode-num>
    <previously-shown/>
  </programme>
  <programme start="20260101190000 +0000" stop="20260101200000 +0000" channel="two.example">
    <title>Documentary</title>
    <episode-num system="xmltv_ns">1.26.0/1</episode-num>
  </programme>
  <programme stop="20260101210000 +0000" channel="two.example">
    <title>Broken</title>
  </programme>
</tv>
`

func writeTestXMLTV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "xmltv.xml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func quietFetcher() *Fetcher {
	return &Fetcher{Logger: log.New(io.Discard, "", 0)}
}

func TestParseXMLTVFull_channels(t *testing.T) {
	path := writeTestXMLTV(t, testXMLTV)
	doc, err := quietFetcher().ParseXMLTVFull(path, "http://stream.example/live/{channel}.m3u8")
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Channels) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(doc.Channels))
	}

	one := doc.Channels[0]
	if one.TvgID != "one.example" || one.TvgName != "Channel One" {
		t.Errorf("channel one = %+v", one)
	}
	if one.XuiID != 101 {
		t.Errorf("XuiID = %d, want 101", one.XuiID)
	}
	if one.URL != "http://stream.example/live/101.m3u8" {
		t.Errorf("URL = %q", one.URL)
	}
	if one.TvgLogo != "http://logo/one.png" {
		t.Errorf("TvgLogo = %q", one.TvgLogo)
	}

	// No numeric display-name: no channel number, no derived URL.
	two := doc.Channels[1]
	if two.XuiID != 0 || two.URL != "" {
		t.Errorf("channel two = %+v", two)
	}
}

func TestParseXMLTVFull_noTemplateSkipsURL(t *testing.T) {
	path := writeTestXMLTV(t, testXMLTV)
	doc, err := quietFetcher().ParseXMLTVFull(path, "")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Channels[0].URL != "" {
		t.Errorf("URL = %q, want empty without template", doc.Channels[0].URL)
	}
	if doc.Channels[0].XuiID != 101 {
		t.Errorf("XuiID = %d, channel number should still be derived", doc.Channels[0].XuiID)
	}
}

func TestParseXMLTVFull_programmes(t *testing.T) {
	path := writeTestXMLTV(t, testXMLTV)
	doc, err := quietFetcher().ParseXMLTVFull(path, "")
	if err != nil {
		t.Fatal(err)
	}
	// The programme without a start attribute is dropped; the rest survive.
	if len(doc.Programmes) != 2 {
		t.Fatalf("expected 2 programmes, got %d", len(doc.Programmes))
	}

	p := doc.Programmes[0]
	if p.Channel != "one.example" || p.Title != "Evening News" {
		t.Errorf("programme = %+v", p)
	}
	if p.Subtitle != "Late edition" || p.Description != "Headlines of the day" || p.Category != "News" {
		t.Errorf("text fields = %q %q %q", p.Subtitle, p.Description, p.Category)
	}
	if p.Date != "2026" || p.Icon != "http://img/news.png" {
		t.Errorf("date/icon = %q %q", p.Date, p.Icon)
	}
	if !p.PreviouslyShown {
		t.Error("PreviouslyShown = false")
	}
	wantStart := time.Date(2026, 1, 1, 18, 0, 0, 0, time.UTC)
	if !p.Start.Equal(wantStart) || p.StartEpoch != wantStart.Unix() {
		t.Errorf("start = %v epoch %d", p.Start, p.StartEpoch)
	}
	wantStop := time.Date(2026, 1, 1, 19, 0, 0, 0, time.UTC)
	if !p.Stop.Equal(wantStop) || p.StopEpoch != wantStop.Unix() {
		t.Errorf("stop = %v epoch %d", p.Stop, p.StopEpoch)
	}
}

func TestParseXMLTVFull_episodeOnscreenPrecedence(t *testing.T) {
	path := writeTestXMLTV(t, testXMLTV)
	doc, err := quietFetcher().ParseXMLTVFull(path, "")
	if err != nil {
		t.Fatal(err)
	}

	// Both encodings present: onscreen wins, raw string kept verbatim.
	p := doc.Programmes[0]
	if p.EpisodeNum != "S2E27" {
		t.Errorf("EpisodeNum = %q, want S2E27", p.EpisodeNum)
	}
	if p.Season == nil || *p.Season != 2 || p.Episode == nil || *p.Episode != 27 {
		t.Errorf("season/episode = %v/%v", p.Season, p.Episode)
	}

	// xmltv_ns only: 0-indexed parts converted to 1-indexed.
	q := doc.Programmes[1]
	if q.Season == nil || *q.Season != 2 || q.Episode == nil || *q.Episode != 27 {
		t.Errorf("xmltv_ns season/episode = %v/%v", q.Season, q.Episode)
	}
	if q.EpisodeNum != "1.26.0/1" {
		t.Errorf("EpisodeNum = %q", q.EpisodeNum)
	}
}

func TestApplyEpisodeNums_nonNumericParts(t *testing.T) {
	p := programme(t, `<programme start="20260101180000 +0000" stop="20260101190000 +0000" channel="c">
  <title>X</title>
  <episode-num system="xmltv_ns">.5.</episode-num>
</programme>`)
	if p.Season != nil {
		t.Errorf("Season = %v, want nil for non-numeric part", *p.Season)
	}
	if p.Episode == nil || *p.Episode != 6 {
		t.Errorf("Episode = %v, want 6", p.Episode)
	}
}

func TestParseXMLTVFull_multipleCategoriesFirstWins(t *testing.T) {
	path := writeTestXMLTV(t, `<?xml version="1.0"?>
<tv>
  <programme start="20260101180000 +0000" stop="20260101190000 +0000" channel="c">
    <title>X</title>
    <category>Documentary</category>
    <category>Nature</category>
  </programme>
</tv>
`)
	doc, err := quietFetcher().ParseXMLTVFull(path, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Programmes) != 1 {
		t.Fatalf("expected 1 programme, got %d", len(doc.Programmes))
	}
	if got := doc.Programmes[0].Category; got != "Documentary" {
		t.Errorf("Category = %q, want first occurrence", got)
	}
}

func TestParseXMLTV_programmesOnly(t *testing.T) {
	path := writeTestXMLTV(t, testXMLTV)
	programmes, err := quietFetcher().ParseXMLTV(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(programmes) != 2 {
		t.Fatalf("expected 2 programmes, got %d", len(programmes))
	}
}

func TestParseXMLTVFull_idempotent(t *testing.T) {
	path := writeTestXMLTV(t, testXMLTV)
	f := quietFetcher()
	a, err := f.ParseXMLTVFull(path, "http://s/{channel}")
	if err != nil {
		t.Fatal(err)
	}
	b, err := f.ParseXMLTVFull(path, "http://s/{channel}")
	if err != nil {
		t.Fatal(err)
	}
	// Equal up to CreatedAt.
	for i := range a.Channels {
		a.Channels[i].CreatedAt = time.Time{}
		b.Channels[i].CreatedAt = time.Time{}
	}
	for i := range a.Programmes {
		a.Programmes[i].CreatedAt = time.Time{}
		b.Programmes[i].CreatedAt = time.Time{}
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("parse not idempotent:\n%+v\n%+v", a, b)
	}
}

func TestParseXMLTVFull_malformedDocument(t *testing.T) {
	path := writeTestXMLTV(t, "<tv><channel id=\"x\">")
	if _, err := quietFetcher().ParseXMLTVFull(path, ""); err == nil {
		t.Error("expected error for truncated document")
	}
}

// programme parses a single-programme document and returns its entry.
func programme(t *testing.T, element string) (p struct {
	Season  *int
	Episode *int
}) {
	t.Helper()
	path := writeTestXMLTV(t, "<?xml version=\"1.0\"?>\n<tv>\n"+element+"\n</tv>\n")
	doc, err := quietFetcher().ParseXMLTVFull(path, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Programmes) != 1 {
		t.Fatalf("expected 1 programme, got %d", len(doc.Programmes))
	}
	p.Season = doc.Programmes[0].Season
	p.Episode = doc.Programmes[0].Episode
	return p
}
