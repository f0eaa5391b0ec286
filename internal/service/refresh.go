package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/voyagen/guidevault/internal/cache"
	"github.com/voyagen/guidevault/internal/config"
	"github.com/voyagen/guidevault/internal/fetcher"
	"github.com/voyagen/guidevault/internal/filecache"
	"github.com/voyagen/guidevault/internal/metrics"
	"github.com/voyagen/guidevault/internal/store"
)

// Logical file cache names for the two feeds.
const (
	CacheKeyXMLTV    = "xmltv.xml"
	CacheKeyPlaylist = "playlist.m3u"
)

// ErrCycleRunning is returned by Run when another refresh cycle holds the lock.
var ErrCycleRunning = errors.New("refresh cycle already running")

// Scheduler arms the periodic forced-refresh job. Satisfied by
// scheduler.Scheduler; an interface so tests can stub it.
type Scheduler interface {
	ScheduleRefresh(spec string, job func()) error
	StopRefresh()
}

// Refresher sequences the two feed fills. One cycle runs at a time: an
// in-process lock always applies, and when Redis is configured a distributed
// lock additionally guards against a second instance. A cycle that finds the
// lock held is skipped, not queued.
type Refresher struct {
	Store     store.Store
	Fetcher   *fetcher.Fetcher
	FileCache *filecache.Cache
	Redis     *cache.Redis // optional
	Scheduler Scheduler    // optional; armed once by Start
	Cfg       *config.Config
	Logger    *log.Logger

	mu sync.Mutex
}

// Start is the startup path: one unforced refresh, then the periodic
// scheduler is armed with forced refreshes. Scheduled runs never re-arm.
func (r *Refresher) Start(ctx context.Context) error {
	if err := r.Run(ctx, false); err != nil && !errors.Is(err, ErrCycleRunning) {
		// Startup ingestion failures are not fatal; the scheduler will retry.
		r.logger().Printf("refresh: startup cycle: %v", err)
	}
	if r.Scheduler == nil {
		return nil
	}
	spec := r.Cfg.RefreshCron
	if spec == "" {
		spec = "@every " + r.Cfg.RefreshInterval.String()
	}
	return r.Scheduler.ScheduleRefresh(spec, func() {
		if err := r.Run(context.Background(), true); err != nil && !errors.Is(err, ErrCycleRunning) {
			r.logger().Printf("refresh: scheduled cycle: %v", err)
		}
	})
}

// Run executes one refresh cycle: the XMLTV fill (staleness-gated unless
// forced), the playlist fill (always attempted when configured), then the
// file cache purge. A failed fill is logged and isolated; the other fill
// still runs.
func (r *Refresher) Run(ctx context.Context, force bool) error {
	if !r.mu.TryLock() {
		r.logger().Printf("refresh: cycle already running, skipping")
		metrics.RefreshCycles.WithLabelValues("skipped").Inc()
		return ErrCycleRunning
	}
	defer r.mu.Unlock()

	if r.Redis != nil {
		unlock, err := cache.TryLock(ctx, r.Redis, cache.RefreshLockKey, 30*time.Minute)
		if err != nil {
			if errors.Is(err, cache.ErrLocked) {
				r.logger().Printf("refresh: cycle running elsewhere, skipping")
				metrics.RefreshCycles.WithLabelValues("skipped").Inc()
				return ErrCycleRunning
			}
			// Redis being down must not stop ingestion; fall back to the local lock.
			r.logger().Printf("refresh: redis lock: %v", err)
		} else {
			defer unlock()
		}
	}

	started := time.Now()
	var failures int

	if err := r.fillXMLTV(ctx, force); err != nil {
		r.logger().Printf("refresh: xmltv fill: %v", err)
		failures++
	}
	if err := r.fillPlaylist(ctx, force); err != nil {
		r.logger().Printf("refresh: playlist fill: %v", err)
		failures++
	}
	if err := r.FileCache.Clear(); err != nil {
		r.logger().Printf("refresh: cache cleanup: %v", err)
	}

	metrics.RefreshDuration.Observe(time.Since(started).Seconds())
	outcome := "ok"
	if failures > 0 {
		outcome = "partial"
	}
	metrics.RefreshCycles.WithLabelValues(outcome).Inc()
	r.logger().Printf("refresh: cycle done in %s (force=%v, failed fills=%d)",
		time.Since(started).Round(time.Millisecond), force, failures)
	return nil
}

// IsStale reports whether the stored programme set no longer covers enough of
// the future to skip a refetch. An empty set or a coverage read error counts
// as stale; refreshing is the safe side.
func (r *Refresher) IsStale(ctx context.Context) bool {
	_, max, n, err := r.Store.ProgrammeCoverage(ctx)
	if err != nil {
		r.logger().Printf("refresh: programme coverage: %v", err)
		return true
	}
	if n == 0 {
		return true
	}
	return max.Before(time.Now().Add(r.Cfg.EPGHorizon))
}

// fillXMLTV fetches, caches, parses and persists the XMLTV feed. Unforced
// runs consult the staleness oracle first and may be a no-op.
func (r *Refresher) fillXMLTV(ctx context.Context, force bool) error {
	if !force && !r.IsStale(ctx) {
		r.logger().Printf("refresh: programme data still fresh, skipping xmltv fetch")
		return nil
	}

	data, err := r.Fetcher.Fetch(ctx, r.Cfg.XMLTVURL, CacheKeyXMLTV, force)
	if err != nil {
		return err
	}
	if err := r.FileCache.Write(CacheKeyXMLTV, data); err != nil {
		return err
	}

	path, ok := r.FileCache.Path(CacheKeyXMLTV)
	if !ok {
		return fmt.Errorf("cached %s disappeared", CacheKeyXMLTV)
	}

	// Scheduled (forced) runs refresh programme timing only; channel
	// derivation happens on the startup path and stream URLs come from the
	// playlist fill either way.
	if force {
		programmes, err := r.Fetcher.ParseXMLTV(path)
		if err != nil {
			return err
		}
		if err := r.Store.ReplaceProgrammes(ctx, programmes); err != nil {
			return err
		}
		metrics.ProgrammesStored.Set(float64(len(programmes)))
		r.logger().Printf("refresh: stored %d programmes from xmltv", len(programmes))
		return nil
	}

	doc, err := r.Fetcher.ParseXMLTVFull(path, r.Cfg.StreamURLTemplate)
	if err != nil {
		return err
	}
	if err := r.Store.ReplaceChannels(ctx, doc.Channels); err != nil {
		return err
	}
	if err := r.Store.ReplaceProgrammes(ctx, doc.Programmes); err != nil {
		return err
	}
	metrics.ChannelsStored.Set(float64(len(doc.Channels)))
	metrics.ProgrammesStored.Set(float64(len(doc.Programmes)))
	r.logger().Printf("refresh: stored %d channels, %d programmes from xmltv",
		len(doc.Channels), len(doc.Programmes))
	return nil
}

// fillPlaylist fetches the M3U playlist, reconciles its stream URLs into the
// current channel set, and rewrites the set. A missing playlist URL makes
// this a logged no-op.
func (r *Refresher) fillPlaylist(ctx context.Context, force bool) error {
	if r.Cfg.PlaylistURL == "" {
		r.logger().Printf("refresh: no playlist configured, skipping playlist fill")
		return nil
	}

	data, err := r.Fetcher.Fetch(ctx, r.Cfg.PlaylistURL, CacheKeyPlaylist, force)
	if err != nil {
		return err
	}
	if err := r.FileCache.Write(CacheKeyPlaylist, data); err != nil {
		return err
	}

	path, ok := r.FileCache.Path(CacheKeyPlaylist)
	if !ok {
		return fmt.Errorf("cached %s disappeared", CacheKeyPlaylist)
	}
	playlist, err := parsePlaylistFile(path)
	if err != nil {
		return err
	}

	existing, err := r.Store.GetChannelEntries(ctx)
	if err != nil {
		return err
	}
	merged := Reconcile(existing, playlist)
	if err := r.Store.ReplaceChannels(ctx, merged); err != nil {
		return err
	}
	metrics.ChannelsStored.Set(float64(len(merged)))
	r.logger().Printf("refresh: reconciled %d playlist entries into %d channels",
		len(playlist), len(merged))
	return nil
}

func (r *Refresher) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.Default()
}
