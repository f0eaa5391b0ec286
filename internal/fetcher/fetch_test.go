package fetcher

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/voyagen/guidevault/internal/filecache"
	"github.com/voyagen/guidevault/internal/metrics"
)

func testCache(t *testing.T) *filecache.Cache {
	t.Helper()
	c, err := filecache.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestFetch_cacheHitShortCircuits(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("remote"))
	}))
	defer srv.Close()

	fc := testCache(t)
	if err := fc.Write("feed.xml", []byte("cached")); err != nil {
		t.Fatal(err)
	}
	f := &Fetcher{Cache: fc, Logger: log.New(io.Discard, "", 0)}

	data, err := f.Fetch(context.Background(), srv.URL, "feed.xml", false)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "cached" {
		t.Errorf("data = %q, want cached content", data)
	}
	if hits.Load() != 0 {
		t.Errorf("remote hit %d times despite cache", hits.Load())
	}
}

func TestFetch_forceBypassesCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("remote"))
	}))
	defer srv.Close()

	fc := testCache(t)
	if err := fc.Write("feed.xml", []byte("cached")); err != nil {
		t.Fatal(err)
	}
	f := &Fetcher{Cache: fc, Logger: log.New(io.Discard, "", 0)}

	data, err := f.Fetch(context.Background(), srv.URL, "feed.xml", true)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "remote" {
		t.Errorf("data = %q, want remote content", data)
	}
	// Fetcher must not write the cache itself.
	if cached, err := fc.Get("feed.xml"); err != nil || string(cached) != "cached" {
		t.Errorf("cache content = %q, %v; fetch must not overwrite it", cached, err)
	}
}

func TestFetch_retriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := &Fetcher{Attempts: 3, Backoff: time.Millisecond, Logger: log.New(io.Discard, "", 0)}
	data, err := f.Fetch(context.Background(), srv.URL, "feed.xml", true)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "ok" {
		t.Errorf("data = %q", data)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestFetch_exhaustionReturnsError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := &Fetcher{Attempts: 2, Backoff: time.Millisecond, Logger: log.New(io.Discard, "", 0)}
	if _, err := f.Fetch(context.Background(), srv.URL, "feed.xml", true); err == nil {
		t.Fatal("expected error after exhaustion")
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestFetch_cancelDuringBackoffCountsFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		cancel()
	}))
	defer srv.Close()

	before := testutil.ToFloat64(metrics.FetchFailures.WithLabelValues("cancel.xml"))
	f := &Fetcher{Attempts: 3, Backoff: time.Hour, Logger: log.New(io.Discard, "", 0)}
	_, err := f.Fetch(ctx, srv.URL, "cancel.xml", true)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	after := testutil.ToFloat64(metrics.FetchFailures.WithLabelValues("cancel.xml"))
	if after-before != 1 {
		t.Errorf("failure counter delta = %v, want 1", after-before)
	}
}

func TestFetch_userAgent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := &Fetcher{UserAgent: "GuideVault/1.0", Logger: log.New(io.Discard, "", 0)}
	if _, err := f.Fetch(context.Background(), srv.URL, "feed.xml", true); err != nil {
		t.Fatal(err)
	}
	if got != "GuideVault/1.0" {
		t.Errorf("User-Agent = %q", got)
	}
}
