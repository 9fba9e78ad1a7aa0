package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"workcal/internal/fsutil"
	appLog "workcal/internal/log"
)

// Feed kinds.
const (
	// KindNameDays feeds name the person celebrating on each date.
	KindNameDays = "namedays"
	// KindHolidays feeds add non-working days on top of the public holidays.
	KindHolidays = "holidays"
)

// maxFeedBytes bounds a single downloaded feed.
const maxFeedBytes = 4 << 20

// Feed is a single ICS subscription.
type Feed struct {
	ID   string `yaml:"id" json:"id"`
	URL  string `yaml:"url" json:"url"`
	Kind string `yaml:"kind" json:"kind"` // KindNameDays or KindHolidays
}

// FetchResult is the body of one feed, fresh or from the cache.
type FetchResult struct {
	Feed      Feed
	Body      []byte
	FromCache bool
}

// cached is the on-disk copy of a feed: its body plus the validators of
// the response that produced it.
type cached struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
	Body         []byte    `json:"body"`
}

// Fetcher downloads feeds with conditional requests and keeps the last good
// copy of each one in cacheDir, so a feed that is down still resolves.
type Fetcher struct {
	client   *http.Client
	cacheDir string
}

// NewFetcher stores one <sha256-prefix>.json file per feed URL in cacheDir.
func NewFetcher(cacheDir string) *Fetcher {
	if cacheDir == "" {
		cacheDir = "./var/ics-cache"
	}
	return &Fetcher{
		client:   &http.Client{Timeout: 15 * time.Second},
		cacheDir: cacheDir,
	}
}

// FetchAll fetches feeds in order. Only feeds that produced a body appear
// in the results; the others contribute an error.
func (f *Fetcher) FetchAll(ctx context.Context, feeds []Feed) ([]FetchResult, []error) {
	results := make([]FetchResult, 0, len(feeds))
	var errs []error
	for _, feed := range feeds {
		res, err := f.FetchOne(ctx, feed)
		if err != nil {
			appLog.Error("feed unavailable", err, "id", feed.ID, "url", redactURL(feed.URL))
			errs = append(errs, fmt.Errorf("feed %s: %w", feed.ID, err))
			continue
		}
		results = append(results, res)
	}
	return results, errs
}

// FetchOne downloads feed. A 304 answer, a network error or a non-2xx
// status resolve to the cached copy when there is one.
func (f *Fetcher) FetchOne(ctx context.Context, feed Feed) (FetchResult, error) {
	if feed.URL == "" {
		return FetchResult{}, errors.New("feed URL is empty")
	}
	path := f.cachePath(feed.URL)
	prev, _ := readCached(path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return FetchResult{}, err
	}
	req.Header.Set("Accept", "text/calendar")
	if prev != nil {
		if prev.ETag != "" {
			req.Header.Set("If-None-Match", prev.ETag)
		}
		if prev.LastModified != "" {
			req.Header.Set("If-Modified-Since", prev.LastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fromCache(feed, prev, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		if prev == nil {
			return FetchResult{}, errors.New("304 Not Modified without a cached copy")
		}
		appLog.Debug("feed not modified", "id", feed.ID)
		return FetchResult{Feed: feed, Body: prev.Body, FromCache: true}, nil

	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fromCache(feed, prev, errors.New(resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes+1))
	if err != nil {
		return fromCache(feed, prev, err)
	}
	if len(body) > maxFeedBytes {
		return fromCache(feed, prev, fmt.Errorf("feed larger than %d bytes", maxFeedBytes))
	}

	next := cached{
		URL:          feed.URL,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
		FetchedAt:    time.Now().UTC(),
		Body:         body,
	}
	if err := writeCached(path, next); err != nil {
		appLog.Warn("feed cache not written", "id", feed.ID, "err", err)
	}
	appLog.Info("feed downloaded", "id", feed.ID, "url", redactURL(feed.URL), "bytes", len(body))
	return FetchResult{Feed: feed, Body: body}, nil
}

func fromCache(feed Feed, prev *cached, cause error) (FetchResult, error) {
	if prev == nil || len(prev.Body) == 0 {
		return FetchResult{}, cause
	}
	appLog.Warn("feed fetch failed, serving cached copy",
		"id", feed.ID,
		"err", cause,
		"fetched_at", prev.FetchedAt.Format(time.RFC3339),
	)
	return FetchResult{Feed: feed, Body: prev.Body, FromCache: true}, nil
}

func (f *Fetcher) cachePath(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8])+".json")
}

func readCached(path string) (*cached, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c cached
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func writeCached(path string, c cached) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, data, 0o600)
}

// redactURL keeps only the scheme and host of a feed URL for logging;
// private calendar links carry their secret in the path or query.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "ics://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
