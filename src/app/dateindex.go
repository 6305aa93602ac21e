package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sort"
	"strings"
	"sync"
)

// DateIndex maps a calendar day (YYYY-MM-DD) to the public URLs of the
// media captured that day.
type DateIndex map[string][]string

const (
	IndexFileName = "date-media-index.json"

	// Extractions per concurrent batch. Batches run one after another so
	// at most this many range-gets and probe runs are in flight.
	extractBatchSize = 10
)

// CaptureDater resolves an object's capture day, "" when undated.
type CaptureDater interface {
	CaptureDate(entry ObjectEntry) string
}

type DateIndexer struct {
	store           ObjectStore
	extractor       CaptureDater
	processedPrefix string
	publicBaseURL   string
}

func NewDateIndexer(store ObjectStore, extractor CaptureDater, processedPrefix, publicBaseURL string) *DateIndexer {
	return &DateIndexer{
		store:           store,
		extractor:       extractor,
		processedPrefix: strings.TrimSuffix(processedPrefix, "/"),
		publicBaseURL:   strings.TrimSuffix(publicBaseURL, "/"),
	}
}

func (ix *DateIndexer) IndexKey() string {
	return ix.processedPrefix + "/" + IndexFileName
}

// PublicURL builds the canonical public URL for an object key. Each path
// segment is escaped independently so separator slashes survive.
func (ix *DateIndexer) PublicURL(key string) string {
	segments := strings.Split(key, "/")
	escaped := make([]string, 0, len(segments))
	for _, segment := range segments {
		escaped = append(escaped, url.PathEscape(segment))
	}
	return ix.publicBaseURL + "/" + strings.Join(escaped, "/")
}

// KeyFromURL re-derives the object key behind a canonical public URL.
func (ix *DateIndexer) KeyFromURL(publicURL string) (string, error) {
	if !strings.HasPrefix(publicURL, ix.publicBaseURL+"/") {
		return "", fmt.Errorf("url %s is not under %s", publicURL, ix.publicBaseURL)
	}
	rest := strings.TrimPrefix(publicURL, ix.publicBaseURL+"/")
	segments := strings.Split(rest, "/")
	decoded := make([]string, 0, len(segments))
	for _, segment := range segments {
		plain, err := url.PathUnescape(segment)
		if err != nil {
			return "", fmt.Errorf("bad url segment %s: %v", segment, err)
		}
		decoded = append(decoded, plain)
	}
	return strings.Join(decoded, "/"), nil
}

// Build rebuilds the full index from the processed prefix and uploads it,
// unless preview is set. Objects without a resolvable capture date are left
// out entirely.
func (ix *DateIndexer) Build(preview bool) (DateIndex, error) {
	entries, err := ix.store.ListEntries(ix.processedPrefix + "/")
	if err != nil {
		return nil, fmt.Errorf("can not list processed objects: %v", err)
	}

	media := make([]ObjectEntry, 0, len(entries))
	for _, entry := range entries {
		if !IsMedia(entry.Key) || !WebDisplayable(entry.Key) {
			continue
		}
		media = append(media, entry)
	}

	index := make(DateIndex)
	dates := ix.extractDates(media)
	for i, entry := range media {
		if dates[i] == "" {
			continue
		}
		index[dates[i]] = append(index[dates[i]], ix.PublicURL(entry.Key))
	}

	if preview {
		return index, nil
	}
	if err := ix.upload(index); err != nil {
		return nil, err
	}
	log.Printf("built date index: %d objects over %d dates", len(media), len(index))
	return index, nil
}

// extractDates resolves capture dates in fixed-size concurrent batches;
// batches run sequentially to bound in-flight extraction calls.
func (ix *DateIndexer) extractDates(entries []ObjectEntry) []string {
	dates := make([]string, len(entries))
	for start := 0; start < len(entries); start += extractBatchSize {
		end := start + extractBatchSize
		if end > len(entries) {
			end = len(entries)
		}
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				dates[i] = ix.extractor.CaptureDate(entries[i])
			}(i)
		}
		wg.Wait()
	}
	return dates
}

// Prune drops index URLs whose backing object is gone, and dates left with
// no URLs. It re-uploads only when something was removed and never adds.
func (ix *DateIndexer) Prune(preview bool) (DateIndex, int, error) {
	index, err := ix.Load()
	if err != nil {
		return nil, 0, err
	}

	removed := 0
	pruned := make(DateIndex)
	for date, urls := range index {
		kept := make([]string, 0, len(urls))
		for _, publicURL := range urls {
			key, err := ix.KeyFromURL(publicURL)
			if err != nil {
				// Not one of ours; leave it alone.
				kept = append(kept, publicURL)
				continue
			}
			exists, err := ix.store.Exists(key)
			if err != nil {
				return nil, 0, fmt.Errorf("can not check %s: %v", key, err)
			}
			if !exists {
				removed++
				continue
			}
			kept = append(kept, publicURL)
		}
		if len(kept) > 0 {
			pruned[date] = kept
		}
	}

	if removed == 0 || preview {
		return pruned, removed, nil
	}
	if err := ix.upload(pruned); err != nil {
		return nil, 0, err
	}
	log.Printf("pruned date index: removed %d urls", removed)
	return pruned, removed, nil
}

func (ix *DateIndexer) upload(index DateIndex) error {
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("can not marshal index: %v", err)
	}
	if err := ix.store.Upload(ix.IndexKey(), data, "application/json"); err != nil {
		return fmt.Errorf("can not upload index: %v", err)
	}
	return nil
}

// Load fetches and parses the persisted index. A missing or corrupt index
// is an error here, not an empty result.
func (ix *DateIndexer) Load() (DateIndex, error) {
	data, err := ix.store.Fetch(ix.IndexKey())
	if err != nil {
		return nil, fmt.Errorf("can not fetch index: %v", err)
	}
	index := make(DateIndex)
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("can not parse index: %v", err)
	}
	return index, nil
}

// Lookup returns the URLs captured on the given day. An absent date is a
// normal empty result; an unreadable index is an error.
func (ix *DateIndexer) Lookup(date string) ([]string, error) {
	index, err := ix.Load()
	if err != nil {
		return nil, err
	}
	urls, ok := index[date]
	if !ok {
		return []string{}, nil
	}
	return urls, nil
}

// BrowseItem describes one bucket object for the admin photo browser.
type BrowseItem struct {
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	Date        *string   `json:"date"`
	Kind        MediaKind `json:"kind"`
	Displayable bool      `json:"displayable"`
}

// BrowseProcessed lists processed media, preferring the persisted index and
// falling back to a live scan when the index cannot be read.
func (ix *DateIndexer) BrowseProcessed() ([]BrowseItem, error) {
	index, err := ix.Load()
	if err != nil {
		log.Printf("date index unavailable, scanning live: %v", err)
		return ix.BrowsePrefix(ix.processedPrefix + "/")
	}

	items := make([]BrowseItem, 0)
	for date, urls := range index {
		for _, publicURL := range urls {
			key, err := ix.KeyFromURL(publicURL)
			if err != nil {
				continue
			}
			d := date
			items = append(items, BrowseItem{
				Key:         key,
				URL:         publicURL,
				Date:        &d,
				Kind:        KindOf(key),
				Displayable: WebDisplayable(key),
			})
		}
	}
	SortBrowseItems(items)
	return items, nil
}

// BrowsePrefix live-scans a prefix. Capture dates are resolved only for
// web-displayable media; everything else is listed undated.
func (ix *DateIndexer) BrowsePrefix(prefix string) ([]BrowseItem, error) {
	entries, err := ix.store.ListEntries(prefix)
	if err != nil {
		return nil, fmt.Errorf("can not list %s: %v", prefix, err)
	}

	media := make([]ObjectEntry, 0, len(entries))
	for _, entry := range entries {
		if !IsMedia(entry.Key) {
			continue
		}
		media = append(media, entry)
	}

	displayable := make([]ObjectEntry, 0, len(media))
	for _, entry := range media {
		if WebDisplayable(entry.Key) {
			displayable = append(displayable, entry)
		}
	}
	dates := ix.extractDates(displayable)
	dateByKey := make(map[string]string, len(displayable))
	for i, entry := range displayable {
		dateByKey[entry.Key] = dates[i]
	}

	items := make([]BrowseItem, 0, len(media))
	for _, entry := range media {
		item := BrowseItem{
			Key:         entry.Key,
			URL:         ix.PublicURL(entry.Key),
			Kind:        KindOf(entry.Key),
			Displayable: WebDisplayable(entry.Key),
		}
		if date := dateByKey[entry.Key]; date != "" {
			d := date
			item.Date = &d
		}
		items = append(items, item)
	}
	SortBrowseItems(items)
	return items, nil
}

// SortBrowseItems orders dated items first (by date, then key), undated
// items after (by key).
func SortBrowseItems(items []BrowseItem) {
	sort.Slice(items, func(i, j int) bool {
		di, dj := items[i].Date, items[j].Date
		switch {
		case di != nil && dj == nil:
			return true
		case di == nil && dj != nil:
			return false
		case di != nil && dj != nil && *di != *dj:
			return *di < *dj
		default:
			return items[i].Key < items[j].Key
		}
	})
}
