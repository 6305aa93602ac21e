package app

import (
	"bytes"
	"encoding/json"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

const (
	// Leading bytes fetched for image metadata. EXIF headers sit at the
	// front of the file, well inside this window.
	exifHeadBytes = 64 * 1024

	dateLayout = "2006-01-02"
)

var exifTagPriority = []exif.FieldName{
	exif.DateTimeOriginal,
	exif.DateTimeDigitized,
	exif.DateTime,
}

var probeTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000000Z",
	"2006-01-02 15:04:05",
}

// DateCache memoizes capture dates per running instance. Entries are keyed
// by object key plus ETag, so a re-uploaded object misses the cache.
type DateCache struct {
	mu    sync.RWMutex
	dates map[string]string
}

func NewDateCache() *DateCache {
	return &DateCache{dates: make(map[string]string)}
}

func (c *DateCache) get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	date, ok := c.dates[key]
	return date, ok
}

func (c *DateCache) put(key, date string) {
	c.mu.Lock()
	c.dates[key] = date
	c.mu.Unlock()
}

// DateExtractor resolves the capture date of a stored media object.
type DateExtractor struct {
	store   ObjectStore
	ffprobe string
	cache   *DateCache
}

func NewDateExtractor(store ObjectStore, ffprobe string, cache *DateCache) *DateExtractor {
	if cache == nil {
		cache = NewDateCache()
	}
	return &DateExtractor{store: store, ffprobe: ffprobe, cache: cache}
}

// CaptureDate returns the object's capture day as YYYY-MM-DD, or "" when no
// date can be resolved. Extraction failures are logged and swallowed; the
// caller treats "" as undated.
func (e *DateExtractor) CaptureDate(entry ObjectEntry) string {
	cacheKey := entry.Key + "|" + entry.ETag
	if date, ok := e.cache.get(cacheKey); ok {
		return date
	}

	var date string
	if KindOf(entry.Key) == KindVideo {
		date = e.videoDate(entry)
	} else {
		date = e.imageDate(entry.Key)
	}
	e.cache.put(cacheKey, date)
	return date
}

func (e *DateExtractor) imageDate(key string) string {
	head, err := e.store.FetchRange(key, exifHeadBytes)
	if err != nil {
		log.Printf("exif fetch failed for %s: %v", key, err)
		return ""
	}
	meta, err := exif.Decode(bytes.NewReader(head))
	if err != nil {
		return ""
	}
	for _, field := range exifTagPriority {
		tag, err := meta.Get(field)
		if err != nil {
			continue
		}
		raw, err := tag.StringVal()
		if err != nil {
			continue
		}
		if t, err := time.Parse("2006:01:02 15:04:05", strings.TrimSpace(raw)); err == nil {
			return t.Format(dateLayout)
		}
	}
	return ""
}

type probeOutput struct {
	Format struct {
		Tags map[string]string `json:"tags"`
	} `json:"format"`
	Streams []struct {
		CodecType string            `json:"codec_type"`
		Tags      map[string]string `json:"tags"`
	} `json:"streams"`
}

func (e *DateExtractor) videoDate(entry ObjectEntry) string {
	if date := e.probeVideo(entry.Key); date != "" {
		return date
	}
	// Container carried no usable tag; fall back to storage mtime.
	if !entry.LastModified.IsZero() {
		return entry.LastModified.Format(dateLayout)
	}
	return ""
}

func (e *DateExtractor) probeVideo(key string) string {
	data, err := e.store.Fetch(key)
	if err != nil {
		log.Printf("video fetch failed for %s: %v", key, err)
		return ""
	}
	tmp, err := os.CreateTemp("", "memocal-probe-*"+filepath.Ext(key))
	if err != nil {
		log.Printf("can not create temp file for %s: %v", key, err)
		return ""
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		log.Printf("can not write temp file for %s: %v", key, err)
		return ""
	}
	tmp.Close()

	out, err := exec.Command(e.ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		tmp.Name()).Output()
	if err != nil {
		log.Printf("ffprobe failed for %s: %v", key, err)
		return ""
	}

	var probed probeOutput
	if err := json.Unmarshal(out, &probed); err != nil {
		return ""
	}
	if date := parseProbeTime(probed.Format.Tags["creation_time"]); date != "" {
		return date
	}
	for _, stream := range probed.Streams {
		if stream.CodecType != "video" {
			continue
		}
		return parseProbeTime(stream.Tags["creation_time"])
	}
	return ""
}

func parseProbeTime(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range probeTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(dateLayout)
		}
	}
	return ""
}
