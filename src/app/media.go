package app

import "strings"

type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
)

var (
	videoFormats = []string{"mp4", "mov", "m4v", "webm", "avi", "mkv", "3gp"}
	imageFormats = []string{"jpg", "jpeg", "png", "gif", "webp", "avif", "heic", "heif", "tif", "tiff", "bmp", "dng", "cr2", "nef", "arw", "raf"}

	// Browser-native formats only. RAW and HEIC keys are recognized
	// media but cannot be rendered by the frontend directly.
	displayableFormats = []string{"jpg", "jpeg", "png", "gif", "webp", "avif", "mp4", "webm", "mov"}
)

// ExtOf returns the lowercase extension of an object key, without the dot.
func ExtOf(key string) string {
	idx := strings.LastIndex(key, ".")
	if idx < 0 || idx == len(key)-1 {
		return ""
	}
	return strings.ToLower(key[idx+1:])
}

func checkIn(key string, filters []string) bool {
	ext := ExtOf(key)
	if ext == "" {
		return false
	}
	for _, f := range filters {
		if f == ext {
			return true
		}
	}
	return false
}

// KindOf classifies an object key as video or image by extension.
// Anything that is not a known video format counts as an image.
func KindOf(key string) MediaKind {
	if checkIn(key, videoFormats) {
		return KindVideo
	}
	return KindImage
}

// IsMedia reports whether the key has a recognized media extension.
func IsMedia(key string) bool {
	return checkIn(key, videoFormats) || checkIn(key, imageFormats)
}

// WebDisplayable reports whether a browser can render the object natively.
func WebDisplayable(key string) bool {
	return checkIn(key, displayableFormats)
}
