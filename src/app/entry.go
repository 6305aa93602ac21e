package app

// EntryKind is derivable from the media count but stored alongside it.
type EntryKind string

const (
	KindText    EntryKind = "text"
	KindPhoto   EntryKind = "photo"
	KindGallery EntryKind = "gallery"
)

// Entry represents one calendar day's card.
type Entry struct {
	// The calendar day, YYYY-MM-DD. Unique key of the entry.
	Date string `json:"date"`

	// The card kind: text, photo or gallery.
	Kind EntryKind `json:"kind"`

	// Caption shown under the card. Empty is fine.
	Caption string `json:"caption"`

	// Ordered public media URLs. Empty for text cards.
	Media []string `json:"media,omitempty"`
}

// DeriveKind maps a media count to the entry kind.
func DeriveKind(mediaCount int) EntryKind {
	switch {
	case mediaCount == 0:
		return KindText
	case mediaCount == 1:
		return KindPhoto
	default:
		return KindGallery
	}
}
