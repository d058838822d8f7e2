package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Video is a single title in the library. StorageKey points at the media
// object in the bucket; it is never exposed directly, only through
// short-lived presigned playback URLs.
type Video struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Category     string    `json:"category"`
	StorageKey   string    `json:"-"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	Duration     int       `json:"duration_seconds"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ListFilter narrows a catalog listing. Zero values mean no filtering and
// the default page size.
type ListFilter struct {
	Category string
	Limit    int
	Offset   int
}
