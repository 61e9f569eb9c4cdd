// Package models contains the record types produced by the extractors.
package models

import "time"

// Anime is one catalog entry extracted by a driver.
type Anime struct {
	ID        string    `json:"id"`
	DriverID  string    `json:"driverId"`
	Title     string    `json:"title"`
	AltTitles []string  `json:"altTitles,omitempty"`
	Synopsis  string    `json:"synopsis,omitempty"`
	CoverURL  string    `json:"coverUrl,omitempty"`
	SourceURL string    `json:"sourceUrl"`
	Episodes  []Episode `json:"episodes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Episode is one entry of an anime's episode list.
type Episode struct {
	ID            string `json:"id"`
	Number        int    `json:"episodeNumber"`
	Title         string `json:"title,omitempty"`
	ThumbnailURL  string `json:"thumbnailUrl,omitempty"`
	SourceURL     string `json:"sourceUrl"`
	// Watched is owned by the UI layer; it only defaults here.
	Watched bool `json:"watched"`
}

// VideoType classifies how an episode page exposes its playable source.
type VideoType string

const (
	VideoTypeIframe   VideoType = "iframe"
	VideoTypeVideo    VideoType = "video"
	VideoTypeExternal VideoType = "external"
	// VideoTypeUnknown marks a page where no playable source was found.
	VideoTypeUnknown VideoType = "unknown"
)

// Video describes the playable source located on an episode page.
type Video struct {
	URL  string    `json:"videoUrl"`
	Type VideoType `json:"videoType"`
}
