package catalog

import (
	"encoding/json"
)

// Envelope is the wire form of a single platform record as emitted by the
// crawlers. Dates use the YYYY-MM-DD layout.
type Envelope struct {
	Domain       string `json:"domain"`
	PlatformName string `json:"platformName"`
	PlatformID   int64  `json:"platformId"`

	Title         string   `json:"title"`
	OriginalTitle *string  `json:"originalTitle,omitempty"`
	ReleaseDate   *string  `json:"releaseDate,omitempty"`
	PosterURL     *string  `json:"posterUrl,omitempty"`
	Synopsis      *string  `json:"synopsis,omitempty"`
	Rating        *float64 `json:"rating,omitempty"`
	ReviewCount   *int64   `json:"reviewCount,omitempty"`

	// Author carries the author (webtoon, webnovel) or developer (game)
	// when the crawler does not put it inside Attributes.
	Author     string          `json:"author,omitempty"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
	Tags       []Tag           `json:"tags,omitempty"`
}

// Tag is a typed label attached to a record, e.g. {"kind":"genre","name":"Fantasy"}.
type Tag struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// SourceRef points at one staged source record on a platform.
type SourceRef struct {
	Platform string `json:"platform"`
	SourceID int64  `json:"sourceId"`
}

// IntegrateRequest asks the executor to build one work from staged records.
type IntegrateRequest struct {
	ConfigID  int64   `json:"configId"`
	SourceIDs []int64 `json:"sourceIds"`
}
