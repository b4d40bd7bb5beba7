package domain

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/alldopamine/catalog"
)

// Tag is a typed label such as a genre or a weekday.
type Tag struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// PlatformRecord is the normalized snapshot of one work on one platform.
type PlatformRecord struct {
	Domain        Domain     `json:"domain"`
	PlatformName  string     `json:"platformName"`
	PlatformID    int64      `json:"platformId"`
	Title         string     `json:"title"`
	OriginalTitle *string    `json:"originalTitle,omitempty"`
	ReleaseDate   *time.Time `json:"releaseDate,omitempty"`
	PosterURL     *string    `json:"posterUrl,omitempty"`
	Synopsis      *string    `json:"synopsis,omitempty"`
	Rating        *float64   `json:"rating,omitempty"`
	ReviewCount   *int64     `json:"reviewCount,omitempty"`
	Attributes    Attributes `json:"attributes,omitempty"`
	Tags          []Tag      `json:"tags,omitempty"`
}

// AuthorKey is empty unless the record carries the variant of its domain.
func (r PlatformRecord) AuthorKey() string {
	if r.Attributes == nil || r.Attributes.Domain() != r.Domain {
		return ""
	}
	return strings.TrimSpace(r.Attributes.AuthorKey())
}

// Slot resolves the platform name of the record.
func (r PlatformRecord) Slot() (Slot, error) {
	return MustResolveSlot(r.Domain, r.PlatformName)
}

// Validate checks the fields ingestion relies on. A missing or mismatching
// attribute variant is not an error here; the merge reports it.
func (r PlatformRecord) Validate() error {
	if !r.Domain.Valid() {
		return ValidationError{Field: "domain", Reason: "unsupported domain " + string(r.Domain)}
	}
	if strings.TrimSpace(r.Title) == "" {
		return ValidationError{Field: "title", Reason: "title is required"}
	}
	if r.PlatformID <= 0 {
		return ValidationError{Field: "platformId", Reason: "platform id must be positive"}
	}
	if _, err := r.Slot(); err != nil {
		return err
	}
	return nil
}

// TagNames returns the names of the tags of the given kind.
func (r PlatformRecord) TagNames(kind string) []string {
	var out []string
	for _, tag := range r.Tags {
		if strings.EqualFold(tag.Kind, kind) {
			out = append(out, tag.Name)
		}
	}
	return out
}

// SourceRecord is a staged crawler row.
type SourceRecord struct {
	ID        int64          `json:"id"`
	Platform  string         `json:"platform"`
	SourceID  int64          `json:"sourceId"`
	Record    PlatformRecord `json:"record"`
	FetchedAt time.Time      `json:"fetchedAt"`
}

// Key is the name under which field mapping rules address the record.
func (s SourceRecord) Key() string {
	return catalog.ComposeSourceKey(s.Platform, s.SourceID)
}

// RecordFromEnvelope converts the wire form into a PlatformRecord.
func RecordFromEnvelope(env catalog.Envelope) (PlatformRecord, error) {
	d, err := ParseDomain(env.Domain)
	if err != nil {
		return PlatformRecord{}, err
	}

	releaseDate, err := catalog.ParseDate(env.ReleaseDate)
	if err != nil {
		return PlatformRecord{}, ValidationError{Field: "releaseDate", Reason: err.Error()}
	}

	attrs, err := DecodeAttributes(d, env.Attributes)
	if err != nil {
		return PlatformRecord{}, errors.Wrap(err, "envelope")
	}
	SetAuthorKey(attrs, env.Author)

	tags := make([]Tag, 0, len(env.Tags))
	for _, t := range env.Tags {
		tags = append(tags, Tag{Kind: t.Kind, Name: t.Name})
	}

	rec := PlatformRecord{
		Domain:        d,
		PlatformName:  strings.TrimSpace(env.PlatformName),
		PlatformID:    env.PlatformID,
		Title:         strings.TrimSpace(env.Title),
		OriginalTitle: env.OriginalTitle,
		ReleaseDate:   releaseDate,
		PosterURL:     env.PosterURL,
		Synopsis:      env.Synopsis,
		Rating:        env.Rating,
		ReviewCount:   env.ReviewCount,
		Attributes:    attrs,
		Tags:          tags,
	}
	return rec, nil
}
