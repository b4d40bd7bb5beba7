package domain

import (
	"strings"
	"time"
)

// Work is the canonical record of one real-world work.
type Work struct {
	ID            int64      `json:"id"`
	Domain        Domain     `json:"domain"`
	Title         string     `json:"title"`
	OriginalTitle *string    `json:"originalTitle,omitempty"`
	ReleaseDate   *time.Time `json:"releaseDate,omitempty"`
	PosterURL     *string    `json:"posterUrl,omitempty"`
	Synopsis      *string    `json:"synopsis,omitempty"`
	Rating        *float64   `json:"rating,omitempty"`
	ReviewCount   *int64     `json:"reviewCount,omitempty"`
	Attributes    Attributes `json:"attributes,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// NewWork returns a blank work carrying the empty attribute variant of d.
func NewWork(d Domain) *Work {
	return &Work{
		Domain:     d,
		Attributes: EmptyAttributes(d),
	}
}

// AuthorKey is the exact key candidates are matched on.
func (w *Work) AuthorKey() string {
	if w.Attributes == nil {
		return ""
	}
	return strings.TrimSpace(w.Attributes.AuthorKey())
}

// NewWorkFromRecord builds a fresh work from a platform record.
func NewWorkFromRecord(rec PlatformRecord) *Work {
	w := &Work{
		Domain:        rec.Domain,
		Title:         strings.TrimSpace(rec.Title),
		OriginalTitle: rec.OriginalTitle,
		ReleaseDate:   rec.ReleaseDate,
		PosterURL:     rec.PosterURL,
		Synopsis:      rec.Synopsis,
		Rating:        rec.Rating,
		ReviewCount:   rec.ReviewCount,
	}
	if rec.Attributes != nil && rec.Attributes.Domain() == rec.Domain {
		w.Attributes = rec.Attributes.Clone()
	} else {
		w.Attributes = EmptyAttributes(rec.Domain)
	}
	return w
}

// MergeScalars copies every scalar of rec whose canonical counterpart is
// empty. Populated scalars are never overwritten. It returns the names of
// the fields that changed.
func (w *Work) MergeScalars(rec PlatformRecord) []string {
	var changed []string
	if mergeStringPtr(&w.OriginalTitle, rec.OriginalTitle) {
		changed = append(changed, "originalTitle")
	}
	if w.ReleaseDate == nil && rec.ReleaseDate != nil {
		d := *rec.ReleaseDate
		w.ReleaseDate = &d
		changed = append(changed, "releaseDate")
	}
	if mergeStringPtr(&w.PosterURL, rec.PosterURL) {
		changed = append(changed, "posterUrl")
	}
	if mergeStringPtr(&w.Synopsis, rec.Synopsis) {
		changed = append(changed, "synopsis")
	}
	return changed
}

func mergeStringPtr(dst **string, src *string) bool {
	if *dst != nil && strings.TrimSpace(**dst) != "" {
		return false
	}
	if src == nil || strings.TrimSpace(*src) == "" {
		return false
	}
	v := *src
	*dst = &v
	return true
}

// WorkEvent is published after a work has been committed.
type WorkEvent struct {
	Type       string    `json:"type"`
	WorkID     int64     `json:"workId"`
	Domain     Domain    `json:"domain"`
	Platform   string    `json:"platform,omitempty"`
	PlatformID int64     `json:"platformId,omitempty"`
	At         time.Time `json:"at"`
}
