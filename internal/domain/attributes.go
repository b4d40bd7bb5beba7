package domain

import (
	"encoding/json"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Attributes is the domain-specific part of a work. Exactly one variant
// exists per domain.
type Attributes interface {
	Domain() Domain
	// AuthorKey is the developer (games) or author (webtoons, webnovels).
	// Other domains have no key.
	AuthorKey() string
	// MergeFrom folds other into the receiver and returns the names of the
	// changed fields. Populated scalars are kept, maps and lists are unioned.
	MergeFrom(other Attributes) ([]string, error)
	Clone() Attributes
}

type GameAttributes struct {
	Developer   string            `json:"developer,omitempty"`
	Publisher   string            `json:"publisher,omitempty"`
	ReleaseDate *time.Time        `json:"releaseDate,omitempty"`
	Platforms   map[string]bool   `json:"platforms,omitempty"`
	Genres      []string          `json:"genres,omitempty"`
	Extras      map[string]string `json:"extras,omitempty"`
}

func (a *GameAttributes) Domain() Domain    { return DomainGame }
func (a *GameAttributes) AuthorKey() string { return a.Developer }

func (a *GameAttributes) MergeFrom(other Attributes) ([]string, error) {
	src, ok := other.(*GameAttributes)
	if !ok || src == nil {
		return nil, mismatch(DomainGame, other)
	}
	var m merger
	m.text("developer", &a.Developer, src.Developer)
	m.text("publisher", &a.Publisher, src.Publisher)
	m.date("releaseDate", &a.ReleaseDate, src.ReleaseDate)
	a.Platforms = m.flags("platforms", a.Platforms, src.Platforms)
	a.Genres = m.list("genres", a.Genres, src.Genres)
	a.Extras = m.extras(a.Extras, src.Extras)
	return m.changed, nil
}

func (a *GameAttributes) Clone() Attributes {
	c := *a
	c.ReleaseDate = cloneTime(a.ReleaseDate)
	c.Platforms = maps.Clone(a.Platforms)
	c.Genres = slices.Clone(a.Genres)
	c.Extras = maps.Clone(a.Extras)
	return &c
}

type WebtoonAttributes struct {
	Author      string            `json:"author,omitempty"`
	Illustrator string            `json:"illustrator,omitempty"`
	Status      string            `json:"status,omitempty"`
	StartedAt   *time.Time        `json:"startedAt,omitempty"`
	Weekdays    []string          `json:"weekdays,omitempty"`
	Genres      []string          `json:"genres,omitempty"`
	Extras      map[string]string `json:"extras,omitempty"`
}

func (a *WebtoonAttributes) Domain() Domain    { return DomainWebtoon }
func (a *WebtoonAttributes) AuthorKey() string { return a.Author }

func (a *WebtoonAttributes) MergeFrom(other Attributes) ([]string, error) {
	src, ok := other.(*WebtoonAttributes)
	if !ok || src == nil {
		return nil, mismatch(DomainWebtoon, other)
	}
	var m merger
	m.text("author", &a.Author, src.Author)
	m.text("illustrator", &a.Illustrator, src.Illustrator)
	m.text("status", &a.Status, src.Status)
	m.date("startedAt", &a.StartedAt, src.StartedAt)
	a.Weekdays = m.list("weekdays", a.Weekdays, src.Weekdays)
	a.Genres = m.list("genres", a.Genres, src.Genres)
	a.Extras = m.extras(a.Extras, src.Extras)
	return m.changed, nil
}

func (a *WebtoonAttributes) Clone() Attributes {
	c := *a
	c.StartedAt = cloneTime(a.StartedAt)
	c.Weekdays = slices.Clone(a.Weekdays)
	c.Genres = slices.Clone(a.Genres)
	c.Extras = maps.Clone(a.Extras)
	return &c
}

type WebnovelAttributes struct {
	Author     string            `json:"author,omitempty"`
	Translator string            `json:"translator,omitempty"`
	Publisher  string            `json:"publisher,omitempty"`
	AgeRating  string            `json:"ageRating,omitempty"`
	StartedAt  *time.Time        `json:"startedAt,omitempty"`
	Genres     []string          `json:"genres,omitempty"`
	Extras     map[string]string `json:"extras,omitempty"`
}

func (a *WebnovelAttributes) Domain() Domain    { return DomainWebnovel }
func (a *WebnovelAttributes) AuthorKey() string { return a.Author }

func (a *WebnovelAttributes) MergeFrom(other Attributes) ([]string, error) {
	src, ok := other.(*WebnovelAttributes)
	if !ok || src == nil {
		return nil, mismatch(DomainWebnovel, other)
	}
	var m merger
	m.text("author", &a.Author, src.Author)
	m.text("translator", &a.Translator, src.Translator)
	m.text("publisher", &a.Publisher, src.Publisher)
	m.text("ageRating", &a.AgeRating, src.AgeRating)
	m.date("startedAt", &a.StartedAt, src.StartedAt)
	a.Genres = m.list("genres", a.Genres, src.Genres)
	a.Extras = m.extras(a.Extras, src.Extras)
	return m.changed, nil
}

func (a *WebnovelAttributes) Clone() Attributes {
	c := *a
	c.StartedAt = cloneTime(a.StartedAt)
	c.Genres = slices.Clone(a.Genres)
	c.Extras = maps.Clone(a.Extras)
	return &c
}

type MovieAttributes struct {
	Runtime   int               `json:"runtime,omitempty"`
	Genres    []string          `json:"genres,omitempty"`
	Directors []string          `json:"directors,omitempty"`
	Cast      []string          `json:"cast,omitempty"`
	Extras    map[string]string `json:"extras,omitempty"`
}

func (a *MovieAttributes) Domain() Domain    { return DomainMovie }
func (a *MovieAttributes) AuthorKey() string { return "" }

func (a *MovieAttributes) MergeFrom(other Attributes) ([]string, error) {
	src, ok := other.(*MovieAttributes)
	if !ok || src == nil {
		return nil, mismatch(DomainMovie, other)
	}
	var m merger
	m.number("runtime", &a.Runtime, src.Runtime)
	a.Genres = m.list("genres", a.Genres, src.Genres)
	a.Directors = m.list("directors", a.Directors, src.Directors)
	a.Cast = m.list("cast", a.Cast, src.Cast)
	a.Extras = m.extras(a.Extras, src.Extras)
	return m.changed, nil
}

func (a *MovieAttributes) Clone() Attributes {
	c := *a
	c.Genres = slices.Clone(a.Genres)
	c.Directors = slices.Clone(a.Directors)
	c.Cast = slices.Clone(a.Cast)
	c.Extras = maps.Clone(a.Extras)
	return &c
}

type TVAttributes struct {
	FirstAirDate   *time.Time        `json:"firstAirDate,omitempty"`
	SeasonCount    int               `json:"seasonCount,omitempty"`
	EpisodeRuntime int               `json:"episodeRuntime,omitempty"`
	Genres         []string          `json:"genres,omitempty"`
	Cast           []string          `json:"cast,omitempty"`
	Extras         map[string]string `json:"extras,omitempty"`
}

func (a *TVAttributes) Domain() Domain    { return DomainTV }
func (a *TVAttributes) AuthorKey() string { return "" }

func (a *TVAttributes) MergeFrom(other Attributes) ([]string, error) {
	src, ok := other.(*TVAttributes)
	if !ok || src == nil {
		return nil, mismatch(DomainTV, other)
	}
	var m merger
	m.date("firstAirDate", &a.FirstAirDate, src.FirstAirDate)
	m.number("seasonCount", &a.SeasonCount, src.SeasonCount)
	m.number("episodeRuntime", &a.EpisodeRuntime, src.EpisodeRuntime)
	a.Genres = m.list("genres", a.Genres, src.Genres)
	a.Cast = m.list("cast", a.Cast, src.Cast)
	a.Extras = m.extras(a.Extras, src.Extras)
	return m.changed, nil
}

func (a *TVAttributes) Clone() Attributes {
	c := *a
	c.FirstAirDate = cloneTime(a.FirstAirDate)
	c.Genres = slices.Clone(a.Genres)
	c.Cast = slices.Clone(a.Cast)
	c.Extras = maps.Clone(a.Extras)
	return &c
}

type OTTAttributes struct {
	Creator        string            `json:"creator,omitempty"`
	MaturityRating string            `json:"maturityRating,omitempty"`
	ReleaseYear    int               `json:"releaseYear,omitempty"`
	Genres         []string          `json:"genres,omitempty"`
	Features       []string          `json:"features,omitempty"`
	Cast           []string          `json:"cast,omitempty"`
	Extras         map[string]string `json:"extras,omitempty"`
}

func (a *OTTAttributes) Domain() Domain    { return DomainOTT }
func (a *OTTAttributes) AuthorKey() string { return "" }

func (a *OTTAttributes) MergeFrom(other Attributes) ([]string, error) {
	src, ok := other.(*OTTAttributes)
	if !ok || src == nil {
		return nil, mismatch(DomainOTT, other)
	}
	var m merger
	m.text("creator", &a.Creator, src.Creator)
	m.text("maturityRating", &a.MaturityRating, src.MaturityRating)
	m.number("releaseYear", &a.ReleaseYear, src.ReleaseYear)
	a.Genres = m.list("genres", a.Genres, src.Genres)
	a.Features = m.list("features", a.Features, src.Features)
	a.Cast = m.list("cast", a.Cast, src.Cast)
	a.Extras = m.extras(a.Extras, src.Extras)
	return m.changed, nil
}

func (a *OTTAttributes) Clone() Attributes {
	c := *a
	c.Genres = slices.Clone(a.Genres)
	c.Features = slices.Clone(a.Features)
	c.Cast = slices.Clone(a.Cast)
	c.Extras = maps.Clone(a.Extras)
	return &c
}

// EmptyAttributes returns the zero variant for d, or nil for an unknown
// domain.
func EmptyAttributes(d Domain) Attributes {
	switch d {
	case DomainGame:
		return &GameAttributes{}
	case DomainWebtoon:
		return &WebtoonAttributes{}
	case DomainWebnovel:
		return &WebnovelAttributes{}
	case DomainMovie:
		return &MovieAttributes{}
	case DomainTV:
		return &TVAttributes{}
	case DomainOTT:
		return &OTTAttributes{}
	}
	return nil
}

// DecodeAttributes decodes the JSON form of the variant belonging to d.
// Empty input yields the empty variant.
func DecodeAttributes(d Domain, raw []byte) (Attributes, error) {
	attrs := EmptyAttributes(d)
	if attrs == nil {
		return nil, ValidationError{Field: "domain", Reason: "unsupported domain " + string(d)}
	}
	if len(raw) == 0 || string(raw) == "null" {
		return attrs, nil
	}
	if err := json.Unmarshal(raw, attrs); err != nil {
		return nil, errors.Wrap(ValidationError{Field: "attributes", Reason: err.Error()}, "decode attributes")
	}
	return attrs, nil
}

// SetAuthorKey fills the author or developer of attrs when it is blank.
func SetAuthorKey(attrs Attributes, key string) {
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	switch a := attrs.(type) {
	case *GameAttributes:
		if a.Developer == "" {
			a.Developer = key
		}
	case *WebtoonAttributes:
		if a.Author == "" {
			a.Author = key
		}
	case *WebnovelAttributes:
		if a.Author == "" {
			a.Author = key
		}
	}
}

func mismatch(want Domain, got Attributes) error {
	if got == nil {
		return errors.Wrapf(ErrAttributeMismatch, "want %s attributes, got none", want)
	}
	return errors.Wrapf(ErrAttributeMismatch, "want %s attributes, got %s", want, got.Domain())
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// merger collects changed field names while applying the merge rules.
type merger struct {
	changed []string
}

func (m *merger) text(name string, dst *string, src string) {
	if strings.TrimSpace(*dst) != "" || strings.TrimSpace(src) == "" {
		return
	}
	*dst = src
	m.changed = append(m.changed, name)
}

func (m *merger) number(name string, dst *int, src int) {
	if *dst > 0 || src <= 0 {
		return
	}
	*dst = src
	m.changed = append(m.changed, name)
}

func (m *merger) date(name string, dst **time.Time, src *time.Time) {
	if *dst != nil || src == nil {
		return
	}
	*dst = cloneTime(src)
	m.changed = append(m.changed, name)
}

func (m *merger) list(name string, dst, src []string) []string {
	out, grew := UnionStrings(dst, src)
	if grew {
		m.changed = append(m.changed, name)
	}
	return out
}

func (m *merger) flags(name string, dst, src map[string]bool) map[string]bool {
	grew := false
	for k, v := range src {
		if _, ok := dst[k]; ok {
			continue
		}
		if dst == nil {
			dst = make(map[string]bool, len(src))
		}
		dst[k] = v
		grew = true
	}
	if grew {
		m.changed = append(m.changed, name)
	}
	return dst
}

func (m *merger) extras(dst, src map[string]string) map[string]string {
	grew := false
	for k, v := range src {
		if _, ok := dst[k]; ok {
			continue
		}
		if dst == nil {
			dst = make(map[string]string, len(src))
		}
		dst[k] = v
		grew = true
	}
	if grew {
		m.changed = append(m.changed, "extras")
	}
	return dst
}

// UnionStrings appends every element of src missing from dst, keeping the
// order of first appearance. Blank elements are dropped.
func UnionStrings(dst, src []string) ([]string, bool) {
	seen := make(map[string]struct{}, len(dst)+len(src))
	for _, v := range dst {
		seen[v] = struct{}{}
	}
	grew := false
	for _, v := range src {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		dst = append(dst, v)
		grew = true
	}
	return dst, grew
}
