package domain

import (
	"errors"
	"slices"
	"testing"
	"time"
)

func TestGameAttributesMergeFrom(t *testing.T) {
	existing := &GameAttributes{
		Developer: "Team Cherry",
		Publisher: "Team Cherry",
		Platforms: map[string]bool{"windows": true},
		Genres:    []string{"Action", "Metroidvania"},
	}
	released := time.Date(2017, 2, 24, 0, 0, 0, 0, time.UTC)
	incoming := &GameAttributes{
		Developer:   "Someone Else",
		Publisher:   "Other Publisher",
		ReleaseDate: &released,
		Platforms:   map[string]bool{"windows": false, "mac": true},
		Genres:      []string{"Metroidvania", "Indie"},
		Extras:      map[string]string{"engine": "unity"},
	}

	changed, err := existing.MergeFrom(incoming)
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	if existing.Publisher != "Team Cherry" {
		t.Fatalf("publisher overwritten: %s", existing.Publisher)
	}
	if existing.ReleaseDate == nil || !existing.ReleaseDate.Equal(released) {
		t.Fatalf("release date not filled: %v", existing.ReleaseDate)
	}
	if !existing.Platforms["windows"] || !existing.Platforms["mac"] {
		t.Fatalf("unexpected platforms %v", existing.Platforms)
	}
	if !slices.Equal(existing.Genres, []string{"Action", "Metroidvania", "Indie"}) {
		t.Fatalf("unexpected genres %v", existing.Genres)
	}
	if existing.Extras["engine"] != "unity" {
		t.Fatalf("extras not merged: %v", existing.Extras)
	}
	want := []string{"releaseDate", "platforms", "genres", "extras"}
	if !slices.Equal(changed, want) {
		t.Fatalf("changed = %v, want %v", changed, want)
	}
}

func TestWebnovelAttributesMergeKeepsPopulated(t *testing.T) {
	existing := &WebnovelAttributes{Author: "Author A", AgeRating: "15"}
	incoming := &WebnovelAttributes{Author: "Author A", Publisher: "Pub", AgeRating: "19", Genres: []string{"Fantasy", "Fantasy"}}

	if _, err := existing.MergeFrom(incoming); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if existing.AgeRating != "15" {
		t.Fatalf("age rating overwritten: %s", existing.AgeRating)
	}
	if existing.Publisher != "Pub" {
		t.Fatalf("publisher not filled: %s", existing.Publisher)
	}
	if !slices.Equal(existing.Genres, []string{"Fantasy"}) {
		t.Fatalf("genres not de-duplicated: %v", existing.Genres)
	}
}

func TestMergeFromMismatch(t *testing.T) {
	tests := []struct {
		name  string
		dst   Attributes
		other Attributes
	}{
		{name: "wrong variant", dst: &WebtoonAttributes{}, other: &GameAttributes{}},
		{name: "missing variant", dst: &MovieAttributes{}, other: nil},
		{name: "typed nil", dst: &TVAttributes{}, other: (*TVAttributes)(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.dst.MergeFrom(tt.other)
			if !errors.Is(err, ErrAttributeMismatch) {
				t.Fatalf("expected attribute mismatch, got %v", err)
			}
		})
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	existing := &OTTAttributes{Creator: "A", Features: []string{"4K"}}
	incoming := &OTTAttributes{Creator: "B", Features: []string{"4K", "HDR"}, Cast: []string{"X"}}

	if _, err := existing.MergeFrom(incoming); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	changed, err := existing.MergeFrom(incoming)
	if err != nil {
		t.Fatalf("second merge failed: %v", err)
	}
	if len(changed) != 0 {
		t.Fatalf("second merge changed %v", changed)
	}
}

func TestCloneIsDeep(t *testing.T) {
	original := &GameAttributes{Genres: []string{"RPG"}, Platforms: map[string]bool{"windows": true}}
	clone := original.Clone().(*GameAttributes)
	clone.Genres[0] = "Puzzle"
	clone.Platforms["mac"] = true

	if original.Genres[0] != "RPG" || len(original.Platforms) != 1 {
		t.Fatalf("clone shares state with original: %+v", original)
	}
}

func TestDecodeAttributes(t *testing.T) {
	attrs, err := DecodeAttributes(DomainWebtoon, []byte(`{"author":"Kim","genres":["Drama"]}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	webtoon, ok := attrs.(*WebtoonAttributes)
	if !ok {
		t.Fatalf("unexpected variant %T", attrs)
	}
	if webtoon.AuthorKey() != "Kim" || !slices.Equal(webtoon.Genres, []string{"Drama"}) {
		t.Fatalf("unexpected attributes %+v", webtoon)
	}

	empty, err := DecodeAttributes(DomainMovie, nil)
	if err != nil {
		t.Fatalf("decode empty failed: %v", err)
	}
	if _, ok := empty.(*MovieAttributes); !ok {
		t.Fatalf("unexpected empty variant %T", empty)
	}

	if _, err := DecodeAttributes(Domain("BOOK"), nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := DecodeAttributes(DomainGame, []byte(`{"developer":1}`)); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for bad json, got %v", err)
	}
}

func TestSetAuthorKeyOnlyFillsBlank(t *testing.T) {
	game := &GameAttributes{}
	SetAuthorKey(game, " Valve ")
	if game.Developer != "Valve" {
		t.Fatalf("developer not set: %q", game.Developer)
	}
	SetAuthorKey(game, "Other")
	if game.Developer != "Valve" {
		t.Fatalf("developer overwritten: %q", game.Developer)
	}
}
