package usecase

import (
	"context"
	"log/slog"
	"testing"

	"github.com/alldopamine/catalog/internal/domain"
	"github.com/alldopamine/catalog/internal/logging"
)

func nopLogger() *slog.Logger { return logging.NewNop() }

func TestFindCandidates(t *testing.T) {
	store := newMemStore()
	game := store.addWork(&domain.Work{Domain: domain.DomainGame, Title: "Hades", Attributes: &domain.GameAttributes{Developer: "Supergiant"}})
	store.addWork(&domain.Work{Domain: domain.DomainGame, Title: "Celeste", Attributes: &domain.GameAttributes{Developer: "Maddy Makes Games"}})
	store.addWork(&domain.Work{Domain: domain.DomainWebtoon, Title: "Hades", Attributes: &domain.WebtoonAttributes{Author: "Supergiant"}})
	store.addWork(&domain.Work{Domain: domain.DomainMovie, Title: "Hades", Attributes: &domain.MovieAttributes{}})

	works := store.Repositories().Works
	ctx := context.Background()

	tests := []struct {
		name string
		rec  domain.PlatformRecord
		want []int64
	}{
		{"same developer", domain.PlatformRecord{Domain: domain.DomainGame, Attributes: &domain.GameAttributes{Developer: "Supergiant"}}, []int64{game.ID}},
		{"key is exact", domain.PlatformRecord{Domain: domain.DomainGame, Attributes: &domain.GameAttributes{Developer: "supergiant"}}, nil},
		{"blank key", domain.PlatformRecord{Domain: domain.DomainGame, Attributes: &domain.GameAttributes{}}, nil},
		{"no attributes", domain.PlatformRecord{Domain: domain.DomainGame}, nil},
		{"movie has no key", domain.PlatformRecord{Domain: domain.DomainMovie, Attributes: &domain.MovieAttributes{}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindCandidates(ctx, works, tt.rec)
			if err != nil {
				t.Fatalf("find candidates: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d candidates, want %d", len(got), len(tt.want))
			}
			for i, w := range got {
				if w.ID != tt.want[i] {
					t.Fatalf("candidate %d = %d, want %d", i, w.ID, tt.want[i])
				}
			}
		})
	}
}

func TestBestMatch(t *testing.T) {
	candidates := []*domain.Work{
		{ID: 3, Title: "Solo Levelling"},
		{ID: 1, Title: "Solo Leveling"},
		{ID: 2, Title: "Solo-Leveling"},
		{ID: 4, Title: "Tower of God"},
	}

	match, ok := BestMatch("Solo Leveling", candidates, 0.85)
	if !ok {
		t.Fatalf("expected a match")
	}
	if match.Work.ID != 1 || match.Score != 1 {
		t.Fatalf("expected exact match with lowest id, got %d (%v)", match.Work.ID, match.Score)
	}

	if _, ok := BestMatch("Omniscient Reader", candidates, 0.85); ok {
		t.Fatalf("expected no match below threshold")
	}
	if _, ok := BestMatch("anything", nil, 0.85); ok {
		t.Fatalf("expected no match without candidates")
	}
}
