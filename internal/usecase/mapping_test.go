package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alldopamine/catalog/internal/domain"
)

func seedOTT(store *memStore) (both, netflixOnly, watchaOnly *domain.Work) {
	add := func(title string, ids map[domain.Slot]int64) *domain.Work {
		w := store.addWork(&domain.Work{Domain: domain.DomainOTT, Title: title, Attributes: &domain.OTTAttributes{}})
		m := domain.NewPlatformMapping(w.ID, domain.DomainOTT)
		for slot, id := range ids {
			m.Set(slot, id)
		}
		store.addMapping(m)
		return w
	}
	both = add("Kingdom", map[domain.Slot]int64{domain.SlotNetflix: 1, domain.SlotWatcha: 1})
	netflixOnly = add("Squid Game", map[domain.Slot]int64{domain.SlotNetflix: 2})
	watchaOnly = add("Moving", map[domain.Slot]int64{domain.SlotWatcha: 3})
	return
}

func TestMappingQueries(t *testing.T) {
	store := newMemStore()
	both, netflixOnly, _ := seedOTT(store)
	uc := NewMappingUsecase(store, nil, nopLogger())
	ctx := context.Background()

	has, err := uc.HasPlatform(ctx, both.ID, "Netflix")
	if err != nil || !has {
		t.Fatalf("expected netflix on %d: %v %v", both.ID, has, err)
	}
	if _, err := uc.HasPlatform(ctx, both.ID, "steam"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for foreign platform, got %v", err)
	}

	available, err := uc.FindAvailableOn(ctx, domain.DomainOTT, "netflix")
	if err != nil || len(available) != 2 {
		t.Fatalf("expected 2 works on netflix, got %d (%v)", len(available), err)
	}

	exclusive, err := uc.FindExclusiveTo(ctx, domain.DomainOTT, "netflix")
	if err != nil || len(exclusive) != 1 || exclusive[0].WorkID != netflixOnly.ID {
		t.Fatalf("unexpected exclusives %+v (%v)", exclusive, err)
	}

	multi, err := uc.FindMultiPlatform(ctx, domain.DomainOTT)
	if err != nil || len(multi) != 1 || multi[0].WorkID != both.ID {
		t.Fatalf("unexpected multi platform %+v (%v)", multi, err)
	}

	owner, err := uc.FindByPlatformID(ctx, domain.DomainOTT, "watcha", 1)
	if err != nil || owner.WorkID != both.ID {
		t.Fatalf("unexpected owner %+v (%v)", owner, err)
	}
	if _, err := uc.FindByPlatformID(ctx, domain.DomainOTT, "watcha", 99); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRemoveFromPlatform(t *testing.T) {
	store := newMemStore()
	both, _, _ := seedOTT(store)
	uc := NewMappingUsecase(store, nil, nopLogger())
	ctx := context.Background()

	removed, err := uc.RemoveFromPlatform(ctx, both.ID, "watcha")
	if err != nil || !removed {
		t.Fatalf("expected removal: %v %v", removed, err)
	}
	removed, err = uc.RemoveFromPlatform(ctx, both.ID, "watcha")
	if err != nil || removed {
		t.Fatalf("second removal should be a no-op: %v %v", removed, err)
	}
	if store.mapping(both.ID).Has(domain.SlotWatcha) {
		t.Fatalf("slot still populated")
	}
	if _, err := uc.RemoveFromPlatform(ctx, 999, "watcha"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPlatformStats(t *testing.T) {
	store := newMemStore()
	seedOTT(store)
	uc := NewMappingUsecase(store, nil, nopLogger())

	stats, err := uc.PlatformStats(context.Background(), domain.DomainOTT)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	b, _ := json.Marshal(stats)
	if string(b) != `{"netflix":2,"disneyPlus":0,"watcha":2,"wavve":0}` {
		t.Fatalf("unexpected stats %s", b)
	}
}

func TestLink(t *testing.T) {
	store := newMemStore()
	both, netflixOnly, _ := seedOTT(store)
	publisher := &recordingPublisher{}
	uc := NewMappingUsecase(store, publisher, nopLogger())
	ctx := context.Background()

	mapping, err := uc.Link(ctx, netflixOnly.ID, "wavve", 77)
	if err != nil {
		t.Fatalf("link failed: %v", err)
	}
	if id, ok := mapping.Get(domain.SlotWavve); !ok || id != 77 {
		t.Fatalf("wavve not linked: %+v", mapping.IDs)
	}
	if publisher.types() != domain.EventWorkMerged {
		t.Fatalf("unexpected events %s", publisher.types())
	}

	if _, err := uc.Link(ctx, netflixOnly.ID, "watcha", 1); !errors.Is(err, domain.ErrConcurrencyConflict) {
		t.Fatalf("expected conflict when id belongs to %d, got %v", both.ID, err)
	}
}
