package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alldopamine/catalog/internal/domain"
)

func seedMaintenance(store *memStore) (mapped, orphan, other *domain.Work) {
	mapped = store.addWork(&domain.Work{Domain: domain.DomainGame, Title: "Celeste", Attributes: &domain.GameAttributes{}})
	m := domain.NewPlatformMapping(mapped.ID, domain.DomainGame)
	m.Set(domain.SlotSteam, 1)
	m.Set(domain.SlotGOG, 2)
	store.addMapping(m)

	orphan = store.addWork(&domain.Work{Domain: domain.DomainGame, Title: "Celeste!", Attributes: &domain.GameAttributes{}})
	other = store.addWork(&domain.Work{Domain: domain.DomainMovie, Title: "Celeste", Attributes: &domain.MovieAttributes{}})
	return mapped, orphan, other
}

func TestCleanupOrphansRemovesOnlyUnmapped(t *testing.T) {
	store := newMemStore()
	mapped, orphan, other := seedMaintenance(store)
	uc := NewMaintenanceUsecase(store, nopLogger())
	ctx := context.Background()

	count, err := uc.CountOrphans(ctx, domain.DomainGame)
	if err != nil || count != 1 {
		t.Fatalf("expected one orphan, got %d (%v)", count, err)
	}

	deleted, err := uc.CleanupOrphans(ctx, domain.DomainGame)
	if err != nil || deleted != 1 {
		t.Fatalf("expected one deletion, got %d (%v)", deleted, err)
	}
	if store.work(orphan.ID) != nil {
		t.Fatalf("orphan survived cleanup")
	}
	if store.work(mapped.ID) == nil || store.work(other.ID) == nil {
		t.Fatalf("cleanup removed mapped work or another domain's work")
	}
}

func TestStatus(t *testing.T) {
	store := newMemStore()
	seedMaintenance(store)
	uc := NewMaintenanceUsecase(store, nopLogger())

	status, err := uc.Status(context.Background(), domain.DomainGame)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status.Works != 2 || status.MappedWorks != 1 || status.Orphans != 1 {
		t.Fatalf("unexpected status %+v", status)
	}
	b, err := json.Marshal(status.Slots)
	if err != nil {
		t.Fatalf("marshal slots: %v", err)
	}
	if string(b) != `{"steam":1,"epic":0,"gog":1}` {
		t.Fatalf("unexpected slot counts %s", b)
	}
}

func TestFindTitleDuplicates(t *testing.T) {
	store := newMemStore()
	mapped, orphan, _ := seedMaintenance(store)
	store.addWork(&domain.Work{Domain: domain.DomainGame, Title: "Hades", Attributes: &domain.GameAttributes{}})
	uc := NewMaintenanceUsecase(store, nopLogger())

	groups, err := uc.FindTitleDuplicates(context.Background(), domain.DomainGame)
	if err != nil {
		t.Fatalf("find duplicates failed: %v", err)
	}
	if len(groups) != 1 || groups[0].NormalizedTitle != "celeste" {
		t.Fatalf("unexpected groups %+v", groups)
	}
	if groups[0].Works[0].ID != mapped.ID || groups[0].Works[1].ID != orphan.ID {
		t.Fatalf("unexpected group members %+v", groups[0].Works)
	}
}

func TestMaintenanceRejectsUnknownDomain(t *testing.T) {
	uc := NewMaintenanceUsecase(newMemStore(), nopLogger())
	if _, err := uc.Status(context.Background(), "BOOK"); err == nil {
		t.Fatalf("expected validation error")
	}
}
