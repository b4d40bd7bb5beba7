package usecase

import (
	"context"

	"github.com/alldopamine/catalog/internal/domain"
)

// WorkRepository defines storage operations for canonical works.
type WorkRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Work, error)
	FindByDomainAndAuthorKey(ctx context.Context, d domain.Domain, authorKey string) ([]*domain.Work, error)
	FindByDomain(ctx context.Context, d domain.Domain) ([]*domain.Work, error)
	// Save inserts the work when its ID is zero and assigns the new ID.
	Save(ctx context.Context, work *domain.Work) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context, d domain.Domain) (int64, error)
	CountOrphans(ctx context.Context, d domain.Domain) (int64, error)
	DeleteOrphans(ctx context.Context, d domain.Domain) (int64, error)
	// LockKey serializes writers of key until the surrounding transaction ends.
	LockKey(ctx context.Context, key string) error
}

// MappingRepository defines storage operations for platform mappings.
type MappingRepository interface {
	// Get returns the mapping of the work, empty when none was stored.
	Get(ctx context.Context, workID int64, d domain.Domain) (*domain.PlatformMapping, error)
	Save(ctx context.Context, mapping *domain.PlatformMapping) error
	FindByPlatformID(ctx context.Context, d domain.Domain, slot domain.Slot, platformID int64) (*domain.PlatformMapping, error)
	FindAvailableOn(ctx context.Context, d domain.Domain, slot domain.Slot) ([]*domain.PlatformMapping, error)
	FindExclusiveTo(ctx context.Context, d domain.Domain, slot domain.Slot) ([]*domain.PlatformMapping, error)
	FindMultiPlatform(ctx context.Context, d domain.Domain) ([]*domain.PlatformMapping, error)
	CountBySlot(ctx context.Context, d domain.Domain) (map[domain.Slot]int64, error)
	CountMapped(ctx context.Context, d domain.Domain) (int64, error)
}

// SourceRecordRepository loads staged crawler records.
type SourceRecordRepository interface {
	FindByIDs(ctx context.Context, ids []int64) ([]domain.SourceRecord, error)
	Save(ctx context.Context, record *domain.SourceRecord) error
}

// ConfigRepository stores integration configurations.
type ConfigRepository interface {
	Get(ctx context.Context, id int64) (*domain.IntegrationConfig, error)
	ListActive(ctx context.Context, d domain.Domain) ([]domain.IntegrationConfig, error)
	Create(ctx context.Context, config *domain.IntegrationConfig) error
	Update(ctx context.Context, config *domain.IntegrationConfig) error
	Delete(ctx context.Context, id int64) error
}

// Repositories groups the repositories bound to one transaction.
type Repositories struct {
	Works    WorkRepository
	Mappings MappingRepository
	Sources  SourceRecordRepository
}

// Transactor runs fn with repositories bound to a single transaction.
// Returning an error from fn rolls everything back.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	Repositories() Repositories
}

// KeyLocker serializes callers sharing a key. The returned function
// releases the lock.
type KeyLocker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// EventPublisher announces committed changes.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.WorkEvent) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, domain.WorkEvent) error { return nil }
