package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/alldopamine/catalog/internal/domain"
	"github.com/alldopamine/catalog/internal/logging"
	"github.com/alldopamine/catalog/internal/utils"
)

// MappingUsecase answers platform availability questions.
type MappingUsecase struct {
	tx        Transactor
	publisher EventPublisher
	logger    *slog.Logger
}

func NewMappingUsecase(tx Transactor, publisher EventPublisher, logger *slog.Logger) *MappingUsecase {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &MappingUsecase{
		tx:        tx,
		publisher: publisher,
		logger:    logging.NewComponentLogger(logger, "mapping"),
	}
}

// Get returns the mapping of a work.
func (uc *MappingUsecase) Get(ctx context.Context, workID int64) (*domain.PlatformMapping, error) {
	repos := uc.tx.Repositories()
	work, err := repos.Works.FindByID(ctx, workID)
	if err != nil {
		return nil, err
	}
	return repos.Mappings.Get(ctx, work.ID, work.Domain)
}

func (uc *MappingUsecase) HasPlatform(ctx context.Context, workID int64, platform string) (bool, error) {
	repos := uc.tx.Repositories()
	work, err := repos.Works.FindByID(ctx, workID)
	if err != nil {
		return false, err
	}
	slot, err := domain.MustResolveSlot(work.Domain, platform)
	if err != nil {
		return false, err
	}
	mapping, err := repos.Mappings.Get(ctx, work.ID, work.Domain)
	if err != nil {
		return false, err
	}
	return mapping.Has(slot), nil
}

func (uc *MappingUsecase) FindByPlatformID(ctx context.Context, d domain.Domain, platform string, platformID int64) (*domain.PlatformMapping, error) {
	slot, err := domain.MustResolveSlot(d, platform)
	if err != nil {
		return nil, err
	}
	if platformID <= 0 {
		return nil, domain.ValidationError{Field: "platformId", Reason: "platform id must be positive"}
	}
	return uc.tx.Repositories().Mappings.FindByPlatformID(ctx, d, slot, platformID)
}

func (uc *MappingUsecase) FindAvailableOn(ctx context.Context, d domain.Domain, platform string) ([]*domain.PlatformMapping, error) {
	slot, err := domain.MustResolveSlot(d, platform)
	if err != nil {
		return nil, err
	}
	return uc.tx.Repositories().Mappings.FindAvailableOn(ctx, d, slot)
}

func (uc *MappingUsecase) FindExclusiveTo(ctx context.Context, d domain.Domain, platform string) ([]*domain.PlatformMapping, error) {
	slot, err := domain.MustResolveSlot(d, platform)
	if err != nil {
		return nil, err
	}
	return uc.tx.Repositories().Mappings.FindExclusiveTo(ctx, d, slot)
}

func (uc *MappingUsecase) FindMultiPlatform(ctx context.Context, d domain.Domain) ([]*domain.PlatformMapping, error) {
	if !d.Valid() {
		return nil, domain.ValidationError{Field: "domain", Reason: "unsupported domain " + string(d)}
	}
	return uc.tx.Repositories().Mappings.FindMultiPlatform(ctx, d)
}

// RemoveFromPlatform clears the slot of platform on the work's mapping.
func (uc *MappingUsecase) RemoveFromPlatform(ctx context.Context, workID int64, platform string) (bool, error) {
	ctx, span := tracer.Start(ctx, "Mapping.Usecase.RemoveFromPlatform")
	defer span.End()

	var removed bool
	err := uc.tx.InTx(ctx, func(ctx context.Context, repos Repositories) error {
		work, err := repos.Works.FindByID(ctx, workID)
		if err != nil {
			return err
		}
		slot, err := domain.MustResolveSlot(work.Domain, platform)
		if err != nil {
			return err
		}
		mapping, err := repos.Mappings.Get(ctx, work.ID, work.Domain)
		if err != nil {
			return err
		}
		removed, err = mapping.Set(slot, 0)
		if err != nil || !removed {
			return err
		}
		return repos.Mappings.Save(ctx, mapping)
	})
	if err != nil {
		span.RecordError(err)
		return false, errors.Wrap(err, "remove from platform")
	}
	if removed {
		uc.logger.Info("platform removed",
			logging.Int64(logging.FieldWorkID, workID),
			logging.String(logging.FieldPlatform, platform),
		)
	}
	return removed, nil
}

// PlatformStats counts the works registered on each slot of d, in the
// canonical slot order.
func (uc *MappingUsecase) PlatformStats(ctx context.Context, d domain.Domain) (*utils.OrderedMap[int64], error) {
	if !d.Valid() {
		return nil, domain.ValidationError{Field: "domain", Reason: "unsupported domain " + string(d)}
	}
	counts, err := uc.tx.Repositories().Mappings.CountBySlot(ctx, d)
	if err != nil {
		return nil, err
	}
	stats := utils.NewOrderedMap[int64]()
	for _, slot := range domain.SlotsFor(d) {
		stats.Set(string(slot), counts[slot])
	}
	return stats, nil
}

// Link registers an explicit platform id on a work.
func (uc *MappingUsecase) Link(ctx context.Context, workID int64, platform string, platformID int64) (*domain.PlatformMapping, error) {
	ctx, span := tracer.Start(ctx, "Mapping.Usecase.Link")
	defer span.End()

	if platformID <= 0 {
		return nil, domain.ValidationError{Field: "platformId", Reason: "platform id must be positive"}
	}

	var mapping *domain.PlatformMapping
	err := uc.tx.InTx(ctx, func(ctx context.Context, repos Repositories) error {
		work, err := repos.Works.FindByID(ctx, workID)
		if err != nil {
			return err
		}
		slot, err := domain.MustResolveSlot(work.Domain, platform)
		if err != nil {
			return err
		}
		owner, err := repos.Mappings.FindByPlatformID(ctx, work.Domain, slot, platformID)
		if err == nil && owner.WorkID != work.ID {
			return domain.ConcurrencyConflict{Key: string(slot), Cause: errors.Errorf("platform id %d already belongs to work %d", platformID, owner.WorkID)}
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if _, err := registerPlatform(ctx, repos.Mappings, work, slot, platformID, uc.logger); err != nil {
			return err
		}
		mapping, err = repos.Mappings.Get(ctx, work.ID, work.Domain)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	uc.publish(ctx, domain.WorkEvent{Type: domain.EventWorkMerged, WorkID: workID, Domain: mapping.Domain, Platform: platform, PlatformID: platformID, At: time.Now()})
	return mapping, nil
}

func (uc *MappingUsecase) publish(ctx context.Context, event domain.WorkEvent) {
	if err := uc.publisher.Publish(ctx, event); err != nil {
		uc.logger.Warn("event publish failed", logging.String("event", event.Type), logging.Error(err))
	}
}
