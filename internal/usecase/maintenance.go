package usecase

import (
	"context"
	"log/slog"
	"sort"

	"github.com/alldopamine/catalog/internal/domain"
	"github.com/alldopamine/catalog/internal/logging"
	"github.com/alldopamine/catalog/internal/textutil"
	"github.com/alldopamine/catalog/internal/utils"
)

// MaintenanceUsecase reports on and cleans up the catalog.
type MaintenanceUsecase struct {
	tx     Transactor
	logger *slog.Logger
}

func NewMaintenanceUsecase(tx Transactor, logger *slog.Logger) *MaintenanceUsecase {
	return &MaintenanceUsecase{
		tx:     tx,
		logger: logging.NewComponentLogger(logger, "maintenance"),
	}
}

type Status struct {
	Domain      domain.Domain            `json:"domain"`
	Works       int64                    `json:"works"`
	MappedWorks int64                    `json:"mappedWorks"`
	Orphans     int64                    `json:"orphans"`
	Slots       *utils.OrderedMap[int64] `json:"slots"`
}

// DuplicateGroup is a set of works sharing one normalized title.
type DuplicateGroup struct {
	NormalizedTitle string         `json:"normalizedTitle"`
	Works           []*domain.Work `json:"works"`
}

func (uc *MaintenanceUsecase) CountOrphans(ctx context.Context, d domain.Domain) (int64, error) {
	if err := validDomain(d); err != nil {
		return 0, err
	}
	return uc.tx.Repositories().Works.CountOrphans(ctx, d)
}

// CleanupOrphans deletes the works of d that have no platform mapping.
func (uc *MaintenanceUsecase) CleanupOrphans(ctx context.Context, d domain.Domain) (int64, error) {
	ctx, span := tracer.Start(ctx, "Maintenance.Usecase.CleanupOrphans")
	defer span.End()

	if err := validDomain(d); err != nil {
		return 0, err
	}
	var deleted int64
	err := uc.tx.InTx(ctx, func(ctx context.Context, repos Repositories) error {
		var err error
		deleted, err = repos.Works.DeleteOrphans(ctx, d)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	uc.logger.Info("orphans removed",
		logging.String(logging.FieldDomain, string(d)),
		logging.Int64("deleted", deleted),
	)
	return deleted, nil
}

func (uc *MaintenanceUsecase) Status(ctx context.Context, d domain.Domain) (*Status, error) {
	if err := validDomain(d); err != nil {
		return nil, err
	}
	repos := uc.tx.Repositories()

	works, err := repos.Works.Count(ctx, d)
	if err != nil {
		return nil, err
	}
	mapped, err := repos.Mappings.CountMapped(ctx, d)
	if err != nil {
		return nil, err
	}
	orphans, err := repos.Works.CountOrphans(ctx, d)
	if err != nil {
		return nil, err
	}
	counts, err := repos.Mappings.CountBySlot(ctx, d)
	if err != nil {
		return nil, err
	}

	slots := utils.NewOrderedMap[int64]()
	for _, slot := range domain.SlotsFor(d) {
		slots.Set(string(slot), counts[slot])
	}
	return &Status{
		Domain:      d,
		Works:       works,
		MappedWorks: mapped,
		Orphans:     orphans,
		Slots:       slots,
	}, nil
}

// FindTitleDuplicates groups works of d whose normalized titles are equal.
// Groups are ordered by normalized title, works by id.
func (uc *MaintenanceUsecase) FindTitleDuplicates(ctx context.Context, d domain.Domain) ([]DuplicateGroup, error) {
	if err := validDomain(d); err != nil {
		return nil, err
	}
	works, err := uc.tx.Repositories().Works.FindByDomain(ctx, d)
	if err != nil {
		return nil, err
	}

	byTitle := map[string][]*domain.Work{}
	for _, w := range works {
		key := textutil.Normalize(w.Title)
		byTitle[key] = append(byTitle[key], w)
	}

	var groups []DuplicateGroup
	for title, ws := range byTitle {
		if len(ws) < 2 {
			continue
		}
		sort.Slice(ws, func(i, j int) bool { return ws[i].ID < ws[j].ID })
		groups = append(groups, DuplicateGroup{NormalizedTitle: title, Works: ws})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].NormalizedTitle < groups[j].NormalizedTitle })
	return groups, nil
}

func validDomain(d domain.Domain) error {
	if !d.Valid() {
		return domain.ValidationError{Field: "domain", Reason: "unsupported domain " + string(d)}
	}
	return nil
}
