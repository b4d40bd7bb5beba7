package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/alldopamine/catalog/internal/domain"
	"github.com/alldopamine/catalog/internal/infra/database/models"
)

// MappingRepository stores each populated slot as one row. The unique
// index on (domain, slot, platform_id) keeps a platform id with one work.
type MappingRepository struct {
	db *gorm.DB
}

func NewMappingRepository(db *gorm.DB) *MappingRepository {
	return &MappingRepository{db: db}
}

func (r *MappingRepository) Get(ctx context.Context, workID int64, d domain.Domain) (*domain.PlatformMapping, error) {
	var rows []models.MappingEntry
	if err := r.db.WithContext(ctx).Where("work_id = ?", workID).Find(&rows).Error; err != nil {
		return nil, translate(err, "mapping")
	}
	mapping := domain.NewPlatformMapping(workID, d)
	for _, row := range rows {
		mapping.IDs[domain.Slot(row.Slot)] = row.PlatformID
	}
	return mapping, nil
}

func (r *MappingRepository) Save(ctx context.Context, mapping *domain.PlatformMapping) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slots := mapping.Slots()
		names := make([]string, 0, len(slots))
		for _, slot := range slots {
			names = append(names, string(slot))
		}

		stale := tx.Where("work_id = ?", mapping.WorkID)
		if len(names) > 0 {
			stale = stale.Where("slot NOT IN ?", names)
		}
		if err := stale.Delete(&models.MappingEntry{}).Error; err != nil {
			return err
		}

		for _, slot := range slots {
			id, _ := mapping.Get(slot)
			entry := models.MappingEntry{
				WorkID:     mapping.WorkID,
				Domain:     string(mapping.Domain),
				Slot:       string(slot),
				PlatformID: id,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "work_id"}, {Name: "slot"}},
				DoUpdates: clause.AssignmentColumns([]string{"domain", "platform_id"}),
			}).Create(&entry).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	return translate(err, "mapping")
}

func (r *MappingRepository) FindByPlatformID(ctx context.Context, d domain.Domain, slot domain.Slot, platformID int64) (*domain.PlatformMapping, error) {
	var entry models.MappingEntry
	err := r.db.WithContext(ctx).
		Where("domain = ? AND slot = ? AND platform_id = ?", string(d), string(slot), platformID).
		First(&entry).Error
	if err != nil {
		return nil, translate(err, "mapping")
	}
	return r.Get(ctx, entry.WorkID, d)
}

func (r *MappingRepository) FindAvailableOn(ctx context.Context, d domain.Domain, slot domain.Slot) ([]*domain.PlatformMapping, error) {
	var workIDs []int64
	err := r.db.WithContext(ctx).
		Model(&models.MappingEntry{}).
		Where("domain = ? AND slot = ?", string(d), string(slot)).
		Order("work_id ASC").
		Pluck("work_id", &workIDs).Error
	if err != nil {
		return nil, translate(err, "mapping")
	}
	return r.load(ctx, d, workIDs)
}

func (r *MappingRepository) FindExclusiveTo(ctx context.Context, d domain.Domain, slot domain.Slot) ([]*domain.PlatformMapping, error) {
	var workIDs []int64
	err := r.db.WithContext(ctx).
		Model(&models.MappingEntry{}).
		Where("domain = ?", string(d)).
		Group("work_id").
		Having("COUNT(*) = 1 AND BOOL_OR(slot = ?)", string(slot)).
		Order("work_id ASC").
		Pluck("work_id", &workIDs).Error
	if err != nil {
		return nil, translate(err, "mapping")
	}
	return r.load(ctx, d, workIDs)
}

func (r *MappingRepository) FindMultiPlatform(ctx context.Context, d domain.Domain) ([]*domain.PlatformMapping, error) {
	var workIDs []int64
	err := r.db.WithContext(ctx).
		Model(&models.MappingEntry{}).
		Where("domain = ?", string(d)).
		Group("work_id").
		Having("COUNT(*) >= 2").
		Order("work_id ASC").
		Pluck("work_id", &workIDs).Error
	if err != nil {
		return nil, translate(err, "mapping")
	}
	return r.load(ctx, d, workIDs)
}

func (r *MappingRepository) CountBySlot(ctx context.Context, d domain.Domain) (map[domain.Slot]int64, error) {
	var rows []struct {
		Slot  string
		Count int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.MappingEntry{}).
		Select("slot, COUNT(*) AS count").
		Where("domain = ?", string(d)).
		Group("slot").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err, "mapping")
	}
	counts := make(map[domain.Slot]int64, len(rows))
	for _, row := range rows {
		counts[domain.Slot(row.Slot)] = row.Count
	}
	return counts, nil
}

func (r *MappingRepository) CountMapped(ctx context.Context, d domain.Domain) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.MappingEntry{}).
		Where("domain = ?", string(d)).
		Distinct("work_id").
		Count(&count).Error
	return count, translate(err, "mapping")
}

func (r *MappingRepository) load(ctx context.Context, d domain.Domain, workIDs []int64) ([]*domain.PlatformMapping, error) {
	if len(workIDs) == 0 {
		return []*domain.PlatformMapping{}, nil
	}

	var rows []models.MappingEntry
	err := r.db.WithContext(ctx).
		Where("work_id IN ?", workIDs).
		Order("work_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "mapping")
	}

	byWork := make(map[int64]*domain.PlatformMapping, len(workIDs))
	for _, row := range rows {
		m, ok := byWork[row.WorkID]
		if !ok {
			m = domain.NewPlatformMapping(row.WorkID, d)
			byWork[row.WorkID] = m
		}
		m.IDs[domain.Slot(row.Slot)] = row.PlatformID
	}

	out := make([]*domain.PlatformMapping, 0, len(workIDs))
	for _, id := range workIDs {
		if m, ok := byWork[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}
