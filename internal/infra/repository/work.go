package repository

import (
	"context"

	"github.com/zeebo/xxh3"
	"gorm.io/gorm"

	"github.com/alldopamine/catalog/internal/domain"
	"github.com/alldopamine/catalog/internal/infra/database/models"
)

const orphanCondition = "NOT EXISTS (SELECT 1 FROM mapping_entries m WHERE m.work_id = works.id)"

type WorkRepository struct {
	db *gorm.DB
}

func NewWorkRepository(db *gorm.DB) *WorkRepository {
	return &WorkRepository{db: db}
}

func (r *WorkRepository) FindByID(ctx context.Context, id int64) (*domain.Work, error) {
	var m models.Work
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translate(err, "work")
	}
	return workFromModel(m)
}

func (r *WorkRepository) FindByDomainAndAuthorKey(ctx context.Context, d domain.Domain, authorKey string) ([]*domain.Work, error) {
	var rows []models.Work
	err := r.db.WithContext(ctx).
		Where("domain = ? AND author_key = ?", string(d), authorKey).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "work")
	}
	return worksFromModels(rows)
}

func (r *WorkRepository) FindByDomain(ctx context.Context, d domain.Domain) ([]*domain.Work, error) {
	var rows []models.Work
	err := r.db.WithContext(ctx).
		Where("domain = ?", string(d)).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "work")
	}
	return worksFromModels(rows)
}

func (r *WorkRepository) Save(ctx context.Context, work *domain.Work) error {
	m, err := workToModel(work)
	if err != nil {
		return err
	}

	db := r.db.WithContext(ctx)
	if m.ID == 0 {
		err = db.Create(&m).Error
	} else {
		err = db.Save(&m).Error
	}
	if err != nil {
		return translate(err, "work")
	}

	work.ID = m.ID
	work.UpdatedAt = m.MDate
	switch {
	case !m.CDate.IsZero():
		work.CreatedAt = m.CDate
	case work.CreatedAt.IsZero():
		work.CreatedAt = m.MDate
	}
	return nil
}

func (r *WorkRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Work{})
	if result.Error != nil {
		return translate(result.Error, "work")
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "work"}
	}
	return nil
}

func (r *WorkRepository) Count(ctx context.Context, d domain.Domain) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Work{}).Where("domain = ?", string(d)).Count(&count).Error
	return count, translate(err, "work")
}

func (r *WorkRepository) CountOrphans(ctx context.Context, d domain.Domain) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Work{}).
		Where("domain = ?", string(d)).
		Where(orphanCondition).
		Count(&count).Error
	return count, translate(err, "work")
}

func (r *WorkRepository) DeleteOrphans(ctx context.Context, d domain.Domain) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("domain = ?", string(d)).
		Where(orphanCondition).
		Delete(&models.Work{})
	if result.Error != nil {
		return 0, translate(result.Error, "work")
	}
	return result.RowsAffected, nil
}

// LockKey takes a transaction scoped advisory lock. Outside a transaction
// the lock is released as soon as the statement finishes.
func (r *WorkRepository) LockKey(ctx context.Context, key string) error {
	err := r.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", advisoryKey(key)).Error
	return translate(err, "lock "+key)
}

func advisoryKey(key string) int64 {
	return int64(xxh3.HashString(key))
}

func worksFromModels(rows []models.Work) ([]*domain.Work, error) {
	works := make([]*domain.Work, 0, len(rows))
	for _, row := range rows {
		w, err := workFromModel(row)
		if err != nil {
			return nil, err
		}
		works = append(works, w)
	}
	return works, nil
}
