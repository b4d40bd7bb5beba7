package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/alldopamine/catalog/internal/domain"
	"github.com/alldopamine/catalog/internal/infra/database/models"
)

type ConfigRepository struct {
	db *gorm.DB
}

func NewConfigRepository(db *gorm.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

func (r *ConfigRepository) preload(db *gorm.DB) *gorm.DB {
	return db.
		Preload("FieldMappings", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Calculations", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })
}

func (r *ConfigRepository) Get(ctx context.Context, id int64) (*domain.IntegrationConfig, error) {
	var m models.IntegrationConfig
	if err := r.preload(r.db.WithContext(ctx)).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translate(err, "integration config")
	}
	return configFromModel(m), nil
}

func (r *ConfigRepository) ListActive(ctx context.Context, d domain.Domain) ([]domain.IntegrationConfig, error) {
	var rows []models.IntegrationConfig
	err := r.preload(r.db.WithContext(ctx)).
		Where("domain = ? AND active", string(d)).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "integration config")
	}
	out := make([]domain.IntegrationConfig, 0, len(rows))
	for _, row := range rows {
		out = append(out, *configFromModel(row))
	}
	return out, nil
}

func (r *ConfigRepository) Create(ctx context.Context, config *domain.IntegrationConfig) error {
	m := configToModel(config)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return translate(err, "integration config")
	}
	*config = *configFromModel(m)
	return nil
}

// Update replaces the config row and all of its rules.
func (r *ConfigRepository) Update(ctx context.Context, config *domain.IntegrationConfig) error {
	m := configToModel(config)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.IntegrationConfig{}).
			Where("id = ?", m.ID).
			Updates(map[string]any{
				"domain":      m.Domain,
				"name":        m.Name,
				"description": m.Description,
				"active":      m.Active,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Where("config_id = ?", m.ID).Delete(&models.FieldMappingRule{}).Error; err != nil {
			return err
		}
		if err := tx.Where("config_id = ?", m.ID).Delete(&models.CalculationRule{}).Error; err != nil {
			return err
		}
		if len(m.FieldMappings) > 0 {
			if err := tx.Create(&m.FieldMappings).Error; err != nil {
				return err
			}
		}
		if len(m.Calculations) > 0 {
			if err := tx.Create(&m.Calculations).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return translate(err, "integration config")
	}

	updated, err := r.Get(ctx, config.ID)
	if err != nil {
		return err
	}
	*config = *updated
	return nil
}

func (r *ConfigRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.IntegrationConfig{})
	if result.Error != nil {
		return translate(result.Error, "integration config")
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "integration config"}
	}
	return nil
}
