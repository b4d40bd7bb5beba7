package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/alldopamine/catalog/internal/domain"
	"github.com/alldopamine/catalog/internal/infra/database/models"
)

type SourceRecordRepository struct {
	db *gorm.DB
}

func NewSourceRecordRepository(db *gorm.DB) *SourceRecordRepository {
	return &SourceRecordRepository{db: db}
}

// FindByIDs returns the records that exist, ordered by id. Missing ids are
// silently skipped.
func (r *SourceRecordRepository) FindByIDs(ctx context.Context, ids []int64) ([]domain.SourceRecord, error) {
	if len(ids) == 0 {
		return []domain.SourceRecord{}, nil
	}
	var rows []models.SourceRecord
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, translate(err, "source record")
	}

	out := make([]domain.SourceRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := sourceFromModel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Save stages record, replacing the payload of an earlier fetch of the
// same (domain, platform, id).
func (r *SourceRecordRepository) Save(ctx context.Context, record *domain.SourceRecord) error {
	env, err := envelopeFromRecord(record.Record)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, "encode payload")
	}

	fetchedAt := record.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	row := models.SourceRecord{
		Domain:    string(record.Record.Domain),
		Platform:  record.Platform,
		SourceID:  record.SourceID,
		Payload:   payload,
		FetchedAt: fetchedAt,
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "domain"}, {Name: "platform"}, {Name: "source_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "fetched_at"}),
	}).Create(&row).Error
	if err != nil {
		return translate(err, "source record")
	}

	record.ID = row.ID
	record.FetchedAt = fetchedAt
	return nil
}
