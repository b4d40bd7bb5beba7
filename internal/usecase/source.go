package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/alldopamine/catalog/internal/domain"
	"github.com/alldopamine/catalog/internal/logging"
	"github.com/alldopamine/catalog/internal/textutil"
)

// SourceUsecase stages crawler records for later integration.
type SourceUsecase struct {
	tx     Transactor
	logger *slog.Logger
}

func NewSourceUsecase(tx Transactor, logger *slog.Logger) *SourceUsecase {
	return &SourceUsecase{
		tx:     tx,
		logger: logging.NewComponentLogger(logger, "source"),
	}
}

// Stage stores rec under its domain, slot and platform id. Platform name
// aliases resolve to the same slot, so staging the same triple again
// replaces the earlier payload.
func (uc *SourceUsecase) Stage(ctx context.Context, rec domain.PlatformRecord) (*domain.SourceRecord, error) {
	ctx, span := tracer.Start(ctx, "Source.Usecase.Stage")
	defer span.End()

	rec.Title = textutil.SanitizeText(rec.Title)
	rec.Synopsis = textutil.SanitizePtr(rec.Synopsis)
	if err := rec.Validate(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	slot, _ := rec.Slot()

	src := &domain.SourceRecord{
		Platform:  string(slot),
		SourceID:  rec.PlatformID,
		Record:    rec,
		FetchedAt: time.Now(),
	}
	if err := uc.tx.Repositories().Sources.Save(ctx, src); err != nil {
		span.RecordError(err)
		return nil, err
	}

	uc.logger.Debug("source staged",
		logging.Int64("source_id", src.ID),
		logging.String(logging.FieldPlatform, src.Platform),
		logging.String(logging.FieldDomain, string(rec.Domain)),
	)
	return src, nil
}
