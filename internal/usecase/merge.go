package usecase

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/alldopamine/catalog/internal/domain"
	"github.com/alldopamine/catalog/internal/logging"
)

// MergeResult lists what a merge changed and which steps were skipped.
type MergeResult struct {
	Changed        []string                     `json:"changed,omitempty"`
	Partial        []domain.PartialMergeFailure `json:"partial,omitempty"`
	MappingChanged bool                         `json:"mappingChanged"`
}

// MergeRecord folds rec into work. Scalars are first-writer-wins, attribute
// maps and lists are unioned. A missing or foreign attribute variant skips
// the attribute step and is reported in the result.
func MergeRecord(work *domain.Work, rec domain.PlatformRecord, logger *slog.Logger) MergeResult {
	var result MergeResult
	result.Changed = work.MergeScalars(rec)

	if work.Attributes == nil {
		work.Attributes = domain.EmptyAttributes(work.Domain)
	}
	changed, err := work.Attributes.MergeFrom(rec.Attributes)
	if err != nil {
		failure := domain.PartialMergeFailure{Step: "attributes", Reason: err.Error()}
		result.Partial = append(result.Partial, failure)
		logger.Warn("attribute merge skipped",
			logging.Int64(logging.FieldWorkID, work.ID),
			logging.String(logging.FieldPlatform, rec.PlatformName),
			logging.Error(err),
		)
	} else {
		for _, name := range changed {
			result.Changed = append(result.Changed, "attributes."+name)
		}
	}
	return result
}

// registerPlatform records a platform id on the work's mapping, creating
// the mapping when the work has none. Registering an id twice is a no-op.
// Ingest only reaches it for works whose slot is free or already holds the
// id; an explicit Link may replace a different id.
func registerPlatform(ctx context.Context, mappings MappingRepository, work *domain.Work, slot domain.Slot, platformID int64, logger *slog.Logger) (bool, error) {
	mapping, err := mappings.Get(ctx, work.ID, work.Domain)
	if err != nil {
		return false, errors.Wrap(err, "load mapping")
	}

	if current, ok := mapping.Get(slot); ok && current != platformID {
		logger.Warn("platform id replaced",
			logging.Int64(logging.FieldWorkID, work.ID),
			logging.String("slot", string(slot)),
			logging.Int64("previous", current),
			logging.Int64("platform_id", platformID),
		)
	}

	changed, err := mapping.Set(slot, platformID)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}
	if err := mappings.Save(ctx, mapping); err != nil {
		return false, err
	}
	return true, nil
}
