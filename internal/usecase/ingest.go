package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/alldopamine/catalog/internal/domain"
	"github.com/alldopamine/catalog/internal/logging"
	"github.com/alldopamine/catalog/internal/textutil"
)

var tracer = otel.Tracer("usecase")

type IngestAction string

const (
	// ActionCreated means no duplicate was found and a new work was stored.
	ActionCreated IngestAction = "created"
	// ActionMerged means the record was merged into a similar work.
	ActionMerged IngestAction = "merged"
	// ActionRefreshed means the platform id was already registered and the
	// record only refreshed the work it belongs to.
	ActionRefreshed IngestAction = "refreshed"
)

type IngestResult struct {
	Work   *domain.Work `json:"work"`
	Action IngestAction `json:"action"`
	Score  float64      `json:"score,omitempty"`
	MergeResult
}

type IngestUsecase struct {
	tx         Transactor
	locker     KeyLocker
	publisher  EventPublisher
	threshold  float64
	maxRetries int
	logger     *slog.Logger
}

type IngestOption func(*IngestUsecase)

func WithThreshold(threshold float64) IngestOption {
	return func(uc *IngestUsecase) {
		if threshold > 0 && threshold <= 1 {
			uc.threshold = threshold
		}
	}
}

func WithMaxRetries(n int) IngestOption {
	return func(uc *IngestUsecase) {
		if n >= 0 {
			uc.maxRetries = n
		}
	}
}

func WithPublisher(p EventPublisher) IngestOption {
	return func(uc *IngestUsecase) {
		if p != nil {
			uc.publisher = p
		}
	}
}

func WithIngestLogger(logger *slog.Logger) IngestOption {
	return func(uc *IngestUsecase) {
		uc.logger = logging.NewComponentLogger(logger, "ingest")
	}
}

func NewIngestUsecase(tx Transactor, locker KeyLocker, opts ...IngestOption) *IngestUsecase {
	uc := &IngestUsecase{
		tx:         tx,
		locker:     locker,
		publisher:  nopPublisher{},
		threshold:  textutil.DefaultThreshold,
		maxRetries: 3,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Ingest resolves the identity of rec and either merges it into an existing
// work or stores it as a new one. The whole decision runs in one
// transaction and is serialized per author key.
func (uc *IngestUsecase) Ingest(ctx context.Context, rec domain.PlatformRecord) (*IngestResult, error) {
	ctx, span := tracer.Start(ctx, "Ingest.Usecase.Ingest")
	defer span.End()

	rec.Title = textutil.SanitizeText(rec.Title)
	rec.Synopsis = textutil.SanitizePtr(rec.Synopsis)
	if err := rec.Validate(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	slot, _ := rec.Slot()

	key := lockKey(rec, slot)
	span.SetAttributes(attribute.String("catalog.lock_key", key))

	unlock, err := uc.locker.Lock(ctx, key)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "acquire ingest lock")
	}
	defer unlock()

	var result *IngestResult
	for attempt := 0; ; attempt++ {
		result, err = uc.ingestOnce(ctx, rec, slot, key)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrConcurrencyConflict) || attempt >= uc.maxRetries {
			span.RecordError(err)
			return nil, err
		}
		uc.logger.Warn("ingest conflict, retrying",
			logging.String("key", key),
			logging.Int("attempt", attempt+1),
			logging.Error(err),
		)
	}

	eventType := domain.EventWorkMerged
	if result.Action == ActionCreated {
		eventType = domain.EventWorkCreated
	}
	uc.publish(ctx, domain.WorkEvent{
		Type:       eventType,
		WorkID:     result.Work.ID,
		Domain:     rec.Domain,
		Platform:   string(slot),
		PlatformID: rec.PlatformID,
		At:         time.Now(),
	})

	uc.logger.Info("record ingested",
		logging.String("action", string(result.Action)),
		logging.Int64(logging.FieldWorkID, result.Work.ID),
		logging.String(logging.FieldDomain, string(rec.Domain)),
		logging.String(logging.FieldPlatform, string(slot)),
		logging.Float64("score", result.Score),
	)
	return result, nil
}

func (uc *IngestUsecase) ingestOnce(ctx context.Context, rec domain.PlatformRecord, slot domain.Slot, key string) (*IngestResult, error) {
	var result *IngestResult
	err := uc.tx.InTx(ctx, func(ctx context.Context, repos Repositories) error {
		result = nil
		if err := repos.Works.LockKey(ctx, key); err != nil {
			return err
		}

		owner, err := repos.Mappings.FindByPlatformID(ctx, rec.Domain, slot, rec.PlatformID)
		switch {
		case err == nil:
			work, err := repos.Works.FindByID(ctx, owner.WorkID)
			if err != nil {
				return errors.Wrap(err, "load mapped work")
			}
			result, err = uc.mergeInto(ctx, repos, work, rec, slot)
			if err != nil {
				return err
			}
			result.Action = ActionRefreshed
			result.Score = 1
			return nil
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}

		candidates, err := FindCandidates(ctx, repos.Works, rec)
		if err != nil {
			return errors.Wrap(err, "find candidates")
		}
		candidates, err = uc.openCandidates(ctx, repos.Mappings, candidates, slot)
		if err != nil {
			return err
		}
		if match, ok := BestMatch(rec.Title, candidates, uc.threshold); ok {
			result, err = uc.mergeInto(ctx, repos, match.Work, rec, slot)
			if err != nil {
				return err
			}
			result.Action = ActionMerged
			result.Score = match.Score
			return nil
		}

		work := domain.NewWorkFromRecord(rec)
		if err := repos.Works.Save(ctx, work); err != nil {
			return errors.Wrap(err, "create work")
		}
		mapping := domain.NewPlatformMapping(work.ID, work.Domain)
		if _, err := mapping.Set(slot, rec.PlatformID); err != nil {
			return err
		}
		if err := repos.Mappings.Save(ctx, mapping); err != nil {
			return err
		}
		result = &IngestResult{
			Work:        work,
			Action:      ActionCreated,
			MergeResult: MergeResult{MappingChanged: true},
		}
		if rec.Attributes == nil || rec.Attributes.Domain() != rec.Domain {
			result.Partial = append(result.Partial, domain.PartialMergeFailure{
				Step:   "attributes",
				Reason: "record carries no " + string(rec.Domain) + " attributes",
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// openCandidates drops works that already list a different id on slot.
// A platform lists a work once, so such a work is a sibling (a sequel or
// another season), not the same work.
func (uc *IngestUsecase) openCandidates(ctx context.Context, mappings MappingRepository, candidates []*domain.Work, slot domain.Slot) ([]*domain.Work, error) {
	open := candidates[:0:0]
	for _, c := range candidates {
		mapping, err := mappings.Get(ctx, c.ID, c.Domain)
		if err != nil {
			return nil, errors.Wrap(err, "load candidate mapping")
		}
		if mapping.Has(slot) {
			uc.logger.Debug("candidate skipped, slot taken",
				logging.Int64(logging.FieldWorkID, c.ID),
				logging.String("slot", string(slot)),
			)
			continue
		}
		open = append(open, c)
	}
	return open, nil
}

func (uc *IngestUsecase) mergeInto(ctx context.Context, repos Repositories, work *domain.Work, rec domain.PlatformRecord, slot domain.Slot) (*IngestResult, error) {
	merged := MergeRecord(work, rec, uc.logger)
	if len(merged.Changed) > 0 {
		if err := repos.Works.Save(ctx, work); err != nil {
			return nil, errors.Wrap(err, "save merged work")
		}
	}
	changed, err := registerPlatform(ctx, repos.Mappings, work, slot, rec.PlatformID, uc.logger)
	if err != nil {
		return nil, err
	}
	merged.MappingChanged = changed
	return &IngestResult{Work: work, MergeResult: merged}, nil
}

func (uc *IngestUsecase) publish(ctx context.Context, event domain.WorkEvent) {
	if err := uc.publisher.Publish(ctx, event); err != nil {
		uc.logger.Warn("event publish failed",
			logging.String("event", event.Type),
			logging.Int64(logging.FieldWorkID, event.WorkID),
			logging.Error(err),
		)
	}
}

// BatchItem is the outcome of one record of a batch.
type BatchItem struct {
	Index  int           `json:"index"`
	Result *IngestResult `json:"result,omitempty"`
	Err    error         `json:"-"`
}

// IngestBatch ingests records sequentially. A failing record does not stop
// the batch.
func (uc *IngestUsecase) IngestBatch(ctx context.Context, recs []domain.PlatformRecord) (string, []BatchItem) {
	runID := uuid.NewString()
	logger := uc.logger.With(logging.String(logging.FieldRunID, runID))

	items := make([]BatchItem, 0, len(recs))
	for i, rec := range recs {
		if err := ctx.Err(); err != nil {
			items = append(items, BatchItem{Index: i, Err: err})
			continue
		}
		result, err := uc.Ingest(ctx, rec)
		if err != nil {
			logger.Error("record failed",
				logging.Int("index", i),
				logging.String("title", rec.Title),
				logging.Error(err),
			)
		}
		items = append(items, BatchItem{Index: i, Result: result, Err: err})
	}
	logger.Info("batch finished", logging.Int("records", len(recs)))
	return runID, items
}

// lockKey serializes merge decisions per author key, or per platform id
// when the record has no key.
func lockKey(rec domain.PlatformRecord, slot domain.Slot) string {
	if key := rec.AuthorKey(); key != "" && rec.Domain.HasAuthorKey() {
		return fmt.Sprintf("%s/author/%s", rec.Domain, key)
	}
	return fmt.Sprintf("%s/%s/%d", rec.Domain, slot, rec.PlatformID)
}
