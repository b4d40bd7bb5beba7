package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/alldopamine/catalog"
	"github.com/alldopamine/catalog/internal/domain"
	"github.com/alldopamine/catalog/internal/logging"
	"github.com/alldopamine/catalog/internal/textutil"
)

// IntegrationUsecase builds works from staged source records following an
// integration configuration. No similarity matching is involved.
type IntegrationUsecase struct {
	tx          Transactor
	configs     ConfigRepository
	registry    *FieldRegistry
	calculators map[domain.CalculationType]Calculator
	publisher   EventPublisher
	logger      *slog.Logger
}

type IntegrationOption func(*IntegrationUsecase)

func WithFieldRegistry(r *FieldRegistry) IntegrationOption {
	return func(uc *IntegrationUsecase) {
		if r != nil {
			uc.registry = r
		}
	}
}

// WithCalculator registers or replaces the calculator of one type.
func WithCalculator(t domain.CalculationType, c Calculator) IntegrationOption {
	return func(uc *IntegrationUsecase) {
		uc.calculators[t] = c
	}
}

func WithIntegrationPublisher(p EventPublisher) IntegrationOption {
	return func(uc *IntegrationUsecase) {
		if p != nil {
			uc.publisher = p
		}
	}
}

func WithIntegrationLogger(logger *slog.Logger) IntegrationOption {
	return func(uc *IntegrationUsecase) {
		uc.logger = logging.NewComponentLogger(logger, "integration")
	}
}

func NewIntegrationUsecase(tx Transactor, configs ConfigRepository, opts ...IntegrationOption) *IntegrationUsecase {
	uc := &IntegrationUsecase{
		tx:          tx,
		configs:     configs,
		registry:    DefaultFieldRegistry(),
		calculators: DefaultCalculators(),
		publisher:   nopPublisher{},
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

type IntegrationResult struct {
	Work   *domain.Work             `json:"work"`
	Report domain.IntegrationReport `json:"report"`
}

// loadedRecord is a source record together with its resolved slot.
type loadedRecord struct {
	key    string
	slot   domain.Slot
	source domain.SourceRecord
}

// Integrate assembles one work from the given source records. Field
// mapping rules are grouped by target field and tried in ascending
// priority; the first rule yielding a value assigns the field.
func (uc *IntegrationUsecase) Integrate(ctx context.Context, configID int64, sourceIDs []int64) (*IntegrationResult, error) {
	ctx, span := tracer.Start(ctx, "Integration.Usecase.Integrate")
	defer span.End()
	span.SetAttributes(attribute.Int64("catalog.config_id", configID))

	cfg, err := uc.configs.Get(ctx, configID)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "load integration config")
	}
	if !cfg.Active {
		return nil, domain.ValidationError{Field: "config", Reason: fmt.Sprintf("integration config %d is inactive", cfg.ID)}
	}
	if !cfg.Domain.Valid() {
		return nil, domain.ValidationError{Field: "domain", Reason: "unsupported domain " + string(cfg.Domain)}
	}

	var report domain.IntegrationReport
	records, err := uc.loadRecords(ctx, cfg.Domain, sourceIDs, &report)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	work := domain.NewWork(cfg.Domain)
	uc.applyFieldMappings(cfg, work, records, &report)
	if err := uc.applyCalculations(cfg, work, records, &report); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if strings.TrimSpace(work.Title) == "" {
		work.Title = records[0].source.Record.Title
		report.Warnings = append(report.Warnings, "title taken from "+records[0].key)
	}
	work.Synopsis = textutil.SanitizePtr(work.Synopsis)

	err = uc.tx.InTx(ctx, func(ctx context.Context, repos Repositories) error {
		report.Registered = nil
		if err := repos.Works.Save(ctx, work); err != nil {
			return errors.Wrap(err, "save integrated work")
		}
		mapping := domain.NewPlatformMapping(work.ID, work.Domain)
		for _, rec := range records {
			id := rec.source.Record.PlatformID
			if id <= 0 {
				id = rec.source.SourceID
			}
			if err := repos.Works.LockKey(ctx, fmt.Sprintf("%s/%s/%d", work.Domain, rec.slot, id)); err != nil {
				return err
			}
			owner, err := repos.Mappings.FindByPlatformID(ctx, work.Domain, rec.slot, id)
			if err == nil && owner.WorkID != work.ID {
				report.Warnings = append(report.Warnings, fmt.Sprintf("%s already belongs to work %d", rec.key, owner.WorkID))
				continue
			}
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			if _, err := mapping.Set(rec.slot, id); err != nil {
				return err
			}
			report.Registered = append(report.Registered, rec.key)
		}
		if len(report.Registered) == 0 {
			return domain.ConcurrencyConflict{Key: string(work.Domain), Cause: errors.New("every platform id already belongs to another work")}
		}
		return repos.Mappings.Save(ctx, mapping)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	uc.publish(ctx, domain.WorkEvent{Type: domain.EventWorkIntegrated, WorkID: work.ID, Domain: work.Domain, At: time.Now()})
	uc.logger.Info("work integrated",
		logging.Int64(logging.FieldWorkID, work.ID),
		logging.Int64("config_id", cfg.ID),
		logging.Int("records", len(records)),
		logging.Int("applied", len(report.AppliedRules)),
		logging.Int("warnings", len(report.Warnings)),
	)
	return &IntegrationResult{Work: work, Report: report}, nil
}

func (uc *IntegrationUsecase) loadRecords(ctx context.Context, d domain.Domain, ids []int64, report *domain.IntegrationReport) ([]loadedRecord, error) {
	if len(ids) == 0 {
		return nil, domain.ValidationError{Field: "sourceIds", Reason: "at least one source record is required"}
	}
	found, err := uc.tx.Repositories().Sources.FindByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "load source records")
	}

	seen := make(map[int64]bool, len(found))
	byKey := map[string]loadedRecord{}
	for _, src := range found {
		seen[src.ID] = true
		if src.Record.Domain != d {
			report.Warnings = append(report.Warnings, fmt.Sprintf("source %d is %s, not %s", src.ID, src.Record.Domain, d))
			continue
		}
		slot, ok := domain.ResolveSlot(d, src.Platform)
		if !ok {
			report.Warnings = append(report.Warnings, fmt.Sprintf("source %d has unknown platform %s", src.ID, src.Platform))
			continue
		}
		key := src.Key()
		byKey[key] = loadedRecord{key: key, slot: slot, source: src}
	}
	for _, id := range ids {
		if !seen[id] {
			uc.logger.Warn("source record not found", logging.Int64("source_id", id))
			report.Warnings = append(report.Warnings, fmt.Sprintf("source %d not found", id))
		}
	}
	if len(byKey) == 0 {
		return nil, domain.NotFoundError{Resource: "source records"}
	}

	records := make([]loadedRecord, 0, len(byKey))
	for _, rec := range byKey {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].key < records[j].key })
	return records, nil
}

func (uc *IntegrationUsecase) applyFieldMappings(cfg *domain.IntegrationConfig, work *domain.Work, records []loadedRecord, report *domain.IntegrationReport) {
	var targets []string
	groups := map[string][]domain.FieldMappingRule{}
	for _, rule := range cfg.FieldMappings {
		if _, ok := groups[rule.TargetField]; !ok {
			targets = append(targets, rule.TargetField)
		}
		groups[rule.TargetField] = append(groups[rule.TargetField], rule)
	}

	for _, target := range targets {
		rules := groups[target]
		sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority < rules[j].Priority })

		setter, ok := uc.registry.Setter(cfg.Domain, target)
		if !ok {
			report.Warnings = append(report.Warnings, "unknown target field "+target)
			continue
		}
		uc.assignFirst(cfg.Domain, work, setter, rules, records, report)
	}
}

// assignFirst applies the first rule that yields an assignable value.
func (uc *IntegrationUsecase) assignFirst(d domain.Domain, work *domain.Work, setter Setter, rules []domain.FieldMappingRule, records []loadedRecord, report *domain.IntegrationReport) {
	for _, rule := range rules {
		slot, ok := domain.ResolveSlot(d, rule.SourcePlatform)
		if !ok {
			report.Warnings = append(report.Warnings, "unknown platform "+rule.SourcePlatform)
			continue
		}
		for _, rec := range records {
			if rec.slot != slot {
				continue
			}
			ex, ok := uc.registry.Extractor(d, slot, rule.SourceField)
			if !ok {
				report.Warnings = append(report.Warnings, fmt.Sprintf("unknown source field %s on %s", rule.SourceField, rule.SourcePlatform))
				break
			}
			v, ok := ex(rec.source.Record)
			if !ok {
				continue
			}
			if err := setter(work, v.Normalize()); err != nil {
				uc.logger.Warn("field conversion failed",
					logging.String("target", rule.TargetField),
					logging.String("source", rec.key),
					logging.Error(err),
				)
				report.Warnings = append(report.Warnings, err.Error())
				continue
			}
			report.AppliedRules = append(report.AppliedRules, domain.AppliedRule{
				TargetField: rule.TargetField,
				SourceKey:   rec.key,
				SourceField: rule.SourceField,
				Priority:    rule.Priority,
			})
			return
		}
	}
}

func (uc *IntegrationUsecase) applyCalculations(cfg *domain.IntegrationConfig, work *domain.Work, records []loadedRecord, report *domain.IntegrationReport) error {
	in := CalculationInput{Domain: cfg.Domain, Registry: uc.registry}
	for _, rec := range records {
		in.Records = append(in.Records, rec.source)
	}

	for _, rule := range cfg.Calculations {
		err := uc.calculate(rule, work, in)
		if err == nil {
			report.Calculated = append(report.Calculated, rule.TargetField)
			continue
		}
		if rule.Required {
			return domain.RequiredCalculationFailure{TargetField: rule.TargetField, Cause: err}
		}
		uc.logger.Warn("calculation skipped",
			logging.String("target", rule.TargetField),
			logging.String("type", string(rule.Type)),
			logging.Error(err),
		)
		report.Warnings = append(report.Warnings, fmt.Sprintf("calculation %s skipped: %v", rule.TargetField, err))
	}
	return nil
}

func (uc *IntegrationUsecase) calculate(rule domain.CalculationRule, work *domain.Work, in CalculationInput) error {
	calc, ok := uc.calculators[rule.Type]
	if !ok {
		return errors.Wrapf(domain.ErrCalculationUnsupported, "type %s", rule.Type)
	}
	setter, ok := uc.registry.Setter(in.Domain, rule.TargetField)
	if !ok {
		return errors.Errorf("unknown target field %s", rule.TargetField)
	}
	v, err := calc.Compute(rule, in)
	if err != nil {
		return err
	}
	return setter(work, v.Normalize())
}

// ManualIntegration describes a work whose fields are supplied directly.
type ManualIntegration struct {
	Domain        domain.Domain       `json:"domain"`
	Title         string              `json:"title"`
	OriginalTitle *string             `json:"originalTitle,omitempty"`
	ReleaseDate   *time.Time          `json:"releaseDate,omitempty"`
	PosterURL     *string             `json:"posterUrl,omitempty"`
	Synopsis      *string             `json:"synopsis,omitempty"`
	Attributes    domain.Attributes   `json:"-"`
	Sources       []catalog.SourceRef `json:"sources"`
}

// IntegrateManual stores a work built from explicit fields and registers
// the given platform references.
func (uc *IntegrationUsecase) IntegrateManual(ctx context.Context, in ManualIntegration) (*domain.Work, *domain.PlatformMapping, error) {
	ctx, span := tracer.Start(ctx, "Integration.Usecase.IntegrateManual")
	defer span.End()

	if !in.Domain.Valid() {
		return nil, nil, domain.ValidationError{Field: "domain", Reason: "unsupported domain " + string(in.Domain)}
	}
	title := textutil.SanitizeText(in.Title)
	if title == "" {
		return nil, nil, domain.ValidationError{Field: "title", Reason: "title is required"}
	}
	if in.Attributes != nil && in.Attributes.Domain() != in.Domain {
		return nil, nil, domain.ValidationError{Field: "attributes", Reason: "attributes do not match domain " + string(in.Domain)}
	}

	mapping := domain.NewPlatformMapping(0, in.Domain)
	for i, ref := range in.Sources {
		slot, err := domain.MustResolveSlot(in.Domain, ref.Platform)
		if err != nil {
			return nil, nil, err
		}
		if ref.SourceID <= 0 {
			return nil, nil, domain.ValidationError{Field: fmt.Sprintf("sources[%d]", i), Reason: "source id must be positive"}
		}
		if _, err := mapping.Set(slot, ref.SourceID); err != nil {
			return nil, nil, err
		}
	}

	work := domain.NewWork(in.Domain)
	work.Title = title
	work.OriginalTitle = in.OriginalTitle
	work.ReleaseDate = in.ReleaseDate
	work.PosterURL = in.PosterURL
	work.Synopsis = textutil.SanitizePtr(in.Synopsis)
	if in.Attributes != nil {
		work.Attributes = in.Attributes.Clone()
	}

	err := uc.tx.InTx(ctx, func(ctx context.Context, repos Repositories) error {
		for _, slot := range mapping.Slots() {
			id, _ := mapping.Get(slot)
			if err := repos.Works.LockKey(ctx, fmt.Sprintf("%s/%s/%d", in.Domain, slot, id)); err != nil {
				return err
			}
			owner, err := repos.Mappings.FindByPlatformID(ctx, in.Domain, slot, id)
			if err == nil {
				return domain.ConcurrencyConflict{Key: string(slot), Cause: errors.Errorf("platform id %d already belongs to work %d", id, owner.WorkID)}
			}
			if !errors.Is(err, domain.ErrNotFound) {
				return err
			}
		}
		if err := repos.Works.Save(ctx, work); err != nil {
			return errors.Wrap(err, "save manual work")
		}
		mapping.WorkID = work.ID
		if mapping.Count() == 0 {
			return nil
		}
		return repos.Mappings.Save(ctx, mapping)
	})
	if err != nil {
		span.RecordError(err)
		return nil, nil, err
	}

	uc.publish(ctx, domain.WorkEvent{Type: domain.EventWorkIntegrated, WorkID: work.ID, Domain: work.Domain, At: time.Now()})
	uc.logger.Info("manual work integrated",
		logging.Int64(logging.FieldWorkID, work.ID),
		logging.Int("platforms", mapping.Count()),
	)
	return work, mapping, nil
}

func (uc *IntegrationUsecase) publish(ctx context.Context, event domain.WorkEvent) {
	if err := uc.publisher.Publish(ctx, event); err != nil {
		uc.logger.Warn("event publish failed", logging.String("event", event.Type), logging.Error(err))
	}
}
