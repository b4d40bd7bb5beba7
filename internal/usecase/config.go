package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alldopamine/catalog/internal/domain"
	"github.com/alldopamine/catalog/internal/logging"
)

// ConfigUsecase manages integration configurations. Rules are validated
// against the field registry before they are stored.
type ConfigUsecase struct {
	repo     ConfigRepository
	registry *FieldRegistry
	logger   *slog.Logger
}

func NewConfigUsecase(repo ConfigRepository, registry *FieldRegistry, logger *slog.Logger) *ConfigUsecase {
	if registry == nil {
		registry = DefaultFieldRegistry()
	}
	return &ConfigUsecase{
		repo:     repo,
		registry: registry,
		logger:   logging.NewComponentLogger(logger, "config"),
	}
}

func (uc *ConfigUsecase) Get(ctx context.Context, id int64) (*domain.IntegrationConfig, error) {
	return uc.repo.Get(ctx, id)
}

func (uc *ConfigUsecase) ListActive(ctx context.Context, d domain.Domain) ([]domain.IntegrationConfig, error) {
	if !d.Valid() {
		return nil, domain.ValidationError{Field: "domain", Reason: "unsupported domain " + string(d)}
	}
	return uc.repo.ListActive(ctx, d)
}

func (uc *ConfigUsecase) Create(ctx context.Context, cfg domain.IntegrationConfig) (*domain.IntegrationConfig, error) {
	ctx, span := tracer.Start(ctx, "Config.Usecase.Create")
	defer span.End()

	cfg.ID = 0
	normalizeConfig(&cfg)
	if err := uc.Validate(cfg); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := uc.repo.Create(ctx, &cfg); err != nil {
		span.RecordError(err)
		return nil, err
	}
	uc.logger.Info("integration config created",
		logging.Int64("config_id", cfg.ID),
		logging.String(logging.FieldDomain, string(cfg.Domain)),
		logging.Int("rules", len(cfg.FieldMappings)),
		logging.Int("calculations", len(cfg.Calculations)),
	)
	return &cfg, nil
}

// Update replaces the configuration and all of its rules.
func (uc *ConfigUsecase) Update(ctx context.Context, cfg domain.IntegrationConfig) (*domain.IntegrationConfig, error) {
	ctx, span := tracer.Start(ctx, "Config.Usecase.Update")
	defer span.End()

	if _, err := uc.repo.Get(ctx, cfg.ID); err != nil {
		span.RecordError(err)
		return nil, err
	}
	normalizeConfig(&cfg)
	if err := uc.Validate(cfg); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := uc.repo.Update(ctx, &cfg); err != nil {
		span.RecordError(err)
		return nil, err
	}
	uc.logger.Info("integration config updated", logging.Int64("config_id", cfg.ID))
	return &cfg, nil
}

func (uc *ConfigUsecase) Delete(ctx context.Context, id int64) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.logger.Info("integration config deleted", logging.Int64("config_id", id))
	return nil
}

// Validate checks a configuration against the registry.
func (uc *ConfigUsecase) Validate(cfg domain.IntegrationConfig) error {
	if !cfg.Domain.Valid() {
		return domain.ValidationError{Field: "domain", Reason: "unsupported domain " + string(cfg.Domain)}
	}
	if strings.TrimSpace(cfg.Name) == "" {
		return domain.ValidationError{Field: "name", Reason: "name is required"}
	}

	for i, rule := range cfg.FieldMappings {
		field := fmt.Sprintf("fieldMappings[%d]", i)
		if _, ok := uc.registry.Setter(cfg.Domain, rule.TargetField); !ok {
			return domain.ValidationError{Field: field, Reason: "unknown target field " + rule.TargetField}
		}
		slot, ok := domain.ResolveSlot(cfg.Domain, rule.SourcePlatform)
		if !ok {
			return domain.ValidationError{Field: field, Reason: "unknown platform " + rule.SourcePlatform}
		}
		if _, ok := uc.registry.Extractor(cfg.Domain, slot, rule.SourceField); !ok {
			return domain.ValidationError{Field: field, Reason: "unknown source field " + rule.SourceField}
		}
		if rule.Priority <= 0 {
			return domain.ValidationError{Field: field, Reason: "priority must be positive"}
		}
	}

	for i, rule := range cfg.Calculations {
		field := fmt.Sprintf("calculations[%d]", i)
		if _, err := domain.ParseCalculationType(string(rule.Type)); err != nil {
			return domain.ValidationError{Field: field, Reason: "unknown calculation type " + string(rule.Type)}
		}
		if _, ok := uc.registry.Setter(cfg.Domain, rule.TargetField); !ok {
			return domain.ValidationError{Field: field, Reason: "unknown target field " + rule.TargetField}
		}
		if rule.Type == domain.CalculationCustom {
			continue
		}
		source := sourceField(rule)
		if _, ok := uc.registry.Extractor(cfg.Domain, "", source); !ok {
			return domain.ValidationError{Field: field, Reason: "unknown source field " + source}
		}
	}
	return nil
}

func normalizeConfig(cfg *domain.IntegrationConfig) {
	if d, err := domain.ParseDomain(string(cfg.Domain)); err == nil {
		cfg.Domain = d
	}
	cfg.Name = strings.TrimSpace(cfg.Name)
	for i := range cfg.FieldMappings {
		r := &cfg.FieldMappings[i]
		r.TargetField = strings.TrimSpace(r.TargetField)
		r.SourcePlatform = strings.ToLower(strings.TrimSpace(r.SourcePlatform))
		r.SourceField = strings.TrimSpace(r.SourceField)
	}
	for i := range cfg.Calculations {
		c := &cfg.Calculations[i]
		c.TargetField = strings.TrimSpace(c.TargetField)
		c.Expression = strings.TrimSpace(c.Expression)
		if t, err := domain.ParseCalculationType(string(c.Type)); err == nil {
			c.Type = t
		}
	}
}
