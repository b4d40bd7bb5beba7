package repository

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/alldopamine/catalog"
	"github.com/alldopamine/catalog/internal/domain"
	"github.com/alldopamine/catalog/internal/infra/database/models"
)

func workToModel(w *domain.Work) (models.Work, error) {
	attrs := []byte("{}")
	if w.Attributes != nil {
		b, err := json.Marshal(w.Attributes)
		if err != nil {
			return models.Work{}, errors.Wrap(err, "encode attributes")
		}
		attrs = b
	}
	return models.Work{
		ID:            w.ID,
		Domain:        string(w.Domain),
		AuthorKey:     w.AuthorKey(),
		Title:         w.Title,
		OriginalTitle: w.OriginalTitle,
		ReleaseDate:   w.ReleaseDate,
		PosterURL:     w.PosterURL,
		Synopsis:      w.Synopsis,
		Rating:        w.Rating,
		ReviewCount:   w.ReviewCount,
		Attributes:    attrs,
		CDate:         w.CreatedAt,
		MDate:         w.UpdatedAt,
	}, nil
}

func workFromModel(m models.Work) (*domain.Work, error) {
	d := domain.Domain(m.Domain)
	attrs, err := domain.DecodeAttributes(d, m.Attributes)
	if err != nil {
		return nil, errors.Wrapf(err, "work %d", m.ID)
	}
	return &domain.Work{
		ID:            m.ID,
		Domain:        d,
		Title:         m.Title,
		OriginalTitle: m.OriginalTitle,
		ReleaseDate:   m.ReleaseDate,
		PosterURL:     m.PosterURL,
		Synopsis:      m.Synopsis,
		Rating:        m.Rating,
		ReviewCount:   m.ReviewCount,
		Attributes:    attrs,
		CreatedAt:     m.CDate,
		UpdatedAt:     m.MDate,
	}, nil
}

// envelopeFromRecord turns a record back into its wire form so that staged
// payloads decode through the same path as crawler input.
func envelopeFromRecord(rec domain.PlatformRecord) (catalog.Envelope, error) {
	env := catalog.Envelope{
		Domain:        string(rec.Domain),
		PlatformName:  rec.PlatformName,
		PlatformID:    rec.PlatformID,
		Title:         rec.Title,
		OriginalTitle: rec.OriginalTitle,
		PosterURL:     rec.PosterURL,
		Synopsis:      rec.Synopsis,
		Rating:        rec.Rating,
		ReviewCount:   rec.ReviewCount,
	}
	if rec.ReleaseDate != nil {
		s := rec.ReleaseDate.Format(catalog.DateLayout)
		env.ReleaseDate = &s
	}
	if rec.Attributes != nil {
		raw, err := json.Marshal(rec.Attributes)
		if err != nil {
			return env, errors.Wrap(err, "encode attributes")
		}
		env.Attributes = raw
	}
	for _, t := range rec.Tags {
		env.Tags = append(env.Tags, catalog.Tag{Kind: t.Kind, Name: t.Name})
	}
	return env, nil
}

func sourceFromModel(m models.SourceRecord) (domain.SourceRecord, error) {
	var env catalog.Envelope
	if err := json.Unmarshal(m.Payload, &env); err != nil {
		return domain.SourceRecord{}, errors.Wrapf(err, "source record %d", m.ID)
	}
	rec, err := domain.RecordFromEnvelope(env)
	if err != nil {
		return domain.SourceRecord{}, errors.Wrapf(err, "source record %d", m.ID)
	}
	return domain.SourceRecord{
		ID:        m.ID,
		Platform:  m.Platform,
		SourceID:  m.SourceID,
		Record:    rec,
		FetchedAt: m.FetchedAt,
	}, nil
}

func configToModel(c *domain.IntegrationConfig) models.IntegrationConfig {
	m := models.IntegrationConfig{
		ID:          c.ID,
		Domain:      string(c.Domain),
		Name:        c.Name,
		Description: c.Description,
		Active:      c.Active,
	}
	m.FieldMappings = fieldRulesToModel(c.ID, c.FieldMappings)
	m.Calculations = calcRulesToModel(c.ID, c.Calculations)
	return m
}

func fieldRulesToModel(configID int64, rules []domain.FieldMappingRule) []models.FieldMappingRule {
	out := make([]models.FieldMappingRule, 0, len(rules))
	for i, r := range rules {
		out = append(out, models.FieldMappingRule{
			ConfigID:       configID,
			Position:       i,
			TargetField:    r.TargetField,
			SourcePlatform: r.SourcePlatform,
			SourceField:    r.SourceField,
			Priority:       r.Priority,
		})
	}
	return out
}

func calcRulesToModel(configID int64, rules []domain.CalculationRule) []models.CalculationRule {
	out := make([]models.CalculationRule, 0, len(rules))
	for i, r := range rules {
		out = append(out, models.CalculationRule{
			ConfigID:    configID,
			Position:    i,
			TargetField: r.TargetField,
			Type:        string(r.Type),
			Expression:  r.Expression,
			Required:    r.Required,
		})
	}
	return out
}

func configFromModel(m models.IntegrationConfig) *domain.IntegrationConfig {
	c := &domain.IntegrationConfig{
		ID:            m.ID,
		Domain:        domain.Domain(m.Domain),
		Name:          m.Name,
		Description:   m.Description,
		Active:        m.Active,
		FieldMappings: make([]domain.FieldMappingRule, 0, len(m.FieldMappings)),
		Calculations:  make([]domain.CalculationRule, 0, len(m.Calculations)),
		CreatedAt:     m.CDate,
		UpdatedAt:     m.MDate,
	}
	for _, r := range m.FieldMappings {
		c.FieldMappings = append(c.FieldMappings, domain.FieldMappingRule{
			ID:             r.ID,
			TargetField:    r.TargetField,
			SourcePlatform: r.SourcePlatform,
			SourceField:    r.SourceField,
			Priority:       r.Priority,
		})
	}
	for _, r := range m.Calculations {
		c.Calculations = append(c.Calculations, domain.CalculationRule{
			ID:          r.ID,
			TargetField: r.TargetField,
			Type:        domain.CalculationType(r.Type),
			Expression:  r.Expression,
			Required:    r.Required,
		})
	}
	return c
}
