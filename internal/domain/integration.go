package domain

import (
	"strings"
	"time"
)

type CalculationType string

const (
	CalculationAverage CalculationType = "AVERAGE"
	CalculationMax     CalculationType = "MAX"
	CalculationCustom  CalculationType = "CUSTOM"
)

func ParseCalculationType(s string) (CalculationType, error) {
	switch t := CalculationType(strings.ToUpper(strings.TrimSpace(s))); t {
	case CalculationAverage, CalculationMax, CalculationCustom:
		return t, nil
	}
	return "", ValidationError{Field: "calculationType", Reason: "unknown calculation type " + s}
}

// FieldMappingRule assigns TargetField from SourceField of the record
// loaded from SourcePlatform. Lower Priority is tried first.
type FieldMappingRule struct {
	ID             int64  `json:"id,omitempty"`
	TargetField    string `json:"targetField"`
	SourcePlatform string `json:"sourcePlatform"`
	SourceField    string `json:"sourceField"`
	Priority       int    `json:"priority"`
}

// CalculationRule derives TargetField from every loaded record.
// Expression names the numeric source field for AVERAGE and MAX.
type CalculationRule struct {
	ID          int64           `json:"id,omitempty"`
	TargetField string          `json:"targetField"`
	Type        CalculationType `json:"type"`
	Expression  string          `json:"expression,omitempty"`
	Required    bool            `json:"required"`
}

type IntegrationConfig struct {
	ID            int64              `json:"id"`
	Domain        Domain             `json:"domain"`
	Name          string             `json:"name"`
	Description   string             `json:"description,omitempty"`
	Active        bool               `json:"active"`
	FieldMappings []FieldMappingRule `json:"fieldMappings"`
	Calculations  []CalculationRule  `json:"calculations"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// IntegrationReport describes how a work was assembled.
type IntegrationReport struct {
	AppliedRules []AppliedRule `json:"appliedRules"`
	Calculated   []string      `json:"calculated,omitempty"`
	Warnings     []string      `json:"warnings,omitempty"`
	Registered   []string      `json:"registered,omitempty"`
}

type AppliedRule struct {
	TargetField string `json:"targetField"`
	SourceKey   string `json:"sourceKey"`
	SourceField string `json:"sourceField"`
	Priority    int    `json:"priority"`
}
