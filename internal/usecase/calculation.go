package usecase

import (
	"github.com/pkg/errors"

	"github.com/alldopamine/catalog/internal/domain"
)

// ErrNoNumericValues is returned when no loaded record carries a numeric
// value for the calculation's source field.
var ErrNoNumericValues = errors.New("no numeric values to calculate from")

// CalculationInput is what a calculator sees: the loaded records in key
// order and the registry to read their fields with.
type CalculationInput struct {
	Domain   domain.Domain
	Records  []domain.SourceRecord
	Registry *FieldRegistry
}

// Calculator derives one value from all loaded records.
type Calculator interface {
	Compute(rule domain.CalculationRule, in CalculationInput) (domain.Value, error)
}

type CalculatorFunc func(rule domain.CalculationRule, in CalculationInput) (domain.Value, error)

func (f CalculatorFunc) Compute(rule domain.CalculationRule, in CalculationInput) (domain.Value, error) {
	return f(rule, in)
}

// DefaultCalculators registers AVERAGE and MAX. CUSTOM has no evaluator.
func DefaultCalculators() map[domain.CalculationType]Calculator {
	return map[domain.CalculationType]Calculator{
		domain.CalculationAverage: CalculatorFunc(average),
		domain.CalculationMax:     CalculatorFunc(maximum),
		domain.CalculationCustom:  CalculatorFunc(unsupported),
	}
}

// sourceField is the numeric field a rule aggregates.
func sourceField(rule domain.CalculationRule) string {
	if rule.Expression != "" {
		return rule.Expression
	}
	return rule.TargetField
}

func numbers(rule domain.CalculationRule, in CalculationInput) []float64 {
	field := sourceField(rule)
	var out []float64
	for _, rec := range in.Records {
		slot, ok := domain.ResolveSlot(in.Domain, rec.Platform)
		if !ok {
			continue
		}
		ex, ok := in.Registry.Extractor(in.Domain, slot, field)
		if !ok {
			continue
		}
		v, ok := ex(rec.Record)
		if !ok {
			continue
		}
		if f, ok := v.Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

func average(rule domain.CalculationRule, in CalculationInput) (domain.Value, error) {
	values := numbers(rule, in)
	if len(values) == 0 {
		return domain.Value{}, errors.Wrapf(ErrNoNumericValues, "field %s", sourceField(rule))
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return domain.FloatValue(sum / float64(len(values))), nil
}

func maximum(rule domain.CalculationRule, in CalculationInput) (domain.Value, error) {
	values := numbers(rule, in)
	if len(values) == 0 {
		return domain.Value{}, errors.Wrapf(ErrNoNumericValues, "field %s", sourceField(rule))
	}
	best := values[0]
	for _, v := range values[1:] {
		best = max(best, v)
	}
	return domain.FloatValue(best), nil
}

func unsupported(rule domain.CalculationRule, _ CalculationInput) (domain.Value, error) {
	return domain.Value{}, errors.Wrapf(domain.ErrCalculationUnsupported, "%s expression %q", rule.Type, rule.Expression)
}
