package usecase

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"sort"
	"time"

	"github.com/alldopamine/catalog/internal/domain"
)

// Extractor reads one field of a source record. The boolean is false when
// the record has no value for the field.
type Extractor func(rec domain.PlatformRecord) (domain.Value, bool)

// Setter assigns a value to one field of a work.
type Setter func(w *domain.Work, v domain.Value) error

// FieldRegistry resolves rule field names to extractors and setters.
// Extractors are looked up by (domain, slot) first, then by domain.
type FieldRegistry struct {
	extractors map[domain.Domain]map[string]Extractor
	overrides  map[domain.Domain]map[domain.Slot]map[string]Extractor
	setters    map[domain.Domain]map[string]Setter
}

func NewFieldRegistry() *FieldRegistry {
	return &FieldRegistry{
		extractors: map[domain.Domain]map[string]Extractor{},
		overrides:  map[domain.Domain]map[domain.Slot]map[string]Extractor{},
		setters:    map[domain.Domain]map[string]Setter{},
	}
}

func (r *FieldRegistry) RegisterExtractor(d domain.Domain, field string, ex Extractor) {
	if r.extractors[d] == nil {
		r.extractors[d] = map[string]Extractor{}
	}
	r.extractors[d][field] = ex
}

// RegisterPlatformExtractor overrides field for records of one platform.
func (r *FieldRegistry) RegisterPlatformExtractor(d domain.Domain, slot domain.Slot, field string, ex Extractor) {
	if r.overrides[d] == nil {
		r.overrides[d] = map[domain.Slot]map[string]Extractor{}
	}
	if r.overrides[d][slot] == nil {
		r.overrides[d][slot] = map[string]Extractor{}
	}
	r.overrides[d][slot][field] = ex
}

func (r *FieldRegistry) RegisterSetter(d domain.Domain, field string, s Setter) {
	if r.setters[d] == nil {
		r.setters[d] = map[string]Setter{}
	}
	r.setters[d][field] = s
}

func (r *FieldRegistry) Extractor(d domain.Domain, slot domain.Slot, field string) (Extractor, bool) {
	if ex, ok := r.overrides[d][slot][field]; ok {
		return ex, true
	}
	ex, ok := r.extractors[d][field]
	return ex, ok
}

func (r *FieldRegistry) Setter(d domain.Domain, field string) (Setter, bool) {
	s, ok := r.setters[d][field]
	return s, ok
}

// SourceFields lists the extractable fields of d.
func (r *FieldRegistry) SourceFields(d domain.Domain) []string {
	fields := slices.Collect(maps.Keys(r.extractors[d]))
	sort.Strings(fields)
	return fields
}

// TargetFields lists the assignable fields of d.
func (r *FieldRegistry) TargetFields(d domain.Domain) []string {
	fields := slices.Collect(maps.Keys(r.setters[d]))
	sort.Strings(fields)
	return fields
}

type kindError struct {
	field string
	want  []domain.ValueKind
	got   domain.ValueKind
}

func (e kindError) Error() string {
	return fmt.Sprintf("field %s expects %v, got %s", e.field, e.want, e.got)
}

func stringPtrExtractor(get func(rec domain.PlatformRecord) *string) Extractor {
	return func(rec domain.PlatformRecord) (domain.Value, bool) {
		p := get(rec)
		if p == nil || *p == "" {
			return domain.Value{}, false
		}
		return domain.StringValue(*p), true
	}
}

func stringExtractor(get func(rec domain.PlatformRecord) string) Extractor {
	return func(rec domain.PlatformRecord) (domain.Value, bool) {
		s := get(rec)
		if s == "" {
			return domain.Value{}, false
		}
		return domain.StringValue(s), true
	}
}

func listExtractor(get func(rec domain.PlatformRecord) []string) Extractor {
	return func(rec domain.PlatformRecord) (domain.Value, bool) {
		l := get(rec)
		if len(l) == 0 {
			return domain.Value{}, false
		}
		return domain.StringsValue(slices.Clone(l)), true
	}
}

func timeExtractor(get func(rec domain.PlatformRecord) *time.Time) Extractor {
	return func(rec domain.PlatformRecord) (domain.Value, bool) {
		t := get(rec)
		if t == nil {
			return domain.Value{}, false
		}
		return domain.TimeValue(*t), true
	}
}

func intExtractor(get func(rec domain.PlatformRecord) int) Extractor {
	return func(rec domain.PlatformRecord) (domain.Value, bool) {
		n := get(rec)
		if n <= 0 {
			return domain.Value{}, false
		}
		return domain.IntValue(int64(n)), true
	}
}

func tagExtractor(kind string) Extractor {
	return func(rec domain.PlatformRecord) (domain.Value, bool) {
		var tags []domain.Tag
		for _, t := range rec.Tags {
			if kind == "" || t.Kind == kind {
				tags = append(tags, t)
			}
		}
		if len(tags) == 0 {
			return domain.Value{}, false
		}
		return domain.TagsValue(tags), true
	}
}

// firstOf tries extractors in order.
func firstOf(exs ...Extractor) Extractor {
	return func(rec domain.PlatformRecord) (domain.Value, bool) {
		for _, ex := range exs {
			if v, ok := ex(rec); ok {
				return v, true
			}
		}
		return domain.Value{}, false
	}
}

func stringSetter(field string, assign func(w *domain.Work, s string)) Setter {
	return func(w *domain.Work, v domain.Value) error {
		if v.Kind != domain.KindString {
			return kindError{field: field, want: []domain.ValueKind{domain.KindString}, got: v.Kind}
		}
		assign(w, v.Str)
		return nil
	}
}

func listSetter(field string, assign func(w *domain.Work, l []string)) Setter {
	return func(w *domain.Work, v domain.Value) error {
		v = v.Normalize()
		if v.Kind != domain.KindStrings {
			return kindError{field: field, want: []domain.ValueKind{domain.KindStrings, domain.KindTags}, got: v.Kind}
		}
		assign(w, slices.Clone(v.Strs))
		return nil
	}
}

func timeSetter(field string, assign func(w *domain.Work, t time.Time)) Setter {
	return func(w *domain.Work, v domain.Value) error {
		if v.Kind != domain.KindTime {
			return kindError{field: field, want: []domain.ValueKind{domain.KindTime}, got: v.Kind}
		}
		assign(w, v.Time)
		return nil
	}
}

func floatSetter(field string, assign func(w *domain.Work, f float64)) Setter {
	return func(w *domain.Work, v domain.Value) error {
		f, ok := v.Float()
		if !ok {
			return kindError{field: field, want: []domain.ValueKind{domain.KindFloat, domain.KindInt}, got: v.Kind}
		}
		assign(w, f)
		return nil
	}
}

func intSetter(field string, assign func(w *domain.Work, n int64)) Setter {
	return func(w *domain.Work, v domain.Value) error {
		f, ok := v.Float()
		if !ok {
			return kindError{field: field, want: []domain.ValueKind{domain.KindInt, domain.KindFloat}, got: v.Kind}
		}
		assign(w, int64(math.Round(f)))
		return nil
	}
}

func attrsOf[T domain.Attributes](w *domain.Work) T {
	a, ok := w.Attributes.(T)
	if !ok {
		a = domain.EmptyAttributes(w.Domain).(T)
		w.Attributes = a
	}
	return a
}
