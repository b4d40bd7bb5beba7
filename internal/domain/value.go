package domain

import (
	"fmt"
	"time"
)

type ValueKind int

const (
	KindString ValueKind = iota + 1
	KindStrings
	KindTags
	KindFloat
	KindInt
	KindTime
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindStrings:
		return "strings"
	case KindTags:
		return "tags"
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

// Value is a field extracted from a source record.
type Value struct {
	Kind ValueKind
	Str  string
	Strs []string
	Tags []Tag
	Num  float64
	Int  int64
	Time time.Time
}

func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

func StringsValue(s []string) Value {
	return Value{Kind: KindStrings, Strs: s}
}

func TagsValue(t []Tag) Value {
	return Value{Kind: KindTags, Tags: t}
}

func FloatValue(f float64) Value {
	return Value{Kind: KindFloat, Num: f}
}

func IntValue(i int64) Value {
	return Value{Kind: KindInt, Int: i}
}

func TimeValue(t time.Time) Value {
	return Value{Kind: KindTime, Time: t}
}

// Normalize converts tag collections to their display names. Other kinds
// are returned as-is.
func (v Value) Normalize() Value {
	if v.Kind != KindTags {
		return v
	}
	names := make([]string, 0, len(v.Tags))
	for _, t := range v.Tags {
		names = append(names, t.Name)
	}
	return StringsValue(names)
}

// Float returns the numeric value of numeric kinds.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case KindFloat:
		return v.Num, true
	case KindInt:
		return float64(v.Int), true
	}
	return 0, false
}

func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindStrings:
		return fmt.Sprint(v.Strs)
	case KindTags:
		return fmt.Sprint(v.Normalize().Strs)
	case KindFloat:
		return fmt.Sprint(v.Num)
	case KindInt:
		return fmt.Sprint(v.Int)
	case KindTime:
		return v.Time.Format(time.DateOnly)
	default:
		return ""
	}
}
