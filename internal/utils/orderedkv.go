package utils

import (
	"bytes"
	"encoding/json"
)

// OrderedMap is a string keyed map that marshals its entries in insertion
// order.
type OrderedMap[T any] struct {
	keys   []string
	values map[string]T
}

func NewOrderedMap[T any]() *OrderedMap[T] {
	return &OrderedMap[T]{values: map[string]T{}}
}

// Set stores value under key. Re-setting a key keeps its position.
func (m *OrderedMap[T]) Set(key string, value T) {
	if m.values == nil {
		m.values = map[string]T{}
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

func (m *OrderedMap[T]) Get(key string) (T, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *OrderedMap[T]) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

func (m *OrderedMap[T]) Len() int {
	return len(m.keys)
}

func (m OrderedMap[T]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		keyBytes, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valueBytes, err := json.Marshal(m.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(valueBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
