// Package ordered provides an insertion-ordered, string-keyed map that keeps
// its key order through YAML encoding and decoding.
package ordered

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// Map is an insertion-ordered map keyed by string. The zero value is an empty
// map ready to use; a nil *Map behaves as an empty read-only map.
type Map[V any] struct {
	om *orderedmap.OrderedMap[string, V]
}

// New returns an empty map.
func New[V any]() *Map[V] {
	return &Map[V]{om: orderedmap.New[string, V]()}
}

func (m *Map[V]) ensure() {
	if m.om == nil {
		m.om = orderedmap.New[string, V]()
	}
}

// Len returns the number of entries.
func (m *Map[V]) Len() int {
	if m == nil || m.om == nil {
		return 0
	}
	return m.om.Len()
}

// Get returns the value stored under key.
func (m *Map[V]) Get(key string) (V, bool) {
	if m == nil || m.om == nil {
		var zero V
		return zero, false
	}
	return m.om.Get(key)
}

// Has reports whether key is present.
func (m *Map[V]) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores value under key. Existing keys keep their position.
func (m *Map[V]) Set(key string, value V) {
	m.ensure()
	m.om.Set(key, value)
}

// Delete removes key and reports whether it was present.
func (m *Map[V]) Delete(key string) bool {
	if m == nil || m.om == nil {
		return false
	}
	_, ok := m.om.Delete(key)
	return ok
}

// Keys returns the keys in insertion order.
func (m *Map[V]) Keys() []string {
	keys := make([]string, 0, m.Len())
	m.Each(func(key string, _ V) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Each calls fn for every entry in insertion order until fn returns false.
func (m *Map[V]) Each(fn func(key string, value V) bool) {
	if m == nil || m.om == nil {
		return
	}
	for pair := m.om.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// First returns the oldest entry.
func (m *Map[V]) First() (string, V, bool) {
	if m == nil || m.om == nil || m.om.Len() == 0 {
		var zero V
		return "", zero, false
	}
	pair := m.om.Oldest()
	return pair.Key, pair.Value, true
}

// Clone returns a shallow copy preserving order.
func (m *Map[V]) Clone() *Map[V] {
	out := New[V]()
	m.Each(func(key string, value V) bool {
		out.Set(key, value)
		return true
	})
	return out
}

// MarshalYAML encodes the map as a YAML mapping in insertion order.
func (m *Map[V]) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	var encodeErr error
	m.Each(func(key string, value V) bool {
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(value); err != nil {
			encodeErr = fmt.Errorf("encode %q: %w", key, err)
			return false
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			valueNode,
		)
		return true
	})
	if encodeErr != nil {
		return nil, encodeErr
	}
	return node, nil
}

// UnmarshalYAML decodes a YAML mapping, keeping document order.
func (m *Map[V]) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	m.om = orderedmap.New[string, V]()
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, valueNode := node.Content[i], node.Content[i+1]
		var value V
		if err := valueNode.Decode(&value); err != nil {
			return fmt.Errorf("key %q: %w", key.Value, err)
		}
		m.om.Set(key.Value, value)
	}
	return nil
}
