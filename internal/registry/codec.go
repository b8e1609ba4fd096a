package registry

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"xvm/internal/ordered"
)

// document is the on-disk root: target name to TargetInfo.
type document struct {
	targets  *ordered.Map[*TargetInfo]
	migrated bool
}

func (d *document) MarshalYAML() (any, error) {
	if d.targets == nil {
		return ordered.New[*TargetInfo](), nil
	}
	return d.targets, nil
}

// UnmarshalYAML accepts the current nested layout and the legacy flat one,
// where versions sit directly under the target name.
func (d *document) UnmarshalYAML(node *yaml.Node) error {
	d.targets = ordered.New[*TargetInfo]()
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: registry root must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		name, body := node.Content[i].Value, node.Content[i+1]
		info, legacy, err := decodeTarget(body)
		if err != nil {
			return fmt.Errorf("target %q: %w", name, err)
		}
		if legacy {
			d.migrated = true
		}
		if info.Versions.Len() == 0 {
			continue
		}
		d.targets.Set(name, info)
	}
	return nil
}

func decodeTarget(node *yaml.Node) (*TargetInfo, bool, error) {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return newTargetInfo(), false, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, false, fmt.Errorf("line %d: expected a mapping", node.Line)
	}

	if versions := mappingValue(node, "versions"); versions != nil && versions.Kind == yaml.MappingNode {
		var doc targetDoc
		err := node.Decode(&doc)
		if err == nil {
			info := &TargetInfo{Type: doc.Type, Filename: doc.Filename, Versions: doc.Versions}
			if info.Versions == nil {
				info.Versions = ordered.New[*VersionRecord]()
			}
			return info, false, nil
		}
		// A legacy version literally named "versions" holds a record; any
		// other versions mapping is the current layout and its error stands.
		if !isRecordNode(versions) {
			return nil, false, err
		}
	}

	info, err := decodeFlat(node)
	if err != nil {
		return nil, false, err
	}
	return info, true, nil
}

// recordFields are the keys a VersionRecord mapping may carry.
var recordFields = map[string]bool{"alias": true, "path": true, "icon": true, "envs": true, "bindings": true}

// isRecordNode reports whether node is a non-empty mapping whose keys are all
// VersionRecord fields.
func isRecordNode(node *yaml.Node) bool {
	if node.Kind != yaml.MappingNode || len(node.Content) == 0 {
		return false
	}
	for i := 0; i < len(node.Content); i += 2 {
		if !recordFields[node.Content[i].Value] {
			return false
		}
	}
	return true
}

// decodeFlat reads {type?, filename?, <version>: record...}. Every version
// value must be a valid record mapping.
func decodeFlat(node *yaml.Node) (*TargetInfo, error) {
	info := newTargetInfo()
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		switch {
		case key.Value == "type" && value.Kind == yaml.ScalarNode:
			info.Type = TargetType(value.Value)
		case key.Value == "filename" && value.Kind == yaml.ScalarNode:
			info.Filename = value.Value
		default:
			if !isRecordNode(value) {
				return nil, fmt.Errorf("line %d: version %q is not a version record", value.Line, key.Value)
			}
			var rec VersionRecord
			if err := value.Decode(&rec); err != nil {
				return nil, fmt.Errorf("version %q: %w", key.Value, err)
			}
			if err := rec.Validate(); err != nil {
				return nil, fmt.Errorf("version %q: %w", key.Value, err)
			}
			info.Versions.Set(key.Value, &rec)
		}
	}
	return info, nil
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
