package registry

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"xvm/internal/ordered"
)

// TargetType distinguishes runnable programs from shared libraries.
type TargetType string

const (
	TypeDirect TargetType = "direct"
	TypeLib    TargetType = "lib"
)

// VersionRecord describes how to run or link one installed version.
type VersionRecord struct {
	Alias    string               `yaml:"alias,omitempty"`
	Path     string               `yaml:"path"`
	Icon     string               `yaml:"icon,omitempty"`
	Envs     *ordered.Map[string] `yaml:"envs,omitempty"`
	Bindings *ordered.Map[string] `yaml:"bindings,omitempty"`
}

// Validate requires a path unless an alias stands in for it.
func (r VersionRecord) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Path,
			validation.When(r.Alias == "", validation.Required.Error("is required unless alias is set")),
		),
	)
}

// Clone returns a copy that shares no maps with r.
func (r VersionRecord) Clone() VersionRecord {
	out := r
	if r.Envs != nil {
		out.Envs = r.Envs.Clone()
	}
	if r.Bindings != nil {
		out.Bindings = r.Bindings.Clone()
	}
	return out
}

// Binding is one outgoing edge of a version record.
type Binding struct {
	Target  string
	Version string
}

// TargetInfo groups the installed versions of one target.
type TargetInfo struct {
	Type     TargetType
	Filename string
	Versions *ordered.Map[*VersionRecord]
}

func newTargetInfo() *TargetInfo {
	return &TargetInfo{Versions: ordered.New[*VersionRecord]()}
}

type targetDoc struct {
	Type     TargetType                   `yaml:"type,omitempty"`
	Filename string                       `yaml:"filename,omitempty"`
	Versions *ordered.Map[*VersionRecord] `yaml:"versions"`
}

// MarshalYAML always writes the nested versions layout.
func (t TargetInfo) MarshalYAML() (any, error) {
	versions := t.Versions
	if versions == nil {
		versions = ordered.New[*VersionRecord]()
	}
	return targetDoc{Type: t.Type, Filename: t.Filename, Versions: versions}, nil
}
