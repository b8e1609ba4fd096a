package platform

import "strings"

// EnvList is an editable KEY=VALUE environment that keeps the original order
// of inherited entries.
type EnvList struct {
	fold    bool
	entries []string
	index   map[string]int
}

// NewEnvList copies environ into an editable list.
func NewEnvList(p Platform, environ []string) *EnvList {
	e := &EnvList{fold: p.EnvCaseInsensitive(), index: make(map[string]int, len(environ))}
	for _, kv := range environ {
		key, _, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		if i, seen := e.index[e.norm(key)]; seen {
			e.entries[i] = kv
			continue
		}
		e.index[e.norm(key)] = len(e.entries)
		e.entries = append(e.entries, kv)
	}
	return e
}

func (e *EnvList) norm(key string) string {
	if e.fold {
		return strings.ToUpper(key)
	}
	return key
}

// Get returns the value of key, or "" when unset.
func (e *EnvList) Get(key string) string {
	i, ok := e.index[e.norm(key)]
	if !ok {
		return ""
	}
	_, value, _ := strings.Cut(e.entries[i], "=")
	return value
}

// Set replaces or appends key.
func (e *EnvList) Set(key, value string) {
	kv := key + "=" + value
	if i, ok := e.index[e.norm(key)]; ok {
		existing, _, _ := strings.Cut(e.entries[i], "=")
		e.entries[i] = existing + "=" + value
		return
	}
	e.index[e.norm(key)] = len(e.entries)
	e.entries = append(e.entries, kv)
}

// Slice returns the environment in exec.Cmd form.
func (e *EnvList) Slice() []string {
	return append([]string(nil), e.entries...)
}

// JoinList joins non-empty parts with the platform list separator.
func JoinList(p Platform, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, p.ListSeparator())
}
