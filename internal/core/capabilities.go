package core

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed capabilities.yaml
var capabilitiesYAML []byte

// CapabilityDef is one API in the capability registry.
type CapabilityDef struct {
	API   string          `yaml:"api"`
	Label string          `yaml:"label"`
	Perms []PermissionDef `yaml:"perms"`
}

// PermissionDef is a single permission an API understands.
type PermissionDef struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
}

// Describe returns the human-readable description of perm, falling back to
// the identifier itself for permissions the registry does not describe.
func (c CapabilityDef) Describe(perm string) string {
	for _, p := range c.Perms {
		if p.ID == perm {
			return p.Description
		}
	}
	return perm
}

// CapabilityRegistry is the static table of recognized APIs.
type CapabilityRegistry struct {
	defs  []CapabilityDef
	index map[string]int
}

type capabilitiesFile struct {
	Capabilities []CapabilityDef `yaml:"capabilities"`
}

// ParseCapabilities reads a capability registry from YAML.
func ParseCapabilities(data []byte) (*CapabilityRegistry, error) {
	var f capabilitiesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing capabilities: %w", err)
	}

	reg := &CapabilityRegistry{index: make(map[string]int, len(f.Capabilities))}
	for _, def := range f.Capabilities {
		if def.API == "" {
			return nil, fmt.Errorf("parsing capabilities: entry missing required 'api' field")
		}
		if _, dup := reg.index[def.API]; dup {
			return nil, fmt.Errorf("parsing capabilities: duplicate api %q", def.API)
		}
		reg.index[def.API] = len(reg.defs)
		reg.defs = append(reg.defs, def)
	}
	return reg, nil
}

// Lookup returns the definition for api.
func (r *CapabilityRegistry) Lookup(api string) (CapabilityDef, bool) {
	if r == nil {
		return CapabilityDef{}, false
	}
	i, ok := r.index[api]
	if !ok {
		return CapabilityDef{}, false
	}
	return r.defs[i], true
}

// Known reports whether api is in the registry.
func (r *CapabilityRegistry) Known(api string) bool {
	_, ok := r.Lookup(api)
	return ok
}

// All returns every definition in registry order.
func (r *CapabilityRegistry) All() []CapabilityDef {
	if r == nil {
		return nil
	}
	out := make([]CapabilityDef, len(r.defs))
	copy(out, r.defs)
	return out
}

var (
	builtinCapabilities     *CapabilityRegistry
	builtinCapabilitiesOnce sync.Once
)

// BuiltinCapabilities returns the registry embedded in the binary.
// A malformed embedded file is a build defect, so it panics.
func BuiltinCapabilities() *CapabilityRegistry {
	builtinCapabilitiesOnce.Do(func() {
		reg, err := ParseCapabilities(capabilitiesYAML)
		if err != nil {
			panic(err)
		}
		builtinCapabilities = reg
	})
	return builtinCapabilities
}
