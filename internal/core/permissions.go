package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/tailscale/hujson"
)

// PermissionSet maps API identifiers to ordered permission identifiers.
// APIs keep the order in which they were first added, so a manifest's
// declaration order survives normalization, storage and rendering.
//
// A nil *PermissionSet means "absent". Read methods are nil-safe.
type PermissionSet struct {
	apis  []string
	perms map[string][]string
}

// NewPermissionSet returns an empty, non-nil set.
func NewPermissionSet() *PermissionSet {
	return &PermissionSet{perms: make(map[string][]string)}
}

// Len returns the number of APIs in the set, including ones with no permissions.
func (s *PermissionSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.apis)
}

// APIs returns the API identifiers in insertion order.
func (s *PermissionSet) APIs() []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.apis)
}

// Has reports whether api is a key of the set.
func (s *PermissionSet) Has(api string) bool {
	if s == nil {
		return false
	}
	_, ok := s.perms[api]
	return ok
}

// Get returns a copy of the permissions granted for api.
func (s *PermissionSet) Get(api string) []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.perms[api])
}

// Contains reports whether perm is listed under api.
func (s *PermissionSet) Contains(api, perm string) bool {
	if s == nil {
		return false
	}
	return slices.Contains(s.perms[api], perm)
}

// Set replaces the permissions listed under api, creating the key if needed.
func (s *PermissionSet) Set(api string, perms []string) {
	s.ensure(api)
	s.perms[api] = slices.Clone(perms)
}

// Add appends perm under api unless it is already present.
// The api key is created even when perm was already listed.
// Returns true if the set changed.
func (s *PermissionSet) Add(api, perm string) bool {
	s.ensure(api)
	if slices.Contains(s.perms[api], perm) {
		return false
	}
	s.perms[api] = append(s.perms[api], perm)
	return true
}

// Remove drops perm from api. The api key is kept even if its list becomes empty.
// Returns true if the set changed.
func (s *PermissionSet) Remove(api, perm string) bool {
	if s == nil {
		return false
	}
	list, ok := s.perms[api]
	if !ok || !slices.Contains(list, perm) {
		return false
	}
	s.perms[api] = slices.DeleteFunc(slices.Clone(list), func(p string) bool { return p == perm })
	return true
}

// Delete removes api and its permissions entirely.
func (s *PermissionSet) Delete(api string) {
	if s == nil {
		return
	}
	if _, ok := s.perms[api]; !ok {
		return
	}
	delete(s.perms, api)
	s.apis = slices.DeleteFunc(s.apis, func(a string) bool { return a == api })
}

// Clone returns a deep copy. Cloning nil yields nil.
func (s *PermissionSet) Clone() *PermissionSet {
	if s == nil {
		return nil
	}
	c := &PermissionSet{
		apis:  slices.Clone(s.apis),
		perms: make(map[string][]string, len(s.perms)),
	}
	for api, list := range s.perms {
		c.perms[api] = slices.Clone(list)
	}
	return c
}

// Equal reports whether both sets hold the same APIs in the same order with
// identical permission lists. A nil set equals only another nil set.
func (s *PermissionSet) Equal(o *PermissionSet) bool {
	if s == nil || o == nil {
		return s == nil && o == nil
	}
	if !slices.Equal(s.apis, o.apis) {
		return false
	}
	for _, api := range s.apis {
		if !slices.Equal(s.perms[api], o.perms[api]) {
			return false
		}
	}
	return true
}

// Map returns the set as a plain map. Order is lost.
func (s *PermissionSet) Map() map[string][]string {
	out := make(map[string][]string, s.Len())
	if s == nil {
		return out
	}
	for api, list := range s.perms {
		out[api] = slices.Clone(list)
	}
	return out
}

func (s *PermissionSet) ensure(api string) {
	if s.perms == nil {
		s.perms = make(map[string][]string)
	}
	if _, ok := s.perms[api]; !ok {
		s.apis = append(s.apis, api)
		s.perms[api] = []string{}
	}
}

// MarshalJSON encodes the set as a JSON object in API insertion order.
func (s *PermissionSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, api := range s.apis {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(api)
		if err != nil {
			return nil, err
		}
		list := s.perms[api]
		if list == nil {
			list = []string{}
		}
		v, err := json.Marshal(list)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of API -> permission list, keeping the
// member order of the source document. Non-string list elements are skipped.
func (s *PermissionSet) UnmarshalJSON(data []byte) error {
	root, err := hujson.Parse(data)
	if err != nil {
		return fmt.Errorf("parsing permissions: %w", err)
	}
	obj, ok := root.Value.(*hujson.Object)
	if !ok {
		return fmt.Errorf("parsing permissions: expected object, got %q", string(root.Value.Kind()))
	}

	*s = PermissionSet{perms: make(map[string][]string, len(obj.Members))}
	for _, m := range obj.Members {
		api := memberName(m)
		s.ensure(api)
		var list []string
		switch v := m.Value.Value.(type) {
		case *hujson.Array:
			for _, el := range v.Elements {
				if lit, ok := el.Value.(hujson.Literal); ok && lit.Kind() == '"' {
					list = append(list, lit.String())
				}
			}
		case hujson.Literal:
			if v.Kind() == '"' {
				list = append(list, v.String())
			}
		}
		if list == nil {
			list = []string{}
		}
		s.perms[api] = list
	}
	return nil
}
