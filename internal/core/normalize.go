package core

import (
	"github.com/gosimple/slug"
)

// AsDisplayString returns v if it is a non-empty string, otherwise "".
func AsDisplayString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// AsSlug normalizes v into an install-name slug: lowercased, transliterated,
// with runs of other characters collapsed to single hyphens. Returns "" when
// v is not a non-empty string or nothing survives slugification.
func AsSlug(v any) string {
	s := AsDisplayString(v)
	if s == "" {
		return ""
	}
	return Slugify(s)
}

// Slugify applies install-name slug rules to raw user text.
func Slugify(s string) string {
	return slug.Make(s)
}

// AsAuthorName reads an author field that is either a plain string or an
// object carrying a "name" member.
func AsAuthorName(v any) string {
	if obj, ok := v.(Object); ok {
		return AsDisplayString(obj.Get("name"))
	}
	return AsDisplayString(v)
}

// AsPermissionMap normalizes a manifest "permissions" value.
//
// Each member becomes an ordered list of permission identifiers: a bare
// string is wrapped, arrays keep their non-empty string elements, anything
// else yields nothing. Members left empty are dropped. When no member
// survives the result is nil, so "nothing requested" and "only invalid
// requests" look the same to callers.
func AsPermissionMap(v any) *PermissionSet {
	obj, ok := v.(Object)
	if !ok {
		return nil
	}

	set := NewPermissionSet()
	for _, api := range obj.Keys() {
		list := asStringList(obj.Get(api))
		if len(list) == 0 {
			continue
		}
		for _, perm := range list {
			set.Add(api, perm)
		}
	}
	if set.Len() == 0 {
		return nil
	}
	return set
}

func asStringList(v any) []string {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []any:
		var out []string
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
